package analytics

import "example.com/engagement/internal/domain"

// BenchmarkLevel classifies a rate against its reference threshold.
type BenchmarkLevel string

const (
	LevelAbove BenchmarkLevel = "above"
	LevelAt    BenchmarkLevel = "at"
	LevelBelow BenchmarkLevel = "below"
)

// Reference thresholds the portfolio is measured against: target average
// engagement score, share of principals with open opportunities, and
// share of principals in the ACTIVE bucket.
const (
	refEngagementScore = 60.0
	refOpportunityRate = 30.0
	refActivityRate    = 50.0
	benchmarkTolerance = 0.05
)

// BenchmarkResult classifies the three portfolio axes and condenses them
// into a 0-100 score (above=2, at=1, below=0, averaged and scaled).
type BenchmarkResult struct {
	Engagement  BenchmarkLevel
	Opportunity BenchmarkLevel
	Activity    BenchmarkLevel
	Score       float64
}

// GrowthRate returns the period-over-period change in percent. Both zero
// reads as 0; growth from zero to anything positive reads as 100.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round2((current - previous) / previous * 100)
}

// Benchmark scores a summary snapshot against the reference thresholds.
func Benchmark(summaries []domain.PrincipalSummary) BenchmarkResult {
	var scoreSum float64
	var withOpportunities, active int
	for _, s := range summaries {
		scoreSum += s.EngagementScore
		if s.OpportunityCount > 0 {
			withOpportunities++
		}
		if s.ActivityStatus == domain.StatusActive {
			active++
		}
	}

	var avgEngagement, opportunityRate, activityRate float64
	if len(summaries) > 0 {
		total := float64(len(summaries))
		avgEngagement = scoreSum / total
		opportunityRate = float64(withOpportunities) / total * 100
		activityRate = float64(active) / total * 100
	}

	result := BenchmarkResult{
		Engagement:  classifyAgainst(avgEngagement, refEngagementScore),
		Opportunity: classifyAgainst(opportunityRate, refOpportunityRate),
		Activity:    classifyAgainst(activityRate, refActivityRate),
	}
	result.Score = round2(float64(levelPoints(result.Engagement)+levelPoints(result.Opportunity)+levelPoints(result.Activity)) / 6 * 100)
	return result
}

// classifyAgainst puts the value above, at, or below the reference using a
// ±5% band around the threshold.
func classifyAgainst(value, reference float64) BenchmarkLevel {
	band := reference * benchmarkTolerance
	switch {
	case value > reference+band:
		return LevelAbove
	case value < reference-band:
		return LevelBelow
	default:
		return LevelAt
	}
}

func levelPoints(level BenchmarkLevel) int {
	switch level {
	case LevelAbove:
		return 2
	case LevelAt:
		return 1
	default:
		return 0
	}
}
