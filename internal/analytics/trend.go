package analytics

import (
	"sort"

	"example.com/engagement/internal/domain"
)

// TrendDirection classifies a period against the one before it.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

// trendBand is the relative threshold separating stable from a real move.
const trendBand = 0.05

// MonthlyTrend is one calendar month of genuine historical aggregation
// over timeline entries.
type MonthlyTrend struct {
	Period               string // YYYY-MM
	ActivePrincipals     int
	OpportunitiesCreated int
	GrowthRate           float64 // percent vs the prior month
	Direction            TrendDirection
}

// MonthlyTrendOf buckets entries by calendar month (ascending) and
// classifies each month by comparing active principals plus opportunities
// created against the prior month within a ±5% band. The first month has
// no baseline and reads as stable.
func MonthlyTrendOf(entries []domain.ActivityEntry) []MonthlyTrend {
	type bucket struct {
		principals    map[string]struct{}
		opportunities int
	}
	buckets := make(map[string]*bucket)
	for _, e := range entries {
		period := e.ActivityDate.Format("2006-01")
		b, ok := buckets[period]
		if !ok {
			b = &bucket{principals: make(map[string]struct{})}
			buckets[period] = b
		}
		b.principals[e.PrincipalID] = struct{}{}
		if e.Type == domain.TypeOpportunityCreated {
			b.opportunities++
		}
	}

	periods := make([]string, 0, len(buckets))
	for period := range buckets {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	out := make([]MonthlyTrend, 0, len(periods))
	for i, period := range periods {
		b := buckets[period]
		trend := MonthlyTrend{
			Period:               period,
			ActivePrincipals:     len(b.principals),
			OpportunitiesCreated: b.opportunities,
			Direction:            TrendStable,
		}
		if i > 0 {
			trend.GrowthRate = GrowthRate(signal(trend), signal(out[i-1]))
			trend.Direction = classify(signal(trend), signal(out[i-1]))
		}
		out = append(out, trend)
	}
	return out
}

func signal(t MonthlyTrend) float64 {
	return float64(t.ActivePrincipals + t.OpportunitiesCreated)
}

func classify(current, previous float64) TrendDirection {
	if previous == 0 {
		if current > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	delta := (current - previous) / previous
	switch {
	case delta > trendBand:
		return TrendIncreasing
	case delta < -trendBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
