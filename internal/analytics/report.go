// Package analytics computes aggregate engagement metrics from principal
// summaries and timeline entries: distributions, top performers,
// geographic and category breakdowns, monthly trend, and KPI rollups.
package analytics

import (
	"math"
	"sort"
	"time"

	"example.com/engagement/internal/domain"
)

// DefaultTopN bounds the top-performer list when the caller does not pick.
const DefaultTopN = 5

// StatusCount is one bucket of the activity-status distribution.
type StatusCount struct {
	Status     domain.ActivityStatus
	Count      int
	Percentage float64
}

// Performer is one row of the top-performer leaderboard.
type Performer struct {
	PrincipalID     string
	PrincipalName   string
	EngagementScore float64
	ActivityStatus  domain.ActivityStatus
}

// RegionStat aggregates principals sharing a geographic region.
type RegionStat struct {
	Region            string
	Principals        int
	Opportunities     int
	Products          int
	AverageEngagement float64
}

// CategoryStat aggregates principals associated with a product category.
type CategoryStat struct {
	Category          string
	Principals        int
	Opportunities     int
	AverageEngagement float64
}

// KPISummary collects the dashboard's headline numbers.
type KPISummary struct {
	ConversionRate    float64
	TopActivityStatus domain.ActivityStatus
	PendingFollowUps  int
	OverdueFollowUps  int
}

// Report is the full aggregate view over one summary snapshot.
type Report struct {
	TotalPrincipals    int
	ActivePrincipals   int
	WithProducts       int
	WithOpportunities  int
	AverageEngagement  float64
	StatusDistribution []StatusCount
	TopPerformers      []Performer
	RegionBreakdown    []RegionStat
	CategoryBreakdown  []CategoryStat
	MonthlyTrend       []MonthlyTrend
	KPIs               KPISummary
	Benchmark          BenchmarkResult
}

// BuildReport aggregates the snapshot. Timeline entries feed the monthly
// trend and the follow-up KPIs; everything else derives from the
// summaries. Malformed data never fails the report; missing optional
// fields contribute neutral values.
func BuildReport(summaries []domain.PrincipalSummary, entries []domain.ActivityEntry, now time.Time, topN int) Report {
	if topN <= 0 {
		topN = DefaultTopN
	}

	report := Report{
		TotalPrincipals:    len(summaries),
		StatusDistribution: statusDistribution(summaries),
		TopPerformers:      topPerformers(summaries, topN),
		RegionBreakdown:    regionBreakdown(summaries),
		CategoryBreakdown:  categoryBreakdown(summaries),
		MonthlyTrend:       MonthlyTrendOf(entries),
		Benchmark:          Benchmark(summaries),
	}

	var scoreSum float64
	for _, s := range summaries {
		scoreSum += s.EngagementScore
		if s.ActivityStatus == domain.StatusActive {
			report.ActivePrincipals++
		}
		if s.ProductCount > 0 {
			report.WithProducts++
		}
		if s.OpportunityCount > 0 {
			report.WithOpportunities++
		}
	}
	if len(summaries) > 0 {
		report.AverageEngagement = round2(scoreSum / float64(len(summaries)))
	}

	report.KPIs = kpiSummary(report, summaries, entries, now)
	return report
}

func statusDistribution(summaries []domain.PrincipalSummary) []StatusCount {
	counts := make(map[domain.ActivityStatus]int, len(domain.KnownActivityStatuses))
	for _, s := range summaries {
		counts[s.ActivityStatus]++
	}

	total := len(summaries)
	out := make([]StatusCount, 0, len(domain.KnownActivityStatuses))
	for _, status := range domain.KnownActivityStatuses {
		sc := StatusCount{Status: status, Count: counts[status]}
		if total > 0 {
			sc.Percentage = round2(float64(sc.Count) / float64(total) * 100)
		}
		out = append(out, sc)
	}
	return out
}

// topPerformers sorts descending by engagement score; equal scores fall
// back to ascending principal id so the leaderboard is deterministic.
func topPerformers(summaries []domain.PrincipalSummary, n int) []Performer {
	ranked := make([]domain.PrincipalSummary, len(summaries))
	copy(ranked, summaries)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].EngagementScore != ranked[j].EngagementScore {
			return ranked[i].EngagementScore > ranked[j].EngagementScore
		}
		return ranked[i].PrincipalID < ranked[j].PrincipalID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]Performer, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, Performer{
			PrincipalID:     s.PrincipalID,
			PrincipalName:   s.PrincipalName,
			EngagementScore: s.EngagementScore,
			ActivityStatus:  s.ActivityStatus,
		})
	}
	return out
}

func regionBreakdown(summaries []domain.PrincipalSummary) []RegionStat {
	type acc struct {
		stat     RegionStat
		scoreSum float64
	}
	groups := make(map[string]*acc)
	for _, s := range summaries {
		region := s.Region
		if region == "" {
			region = "unknown"
		}
		g, ok := groups[region]
		if !ok {
			g = &acc{stat: RegionStat{Region: region}}
			groups[region] = g
		}
		g.stat.Principals++
		g.stat.Opportunities += s.OpportunityCount
		g.stat.Products += s.ProductCount
		g.scoreSum += s.EngagementScore
	}

	out := make([]RegionStat, 0, len(groups))
	for _, g := range groups {
		g.stat.AverageEngagement = round2(g.scoreSum / float64(g.stat.Principals))
		out = append(out, g.stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func categoryBreakdown(summaries []domain.PrincipalSummary) []CategoryStat {
	type acc struct {
		stat     CategoryStat
		scoreSum float64
	}
	groups := make(map[string]*acc)
	for _, s := range summaries {
		for _, category := range s.ProductCategories {
			g, ok := groups[category]
			if !ok {
				g = &acc{stat: CategoryStat{Category: category}}
				groups[category] = g
			}
			g.stat.Principals++
			g.stat.Opportunities += s.OpportunityCount
			g.scoreSum += s.EngagementScore
		}
	}

	out := make([]CategoryStat, 0, len(groups))
	for _, g := range groups {
		g.stat.AverageEngagement = round2(g.scoreSum / float64(g.stat.Principals))
		out = append(out, g.stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func kpiSummary(report Report, summaries []domain.PrincipalSummary, entries []domain.ActivityEntry, now time.Time) KPISummary {
	kpis := KPISummary{TopActivityStatus: domain.StatusNoActivity}
	if report.TotalPrincipals > 0 {
		kpis.ConversionRate = round2(float64(report.WithOpportunities) / float64(report.TotalPrincipals) * 100)
	}

	// Highest count wins; equal counts resolve in bucket declaration order.
	best := -1
	for _, sc := range report.StatusDistribution {
		if sc.Count > best {
			best = sc.Count
			kpis.TopActivityStatus = sc.Status
		}
	}

	for _, e := range entries {
		switch {
		case e.Overdue(now):
			kpis.OverdueFollowUps++
		case e.FollowUpRequired:
			kpis.PendingFollowUps++
		}
	}
	return kpis
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
