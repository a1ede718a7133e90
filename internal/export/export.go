// Package export serializes timeline entries and analytics reports for
// download and sharing. Both formats are one-way: field-complete, but not
// required to round-trip.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"example.com/engagement/internal/analytics"
	"example.com/engagement/internal/domain"
)

// csvHeader lists every entry field in export order.
var csvHeader = []string{
	"id", "principal_id", "principal_name", "activity_date", "type",
	"subject", "details", "source_table", "source_id",
	"opportunity_name", "contact_name", "product_name", "status",
	"follow_up_required", "follow_up_date", "rank",
}

// EntriesCSV writes the entries as a flat delimited table.
func EntriesCSV(w io.Writer, entries []domain.ActivityEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.PrincipalID,
			e.PrincipalName,
			e.ActivityDate.UTC().Format(time.RFC3339),
			string(e.Type),
			e.Subject,
			e.Details,
			e.SourceTable,
			e.SourceID,
			e.OpportunityName,
			e.ContactName,
			e.ProductName,
			e.Status,
			strconv.FormatBool(e.FollowUpRequired),
			formatOptionalDate(e.FollowUpDate),
			strconv.Itoa(e.Rank),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportText renders the analytics report as a plain-text document with
// one section per metric family.
func ReportText(w io.Writer, report analytics.Report, generatedAt time.Time) error {
	var err error
	p := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, args...)
	}

	p("ENGAGEMENT REPORT\n")
	p("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	p("PORTFOLIO\n")
	p("  Principals:          %d\n", report.TotalPrincipals)
	p("  Active:              %d\n", report.ActivePrincipals)
	p("  With products:       %d\n", report.WithProducts)
	p("  With opportunities:  %d\n", report.WithOpportunities)
	p("  Avg engagement:      %.2f\n\n", report.AverageEngagement)

	p("ACTIVITY STATUS\n")
	for _, sc := range report.StatusDistribution {
		p("  %-12s %4d  (%.2f%%)\n", sc.Status, sc.Count, sc.Percentage)
	}
	p("\n")

	p("TOP PERFORMERS\n")
	for i, performer := range report.TopPerformers {
		p("  %d. %s (%s) score=%.1f\n", i+1, performer.PrincipalName, performer.PrincipalID, performer.EngagementScore)
	}
	p("\n")

	p("REGIONS\n")
	for _, region := range report.RegionBreakdown {
		p("  %-12s principals=%d opportunities=%d avg=%.2f\n",
			region.Region, region.Principals, region.Opportunities, region.AverageEngagement)
	}
	p("\n")

	p("MONTHLY TREND\n")
	for _, month := range report.MonthlyTrend {
		p("  %s  active=%d opportunities=%d growth=%+.1f%%  %s\n",
			month.Period, month.ActivePrincipals, month.OpportunitiesCreated, month.GrowthRate, month.Direction)
	}
	p("\n")

	p("KPIS\n")
	p("  Conversion rate:     %.2f%%\n", report.KPIs.ConversionRate)
	p("  Top status:          %s\n", report.KPIs.TopActivityStatus)
	p("  Pending follow-ups:  %d\n", report.KPIs.PendingFollowUps)
	p("  Overdue follow-ups:  %d\n", report.KPIs.OverdueFollowUps)
	p("\n")

	p("BENCHMARK\n")
	p("  Engagement:   %s\n", report.Benchmark.Engagement)
	p("  Opportunity:  %s\n", report.Benchmark.Opportunity)
	p("  Activity:     %s\n", report.Benchmark.Activity)
	p("  Score:        %.1f\n", report.Benchmark.Score)

	return err
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
