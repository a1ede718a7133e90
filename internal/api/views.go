package api

import (
	"time"

	"example.com/engagement/internal/analytics"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/timeline"
)

// EntryView exposes full details about a timeline entry.
type EntryView struct {
	EntryID          string     `json:"entry_id"`
	PrincipalID      string     `json:"principal_id"`
	PrincipalName    string     `json:"principal_name,omitempty"`
	ActivityDate     time.Time  `json:"activity_date"`
	ActivityType     string     `json:"activity_type"`
	Subject          string     `json:"subject"`
	Details          string     `json:"details,omitempty"`
	SourceTable      string     `json:"source_table,omitempty"`
	SourceID         string     `json:"source_id,omitempty"`
	OpportunityName  string     `json:"opportunity_name,omitempty"`
	ContactName      string     `json:"contact_name,omitempty"`
	ProductName      string     `json:"product_name,omitempty"`
	Status           string     `json:"status,omitempty"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
	Rank             int        `json:"rank"`
	Metadata         *EntryMeta `json:"metadata,omitempty"`
}

// GroupView is one calendar-day bucket of the visible page.
type GroupView struct {
	Day           string      `json:"day"`
	Label         string      `json:"label"`
	Date          time.Time   `json:"date"`
	Entries       []EntryView `json:"entries"`
	Interactions  int         `json:"interactions"`
	Opportunities int         `json:"opportunities"`
	Contacts      int         `json:"contacts"`
	Products      int         `json:"products"`
}

// PaginationView describes where the visible page sits in the filtered
// population.
type PaginationView struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// TimelineResponse is the body for GET /v1/timeline.
type TimelineResponse struct {
	Entries    []EntryView    `json:"entries"`
	Groups     []GroupView    `json:"groups"`
	Pagination PaginationView `json:"pagination"`
	Stale      bool           `json:"stale,omitempty"`
	FetchError string         `json:"fetch_error,omitempty"`
}

// StatusCountView is one bucket of the status distribution.
type StatusCountView struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PerformerView is one leaderboard row.
type PerformerView struct {
	PrincipalID     string  `json:"principal_id"`
	PrincipalName   string  `json:"principal_name"`
	EngagementScore float64 `json:"engagement_score"`
	ActivityStatus  string  `json:"activity_status"`
}

// RegionStatView aggregates principals per region.
type RegionStatView struct {
	Region            string  `json:"region"`
	Principals        int     `json:"principals"`
	Opportunities     int     `json:"opportunities"`
	Products          int     `json:"products"`
	AverageEngagement float64 `json:"average_engagement"`
}

// CategoryStatView aggregates principals per product category.
type CategoryStatView struct {
	Category          string  `json:"category"`
	Principals        int     `json:"principals"`
	Opportunities     int     `json:"opportunities"`
	AverageEngagement float64 `json:"average_engagement"`
}

// MonthlyTrendView is one month of the trend series.
type MonthlyTrendView struct {
	Period               string  `json:"period"`
	ActivePrincipals     int     `json:"active_principals"`
	OpportunitiesCreated int     `json:"opportunities_created"`
	GrowthRate           float64 `json:"growth_rate"`
	Direction            string  `json:"direction"`
}

// KPIView carries the headline numbers.
type KPIView struct {
	ConversionRate    float64 `json:"conversion_rate"`
	TopActivityStatus string  `json:"top_activity_status"`
	PendingFollowUps  int     `json:"pending_follow_ups"`
	OverdueFollowUps  int     `json:"overdue_follow_ups"`
}

// BenchmarkView compares the portfolio against reference rates.
type BenchmarkView struct {
	Engagement  string  `json:"engagement"`
	Opportunity string  `json:"opportunity"`
	Activity    string  `json:"activity"`
	Score       float64 `json:"score"`
}

// ReportView is the body for GET /v1/analytics.
type ReportView struct {
	TotalPrincipals    int                `json:"total_principals"`
	ActivePrincipals   int                `json:"active_principals"`
	WithProducts       int                `json:"with_products"`
	WithOpportunities  int                `json:"with_opportunities"`
	AverageEngagement  float64            `json:"average_engagement"`
	StatusDistribution []StatusCountView  `json:"status_distribution"`
	TopPerformers      []PerformerView    `json:"top_performers"`
	RegionBreakdown    []RegionStatView   `json:"region_breakdown"`
	CategoryBreakdown  []CategoryStatView `json:"category_breakdown"`
	MonthlyTrend       []MonthlyTrendView `json:"monthly_trend"`
	KPIs               KPIView            `json:"kpis"`
	Benchmark          BenchmarkView      `json:"benchmark"`
}

func toEntryView(e domain.ActivityEntry) EntryView {
	view := EntryView{
		EntryID:          e.ID,
		PrincipalID:      e.PrincipalID,
		PrincipalName:    e.PrincipalName,
		ActivityDate:     e.ActivityDate,
		ActivityType:     string(e.Type),
		Subject:          e.Subject,
		Details:          e.Details,
		SourceTable:      e.SourceTable,
		SourceID:         e.SourceID,
		OpportunityName:  e.OpportunityName,
		ContactName:      e.ContactName,
		ProductName:      e.ProductName,
		Status:           e.Status,
		FollowUpRequired: e.FollowUpRequired,
		FollowUpDate:     e.FollowUpDate,
		Rank:             e.Rank,
	}
	if e.Metadata != nil {
		view.Metadata = &EntryMeta{
			Kind:                string(e.Metadata.Kind),
			EmailThreadID:       e.Metadata.EmailThreadID,
			EmailSubject:        e.Metadata.EmailSubject,
			CallDurationSeconds: e.Metadata.CallDurationSeconds,
			CallOutcome:         e.Metadata.CallOutcome,
			MeetingLocation:     e.Metadata.MeetingLocation,
			MeetingAttendees:    e.Metadata.MeetingAttendees,
			ImportBatchID:       e.Metadata.ImportBatchID,
			Extra:               e.Metadata.Extra,
		}
	}
	return view
}

func toTimelineResponse(view timeline.View) TimelineResponse {
	resp := TimelineResponse{
		Entries: make([]EntryView, 0, len(view.Entries)),
		Groups:  make([]GroupView, 0, len(view.Groups)),
		Pagination: PaginationView{
			Page:        view.Pagination.Page,
			PageSize:    view.Pagination.PageSize,
			Total:       view.Pagination.Total,
			TotalPages:  view.Pagination.TotalPages,
			HasNext:     view.Pagination.HasNext,
			HasPrevious: view.Pagination.HasPrevious,
		},
	}
	for _, e := range view.Entries {
		resp.Entries = append(resp.Entries, toEntryView(e))
	}
	for _, g := range view.Groups {
		group := GroupView{
			Day:           g.Day,
			Label:         g.Label,
			Date:          g.Date,
			Entries:       make([]EntryView, 0, len(g.Entries)),
			Interactions:  g.Interactions,
			Opportunities: g.Opportunities,
			Contacts:      g.Contacts,
			Products:      g.Products,
		}
		for _, e := range g.Entries {
			group.Entries = append(group.Entries, toEntryView(e))
		}
		resp.Groups = append(resp.Groups, group)
	}
	return resp
}

func toReportView(report analytics.Report) ReportView {
	view := ReportView{
		TotalPrincipals:    report.TotalPrincipals,
		ActivePrincipals:   report.ActivePrincipals,
		WithProducts:       report.WithProducts,
		WithOpportunities:  report.WithOpportunities,
		AverageEngagement:  report.AverageEngagement,
		StatusDistribution: make([]StatusCountView, 0, len(report.StatusDistribution)),
		TopPerformers:      make([]PerformerView, 0, len(report.TopPerformers)),
		RegionBreakdown:    make([]RegionStatView, 0, len(report.RegionBreakdown)),
		CategoryBreakdown:  make([]CategoryStatView, 0, len(report.CategoryBreakdown)),
		MonthlyTrend:       make([]MonthlyTrendView, 0, len(report.MonthlyTrend)),
		KPIs: KPIView{
			ConversionRate:    report.KPIs.ConversionRate,
			TopActivityStatus: string(report.KPIs.TopActivityStatus),
			PendingFollowUps:  report.KPIs.PendingFollowUps,
			OverdueFollowUps:  report.KPIs.OverdueFollowUps,
		},
		Benchmark: BenchmarkView{
			Engagement:  string(report.Benchmark.Engagement),
			Opportunity: string(report.Benchmark.Opportunity),
			Activity:    string(report.Benchmark.Activity),
			Score:       report.Benchmark.Score,
		},
	}
	for _, s := range report.StatusDistribution {
		view.StatusDistribution = append(view.StatusDistribution, StatusCountView{
			Status:     string(s.Status),
			Count:      s.Count,
			Percentage: s.Percentage,
		})
	}
	for _, p := range report.TopPerformers {
		view.TopPerformers = append(view.TopPerformers, PerformerView{
			PrincipalID:     p.PrincipalID,
			PrincipalName:   p.PrincipalName,
			EngagementScore: p.EngagementScore,
			ActivityStatus:  string(p.ActivityStatus),
		})
	}
	for _, r := range report.RegionBreakdown {
		view.RegionBreakdown = append(view.RegionBreakdown, RegionStatView{
			Region:            r.Region,
			Principals:        r.Principals,
			Opportunities:     r.Opportunities,
			Products:          r.Products,
			AverageEngagement: r.AverageEngagement,
		})
	}
	for _, c := range report.CategoryBreakdown {
		view.CategoryBreakdown = append(view.CategoryBreakdown, CategoryStatView{
			Category:          c.Category,
			Principals:        c.Principals,
			Opportunities:     c.Opportunities,
			AverageEngagement: c.AverageEngagement,
		})
	}
	for _, m := range report.MonthlyTrend {
		view.MonthlyTrend = append(view.MonthlyTrend, MonthlyTrendView{
			Period:               m.Period,
			ActivePrincipals:     m.ActivePrincipals,
			OpportunitiesCreated: m.OpportunitiesCreated,
			GrowthRate:           m.GrowthRate,
			Direction:            string(m.Direction),
		})
	}
	return view
}
