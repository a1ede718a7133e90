package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/analytics"
	"example.com/engagement/internal/domain"
)

func TestEntriesCSVIsFieldComplete(t *testing.T) {
	due := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	entries := []domain.ActivityEntry{
		{
			ID:               "e-1",
			PrincipalID:      "p-1",
			PrincipalName:    "Acme Foods",
			ActivityDate:     time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC),
			Type:             domain.TypeInteraction,
			Subject:          "QBR call",
			Details:          "Discussed renewal, pricing",
			SourceTable:      "interactions",
			SourceID:         "row-7",
			ContactName:      "Dana Lee",
			Status:           "completed",
			FollowUpRequired: true,
			FollowUpDate:     &due,
			Rank:             1,
		},
		{
			ID:           "e-2",
			PrincipalID:  "p-2",
			ActivityDate: time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC),
			Type:         domain.TypeOpportunityCreated,
			Subject:      "New opportunity",
			Rank:         2,
		},
	}

	var buf strings.Builder
	require.NoError(t, EntriesCSV(&buf, entries))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])
	require.Len(t, rows[1], len(csvHeader))

	require.Equal(t, "e-1", rows[1][0])
	require.Equal(t, "interaction", rows[1][4])
	require.Equal(t, "Discussed renewal, pricing", rows[1][6])
	require.Equal(t, "true", rows[1][13])
	require.Equal(t, "2026-03-20T00:00:00Z", rows[1][14])

	require.Equal(t, "", rows[2][14], "absent follow-up date exports empty")
}

func TestReportTextContainsSections(t *testing.T) {
	report := analytics.BuildReport(
		[]domain.PrincipalSummary{
			{PrincipalID: "p-1", PrincipalName: "Acme Foods", EngagementScore: 82, ActivityStatus: domain.StatusActive, OpportunityCount: 1, Region: "EMEA"},
		},
		[]domain.ActivityEntry{
			{PrincipalID: "p-1", ActivityDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Type: domain.TypeOpportunityCreated},
		},
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		0,
	)

	var buf strings.Builder
	require.NoError(t, ReportText(&buf, report, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)))
	text := buf.String()

	for _, section := range []string{"PORTFOLIO", "ACTIVITY STATUS", "TOP PERFORMERS", "REGIONS", "MONTHLY TREND", "KPIS", "BENCHMARK"} {
		require.Contains(t, text, section)
	}
	require.Contains(t, text, "Acme Foods")
	require.Contains(t, text, "2026-02")
}
