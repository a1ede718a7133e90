package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/domain"
)

func TestGrowthRate(t *testing.T) {
	require.Equal(t, float64(0), GrowthRate(0, 0))
	require.Equal(t, float64(100), GrowthRate(10, 0))
	require.Equal(t, float64(50), GrowthRate(150, 100))
	require.Equal(t, float64(-25), GrowthRate(75, 100))
}

func TestBenchmarkAllAbove(t *testing.T) {
	summaries := []domain.PrincipalSummary{
		{PrincipalID: "p-1", EngagementScore: 90, OpportunityCount: 2, ActivityStatus: domain.StatusActive},
		{PrincipalID: "p-2", EngagementScore: 85, OpportunityCount: 1, ActivityStatus: domain.StatusActive},
	}

	result := Benchmark(summaries)
	require.Equal(t, LevelAbove, result.Engagement)
	require.Equal(t, LevelAbove, result.Opportunity)
	require.Equal(t, LevelAbove, result.Activity)
	require.Equal(t, float64(100), result.Score)
}

func TestBenchmarkAllBelowOnEmptySnapshot(t *testing.T) {
	result := Benchmark(nil)
	require.Equal(t, LevelBelow, result.Engagement)
	require.Equal(t, LevelBelow, result.Opportunity)
	require.Equal(t, LevelBelow, result.Activity)
	require.Equal(t, float64(0), result.Score)
}

func TestBenchmarkAtReference(t *testing.T) {
	// Average engagement 60 sits inside the ±5% band around the 60 target.
	summaries := []domain.PrincipalSummary{
		{PrincipalID: "p-1", EngagementScore: 60, ActivityStatus: domain.StatusStale},
		{PrincipalID: "p-2", EngagementScore: 60, ActivityStatus: domain.StatusStale},
	}

	result := Benchmark(summaries)
	require.Equal(t, LevelAt, result.Engagement)
	require.Equal(t, LevelBelow, result.Opportunity)
	require.Equal(t, LevelBelow, result.Activity)
	require.InDelta(t, 16.67, result.Score, 0.01)
}

func TestBenchmarkScoreMixesLevels(t *testing.T) {
	// Opportunity rate 50% is above the 30% target, activity rate 50% is
	// at the 50% target, engagement 40 is below 60.
	summaries := []domain.PrincipalSummary{
		{PrincipalID: "p-1", EngagementScore: 40, OpportunityCount: 1, ActivityStatus: domain.StatusActive},
		{PrincipalID: "p-2", EngagementScore: 40, ActivityStatus: domain.StatusModerate},
	}

	result := Benchmark(summaries)
	require.Equal(t, LevelBelow, result.Engagement)
	require.Equal(t, LevelAbove, result.Opportunity)
	require.Equal(t, LevelAt, result.Activity)
	require.Equal(t, float64(50), result.Score)
}
