package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/provider"
)

func TestFetchSnapshotRanksNewestFirst(t *testing.T) {
	p := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.SeedEntries(
		domain.ActivityEntry{ID: "old", PrincipalID: "p-1", ActivityDate: base},
		domain.ActivityEntry{ID: "new", PrincipalID: "p-1", ActivityDate: base.Add(48 * time.Hour)},
		domain.ActivityEntry{ID: "mid", PrincipalID: "p-2", ActivityDate: base.Add(24 * time.Hour)},
	)

	snap, err := p.FetchSnapshot(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)
	require.Equal(t, "new", snap.Entries[0].ID)
	require.Equal(t, []int{1, 2, 3}, []int{snap.Entries[0].Rank, snap.Entries[1].Rank, snap.Entries[2].Rank})
}

func TestFetchSnapshotScopesByPrincipal(t *testing.T) {
	p := New()
	p.SeedEntries(
		domain.ActivityEntry{ID: "a", PrincipalID: "p-1", ActivityDate: time.Now()},
		domain.ActivityEntry{ID: "b", PrincipalID: "p-2", ActivityDate: time.Now()},
	)
	p.SeedSummaries(
		domain.PrincipalSummary{PrincipalID: "p-1"},
		domain.PrincipalSummary{PrincipalID: "p-2"},
	)

	snap, err := p.FetchSnapshot(context.Background(), []string{"p-2"})
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)
	require.Equal(t, "b", snap.Entries[0].ID)
	require.Len(t, snap.Summaries, 1)
	require.Equal(t, "p-2", snap.Summaries[0].PrincipalID)
}

func TestFollowUpLifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()

	created, err := p.AddEntry(ctx, provider.EntryInput{
		PrincipalID:  "p-1",
		ActivityDate: time.Now(),
		Type:         domain.TypeInteraction,
		Subject:      "call",
	})
	require.NoError(t, err)
	require.False(t, created.FollowUpRequired)

	due := time.Now().Add(72 * time.Hour)
	marked, err := p.MarkForFollowUp(ctx, created.ID, due)
	require.NoError(t, err)
	require.True(t, marked.FollowUpRequired)
	require.NotNil(t, marked.FollowUpDate)

	completed, err := p.CompleteFollowUp(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, completed.FollowUpRequired)
	require.Nil(t, completed.FollowUpDate, "date clears with the flag")

	_, err = p.CompleteFollowUp(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNoFollowUp)
}

func TestMutationsOnMissingEntry(t *testing.T) {
	ctx := context.Background()
	p := New()

	_, err := p.UpdateEntry(ctx, "nope", provider.EntryInput{})
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
	require.ErrorIs(t, p.DeleteEntry(ctx, "nope"), domain.ErrEntryNotFound)
}

func TestUpdatePreservesFollowUpState(t *testing.T) {
	ctx := context.Background()
	p := New()

	created, err := p.AddEntry(ctx, provider.EntryInput{PrincipalID: "p-1", Type: domain.TypeInteraction, ActivityDate: time.Now()})
	require.NoError(t, err)
	_, err = p.MarkForFollowUp(ctx, created.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	updated, err := p.UpdateEntry(ctx, created.ID, provider.EntryInput{
		PrincipalID:  "p-1",
		Type:         domain.TypeInteraction,
		ActivityDate: time.Now(),
		Subject:      "edited",
	})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Subject)
	require.True(t, updated.FollowUpRequired)
}
