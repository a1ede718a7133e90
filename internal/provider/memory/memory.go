// Package memory implements the provider interfaces in memory for tests
// and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/provider"
)

// Provider stores entries and summaries in memory.
type Provider struct {
	mu        sync.RWMutex
	entries   map[string]domain.ActivityEntry
	summaries map[string]domain.PrincipalSummary
}

// New constructs an empty Provider.
func New() *Provider {
	return &Provider{
		entries:   make(map[string]domain.ActivityEntry),
		summaries: make(map[string]domain.PrincipalSummary),
	}
}

// SeedEntries loads entries, assigning IDs where missing.
func (p *Provider) SeedEntries(entries ...domain.ActivityEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			e.ID = uuid.NewString()
		}
		p.entries[e.ID] = e
	}
}

// SeedSummaries loads principal rollups.
func (p *Provider) SeedSummaries(summaries ...domain.PrincipalSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range summaries {
		p.summaries[s.PrincipalID] = s
	}
}

// FetchSnapshot returns the matching entries newest-first with batch
// ranks reassigned 1..n, plus the matching summaries.
func (p *Provider) FetchSnapshot(ctx context.Context, principalIDs []string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var scope map[string]struct{}
	if len(principalIDs) > 0 {
		scope = make(map[string]struct{}, len(principalIDs))
		for _, id := range principalIDs {
			scope[id] = struct{}{}
		}
	}

	snapshot := domain.Snapshot{}
	for _, e := range p.entries {
		if scope != nil {
			if _, ok := scope[e.PrincipalID]; !ok {
				continue
			}
		}
		snapshot.Entries = append(snapshot.Entries, e)
	}
	sort.Slice(snapshot.Entries, func(i, j int) bool {
		a, b := snapshot.Entries[i], snapshot.Entries[j]
		if !a.ActivityDate.Equal(b.ActivityDate) {
			return a.ActivityDate.After(b.ActivityDate)
		}
		return a.ID < b.ID
	})
	for i := range snapshot.Entries {
		snapshot.Entries[i].Rank = i + 1
	}

	for _, s := range p.summaries {
		if scope != nil {
			if _, ok := scope[s.PrincipalID]; !ok {
				continue
			}
		}
		snapshot.Summaries = append(snapshot.Summaries, s)
	}
	sort.Slice(snapshot.Summaries, func(i, j int) bool {
		return snapshot.Summaries[i].PrincipalID < snapshot.Summaries[j].PrincipalID
	})

	return snapshot, nil
}

// AddEntry stores a new entry and returns it.
func (p *Provider) AddEntry(ctx context.Context, input provider.EntryInput) (domain.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivityEntry{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry := entryFromInput(uuid.NewString(), input)
	p.entries[entry.ID] = entry
	return entry, nil
}

// UpdateEntry replaces the stored entry's fields, keeping its identity
// and follow-up state.
func (p *Provider) UpdateEntry(ctx context.Context, id string, input provider.EntryInput) (domain.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivityEntry{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.entries[id]
	if !ok {
		return domain.ActivityEntry{}, domain.ErrEntryNotFound
	}
	entry := entryFromInput(id, input)
	entry.FollowUpRequired = existing.FollowUpRequired
	entry.FollowUpDate = existing.FollowUpDate
	p.entries[id] = entry
	return entry, nil
}

// DeleteEntry removes the entry.
func (p *Provider) DeleteEntry(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(p.entries, id)
	return nil
}

// MarkForFollowUp flags the entry with a due date.
func (p *Provider) MarkForFollowUp(ctx context.Context, id string, due time.Time) (domain.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivityEntry{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return domain.ActivityEntry{}, domain.ErrEntryNotFound
	}
	due = due.UTC()
	entry.FollowUpRequired = true
	entry.FollowUpDate = &due
	p.entries[id] = entry
	return entry, nil
}

// CompleteFollowUp clears the entry's follow-up flag and date together.
func (p *Provider) CompleteFollowUp(ctx context.Context, id string) (domain.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivityEntry{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return domain.ActivityEntry{}, domain.ErrEntryNotFound
	}
	if !entry.FollowUpRequired {
		return domain.ActivityEntry{}, domain.ErrNoFollowUp
	}
	entry.FollowUpRequired = false
	entry.FollowUpDate = nil
	p.entries[id] = entry
	return entry, nil
}

func entryFromInput(id string, input provider.EntryInput) domain.ActivityEntry {
	return domain.ActivityEntry{
		ID:              id,
		PrincipalID:     input.PrincipalID,
		PrincipalName:   input.PrincipalName,
		ActivityDate:    input.ActivityDate.UTC(),
		Type:            input.Type,
		Subject:         input.Subject,
		Details:         input.Details,
		SourceTable:     input.SourceTable,
		SourceID:        input.SourceID,
		OpportunityName: input.OpportunityName,
		ContactName:     input.ContactName,
		ProductName:     input.ProductName,
		Status:          input.Status,
		Metadata:        input.Metadata,
	}
}
