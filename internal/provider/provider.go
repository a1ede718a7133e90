// Package provider defines the boundary to the hosted data platform that
// owns activity records and principal rollups. The engine treats it as
// opaque: it fetches snapshots and proposes mutations, nothing more.
package provider

import (
	"context"
	"time"

	"example.com/engagement/internal/domain"
)

// Reader fetches raw records. An empty principal-id set means "all
// principals". Entries come back ranked: unique, monotonically increasing
// within the returned batch.
type Reader interface {
	FetchSnapshot(ctx context.Context, principalIDs []string) (domain.Snapshot, error)
}

// EntryInput is the payload for creating or updating a timeline entry.
type EntryInput struct {
	PrincipalID     string
	PrincipalName   string
	ActivityDate    time.Time
	Type            domain.ActivityType
	Subject         string
	Details         string
	SourceTable     string
	SourceID        string
	OpportunityName string
	ContactName     string
	ProductName     string
	Status          string
	Metadata        *domain.EntryMetadata
}

// Mutator applies durable changes through the platform's mutation API.
// Every method either succeeds fully or leaves the platform unchanged.
type Mutator interface {
	AddEntry(ctx context.Context, input EntryInput) (domain.ActivityEntry, error)
	UpdateEntry(ctx context.Context, id string, input EntryInput) (domain.ActivityEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	MarkForFollowUp(ctx context.Context, id string, due time.Time) (domain.ActivityEntry, error)
	CompleteFollowUp(ctx context.Context, id string) (domain.ActivityEntry, error)
}

// Provider is the full collaborator surface the engine depends on.
type Provider interface {
	Reader
	Mutator
}
