// Package events defines the change-feed payloads the data platform
// publishes when engagement records move underneath the engine.
package events

import "time"

// Event type values carried in the change-feed record headers.
const (
	TypeEntryUpserted    = "engagement.entry.upserted"
	TypeEntryDeleted     = "engagement.entry.deleted"
	TypeSummaryRefreshed = "engagement.summary.refreshed"
)

// EntryUpserted signals that a timeline entry was created or rewritten
// at the source.
type EntryUpserted struct {
	EntryID      string    `json:"entry_id"`
	PrincipalID  string    `json:"principal_id"`
	ActivityType string    `json:"activity_type"`
	ActivityDate time.Time `json:"activity_date"`
	SourceTable  string    `json:"source_table"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EntryDeleted signals that a timeline entry was removed at the source.
type EntryDeleted struct {
	EntryID     string    `json:"entry_id"`
	PrincipalID string    `json:"principal_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SummaryRefreshed signals that a principal's rollup was recomputed.
type SummaryRefreshed struct {
	PrincipalID string    `json:"principal_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
