// Package domain defines the core records handled by the engagement engine.
package domain

import "time"

// ActivityType tags a timeline entry with the kind of activity it records.
type ActivityType string

const (
	TypeContactUpdate      ActivityType = "contact-update"
	TypeInteraction        ActivityType = "interaction"
	TypeOpportunityCreated ActivityType = "opportunity-created"
	TypeProductAssociation ActivityType = "product-association"
)

// KnownActivityTypes lists every valid activity type tag.
var KnownActivityTypes = []ActivityType{
	TypeContactUpdate,
	TypeInteraction,
	TypeOpportunityCreated,
	TypeProductAssociation,
}

// ValidActivityType reports whether t is one of the known tags.
func ValidActivityType(t ActivityType) bool {
	for _, known := range KnownActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActivityEntry is one dated activity record associated with a principal.
// FollowUpDate is set if and only if FollowUpRequired is true. Rank is
// unique and monotonically increasing within one retrieval batch and is
// the deterministic tie-breaker for every sort.
type ActivityEntry struct {
	ID               string
	PrincipalID      string
	PrincipalName    string
	ActivityDate     time.Time
	Type             ActivityType
	Subject          string
	Details          string
	SourceTable      string
	SourceID         string
	OpportunityName  string
	ContactName      string
	ProductName      string
	Status           string
	FollowUpRequired bool
	FollowUpDate     *time.Time
	Rank             int
	Metadata         *EntryMetadata
}

// Overdue reports whether the entry has an uncompleted follow-up whose due
// date is strictly before now.
func (e ActivityEntry) Overdue(now time.Time) bool {
	return e.FollowUpRequired && e.FollowUpDate != nil && e.FollowUpDate.Before(now)
}
