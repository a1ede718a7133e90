package domain

import "errors"

var (
	// ErrEntryNotFound is returned when a timeline entry cannot be located.
	ErrEntryNotFound = errors.New("timeline entry not found")
	// ErrNoFollowUp indicates a follow-up operation on an entry that has none.
	ErrNoFollowUp = errors.New("entry has no follow-up to complete")
)
