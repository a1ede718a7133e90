package domain

// MetadataKind tags the shape of an entry's metadata payload.
type MetadataKind string

const (
	MetadataEmail   MetadataKind = "email"
	MetadataCall    MetadataKind = "call"
	MetadataMeeting MetadataKind = "meeting"
	MetadataImport  MetadataKind = "import"
)

// EntryMetadata is the tagged payload attached to some timeline entries.
// Only the fields matching Kind are populated; Extra carries
// forward-compatible keys the service does not yet model.
type EntryMetadata struct {
	Kind MetadataKind

	// MetadataEmail
	EmailThreadID string
	EmailSubject  string

	// MetadataCall
	CallDurationSeconds int
	CallOutcome         string

	// MetadataMeeting
	MeetingLocation  string
	MeetingAttendees int

	// MetadataImport
	ImportBatchID string

	Extra map[string]string
}
