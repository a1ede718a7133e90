package domain

import "time"

// ActivityStatus is the coarse engagement bucket assigned by the data
// platform. It is authoritative input: the engine never re-derives it.
type ActivityStatus string

const (
	StatusNoActivity ActivityStatus = "NO_ACTIVITY"
	StatusStale      ActivityStatus = "STALE"
	StatusModerate   ActivityStatus = "MODERATE"
	StatusActive     ActivityStatus = "ACTIVE"
)

// KnownActivityStatuses lists every status bucket in display order.
var KnownActivityStatuses = []ActivityStatus{
	StatusNoActivity,
	StatusStale,
	StatusModerate,
	StatusActive,
}

// PrincipalSummary is the per-principal rollup supplied by the data
// platform. EngagementScore lives in [0,100].
type PrincipalSummary struct {
	PrincipalID         string
	PrincipalName       string
	ProductCount        int
	OpportunityCount    int
	ContactCount        int
	EngagementScore     float64
	ActivityStatus      ActivityStatus
	Region              string
	ProductCategories   []string
	LastActivityDate    *time.Time
	InteractionsLast30  int
	OpportunitiesLast30 int
}

// Snapshot bundles the raw records one fetch returns from the data
// platform. It is the unit the cache stores and the pipeline consumes.
type Snapshot struct {
	Entries   []ActivityEntry
	Summaries []PrincipalSummary
}
