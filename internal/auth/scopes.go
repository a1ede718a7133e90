package auth

// Known OAuth scopes used by the dashboard backend.
const (
	ScopeEngagementRead  = "engagement:read"
	ScopeEngagementWrite = "engagement:write"
)
