package auth

// Scopes understood by the tracker API.
const (
	ScopeActivitiesRead = "activities:read"
	ScopeActivitiesSync = "activities:sync"
)
