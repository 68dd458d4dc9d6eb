package request

// NavigationEvent reports that a target navigated away from its captured
// page, so the cached state for it must be dropped.
type NavigationEvent struct {
	Target string `json:"target"`
	URL    string `json:"url,omitempty"`
}

// ClearCacheRequest scopes a cache clear to one target; an empty target
// clears everything.
type ClearCacheRequest struct {
	Target string `json:"target,omitempty"`
}
