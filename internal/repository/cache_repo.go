package repository

import (
	"context"
	"errors"

	"github.com/user/domcapture-service/internal/entity"
)

// ErrCacheMiss: no fresh entry exists for the target.
var ErrCacheMiss = errors.New("capture cache miss")

// CaptureCacheRepository retains SerializedDOMStates across capture calls,
// keyed by target. Entries expire on TTL, are evicted least-recently-used,
// and are invalidated on navigation. Implementations must serialize writes
// per key and allow concurrent reads.
type CaptureCacheRepository interface {
	// Get returns the cached state for a target, or ErrCacheMiss.
	Get(ctx context.Context, target string) (*entity.SerializedDOMState, error)
	// Put stores a fresh capture for a target.
	Put(ctx context.Context, target string, state *entity.SerializedDOMState) error
	// Invalidate drops the entry for one target, e.g. after navigation.
	Invalidate(ctx context.Context, target string) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}
