package repository

import (
	"context"
	"errors"

	"github.com/user/domcapture-service/internal/entity"
)

// ErrArchiveNotFound indicates no archived capture exists for a fingerprint.
var ErrArchiveNotFound = errors.New("archived capture not found")

// ArchiveRepository persists successful captures for later retrieval,
// keyed by content fingerprint.
type ArchiveRepository interface {
	// Save stores a capture. Re-capturing an unchanged page updates the
	// existing record in place.
	Save(ctx context.Context, state *entity.SerializedDOMState) error
	// FindByFingerprint retrieves an archived capture.
	FindByFingerprint(ctx context.Context, fingerprint string) (*entity.SerializedDOMState, error)
}
