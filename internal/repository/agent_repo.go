package repository

import (
	"context"
	"errors"

	"github.com/user/domcapture-service/internal/dom"
	"github.com/user/domcapture-service/internal/entity"
)

var (
	// ErrTargetNotFound: the requested tab/frame does not exist.
	ErrTargetNotFound = errors.New("capture target not found")
	// ErrPermissionDenied: the agent is not allowed to inspect the target.
	ErrPermissionDenied = errors.New("permission denied for capture target")
	// ErrAgentUnavailable: no in-page capture agent answered for the target.
	ErrAgentUnavailable = errors.New("capture agent unavailable")
	// ErrSnapshotTimeout: the agent did not answer within the deadline. The
	// in-page work may still complete; the late response is discarded.
	ErrSnapshotTimeout = errors.New("capture agent timed out")
)

// CaptureAgentRepository is the boundary to the in-page capture agent. The
// orchestrator suspends only here, awaiting the raw snapshot or a timeout.
// Snapshot must be idempotent: replaying the same options against an
// unchanged page yields an equivalent snapshot.
type CaptureAgentRepository interface {
	Snapshot(ctx context.Context, opts entity.CaptureOptions) (*dom.Snapshot, error)
}
