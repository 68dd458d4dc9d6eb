package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/user/domcapture-service/internal/dom"
	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
	"github.com/user/domcapture-service/pkg/metrics"
	"github.com/user/domcapture-service/pkg/utils"
)

// CaptureOrchestrator is the public entry point of the capture engine.
type CaptureOrchestrator interface {
	// Capture resolves the target, applies the cache, runs the capture
	// pipeline under the request timeout and returns the serialized state.
	// Failures are always a typed *entity.CaptureError.
	Capture(ctx context.Context, req *entity.CaptureRequest) (*entity.SerializedDOMState, error)
	// ClearCache evicts one target's entry, or all entries when target is "".
	ClearCache(ctx context.Context, target string) error
	// NotifyNavigation invalidates the cache entry for a target that
	// navigated away from the captured page.
	NotifyNavigation(ctx context.Context, target string) error
	// Archived retrieves a previously archived capture by fingerprint.
	Archived(ctx context.Context, fingerprint string) (*entity.SerializedDOMState, error)
}

type captureUseCase struct {
	agent   repository.CaptureAgentRepository
	cache   repository.CaptureCacheRepository
	archive repository.ArchiveRepository
}

// NewCaptureUseCase creates the capture orchestrator.
func NewCaptureUseCase(
	agent repository.CaptureAgentRepository,
	cache repository.CaptureCacheRepository,
	archive repository.ArchiveRepository,
) CaptureOrchestrator {
	return &captureUseCase{
		agent:   agent,
		cache:   cache,
		archive: archive,
	}
}

func (uc *captureUseCase) Capture(ctx context.Context, req *entity.CaptureRequest) (*entity.SerializedDOMState, error) {
	start := time.Now()
	opts := req.Options()

	if opts.UseCache {
		if state, err := uc.cache.Get(ctx, opts.Target); err == nil {
			slog.Info("Capture served from cache", "target", opts.Target, "url", state.Metadata.URL)
			metrics.CacheEventsTotal.WithLabelValues("hit").Inc()
			metrics.CaptureDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
			return cachedCopy(state, opts, start), nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			slog.Warn("Capture cache lookup failed", "target", opts.Target, "error", err)
		}
		metrics.CacheEventsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheEventsTotal.WithLabelValues("bypass").Inc()
	}

	agentCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	snap, err := uc.agent.Snapshot(agentCtx, opts)
	if err != nil {
		return nil, uc.fail(mapAgentError(err))
	}

	state, capErr := uc.buildState(ctx, snap, opts, start)
	if capErr != nil {
		return nil, uc.fail(capErr)
	}

	duration := time.Since(start)
	metrics.CapturesTotal.WithLabelValues("success", "").Inc()
	metrics.CaptureDuration.WithLabelValues("agent").Observe(duration.Seconds())
	metrics.NodesPerCapture.Observe(float64(state.Metadata.NodeCount))
	metrics.IndexedPerCapture.Observe(float64(state.Metadata.InteractiveElements))
	slog.Info("Capture successful",
		"target", opts.Target,
		"url", state.Metadata.URL,
		"nodes", state.Metadata.NodeCount,
		"interactive", state.Metadata.InteractiveElements,
		"duration_ms", duration.Milliseconds(),
	)

	// A bypassed capture still refreshes the entry: leaving the old one in
	// place would hand the next cached read an outdated page.
	if err := uc.cache.Put(ctx, opts.Target, state); err != nil {
		// Not critical: the capture succeeded, the next call re-captures.
		slog.Warn("Failed to cache capture", "target", opts.Target, "error", err)
	}
	if err := uc.archive.Save(ctx, state); err != nil {
		slog.Warn("Failed to archive capture", "fingerprint", state.Metadata.Fingerprint, "error", err)
	}

	return state, nil
}

// buildState runs assembly, filtering and serialization over the raw agent
// snapshot. The filter pass never starts before assembly has joined all
// frame contexts, so indices always reflect one consistent traversal.
func (uc *captureUseCase) buildState(ctx context.Context, snap *dom.Snapshot, opts entity.CaptureOptions, start time.Time) (*entity.SerializedDOMState, *entity.CaptureError) {
	assembleStart := time.Now()
	res, err := dom.Assemble(ctx, snap, opts)
	if err != nil {
		if errors.Is(err, dom.ErrCrossOriginTarget) {
			return nil, entity.NewCaptureError(entity.CodeCrossOriginFrame, "%v", err)
		}
		return nil, entity.NewCaptureError(entity.CodeUnknown, "assembling node graph: %v", err)
	}
	assembleMS := time.Since(assembleStart).Milliseconds()

	filterStart := time.Now()
	filtered := dom.FilterAndIndex(res, snap.Viewport, opts)
	filterMS := time.Since(filterStart).Milliseconds()

	serializeStart := time.Now()
	tree, selectorMap, err := dom.Serialize(res.Arena, res.Root, dom.MaxTreeBytes)
	if err != nil {
		if errors.Is(err, dom.ErrPayloadTooLarge) {
			return nil, entity.NewCaptureError(entity.CodePayloadTooLarge, "%v", err)
		}
		return nil, entity.NewCaptureError(entity.CodeUnknown, "serializing tree: %v", err)
	}
	serializeMS := time.Since(serializeStart).Milliseconds()

	state := &entity.SerializedDOMState{
		Tree:        tree,
		SelectorMap: selectorMap,
		Metadata: entity.CaptureMetadata{
			Timestamp:           time.Now().UTC(),
			URL:                 snap.URL,
			Title:               snap.Title,
			Fingerprint:         utils.Fingerprint([]byte(tree)),
			Viewport:            snap.Viewport,
			NodeCount:           res.Arena.Len(),
			ElementCount:        res.ElementCount,
			InteractiveElements: len(filtered.Indexed),
			FrameCount:          res.FrameCount,
			MaxDepthReached:     res.MaxDepth,
		},
		Warnings: append(res.Warnings, filtered.Warnings...),
	}
	if opts.IncludeTiming {
		state.Timing = &entity.CaptureTiming{
			SnapshotMS:      snap.Timing.SnapshotMS,
			AccessibilityMS: snap.Timing.AccessibilityMS,
			AssembleMS:      assembleMS,
			FilterMS:        filterMS,
			SerializeMS:     serializeMS,
			TotalMS:         time.Since(start).Milliseconds(),
		}
	}
	return state, nil
}

func (uc *captureUseCase) ClearCache(ctx context.Context, target string) error {
	metrics.CacheEventsTotal.WithLabelValues("clear").Inc()
	if target == "" {
		return uc.cache.Clear(ctx)
	}
	return uc.cache.Invalidate(ctx, target)
}

func (uc *captureUseCase) NotifyNavigation(ctx context.Context, target string) error {
	slog.Info("Navigation event, invalidating cache", "target", target)
	metrics.CacheEventsTotal.WithLabelValues("invalidate").Inc()
	return uc.cache.Invalidate(ctx, target)
}

func (uc *captureUseCase) Archived(ctx context.Context, fingerprint string) (*entity.SerializedDOMState, error) {
	return uc.archive.FindByFingerprint(ctx, fingerprint)
}

func (uc *captureUseCase) fail(capErr *entity.CaptureError) error {
	metrics.CapturesTotal.WithLabelValues("failure", string(capErr.Code)).Inc()
	slog.Error("Capture failed", "code", capErr.Code, "message", capErr.Message)
	return capErr
}

// cachedCopy returns the cached state with per-call timing, leaving the
// stored entry untouched.
func cachedCopy(state *entity.SerializedDOMState, opts entity.CaptureOptions, start time.Time) *entity.SerializedDOMState {
	out := *state
	if opts.IncludeTiming {
		out.Timing = &entity.CaptureTiming{
			TotalMS:   time.Since(start).Milliseconds(),
			FromCache: true,
		}
	}
	return &out
}

// mapAgentError folds transport failures into the closed error code set.
func mapAgentError(err error) *entity.CaptureError {
	switch {
	case errors.Is(err, repository.ErrTargetNotFound):
		return entity.NewCaptureError(entity.CodeTargetNotFound, "%v", err)
	case errors.Is(err, repository.ErrPermissionDenied):
		return entity.NewCaptureError(entity.CodePermissionDenied, "%v", err)
	case errors.Is(err, repository.ErrAgentUnavailable):
		return entity.NewCaptureError(entity.CodeAgentUnavailable, "%v", err)
	case errors.Is(err, repository.ErrSnapshotTimeout), errors.Is(err, context.DeadlineExceeded):
		return entity.NewCaptureError(entity.CodeTimeout, "capture did not complete in time")
	default:
		return entity.NewCaptureError(entity.CodeUnknown, "capture agent: %v", err)
	}
}
