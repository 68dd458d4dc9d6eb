package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/domcapture-service/internal/dom"
	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
)

func TestBridgeSnapshotRoundTrip(t *testing.T) {
	requests := make(chan Request, 1)
	agent := NewAgent(requests)

	want := &dom.Snapshot{URL: "https://example.com/"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := <-requests
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "tab-1", req.Target)
		agent.Deliver(Response{ID: req.ID, Snapshot: want})
	}()

	opts := entity.DefaultOptions()
	opts.Target = "tab-1"
	got, err := agent.Snapshot(context.Background(), opts)
	require.NoError(t, err)
	assert.Same(t, want, got)
	<-done
}

func TestBridgeSnapshotErrorResponse(t *testing.T) {
	requests := make(chan Request, 1)
	agent := NewAgent(requests)

	go func() {
		req := <-requests
		agent.Deliver(Response{ID: req.ID, Error: "page went away"})
	}()

	_, err := agent.Snapshot(context.Background(), entity.DefaultOptions())
	assert.ErrorIs(t, err, repository.ErrAgentUnavailable)
}

func TestBridgeSnapshotTimeout(t *testing.T) {
	requests := make(chan Request, 1)
	agent := NewAgent(requests)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := agent.Snapshot(ctx, entity.DefaultOptions())
	assert.ErrorIs(t, err, repository.ErrSnapshotTimeout)

	// A response arriving after the timeout is discarded, not delivered to a
	// later call.
	req := <-requests
	agent.Deliver(Response{ID: req.ID, Snapshot: &dom.Snapshot{}})

	agent.mu.Lock()
	assert.Empty(t, agent.pending)
	agent.mu.Unlock()
}

func TestBridgeCorrelationIDsDistinct(t *testing.T) {
	requests := make(chan Request, 2)
	agent := NewAgent(requests)

	results := make(chan string, 2)
	go func() {
		for i := 0; i < 2; i++ {
			req := <-requests
			agent.Deliver(Response{ID: req.ID, Snapshot: &dom.Snapshot{URL: req.ID}})
		}
	}()

	for i := 0; i < 2; i++ {
		snap, err := agent.Snapshot(context.Background(), entity.DefaultOptions())
		require.NoError(t, err)
		results <- snap.URL
	}
	close(results)

	seen := map[string]bool{}
	for id := range results {
		assert.False(t, seen[id], "correlation ids must be unique")
		seen[id] = true
	}
}

func TestBridgeSendBlockedUntilTimeout(t *testing.T) {
	// Unbuffered channel with no reader: the send itself must respect ctx.
	requests := make(chan Request)
	agent := NewAgent(requests)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := agent.Snapshot(ctx, entity.DefaultOptions())
	assert.ErrorIs(t, err, repository.ErrSnapshotTimeout)
}
