// Package bridge implements the capture agent over an asynchronous message
// channel, for deployments where the page is reached through an in-browser
// bridge (an extension or injected script) instead of a DevTools socket.
// Requests and responses are matched by correlation id.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/user/domcapture-service/internal/dom"
	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
)

// Request is one capture command sent to the in-page side of the bridge.
type Request struct {
	ID      string                `json:"id"`
	Target  string                `json:"target,omitempty"`
	Options entity.CaptureOptions `json:"options"`
}

// Response is the in-page side's answer to a Request with the same ID.
type Response struct {
	ID       string        `json:"id"`
	Snapshot *dom.Snapshot `json:"snapshot,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Agent is a CaptureAgentRepository that forwards capture commands over a
// request channel and resolves them from responses delivered via Deliver.
type Agent struct {
	requests chan<- Request

	mu      sync.Mutex
	pending map[string]chan Response
	seq     atomic.Uint64
}

// NewAgent returns an agent writing commands to requests. The transport
// owning the other end must feed responses back through Deliver.
func NewAgent(requests chan<- Request) *Agent {
	return &Agent{
		requests: requests,
		pending:  make(map[string]chan Response),
	}
}

// Snapshot sends a capture command and blocks until the matching response
// arrives or ctx expires.
func (a *Agent) Snapshot(ctx context.Context, opts entity.CaptureOptions) (*dom.Snapshot, error) {
	id := fmt.Sprintf("cap-%d", a.seq.Add(1))
	ch := make(chan Response, 1)

	a.mu.Lock()
	a.pending[id] = ch
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.pending, id)
		a.mu.Unlock()
	}()

	req := Request{ID: id, Target: opts.Target, Options: opts}
	select {
	case a.requests <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: sending capture command: %v", repository.ErrSnapshotTimeout, ctx.Err())
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", repository.ErrAgentUnavailable, resp.Error)
		}
		if resp.Snapshot == nil {
			return nil, fmt.Errorf("%w: empty response for %s", repository.ErrAgentUnavailable, id)
		}
		return resp.Snapshot, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for %s: %v", repository.ErrSnapshotTimeout, id, ctx.Err())
	}
}

// Deliver routes a response to the waiting Snapshot call. Responses whose
// correlation id is unknown (already timed out, or duplicate) are dropped.
func (a *Agent) Deliver(resp Response) {
	a.mu.Lock()
	ch, ok := a.pending[resp.ID]
	if ok {
		delete(a.pending, resp.ID)
	}
	a.mu.Unlock()
	if !ok {
		slog.Debug("Discarding unmatched bridge response", "id", resp.ID)
		return
	}
	ch <- resp
}
