// Package dom implements the capture-and-serialization engine: it decodes the
// interned wire snapshot produced by an in-page capture agent, assembles the
// enriched node graph across frame and shadow boundaries, filters and indexes
// actionable elements, and renders the result for an automated reasoning agent.
package dom

import "sync"

// Handle is a dense small-integer reference into a string pool.
type Handle int

// NoString marks an absent string reference on the wire.
const NoString Handle = -1

// DefaultMaxStrings bounds the number of unique strings one snapshot may
// intern before the pool degrades to the overflow handle.
const DefaultMaxStrings = 100000

// Pool interns repeated strings into dense handles assigned in first-seen
// order. Handle 0 is always the empty string; once the capacity is exhausted
// further unseen strings collapse onto it and the overflow flag is set.
type Pool struct {
	mu         sync.Mutex
	max        int
	index      map[string]Handle
	strings    []string
	overflowed bool
}

// NewPool creates a pool bounded to max unique strings (DefaultMaxStrings
// when max <= 0).
func NewPool(max int) *Pool {
	if max <= 0 {
		max = DefaultMaxStrings
	}
	p := &Pool{
		max:     max,
		index:   map[string]Handle{"": 0},
		strings: []string{""},
	}
	return p
}

// Intern returns the handle for s, allocating one on first sight. Repeated
// calls with an equal string return the same handle.
func (p *Pool) Intern(s string) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.index[s]; ok {
		return h
	}
	if len(p.strings) >= p.max {
		p.overflowed = true
		return 0
	}
	h := Handle(len(p.strings))
	p.index[s] = h
	p.strings = append(p.strings, s)
	return h
}

// Strings returns the interned table, indexed by handle.
func (p *Pool) Strings() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.strings))
	copy(out, p.strings)
	return out
}

// Len returns the number of unique strings interned.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strings)
}

// Overflowed reports whether the capacity bound was hit.
func (p *Pool) Overflowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overflowed
}
