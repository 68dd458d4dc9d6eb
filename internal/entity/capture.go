package entity

import "time"

// Option bounds and defaults per the external capture contract.
const (
	DefaultMaxIframeDepth = 3
	DefaultMaxIframeCount = 15
	DefaultTimeoutMS      = 5000

	MinIframeDepth = 0
	MaxIframeDepth = 10
	MinIframeCount = 0
	MaxIframeCount = 50
	MinTimeoutMS   = 100
	MaxTimeoutMS   = 30000
)

// CaptureRequest is the external capture contract. All fields are optional;
// nil pointers take the documented defaults when resolved.
type CaptureRequest struct {
	Target              string `json:"target,omitempty"`
	IncludeShadowDOM    *bool  `json:"include_shadow_dom,omitempty"`
	IncludeIframes      *bool  `json:"include_iframes,omitempty"`
	MaxIframeDepth      *int   `json:"max_iframe_depth,omitempty"`
	MaxIframeCount      *int   `json:"max_iframe_count,omitempty"`
	PaintOrderFiltering *bool  `json:"paint_order_filtering,omitempty"`
	BBoxFiltering       *bool  `json:"bbox_filtering,omitempty"`
	TimeoutMS           *int   `json:"timeout_ms,omitempty"`
	UseCache            *bool  `json:"use_cache,omitempty"`
	IncludeTiming       *bool  `json:"include_timing,omitempty"`
}

// CaptureOptions is a fully resolved, bounds-checked request.
type CaptureOptions struct {
	Target              string
	IncludeShadowDOM    bool
	IncludeIframes      bool
	MaxIframeDepth      int
	MaxIframeCount      int
	PaintOrderFiltering bool
	BBoxFiltering       bool
	Timeout             time.Duration
	UseCache            bool
	IncludeTiming       bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() CaptureOptions {
	return CaptureOptions{
		IncludeShadowDOM:    true,
		IncludeIframes:      true,
		MaxIframeDepth:      DefaultMaxIframeDepth,
		MaxIframeCount:      DefaultMaxIframeCount,
		PaintOrderFiltering: true,
		BBoxFiltering:       true,
		Timeout:             DefaultTimeoutMS * time.Millisecond,
		UseCache:            true,
	}
}

// Options resolves the request into concrete options. Absent fields take
// defaults; out-of-range values are clamped to the nearest bound.
func (r *CaptureRequest) Options() CaptureOptions {
	o := DefaultOptions()
	if r == nil {
		return o
	}
	o.Target = r.Target
	if r.IncludeShadowDOM != nil {
		o.IncludeShadowDOM = *r.IncludeShadowDOM
	}
	if r.IncludeIframes != nil {
		o.IncludeIframes = *r.IncludeIframes
	}
	if r.MaxIframeDepth != nil {
		o.MaxIframeDepth = clamp(*r.MaxIframeDepth, MinIframeDepth, MaxIframeDepth)
	}
	if r.MaxIframeCount != nil {
		o.MaxIframeCount = clamp(*r.MaxIframeCount, MinIframeCount, MaxIframeCount)
	}
	if r.PaintOrderFiltering != nil {
		o.PaintOrderFiltering = *r.PaintOrderFiltering
	}
	if r.BBoxFiltering != nil {
		o.BBoxFiltering = *r.BBoxFiltering
	}
	if r.TimeoutMS != nil {
		o.Timeout = time.Duration(clamp(*r.TimeoutMS, MinTimeoutMS, MaxTimeoutMS)) * time.Millisecond
	}
	if r.UseCache != nil {
		o.UseCache = *r.UseCache
	}
	if r.IncludeTiming != nil {
		o.IncludeTiming = *r.IncludeTiming
	}
	return o
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
