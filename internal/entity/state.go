package entity

import "time"

// CaptureMetadata describes one capture run.
type CaptureMetadata struct {
	Timestamp           time.Time `json:"timestamp"`
	URL                 string    `json:"url"`
	Title               string    `json:"title,omitempty"`
	Fingerprint         string    `json:"fingerprint,omitempty"`
	Viewport            Viewport  `json:"viewport"`
	NodeCount           int       `json:"node_count"`
	ElementCount        int       `json:"element_count"`
	InteractiveElements int       `json:"interactive_elements"`
	FrameCount          int       `json:"frame_count"`
	MaxDepthReached     int       `json:"max_depth_reached"`
}

// CaptureTiming is the per-phase duration breakdown in milliseconds.
type CaptureTiming struct {
	SnapshotMS      int64 `json:"snapshot_ms"`
	AccessibilityMS int64 `json:"accessibility_ms"`
	AssembleMS      int64 `json:"assemble_ms"`
	FilterMS        int64 `json:"filter_ms"`
	SerializeMS     int64 `json:"serialize_ms"`
	TotalMS         int64 `json:"total_ms"`
	FromCache       bool  `json:"from_cache,omitempty"`
}

// SerializedDOMState is the capture result: the indexed tree string, the
// selector map from interaction index to full node detail, and metadata.
// Immutable once returned; only the cache retains it across calls.
type SerializedDOMState struct {
	Tree        string                `json:"tree"`
	SelectorMap map[int]*EnhancedNode `json:"selector_map"`
	Metadata    CaptureMetadata       `json:"metadata"`
	Timing      *CaptureTiming        `json:"timing,omitempty"`
	Warnings    []CaptureWarning      `json:"warnings,omitempty"`
}
