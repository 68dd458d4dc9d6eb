package dom

import (
	"github.com/user/domcapture-service/internal/entity"
)

// DOM node types as used on the wire (a subset of the DOM standard values).
const (
	WireNodeElement          = 1
	WireNodeText             = 3
	WireNodeComment          = 8
	WireNodeDocument         = 9
	WireNodeDocumentFragment = 11
)

// StyleWhitelist is the fixed computed-style subset captured per node, in
// wire order. Agents must request exactly these properties so layout style
// rows line up with this slice.
var StyleWhitelist = []string{
	"display",
	"visibility",
	"opacity",
	"overflow",
	"cursor",
	"pointer-events",
	"position",
	"background-color",
}

// NodeTable is the parallel-array node encoding of one document. String
// fields hold pool handles; -1 (NoString) means absent.
type NodeTable struct {
	ParentIndex      []int      `json:"parent_index"`
	NodeType         []int      `json:"node_type"`
	NodeName         []Handle   `json:"node_name"`
	NodeValue        []Handle   `json:"node_value"`
	BackendNodeID    []int64    `json:"backend_node_id"`
	Attributes       [][]Handle `json:"attributes"` // flattened name/value pairs
	TextValue        []Handle   `json:"text_value"`
	InputValue       []Handle   `json:"input_value"`
	CurrentSourceURL []Handle   `json:"current_source_url"`
	IsClickable      []bool     `json:"is_clickable"`
	// ContentDocument indexes into Snapshot.Documents for same-origin iframe
	// content; -1 for non-frames and for frames the agent could not enter.
	ContentDocument []int `json:"content_document"`
	// ShadowRootType is set on document-fragment nodes that are shadow roots
	// ("open"/"closed"/"user-agent" handle); NoString otherwise.
	ShadowRootType []Handle `json:"shadow_root_type"`
}

// Len returns the number of encoded nodes.
func (t *NodeTable) Len() int { return len(t.NodeType) }

// LayoutTable is the layout snapshot for the subset of nodes the renderer
// produced boxes for. Styles rows follow StyleWhitelist order.
type LayoutTable struct {
	NodeIndex   []int        `json:"node_index"`
	Bounds      [][4]float64 `json:"bounds"`
	Styles      [][]Handle   `json:"styles"`
	PaintOrders []int        `json:"paint_orders"`
	ScrollRects [][4]float64 `json:"scroll_rects"`
	ClientRects [][4]float64 `json:"client_rects"`
}

// Document is one frame or shadow-root document on the wire.
type Document struct {
	FrameID     Handle      `json:"frame_id"`
	URL         Handle      `json:"url"`
	Title       Handle      `json:"title"`
	CrossOrigin bool        `json:"cross_origin,omitempty"`
	Nodes       NodeTable   `json:"nodes"`
	Layout      LayoutTable `json:"layout"`
}

// AXNode is one accessibility-tree entry keyed by backend node id.
type AXNode struct {
	BackendNodeID int64       `json:"backend_node_id"`
	Ignored       bool        `json:"ignored,omitempty"`
	Role          Handle      `json:"role"`
	Name          Handle      `json:"name"`
	Description   Handle      `json:"description"`
	Properties    [][2]Handle `json:"properties,omitempty"`
	ChildIDs      []int64     `json:"child_ids,omitempty"`
}

// SnapshotTiming is the agent-side duration breakdown.
type SnapshotTiming struct {
	SnapshotMS      int64 `json:"snapshot_ms"`
	AccessibilityMS int64 `json:"accessibility_ms"`
}

// Snapshot is the raw, pre-filter, pre-index capture payload ferried from the
// in-page capture agent to the orchestrator. All repeated strings are
// interned into the Strings table to bound payload size. Replaying the same
// request against an unchanged page yields an equivalent snapshot.
type Snapshot struct {
	Documents []Document      `json:"documents"`
	Strings   []string        `json:"strings"`
	AXNodes   []AXNode        `json:"ax_nodes"`
	AXPartial bool            `json:"ax_partial,omitempty"`
	URL       string          `json:"url"`
	Title     string          `json:"title,omitempty"`
	Viewport  entity.Viewport `json:"viewport"`
	Timing    SnapshotTiming  `json:"timing"`

	Warnings []entity.CaptureWarning `json:"warnings,omitempty"`
}

// String resolves a handle against the snapshot's intern table; out-of-range
// handles resolve to "".
func (s *Snapshot) String(h Handle) string {
	if h <= 0 || int(h) >= len(s.Strings) {
		return ""
	}
	return s.Strings[h]
}
