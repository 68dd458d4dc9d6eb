package entity

// NodeID is an index into a NodeArena. Parent and back-references are stored
// as plain indices so the node graph cannot form ownership cycles.
type NodeID int

// InvalidNode marks an absent node reference.
const InvalidNode NodeID = -1

// NodeKind is the closed set of node variants in the capture graph.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindDocument
	KindComment
	// KindFramePlaceholder stands in for an iframe document that could not be
	// captured (cross-origin, or a depth/count budget was exhausted).
	KindFramePlaceholder
	KindShadowRoot
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindDocument:
		return "document"
	case KindComment:
		return "comment"
	case KindFramePlaceholder:
		return "frame-placeholder"
	case KindShadowRoot:
		return "shadow-root"
	}
	return "unknown"
}

// Placeholder reasons for KindFramePlaceholder nodes.
const (
	PlaceholderCrossOrigin = "cross-origin"
	PlaceholderDepthLimit  = "depth-limit"
	PlaceholderCountLimit  = "count-limit"
)

// EnhancedNode is one entry in the capture graph: a DOM node enriched with
// geometry, style and accessibility data. Children, the content document and
// shadow roots are owned references; Parent is bookkeeping only.
type EnhancedNode struct {
	ID            NodeID            `json:"id"`
	Kind          NodeKind          `json:"kind"`
	Tag           string            `json:"tag,omitempty"`
	Value         string            `json:"value,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	FrameID       string            `json:"frame_id,omitempty"`
	BackendNodeID int64             `json:"backend_node_id,omitempty"`
	FrameDepth    int               `json:"frame_depth,omitempty"`
	Placeholder   string            `json:"placeholder,omitempty"`

	Parent          NodeID   `json:"parent"`
	Children        []NodeID `json:"children,omitempty"`
	ContentDocument NodeID   `json:"content_document,omitempty"`
	ShadowRoots     []NodeID `json:"shadow_roots,omitempty"`

	Accessibility *AccessibilityInfo `json:"accessibility,omitempty"`
	Snapshot      *SnapshotInfo      `json:"snapshot,omitempty"`

	// Index is the interaction index assigned by the filter pass; 0 means the
	// node is not actionable.
	Index int `json:"index,omitempty"`
	// Pruned nodes are excluded from the serialized tree and selector map.
	Pruned bool `json:"-"`
}

// Attr returns an attribute value or "".
func (n *EnhancedNode) Attr(name string) string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes[name]
}

// NodeArena owns every node of one capture. Nodes never move once allocated,
// so *EnhancedNode pointers stay valid for the arena's lifetime.
type NodeArena struct {
	nodes []*EnhancedNode
}

func NewArena() *NodeArena {
	return &NodeArena{}
}

// New allocates a node of the given kind and returns it with its ID assigned.
func (a *NodeArena) New(kind NodeKind, tag string) *EnhancedNode {
	n := &EnhancedNode{
		ID:              NodeID(len(a.nodes)),
		Kind:            kind,
		Tag:             tag,
		Parent:          InvalidNode,
		ContentDocument: InvalidNode,
	}
	a.nodes = append(a.nodes, n)
	return n
}

// Get returns the node for an ID, or nil for out-of-range or invalid IDs.
func (a *NodeArena) Get(id NodeID) *EnhancedNode {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Attach makes child an owned child of parent. A node has exactly one parent;
// attaching an already-parented node is a programming error and is ignored.
func (a *NodeArena) Attach(parent, child NodeID) {
	p, c := a.Get(parent), a.Get(child)
	if p == nil || c == nil || c.Parent != InvalidNode {
		return
	}
	c.Parent = parent
	p.Children = append(p.Children, child)
}

// AttachContentDocument links an iframe node to its captured document root.
func (a *NodeArena) AttachContentDocument(host, doc NodeID) {
	h, d := a.Get(host), a.Get(doc)
	if h == nil || d == nil || d.Parent != InvalidNode {
		return
	}
	d.Parent = host
	h.ContentDocument = doc
}

// AttachShadowRoot links a shadow host to one of its shadow root nodes.
func (a *NodeArena) AttachShadowRoot(host, root NodeID) {
	h, r := a.Get(host), a.Get(root)
	if h == nil || r == nil || r.Parent != InvalidNode {
		return
	}
	r.Parent = host
	h.ShadowRoots = append(h.ShadowRoots, root)
}

// Len returns the number of allocated nodes.
func (a *NodeArena) Len() int {
	return len(a.nodes)
}

// BoundingBox is an axis-aligned rectangle in viewport coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Intersection returns the overlapping region of two boxes; the zero box when
// they do not overlap.
func (b BoundingBox) Intersection(o BoundingBox) BoundingBox {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.Width, o.X+o.Width)
	y2 := min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return BoundingBox{}
	}
	return BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Viewport is the visible page area in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v Viewport) Bounds() BoundingBox {
	return BoundingBox{Width: float64(v.Width), Height: float64(v.Height)}
}
