package dom

import (
	"strings"

	"github.com/user/domcapture-service/internal/entity"
)

// snapshotBuilder assembles wire snapshots for tests without going through a
// capture agent.
type snapshotBuilder struct {
	pool     *Pool
	docs     []*documentBuilder
	ax       []AXNode
	url      string
	title    string
	viewport entity.Viewport
	backend  int64
}

func newSnapshotBuilder() *snapshotBuilder {
	return &snapshotBuilder{
		pool:     NewPool(0),
		url:      "https://example.com/",
		viewport: entity.Viewport{Width: 1280, Height: 800},
	}
}

// document starts a new wire document seeded with its #document root node
// (wire index 0) and returns its builder.
func (b *snapshotBuilder) document(frameID, url string) *documentBuilder {
	d := &documentBuilder{b: b, frameID: frameID, url: url}
	b.docs = append(b.docs, d)
	d.node(-1, WireNodeDocument, "#document")
	return d
}

func (b *snapshotBuilder) axNode(backendID int64, role, name string) {
	b.ax = append(b.ax, AXNode{
		BackendNodeID: backendID,
		Role:          b.pool.Intern(role),
		Name:          b.pool.Intern(name),
		Description:   NoString,
	})
}

func (b *snapshotBuilder) build() *Snapshot {
	snap := &Snapshot{
		URL:      b.url,
		Title:    b.title,
		Viewport: b.viewport,
		AXNodes:  b.ax,
	}
	for _, d := range b.docs {
		snap.Documents = append(snap.Documents, Document{
			FrameID:     b.pool.Intern(d.frameID),
			URL:         b.pool.Intern(d.url),
			CrossOrigin: d.crossOrigin,
			Nodes:       d.nodes,
			Layout:      d.layout,
		})
	}
	snap.Strings = b.pool.Strings()
	return snap
}

type documentBuilder struct {
	b           *snapshotBuilder
	frameID     string
	url         string
	crossOrigin bool
	nodes       NodeTable
	layout      LayoutTable
}

// node appends one wire node with every parallel array filled to length.
func (d *documentBuilder) node(parent, typ int, name string) int {
	i := d.nodes.Len()
	d.b.backend++
	d.nodes.ParentIndex = append(d.nodes.ParentIndex, parent)
	d.nodes.NodeType = append(d.nodes.NodeType, typ)
	d.nodes.NodeName = append(d.nodes.NodeName, d.b.pool.Intern(name))
	d.nodes.NodeValue = append(d.nodes.NodeValue, NoString)
	d.nodes.BackendNodeID = append(d.nodes.BackendNodeID, d.b.backend)
	d.nodes.Attributes = append(d.nodes.Attributes, nil)
	d.nodes.TextValue = append(d.nodes.TextValue, NoString)
	d.nodes.InputValue = append(d.nodes.InputValue, NoString)
	d.nodes.CurrentSourceURL = append(d.nodes.CurrentSourceURL, NoString)
	d.nodes.IsClickable = append(d.nodes.IsClickable, false)
	d.nodes.ContentDocument = append(d.nodes.ContentDocument, -1)
	d.nodes.ShadowRootType = append(d.nodes.ShadowRootType, NoString)
	return i
}

// element appends an element node; attrs are alternating name/value pairs.
func (d *documentBuilder) element(parent int, tag string, attrs ...string) int {
	i := d.node(parent, WireNodeElement, strings.ToUpper(tag))
	var row []Handle
	for _, a := range attrs {
		row = append(row, d.b.pool.Intern(a))
	}
	d.nodes.Attributes[i] = row
	return i
}

func (d *documentBuilder) text(parent int, value string) int {
	i := d.node(parent, WireNodeText, "#text")
	d.nodes.NodeValue[i] = d.b.pool.Intern(value)
	return i
}

func (d *documentBuilder) shadowRoot(parent int, mode string) int {
	i := d.node(parent, WireNodeDocumentFragment, "#document-fragment")
	d.nodes.ShadowRootType[i] = d.b.pool.Intern(mode)
	return i
}

// iframe appends an iframe element pointing at a content document index;
// contentDoc < 0 models an inaccessible frame.
func (d *documentBuilder) iframe(parent, contentDoc int, attrs ...string) int {
	i := d.element(parent, "iframe", attrs...)
	d.nodes.ContentDocument[i] = contentDoc
	return i
}

func (d *documentBuilder) backendID(i int) int64 {
	return d.nodes.BackendNodeID[i]
}

// box attaches a layout row for a node. Styles default to a plain visible
// block; overrides replace individual whitelist entries.
func (d *documentBuilder) box(i int, x, y, w, h float64, paint int, styles map[string]string) {
	merged := map[string]string{
		"display":    "block",
		"visibility": "visible",
		"opacity":    "1",
	}
	for k, v := range styles {
		merged[k] = v
	}
	row := make([]Handle, len(StyleWhitelist))
	for k, name := range StyleWhitelist {
		if v, ok := merged[name]; ok {
			row[k] = d.b.pool.Intern(v)
		}
	}
	d.layout.NodeIndex = append(d.layout.NodeIndex, i)
	d.layout.Bounds = append(d.layout.Bounds, [4]float64{x, y, w, h})
	d.layout.Styles = append(d.layout.Styles, row)
	d.layout.PaintOrders = append(d.layout.PaintOrders, paint)
	d.layout.ScrollRects = append(d.layout.ScrollRects, [4]float64{0, 0, w, h})
	d.layout.ClientRects = append(d.layout.ClientRects, [4]float64{0, 0, w, h})
}

// scroll overrides the scroll/client rects of the node's layout row to model
// overflowing content.
func (d *documentBuilder) scroll(i int, scrollW, scrollH, clientW, clientH float64) {
	for row, nodeIdx := range d.layout.NodeIndex {
		if nodeIdx == i {
			d.layout.ScrollRects[row] = [4]float64{0, 0, scrollW, scrollH}
			d.layout.ClientRects[row] = [4]float64{0, 0, clientW, clientH}
			return
		}
	}
}
