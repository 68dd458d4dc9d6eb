package dom

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/domcapture-service/internal/entity"
)

var (
	// ErrEmptySnapshot is returned when the agent payload carries no documents.
	ErrEmptySnapshot = errors.New("snapshot contains no documents")
	// ErrCrossOriginTarget is returned when the main frame itself is not
	// accessible to the capture agent.
	ErrCrossOriginTarget = errors.New("target frame document is not accessible")
)

// skipTags are non-rendering tags the traversal never descends into. The
// head subtree is dropped wholesale; the page title travels in the snapshot
// metadata instead.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"meta":     true,
	"link":     true,
	"base":     true,
	"title":    true,
	"head":     true,
}

// AssembleResult is the enriched node graph of one capture, joined across all
// frame and shadow contexts and ready for the filter pass.
type AssembleResult struct {
	Arena        *entity.NodeArena
	Root         entity.NodeID
	Warnings     []entity.CaptureWarning
	FrameCount   int
	MaxDepth     int
	ElementCount int
}

type assembler struct {
	snap  *Snapshot
	opts  entity.CaptureOptions
	arena *entity.NodeArena

	warnings    []entity.CaptureWarning
	warnedCodes map[entity.WarningCode]bool

	iframesLeft int
	frameCount  int
	maxDepth    int
	visitedDocs map[int]bool

	// perDoc collects the nodes created for each document so enrichment can
	// fan out across documents after the structural pass.
	perDoc []*docNodes
}

type docNodes struct {
	docIndex int
	arenaIDs []entity.NodeID
	wireIdx  []int
	byID     map[string]entity.NodeID
}

// Assemble decodes the wire snapshot into an arena-backed node graph:
// a depth-first walk per document, recursion into same-origin iframe
// documents within the depth and global count budgets, and recursion into
// shadow roots. Geometry/style and accessibility enrichment runs concurrently
// per document; the result is only returned once every document has joined.
func Assemble(ctx context.Context, snap *Snapshot, opts entity.CaptureOptions) (*AssembleResult, error) {
	if len(snap.Documents) == 0 {
		return nil, ErrEmptySnapshot
	}
	if snap.Documents[0].CrossOrigin {
		return nil, ErrCrossOriginTarget
	}

	a := &assembler{
		snap:        snap,
		opts:        opts,
		arena:       entity.NewArena(),
		warnedCodes: make(map[entity.WarningCode]bool),
		iframesLeft: opts.MaxIframeCount,
		visitedDocs: make(map[int]bool),
	}
	a.frameCount = 1 // the main frame

	root := a.buildDocument(0, 0)
	if root == entity.InvalidNode {
		return nil, ErrEmptySnapshot
	}

	if err := a.enrich(ctx); err != nil {
		return nil, err
	}

	for _, w := range snap.Warnings {
		a.warn(w.Code, w.Message)
	}
	if snap.AXPartial {
		a.warn(entity.WarnPartialAccessibilityData, "accessibility tree is incomplete")
	}

	elements := 0
	for id := entity.NodeID(0); int(id) < a.arena.Len(); id++ {
		if a.arena.Get(id).Kind == entity.KindElement {
			elements++
		}
	}

	return &AssembleResult{
		Arena:        a.arena,
		Root:         root,
		Warnings:     a.warnings,
		FrameCount:   a.frameCount,
		MaxDepth:     a.maxDepth,
		ElementCount: elements,
	}, nil
}

func (a *assembler) warn(code entity.WarningCode, message string) {
	if a.warnedCodes[code] {
		return
	}
	a.warnedCodes[code] = true
	a.warnings = append(a.warnings, entity.CaptureWarning{Code: code, Message: message})
}

// buildDocument walks one wire document depth-first and returns its root
// node. depth is the frame-nesting depth of the document.
func (a *assembler) buildDocument(docIndex, depth int) entity.NodeID {
	if docIndex < 0 || docIndex >= len(a.snap.Documents) || a.visitedDocs[docIndex] {
		return entity.InvalidNode
	}
	a.visitedDocs[docIndex] = true
	doc := &a.snap.Documents[docIndex]

	dn := &docNodes{docIndex: docIndex, byID: make(map[string]entity.NodeID)}
	a.perDoc = append(a.perDoc, dn)

	root := a.arena.New(entity.KindDocument, "#document")
	root.FrameID = a.snap.String(doc.FrameID)
	root.FrameDepth = depth
	if url := a.snap.String(doc.URL); url != "" {
		root.Attributes = map[string]string{"url": url}
	}

	children := wireChildren(&doc.Nodes)
	for _, wireIdx := range wireRoots(&doc.Nodes) {
		// The document node itself folds onto the created root.
		if doc.Nodes.NodeType[wireIdx] == WireNodeDocument {
			for _, c := range children[wireIdx] {
				a.buildNode(doc, dn, children, c, root.ID, depth)
			}
			continue
		}
		a.buildNode(doc, dn, children, wireIdx, root.ID, depth)
	}
	return root.ID
}

// wireChildren derives ordered child lists from the parallel parent array.
// Wire nodes appear in document order, so per-parent order is preserved.
func wireChildren(t *NodeTable) [][]int {
	children := make([][]int, t.Len())
	for i, p := range t.ParentIndex {
		if p >= 0 && p < t.Len() {
			children[p] = append(children[p], i)
		}
	}
	return children
}

func wireRoots(t *NodeTable) []int {
	var roots []int
	for i, p := range t.ParentIndex {
		if p < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

func (a *assembler) buildNode(doc *Document, dn *docNodes, children [][]int, wireIdx int, parent entity.NodeID, depth int) {
	t := &doc.Nodes
	if wireIdx >= t.Len() {
		return
	}

	switch t.NodeType[wireIdx] {
	case WireNodeComment:
		return

	case WireNodeText:
		value := strings.TrimSpace(a.snap.String(t.NodeValue[wireIdx]))
		if value == "" {
			return
		}
		n := a.arena.New(entity.KindText, "#text")
		n.Value = value
		n.FrameDepth = depth
		a.fill(n, t, wireIdx, dn)
		a.arena.Attach(parent, n.ID)
		return

	case WireNodeDocumentFragment:
		// Shadow roots arrive as document fragments carrying their mode.
		mode := ""
		if wireIdx < len(t.ShadowRootType) {
			mode = a.snap.String(t.ShadowRootType[wireIdx])
		}
		if mode == "" || mode == "user-agent" || !a.opts.IncludeShadowDOM {
			return
		}
		sr := a.arena.New(entity.KindShadowRoot, "#shadow-root")
		sr.Value = mode
		sr.FrameDepth = depth
		a.fill(sr, t, wireIdx, dn)
		a.arena.AttachShadowRoot(parent, sr.ID)
		for _, c := range children[wireIdx] {
			a.buildNode(doc, dn, children, c, sr.ID, depth)
		}
		return

	case WireNodeElement:
		// handled below
	default:
		return
	}

	tag := strings.ToLower(a.snap.String(t.NodeName[wireIdx]))
	if skipTags[tag] {
		return
	}

	n := a.arena.New(entity.KindElement, tag)
	n.FrameDepth = depth
	n.Attributes = decodeAttributes(a.snap, t, wireIdx)
	a.fill(n, t, wireIdx, dn)
	if id := n.Attr("id"); id != "" {
		if _, dup := dn.byID[id]; !dup {
			dn.byID[id] = n.ID
		}
	}
	a.arena.Attach(parent, n.ID)

	if tag == "iframe" || tag == "frame" {
		a.buildFrameContent(n, t, wireIdx, depth)
		return
	}

	for _, c := range children[wireIdx] {
		a.buildNode(doc, dn, children, c, n.ID, depth)
	}
}

// buildFrameContent attaches either the captured content document or a
// placeholder explaining why the frame was not entered. Depth and the global
// iframe budget are hard caps, so traversal terminates on adversarial
// nesting. A single inaccessible frame degrades to a placeholder and a
// warning, never a failed capture.
func (a *assembler) buildFrameContent(host *entity.EnhancedNode, t *NodeTable, wireIdx, depth int) {
	if !a.opts.IncludeIframes {
		return
	}

	cdIdx := -1
	if wireIdx < len(t.ContentDocument) {
		cdIdx = t.ContentDocument[wireIdx]
	}

	switch {
	case cdIdx < 0 || cdIdx >= len(a.snap.Documents) || a.snap.Documents[cdIdx].CrossOrigin:
		a.placeholder(host, depth, entity.PlaceholderCrossOrigin)
		a.warn(entity.WarnCrossOriginIframeSkipped, "cross-origin iframe content not captured")
	case depth+1 > a.opts.MaxIframeDepth:
		a.placeholder(host, depth, entity.PlaceholderDepthLimit)
		a.warn(entity.WarnDepthLimitReached, "iframe depth limit reached")
	case a.iframesLeft <= 0:
		a.placeholder(host, depth, entity.PlaceholderCountLimit)
		a.warn(entity.WarnCountLimitReached, "iframe count limit reached")
	default:
		a.iframesLeft--
		a.frameCount++
		if depth+1 > a.maxDepth {
			a.maxDepth = depth + 1
		}
		if docRoot := a.buildDocument(cdIdx, depth+1); docRoot != entity.InvalidNode {
			a.arena.AttachContentDocument(host.ID, docRoot)
		}
	}
}

func (a *assembler) placeholder(host *entity.EnhancedNode, depth int, reason string) {
	p := a.arena.New(entity.KindFramePlaceholder, "#frame")
	p.Placeholder = reason
	p.FrameDepth = depth + 1
	a.arena.AttachContentDocument(host.ID, p.ID)
}

// fill records shared wire bookkeeping on a freshly created node.
func (a *assembler) fill(n *entity.EnhancedNode, t *NodeTable, wireIdx int, dn *docNodes) {
	if wireIdx < len(t.BackendNodeID) {
		n.BackendNodeID = t.BackendNodeID[wireIdx]
	}
	dn.arenaIDs = append(dn.arenaIDs, n.ID)
	dn.wireIdx = append(dn.wireIdx, wireIdx)
}

func decodeAttributes(snap *Snapshot, t *NodeTable, wireIdx int) map[string]string {
	if wireIdx >= len(t.Attributes) || len(t.Attributes[wireIdx]) == 0 {
		return nil
	}
	pairs := t.Attributes[wireIdx]
	attrs := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name := snap.String(pairs[i])
		if name == "" {
			continue
		}
		attrs[strings.ToLower(name)] = snap.String(pairs[i+1])
	}
	return attrs
}

// enrich fans geometry/style and accessibility merging out across documents.
// Each goroutine touches only its own document's nodes; the graph structure
// is frozen before enrichment starts.
func (a *assembler) enrich(ctx context.Context) error {
	axLookup := buildAXLookup(a.snap)

	g, ctx := errgroup.WithContext(ctx)
	for _, dn := range a.perDoc {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc := &a.snap.Documents[dn.docIndex]
			layout := buildLayoutIndex(doc)

			for k, id := range dn.arenaIDs {
				node := a.arena.Get(id)
				node.Snapshot = snapshotNode(a.snap, doc, dn.wireIdx[k], layout)
			}

			if err := ctx.Err(); err != nil {
				return err
			}
			resolve := func(id string) *entity.EnhancedNode {
				nid, ok := dn.byID[id]
				if !ok {
					return nil
				}
				return a.arena.Get(nid)
			}
			for _, id := range dn.arenaIDs {
				node := a.arena.Get(id)
				if node.Kind != entity.KindElement {
					continue
				}
				node.Accessibility = mergeAccessibility(a.snap, a.arena, node, axLookup[node.BackendNodeID], resolve)
			}
			return nil
		})
	}
	return g.Wait()
}
