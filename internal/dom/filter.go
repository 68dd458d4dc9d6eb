package dom

import (
	"sort"

	"github.com/user/domcapture-service/internal/entity"
)

const (
	// occlusionCoverage is the fraction of a node's box that must be covered
	// by a later-painted box before the node counts as fully occluded.
	occlusionCoverage = 0.99

	// MaxSelectorEntries bounds the selector map; indexing stops with a
	// truncation warning once reached.
	MaxSelectorEntries = 10000
)

// actionableTags always qualify for an interaction index. Anchors need an
// href and inputs must not be hidden; both are checked in isActionable.
var actionableTags = map[string]bool{
	"button":   true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"option":   true,
}

// interactiveRoles is the ARIA role set that marks a node actionable.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "listbox": true, "menuitem": true,
	"menuitemcheckbox": true, "menuitemradio": true, "option": true,
	"tab": true, "switch": true, "slider": true, "spinbutton": true,
	"searchbox": true, "gridcell": true, "treeitem": true,
}

// FilterResult lists the actionable nodes in index order (index i+1 at
// position i) plus any truncation warnings.
type FilterResult struct {
	Indexed  []entity.NodeID
	Warnings []entity.CaptureWarning
}

// FilterAndIndex runs the filter pass over an assembled graph: paint-order
// occlusion (later-painted wins; equal paint order falls back to DOM order),
// viewport intersection filtering, and sequential index assignment over the
// remaining actionable nodes in document order. Hidden nodes are excluded
// regardless of the filtering flags. Indices are stable within one capture
// only.
func FilterAndIndex(res *AssembleResult, viewport entity.Viewport, opts entity.CaptureOptions) *FilterResult {
	return filterAndIndex(res, viewport, opts, MaxSelectorEntries)
}

func filterAndIndex(res *AssembleResult, viewport entity.Viewport, opts entity.CaptureOptions, maxEntries int) *FilterResult {
	arena := res.Arena
	docOf := documentOf(arena)

	occluded := map[entity.NodeID]bool{}
	if opts.PaintOrderFiltering {
		occluded = markOccluded(arena, docOf)
	}

	vp := viewport.Bounds()
	bboxFilter := opts.BBoxFiltering && !vp.Empty()

	visibleSelf := func(n *entity.EnhancedNode) bool {
		if n.Snapshot == nil || !n.Snapshot.IsVisible {
			return false
		}
		if occluded[n.ID] {
			return false
		}
		// Child-frame bounds are frame-local, so only main-document nodes
		// can be compared against the viewport.
		if bboxFilter && docOf[n.ID] == res.Root && n.Snapshot.Bounds.Intersection(vp).Empty() {
			return false
		}
		return true
	}

	// Post-order prune: a node survives when it renders itself or still owns
	// surviving content. Boundary nodes (documents, shadow roots, frame
	// placeholders) are structural and always survive with their host.
	var prune func(id entity.NodeID) bool
	prune = func(id entity.NodeID) bool {
		n := arena.Get(id)
		if n == nil {
			return false
		}
		kept := false
		for _, c := range n.Children {
			if prune(c) {
				kept = true
			}
		}
		for _, sr := range n.ShadowRoots {
			if prune(sr) {
				kept = true
			}
		}
		if n.ContentDocument != entity.InvalidNode && prune(n.ContentDocument) {
			kept = true
		}
		switch n.Kind {
		case entity.KindDocument, entity.KindShadowRoot, entity.KindFramePlaceholder:
			kept = true
		default:
			if visibleSelf(n) {
				kept = true
			}
		}
		n.Pruned = !kept
		return kept
	}
	prune(res.Root)

	out := &FilterResult{}
	var walk func(id entity.NodeID)
	walk = func(id entity.NodeID) {
		n := arena.Get(id)
		if n == nil || n.Pruned {
			return
		}
		if isActionable(n) && visibleSelf(n) {
			if len(out.Indexed) >= maxEntries {
				if len(out.Warnings) == 0 {
					out.Warnings = append(out.Warnings,
						entity.NewWarning(entity.WarnSizeLimitReached, "selector map capped at %d entries", maxEntries))
				}
			} else {
				n.Index = len(out.Indexed) + 1
				out.Indexed = append(out.Indexed, id)
			}
		}
		for _, sr := range n.ShadowRoots {
			walk(sr)
		}
		for _, c := range n.Children {
			walk(c)
		}
		if n.ContentDocument != entity.InvalidNode {
			walk(n.ContentDocument)
		}
	}
	walk(res.Root)

	return out
}

// isActionable reports whether a node qualifies for an interaction index:
// clickable, a link, or a form control. Zero-area nodes never qualify.
func isActionable(n *entity.EnhancedNode) bool {
	if n.Kind != entity.KindElement || n.Snapshot == nil {
		return false
	}
	if n.Snapshot.Bounds.Area() <= 0 {
		return false
	}
	if n.Snapshot.IsClickable {
		return true
	}
	switch {
	case actionableTags[n.Tag]:
		return true
	case n.Tag == "a" && n.Attr("href") != "":
		return true
	case n.Tag == "input" && n.Attr("type") != "hidden":
		return true
	case n.Attr("onclick") != "":
		return true
	case n.Attr("tabindex") != "" && n.Attr("tabindex") != "-1":
		return true
	}
	if n.Accessibility != nil && interactiveRoles[n.Accessibility.Role] {
		return true
	}
	return false
}

// documentOf maps every arena node to the document root that owns it. Shadow
// trees belong to their host's document; iframe content belongs to its own.
// Arena IDs are allocated parent-first, so one forward pass resolves the map.
func documentOf(arena *entity.NodeArena) []entity.NodeID {
	docOf := make([]entity.NodeID, arena.Len())
	for id := entity.NodeID(0); int(id) < arena.Len(); id++ {
		n := arena.Get(id)
		switch {
		case n.Kind == entity.KindDocument || n.Kind == entity.KindFramePlaceholder:
			docOf[id] = id
		case n.Parent != entity.InvalidNode:
			docOf[id] = docOf[n.Parent]
		default:
			docOf[id] = id
		}
	}
	return docOf
}

// markOccluded computes paint order occlusion: a node is removable when a
// single later-painted box covers it almost entirely. Later-painted means a
// strictly higher paint order, or equal paint order and later DOM position.
// Bounds and paint orders are frame-local, so only nodes of the same document
// are ever compared.
func markOccluded(arena *entity.NodeArena, docOf []entity.NodeID) map[entity.NodeID]bool {
	type paintEntry struct {
		id     entity.NodeID
		order  int
		bounds entity.BoundingBox
	}

	byDoc := make(map[entity.NodeID][]paintEntry)
	for id := entity.NodeID(0); int(id) < arena.Len(); id++ {
		n := arena.Get(id)
		if n.Kind != entity.KindElement || n.Snapshot == nil || !n.Snapshot.IsVisible {
			continue
		}
		if n.Snapshot.Bounds.Empty() || n.Snapshot.PaintOrder == 0 {
			continue
		}
		doc := docOf[id]
		byDoc[doc] = append(byDoc[doc], paintEntry{id: id, order: n.Snapshot.PaintOrder, bounds: n.Snapshot.Bounds})
	}

	occluded := make(map[entity.NodeID]bool)
	for _, entries := range byDoc {
		// Topmost first. Arena IDs follow document order, so the DOM-order
		// tie-break is an ID comparison.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].order != entries[j].order {
				return entries[i].order > entries[j].order
			}
			return entries[i].id > entries[j].id
		})

		for i := range entries {
			target := &entries[i]
			for j := 0; j < i; j++ {
				above := &entries[j]
				if occluded[above.id] || isAncestor(arena, target.id, above.id) {
					continue
				}
				inter := target.bounds.Intersection(above.bounds)
				if inter.Area() >= target.bounds.Area()*occlusionCoverage {
					occluded[target.id] = true
					break
				}
			}
		}
	}
	return occluded
}

// isAncestor reports whether anc is an ancestor of id. Children paint over
// their ancestors without occluding them.
func isAncestor(arena *entity.NodeArena, anc, id entity.NodeID) bool {
	for n := arena.Get(id); n != nil && n.Parent != entity.InvalidNode; n = arena.Get(n.Parent) {
		if n.Parent == anc {
			return true
		}
	}
	return false
}
