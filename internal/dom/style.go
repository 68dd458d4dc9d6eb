package dom

import (
	"strings"

	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/pkg/utils"
)

// maxValueLength caps text and input values carried per node.
const maxValueLength = 200

// buildLayoutIndex maps document node index -> layout row.
func buildLayoutIndex(doc *Document) map[int]int {
	idx := make(map[int]int, len(doc.Layout.NodeIndex))
	for row, nodeIdx := range doc.Layout.NodeIndex {
		idx[nodeIdx] = row
	}
	return idx
}

// snapshotNode computes the geometry/style view of one wire node. Returns nil
// for nodes the renderer produced no layout box for and that carry no value;
// such nodes are treated as invisible. Never mutates the snapshot.
func snapshotNode(snap *Snapshot, doc *Document, i int, layout map[int]int) *entity.SnapshotInfo {
	info := &entity.SnapshotInfo{}
	hasLayout := false

	if row, ok := layout[i]; ok {
		hasLayout = true
		if row < len(doc.Layout.Bounds) {
			b := doc.Layout.Bounds[row]
			info.Bounds = entity.BoundingBox{X: b[0], Y: b[1], Width: b[2], Height: b[3]}
		}
		if row < len(doc.Layout.Styles) {
			info.Styles = styleSubset(snap, doc.Layout.Styles[row])
		}
		if row < len(doc.Layout.PaintOrders) {
			info.PaintOrder = doc.Layout.PaintOrders[row]
		}
		if row < len(doc.Layout.ScrollRects) {
			r := doc.Layout.ScrollRects[row]
			info.ScrollWidth, info.ScrollHeight = int(r[2]), int(r[3])
		}
		if row < len(doc.Layout.ClientRects) {
			r := doc.Layout.ClientRects[row]
			info.ClientWidth, info.ClientHeight = int(r[2]), int(r[3])
		}
	}

	nodes := &doc.Nodes
	if i < len(nodes.TextValue) && nodes.TextValue[i] != NoString {
		info.TextValue = utils.TruncateRunes(snap.String(nodes.TextValue[i]), maxValueLength)
	}
	if info.TextValue == "" && i < len(nodes.NodeType) && nodes.NodeType[i] == WireNodeText {
		info.TextValue = utils.TruncateRunes(snap.String(nodes.NodeValue[i]), maxValueLength)
	}
	if i < len(nodes.InputValue) && nodes.InputValue[i] != NoString {
		info.InputValue = utils.TruncateRunes(snap.String(nodes.InputValue[i]), maxValueLength)
	}
	if i < len(nodes.CurrentSourceURL) && nodes.CurrentSourceURL[i] != NoString {
		info.CurrentSourceURL = snap.String(nodes.CurrentSourceURL[i])
	}

	if !hasLayout && info.TextValue == "" && info.InputValue == "" {
		return nil
	}

	info.IsVisible = computeVisible(info)
	info.IsScrollable = computeScrollable(info)

	wireClickable := i < len(nodes.IsClickable) && nodes.IsClickable[i]
	info.IsClickable = computeClickable(info, wireClickable)

	return info
}

func styleSubset(snap *Snapshot, row []Handle) map[string]string {
	styles := make(map[string]string, len(StyleWhitelist))
	for k, name := range StyleWhitelist {
		if k >= len(row) {
			break
		}
		if v := snap.String(row[k]); v != "" {
			styles[name] = v
		}
	}
	return styles
}

// computeVisible: a node renders when it has a non-empty box and is not
// hidden by display, visibility or zero opacity.
func computeVisible(info *entity.SnapshotInfo) bool {
	if info.Bounds.Empty() {
		return false
	}
	switch {
	case info.Style("display") == "none",
		info.Style("visibility") == "hidden",
		info.Style("opacity") == "0":
		return false
	}
	return true
}

// computeClickable: pointer-events not none, non-zero area, visible, and
// either the layout engine flagged the node clickable or it shows a pointer
// cursor.
func computeClickable(info *entity.SnapshotInfo, wireClickable bool) bool {
	if !info.IsVisible || info.Bounds.Area() <= 0 {
		return false
	}
	if info.Style("pointer-events") == "none" {
		return false
	}
	return wireClickable || info.Style("cursor") == "pointer"
}

func computeScrollable(info *entity.SnapshotInfo) bool {
	overflow := info.Style("overflow")
	allows := strings.Contains(overflow, "auto") || strings.Contains(overflow, "scroll")
	exceeds := info.ScrollWidth > info.ClientWidth || info.ScrollHeight > info.ClientHeight
	return allows && exceeds
}
