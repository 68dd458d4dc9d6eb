package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/pkg/utils"
)

// MaxTreeBytes caps the serialized tree payload (pre-compression).
const MaxTreeBytes = 5 << 20

// ErrPayloadTooLarge is returned when the rendered tree exceeds the payload
// budget.
var ErrPayloadTooLarge = errors.New("serialized tree exceeds payload limit")

// summaryAttrs are the attributes worth carrying into a node's one-line
// summary, in render order.
var summaryAttrs = []struct {
	name string
	max  int
}{
	{"id", 60},
	{"class", 40},
	{"type", 20},
	{"name", 40},
	{"placeholder", 50},
	{"aria-label", 50},
	{"href", 80},
	{"value", 50},
	{"role", 30},
	{"alt", 50},
	{"src", 80},
}

// Serialize renders the filtered graph into the indexed tree string and the
// selector map in a single pass, so every bracketed index in the text has
// exactly one map entry and vice versa. maxBytes <= 0 uses MaxTreeBytes.
func Serialize(arena *entity.NodeArena, root entity.NodeID, maxBytes int) (string, map[int]*entity.EnhancedNode, error) {
	if maxBytes <= 0 {
		maxBytes = MaxTreeBytes
	}

	var sb strings.Builder
	selectorMap := make(map[int]*entity.EnhancedNode)

	var render func(id entity.NodeID, depth int, inShadow bool) error
	render = func(id entity.NodeID, depth int, inShadow bool) error {
		if sb.Len() > maxBytes {
			return ErrPayloadTooLarge
		}
		n := arena.Get(id)
		if n == nil || n.Pruned {
			return nil
		}

		childDepth := depth
		switch n.Kind {
		case entity.KindText:
			// Text folds into its parent element's summary line.
		case entity.KindDocument:
			if depth > 0 || inShadow {
				sb.WriteString(indent(depth))
				sb.WriteString("#document")
				if url := n.Attr("url"); url != "" {
					fmt.Fprintf(&sb, " (%s)", utils.TruncateRunes(url, 80))
				}
				sb.WriteByte('\n')
				childDepth = depth + 1
			}
		case entity.KindShadowRoot:
			sb.WriteString(indent(depth))
			fmt.Fprintf(&sb, "#shadow-root (%s)\n", n.Value)
			childDepth = depth + 1
		case entity.KindFramePlaceholder:
			sb.WriteString(indent(depth))
			fmt.Fprintf(&sb, "#frame (%s)\n", n.Placeholder)
		case entity.KindElement:
			sb.WriteString(indent(depth))
			if n.Index > 0 {
				fmt.Fprintf(&sb, "[%d]", n.Index)
				selectorMap[n.Index] = n
			}
			sb.WriteString(elementSummary(arena, n))
			sb.WriteByte('\n')
			childDepth = depth + 1
		}

		for _, sr := range n.ShadowRoots {
			if err := render(sr, childDepth, true); err != nil {
				return err
			}
		}
		for _, c := range n.Children {
			if err := render(c, childDepth, inShadow); err != nil {
				return err
			}
		}
		if n.ContentDocument != entity.InvalidNode {
			if err := render(n.ContentDocument, childDepth, inShadow); err != nil {
				return err
			}
		}
		return nil
	}

	if err := render(root, 0, false); err != nil {
		return "", nil, err
	}
	if sb.Len() > maxBytes {
		return "", nil, ErrPayloadTooLarge
	}
	return sb.String(), selectorMap, nil
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}

// elementSummary renders the minimal tag/attribute/text description of one
// element: `<tag attr=value ...> text`.
func elementSummary(arena *entity.NodeArena, n *entity.EnhancedNode) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, a := range summaryAttrs {
		if v := n.Attr(a.name); v != "" {
			fmt.Fprintf(&sb, " %s=%q", a.name, utils.TruncateRunes(v, a.max))
		}
	}
	sb.WriteByte('>')

	text := directText(arena, n)
	if text == "" && n.Snapshot != nil {
		text = n.Snapshot.InputValue
	}
	if text == "" && n.Accessibility != nil && n.Accessibility.Name != "" && n.Index > 0 {
		text = n.Accessibility.Name
	}
	if text != "" {
		sb.WriteByte(' ')
		sb.WriteString(utils.TruncateRunes(text, 80))
	}
	if n.Snapshot != nil && n.Snapshot.IsScrollable {
		sb.WriteString(" |SCROLL|")
	}
	return sb.String()
}

// directText joins the node's immediate text children only; descendant text
// shows up on the descendants' own lines.
func directText(arena *entity.NodeArena, n *entity.EnhancedNode) string {
	var parts []string
	for _, c := range n.Children {
		child := arena.Get(c)
		if child == nil || child.Kind != entity.KindText {
			continue
		}
		if t := strings.TrimSpace(child.Value); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
