package dom

import (
	"log/slog"
	"strings"

	"github.com/user/domcapture-service/internal/entity"
)

// tagRoles is the tag-based role inference table used when no explicit ARIA
// role is present. Anchor and input roles depend on attributes and are
// resolved in inferTagRole.
var tagRoles = map[string]string{
	"button":   "button",
	"select":   "combobox",
	"textarea": "textbox",
	"img":      "img",
	"nav":      "navigation",
	"main":     "main",
	"header":   "banner",
	"footer":   "contentinfo",
	"aside":    "complementary",
	"form":     "form",
	"table":    "table",
	"ul":       "list",
	"ol":       "list",
	"li":       "listitem",
	"option":   "option",
	"summary":  "button",
	"dialog":   "dialog",
	"progress": "progressbar",
	"h1":       "heading",
	"h2":       "heading",
	"h3":       "heading",
	"h4":       "heading",
	"h5":       "heading",
	"h6":       "heading",
}

var inputTypeRoles = map[string]string{
	"checkbox": "checkbox",
	"radio":    "radio",
	"range":    "slider",
	"number":   "spinbutton",
	"search":   "searchbox",
	"button":   "button",
	"submit":   "button",
	"reset":    "button",
	"image":    "button",
}

// inferTagRole resolves the implicit role for a tag/attribute combination.
func inferTagRole(tag string, attrs map[string]string) string {
	switch tag {
	case "a":
		if attrs["href"] != "" {
			return "link"
		}
		return ""
	case "input":
		typ := strings.ToLower(attrs["type"])
		if typ == "hidden" {
			return ""
		}
		if role, ok := inputTypeRoles[typ]; ok {
			return role
		}
		return "textbox"
	}
	return tagRoles[tag]
}

// buildAXLookup indexes the snapshot's accessibility entries by backend node
// id for O(1) merge during assembly.
func buildAXLookup(snap *Snapshot) map[int64]*AXNode {
	lookup := make(map[int64]*AXNode, len(snap.AXNodes))
	for i := range snap.AXNodes {
		axn := &snap.AXNodes[i]
		if axn.BackendNodeID > 0 {
			lookup[axn.BackendNodeID] = axn
		}
	}
	return lookup
}

// idResolver resolves an element id to its node within one document, used for
// aria-labelledby name computation.
type idResolver func(id string) *entity.EnhancedNode

// mergeAccessibility computes the merged ARIA view of one node.
//
// Role resolution: explicit role attribute, then the accessibility tree,
// then tag inference, then untagged. Name resolution: aria-label, then
// aria-labelledby target text, then element text content. Malformed ARIA
// never fails the capture; unresolvable parts degrade to zero values.
func mergeAccessibility(snap *Snapshot, arena *entity.NodeArena, node *entity.EnhancedNode, axn *AXNode, byID idResolver) *entity.AccessibilityInfo {
	info := &entity.AccessibilityInfo{}

	info.Role = strings.TrimSpace(node.Attr("role"))
	if info.Role == "" && axn != nil && axn.Role != NoString {
		if r := snap.String(axn.Role); r != "generic" && r != "none" {
			info.Role = r
		}
	}
	if info.Role == "" {
		info.Role = inferTagRole(node.Tag, node.Attributes)
	}

	info.Name = strings.TrimSpace(node.Attr("aria-label"))
	if info.Name == "" {
		info.Name = labelledByText(node.Attr("aria-labelledby"), arena, byID)
	}
	if info.Name == "" && axn != nil && axn.Name != NoString {
		info.Name = snap.String(axn.Name)
	}
	if info.Name == "" {
		info.Name = textContent(arena, node, maxValueLength)
	}

	info.Description = strings.TrimSpace(node.Attr("aria-description"))
	if info.Description == "" && axn != nil && axn.Description != NoString {
		info.Description = snap.String(axn.Description)
	}

	if axn != nil {
		info.Ignored = axn.Ignored
		info.ChildIDs = axn.ChildIDs
		for _, pair := range axn.Properties {
			name, value := snap.String(pair[0]), snap.String(pair[1])
			if name == "" {
				continue
			}
			info.Properties = append(info.Properties, entity.AXProperty{Name: name, Value: value})
		}
	}

	if info.Role == "" && info.Name == "" && info.Description == "" && axn == nil {
		return nil
	}
	return info
}

// labelledByText joins the text content of the elements referenced by an
// aria-labelledby attribute. Dangling ids are skipped.
func labelledByText(refs string, arena *entity.NodeArena, byID idResolver) string {
	refs = strings.TrimSpace(refs)
	if refs == "" || byID == nil {
		return ""
	}
	var parts []string
	for _, id := range strings.Fields(refs) {
		target := byID(id)
		if target == nil {
			slog.Debug("aria-labelledby target not found", "id", id)
			continue
		}
		if text := textContent(arena, target, maxValueLength); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// textContent concatenates the text of a node's subtree, capped at max runes.
// Content documents and shadow roots are not crossed.
func textContent(arena *entity.NodeArena, n *entity.EnhancedNode, max int) string {
	var sb strings.Builder
	var walk func(id entity.NodeID)
	walk = func(id entity.NodeID) {
		if sb.Len() > max*4 {
			return
		}
		node := arena.Get(id)
		if node == nil {
			return
		}
		if node.Kind == entity.KindText {
			text := node.Value
			if text == "" && node.Snapshot != nil {
				text = node.Snapshot.TextValue
			}
			if t := strings.TrimSpace(text); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n.ID)

	out := strings.TrimSpace(sb.String())
	runes := []rune(out)
	if len(runes) > max {
		out = string(runes[:max])
	}
	return out
}
