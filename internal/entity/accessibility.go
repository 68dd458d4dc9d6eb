package entity

// AXProperty is a single accessibility property, e.g. focusable=true.
type AXProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AccessibilityInfo carries the merged ARIA view of a node. All fields are
// best-effort: malformed or missing ARIA data degrades to zero values.
type AccessibilityInfo struct {
	Ignored     bool         `json:"ignored,omitempty"`
	Role        string       `json:"role,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Properties  []AXProperty `json:"properties,omitempty"`
	// ChildIDs reference other accessibility entries by backend node id,
	// the same numbering space the node graph uses.
	ChildIDs []int64 `json:"child_ids,omitempty"`
}

// Property returns a property value by name, or "".
func (a *AccessibilityInfo) Property(name string) string {
	for _, p := range a.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}
