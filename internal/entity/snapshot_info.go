package entity

// SnapshotInfo is the per-node geometry/style view taken from the layout
// snapshot. Side-effect free to compute; absent for nodes the layout engine
// never rendered.
type SnapshotInfo struct {
	Bounds BoundingBox `json:"bounds"`

	// Styles holds the whitelisted computed-style subset (display, visibility,
	// opacity, overflow, cursor, pointer-events, position, background-color).
	Styles map[string]string `json:"styles,omitempty"`

	TextValue        string `json:"text_value,omitempty"`
	InputValue       string `json:"input_value,omitempty"`
	CurrentSourceURL string `json:"current_source_url,omitempty"`

	IsClickable bool `json:"is_clickable,omitempty"`
	IsVisible   bool `json:"is_visible"`

	ScrollWidth  int  `json:"scroll_width,omitempty"`
	ScrollHeight int  `json:"scroll_height,omitempty"`
	ClientWidth  int  `json:"client_width,omitempty"`
	ClientHeight int  `json:"client_height,omitempty"`
	IsScrollable bool `json:"is_scrollable,omitempty"`

	// PaintOrder ranks the node in visual stacking order; higher paints later
	// and wins occlusion.
	PaintOrder int `json:"paint_order,omitempty"`
}

// Style returns a computed style value or "".
func (s *SnapshotInfo) Style(name string) string {
	if s.Styles == nil {
		return ""
	}
	return s.Styles[name]
}
