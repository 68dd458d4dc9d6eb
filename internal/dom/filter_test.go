package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/domcapture-service/internal/entity"
)

func assemble(t *testing.T, b *snapshotBuilder, opts entity.CaptureOptions) *AssembleResult {
	t.Helper()
	res, err := Assemble(context.Background(), b.build(), opts)
	require.NoError(t, err)
	return res
}

func TestFilterIndexesActionableElements(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	body := d.element(html, "body")
	d.box(body, 0, 0, 1280, 800, 1, nil)

	link := d.element(body, "a", "href", "/docs")
	d.box(link, 0, 0, 100, 20, 2, nil)
	input := d.element(body, "input", "type", "text")
	d.box(input, 0, 30, 100, 20, 3, nil)
	hidden := d.element(body, "input", "type", "hidden")
	d.box(hidden, 0, 60, 100, 20, 4, nil)
	div := d.element(body, "div")
	d.box(div, 0, 90, 100, 20, 5, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)

	require.Len(t, filtered.Indexed, 2)

	first := res.Arena.Get(filtered.Indexed[0])
	second := res.Arena.Get(filtered.Indexed[1])
	assert.Equal(t, "a", first.Tag)
	assert.Equal(t, 1, first.Index, "indices are 1-based in document order")
	assert.Equal(t, "input", second.Tag)
	assert.Equal(t, 2, second.Index)

	assert.Zero(t, findByTag(res.Arena, "div").Index, "plain div is not actionable")
}

func TestFilterExcludesHiddenRegardlessOfFlags(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	btn := d.element(html, "button")
	d.box(btn, 0, 0, 100, 20, 2, map[string]string{"display": "none"})

	opts := entity.DefaultOptions()
	opts.PaintOrderFiltering = false
	opts.BBoxFiltering = false

	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)
	assert.Empty(t, filtered.Indexed)
	assert.True(t, findByTag(res.Arena, "button").Pruned)
}

func TestFilterOcclusion(t *testing.T) {
	build := func(paintFiltering bool) (*AssembleResult, *FilterResult) {
		b := newSnapshotBuilder()
		d := b.document("main", "https://example.com/")
		html := d.element(0, "html")
		under := d.element(html, "button", "id", "under")
		d.box(under, 0, 0, 100, 100, 1, nil)
		over := d.element(html, "button", "id", "over")
		d.box(over, 0, 0, 100, 100, 9, nil)

		opts := entity.DefaultOptions()
		opts.PaintOrderFiltering = paintFiltering
		res := assemble(t, b, opts)
		return res, FilterAndIndex(res, b.viewport, opts)
	}

	res, filtered := build(true)
	require.Len(t, filtered.Indexed, 1)
	assert.Equal(t, "over", res.Arena.Get(filtered.Indexed[0]).Attr("id"))

	_, filtered = build(false)
	assert.Len(t, filtered.Indexed, 2)
}

func TestFilterOcclusionPartialCoverageKept(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	under := d.element(html, "button", "id", "under")
	d.box(under, 0, 0, 100, 100, 1, nil)
	over := d.element(html, "button", "id", "over")
	d.box(over, 0, 0, 100, 60, 9, nil) // covers 60%, below the threshold

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)
	assert.Len(t, filtered.Indexed, 2)
}

func TestFilterOcclusionEqualPaintOrderDOMTieBreak(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	first := d.element(html, "button", "id", "first")
	d.box(first, 0, 0, 100, 100, 5, nil)
	second := d.element(html, "button", "id", "second")
	d.box(second, 0, 0, 100, 100, 5, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)

	require.Len(t, filtered.Indexed, 1)
	assert.Equal(t, "second", res.Arena.Get(filtered.Indexed[0]).Attr("id"),
		"equal paint order falls back to DOM order, later node wins")
}

func TestFilterOcclusionScopedToDocument(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	body := d.element(html, "body")
	d.box(body, 0, 0, 1280, 800, 1, nil)

	under := d.element(body, "button", "id", "under")
	d.box(under, 0, 0, 200, 200, 2, nil)
	overlay := d.element(body, "div", "id", "overlay")
	d.box(overlay, 0, 0, 200, 200, 50, nil)
	d.iframe(body, 1, "src", "/frame")

	// The frame's coordinates and paint orders are local to the frame: the
	// main-document overlay covers local (5,5) numerically but never
	// visually.
	c := b.document("child", "https://example.com/frame")
	chtml := c.element(0, "html")
	cinput := c.element(chtml, "input", "type", "text")
	c.box(cinput, 5, 5, 100, 20, 2, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)

	require.Len(t, filtered.Indexed, 1)
	input := res.Arena.Get(filtered.Indexed[0])
	assert.Equal(t, "input", input.Tag, "frame content is never occluded by another document")
	assert.Equal(t, 1, input.Index)
	assert.Zero(t, findByTag(res.Arena, "button").Index, "same-document occlusion still applies")
}

func TestFilterViewportSkipsChildFrames(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	body := d.element(html, "body")
	d.box(body, 0, 0, 1280, 800, 1, nil)
	d.iframe(body, 1, "src", "/frame")

	// Frame-local y=900 exceeds the main viewport height but says nothing
	// about where the frame places the node on screen.
	c := b.document("child", "https://example.com/frame")
	chtml := c.element(0, "html")
	cinput := c.element(chtml, "input", "type", "text")
	c.box(cinput, 10, 900, 100, 20, 2, nil)

	opts := entity.DefaultOptions()
	opts.BBoxFiltering = true
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)

	require.Len(t, filtered.Indexed, 1)
	assert.Equal(t, "input", res.Arena.Get(filtered.Indexed[0]).Tag)
}

func TestFilterSelectorMapTruncation(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	for i := 0; i < 5; i++ {
		btn := d.element(html, "button")
		d.box(btn, 0, float64(i*30), 100, 20, i+2, nil)
	}

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := filterAndIndex(res, b.viewport, opts, 3)

	assert.Len(t, filtered.Indexed, 3)
	require.Len(t, filtered.Warnings, 1, "truncation warns exactly once")
	assert.Equal(t, entity.WarnSizeLimitReached, filtered.Warnings[0].Code)

	tree, selectorMap, err := Serialize(res.Arena, res.Root, MaxTreeBytes)
	require.NoError(t, err)
	assert.Len(t, selectorMap, 3)
	assert.Contains(t, tree, "[3]<button>")
	assert.NotContains(t, tree, "[4]")
}

func TestFilterAncestorNotOccludedByChild(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	outer := d.element(html, "button", "id", "outer")
	d.box(outer, 0, 0, 100, 100, 1, nil)
	inner := d.element(outer, "button", "id", "inner")
	d.box(inner, 0, 0, 100, 100, 9, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)
	assert.Len(t, filtered.Indexed, 2, "children paint over ancestors without occluding them")
}

func TestFilterViewportIntersection(t *testing.T) {
	build := func(bbox bool) *FilterResult {
		b := newSnapshotBuilder()
		d := b.document("main", "https://example.com/")
		html := d.element(0, "html")
		inside := d.element(html, "button", "id", "inside")
		d.box(inside, 10, 10, 100, 20, 2, nil)
		below := d.element(html, "button", "id", "below")
		d.box(below, 10, 2000, 100, 20, 3, nil)

		opts := entity.DefaultOptions()
		opts.BBoxFiltering = bbox
		res := assemble(t, b, opts)
		return FilterAndIndex(res, b.viewport, opts)
	}

	assert.Len(t, build(true).Indexed, 1)
	assert.Len(t, build(false).Indexed, 2)
}

func TestFilterZeroAreaNeverIndexed(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	btn := d.element(html, "button")
	d.box(btn, 0, 0, 0, 0, 2, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)
	assert.Empty(t, filtered.Indexed)
}

func TestFilterPrunesInvisibleBranches(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	d.box(html, 0, 0, 1280, 800, 1, nil)

	// Invisible wrapper with a visible child survives; a fully hidden branch
	// is pruned.
	wrapper := d.element(html, "div", "id", "wrapper")
	visibleChild := d.element(wrapper, "button")
	d.box(visibleChild, 0, 0, 50, 20, 3, nil)

	hiddenBranch := d.element(html, "div", "id", "hidden")
	d.element(hiddenBranch, "span")

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	FilterAndIndex(res, b.viewport, opts)

	var wrapperNode, hiddenNode *entity.EnhancedNode
	for id := entity.NodeID(0); int(id) < res.Arena.Len(); id++ {
		n := res.Arena.Get(id)
		switch n.Attr("id") {
		case "wrapper":
			wrapperNode = n
		case "hidden":
			hiddenNode = n
		}
	}
	require.NotNil(t, wrapperNode)
	require.NotNil(t, hiddenNode)
	assert.False(t, wrapperNode.Pruned)
	assert.True(t, hiddenNode.Pruned)
}

func TestFilterAriaRoleActionable(t *testing.T) {
	b := newSnapshotBuilder()
	d := b.document("main", "https://example.com/")
	html := d.element(0, "html")
	fake := d.element(html, "div", "role", "button")
	d.box(fake, 0, 0, 80, 20, 2, nil)
	plain := d.element(html, "div")
	d.box(plain, 0, 30, 80, 20, 3, nil)

	opts := entity.DefaultOptions()
	res := assemble(t, b, opts)
	filtered := FilterAndIndex(res, b.viewport, opts)

	require.Len(t, filtered.Indexed, 1)
	assert.Equal(t, "button", res.Arena.Get(filtered.Indexed[0]).Attr("role"))
}
