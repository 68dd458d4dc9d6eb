package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAttach(t *testing.T) {
	a := NewArena()
	parent := a.New(KindDocument, "#document")
	child := a.New(KindElement, "div")

	a.Attach(parent.ID, child.ID)
	assert.Equal(t, parent.ID, child.Parent)
	assert.Equal(t, []NodeID{child.ID}, parent.Children)

	// A node has exactly one parent; re-attaching is ignored.
	other := a.New(KindElement, "section")
	a.Attach(other.ID, child.ID)
	assert.Equal(t, parent.ID, child.Parent)
	assert.Empty(t, other.Children)

	assert.Nil(t, a.Get(InvalidNode))
	assert.Nil(t, a.Get(NodeID(99)))
}

func TestArenaAttachContentDocumentAndShadowRoot(t *testing.T) {
	a := NewArena()
	frame := a.New(KindElement, "iframe")
	doc := a.New(KindDocument, "#document")
	a.AttachContentDocument(frame.ID, doc.ID)
	assert.Equal(t, doc.ID, frame.ContentDocument)
	assert.Equal(t, frame.ID, doc.Parent)

	host := a.New(KindElement, "my-widget")
	sr := a.New(KindShadowRoot, "#shadow-root")
	a.AttachShadowRoot(host.ID, sr.ID)
	require.Len(t, host.ShadowRoots, 1)
	assert.Equal(t, sr.ID, host.ShadowRoots[0])
}

func TestBoundingBoxIntersection(t *testing.T) {
	a := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
	b := BoundingBox{X: 50, Y: 50, Width: 100, Height: 100}

	inter := a.Intersection(b)
	assert.Equal(t, BoundingBox{X: 50, Y: 50, Width: 50, Height: 50}, inter)
	assert.Equal(t, 2500.0, inter.Area())

	disjoint := BoundingBox{X: 500, Y: 500, Width: 10, Height: 10}
	assert.True(t, a.Intersection(disjoint).Empty())

	assert.True(t, BoundingBox{Width: 0, Height: 10}.Empty())
	assert.Equal(t, 0.0, BoundingBox{Width: -5, Height: 10}.Area())
}

func TestViewportBounds(t *testing.T) {
	v := Viewport{Width: 1280, Height: 800}
	assert.Equal(t, BoundingBox{Width: 1280, Height: 800}, v.Bounds())
	assert.True(t, Viewport{}.Bounds().Empty())
}
