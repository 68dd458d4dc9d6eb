// Package cdp implements the capture agent over the Chrome DevTools
// Protocol: it attaches to a running browser, takes the layout and
// accessibility snapshots for a target, and re-encodes them as the interned
// wire snapshot the engine consumes.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/user/domcapture-service/internal/dom"
	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
)

// Agent is a CaptureAgentRepository backed by a remote browser instance.
type Agent struct {
	browserCtx context.Context
	cancel     context.CancelFunc
}

// NewAgent attaches to the browser exposed at devtoolsURL.
func NewAgent(devtoolsURL string) (*Agent, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), devtoolsURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: connecting to %s: %v", repository.ErrAgentUnavailable, devtoolsURL, err)
	}
	return &Agent{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

// Close detaches from the browser.
func (a *Agent) Close() {
	a.cancel()
}

// Snapshot captures the raw node/style/accessibility state of the target
// page. The page is only read, never mutated, so replaying against an
// unchanged page yields an equivalent snapshot.
func (a *Agent) Snapshot(ctx context.Context, opts entity.CaptureOptions) (*dom.Snapshot, error) {
	info, err := a.resolveTarget(ctx, opts.Target)
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(a.browserCtx, chromedp.WithTargetID(info.TargetID))
	defer cancelTab()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		defer cancelDeadline()
	}

	var (
		docs      []*domsnapshot.DocumentSnapshot
		strs      []string
		axNodes   []*accessibility.Node
		axPartial bool
		viewport  entity.Viewport
		timing    dom.SnapshotTiming
	)

	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(cctx context.Context) error {
		snapStart := time.Now()
		var err error
		docs, strs, err = domsnapshot.CaptureSnapshot(dom.StyleWhitelist).
			WithIncludePaintOrder(true).
			WithIncludeDOMRects(true).
			Do(cctx)
		if err != nil {
			return fmt.Errorf("DOMSnapshot.captureSnapshot: %w", err)
		}
		timing.SnapshotMS = time.Since(snapStart).Milliseconds()

		axStart := time.Now()
		axNodes, err = accessibility.GetFullAXTree().Do(cctx)
		if err != nil {
			// Accessibility data is best-effort; the capture proceeds.
			slog.Warn("Accessibility tree unavailable", "target", info.TargetID, "error", err)
			axNodes, axPartial = nil, true
		}
		timing.AccessibilityMS = time.Since(axStart).Milliseconds()

		_, _, _, cssLayout, _, _, err := page.GetLayoutMetrics().Do(cctx)
		if err == nil && cssLayout != nil {
			viewport = entity.Viewport{Width: int(cssLayout.ClientWidth), Height: int(cssLayout.ClientHeight)}
		}
		return nil
	}))
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", repository.ErrSnapshotTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrAgentUnavailable, err)
	}

	snap := convertSnapshot(docs, strs, axNodes)
	snap.AXPartial = axPartial
	snap.URL = info.URL
	snap.Title = info.Title
	snap.Viewport = viewport
	snap.Timing = timing
	return snap, nil
}

// resolveTarget picks the requested tab, or the first page target when the
// request names none.
func (a *Agent) resolveTarget(ctx context.Context, t string) (*target.Info, error) {
	infos, err := chromedp.Targets(a.browserCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing targets: %v", repository.ErrAgentUnavailable, err)
	}
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		if t == "" || info.TargetID == target.ID(t) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", repository.ErrTargetNotFound, t)
}

// convertSnapshot re-encodes the CDP snapshot into the engine's wire format,
// interning every string through a bounded pool.
func convertSnapshot(docs []*domsnapshot.DocumentSnapshot, strs []string, axNodes []*accessibility.Node) *dom.Snapshot {
	pool := dom.NewPool(dom.DefaultMaxStrings)
	snap := &dom.Snapshot{}

	cdpString := func(idx domsnapshot.StringIndex) string {
		if idx < 0 || int(idx) >= len(strs) {
			return ""
		}
		return strs[idx]
	}
	intern := func(idx domsnapshot.StringIndex) dom.Handle {
		if idx < 0 || int(idx) >= len(strs) {
			return dom.NoString
		}
		return pool.Intern(strs[idx])
	}

	for _, d := range docs {
		doc := dom.Document{
			FrameID: pool.Intern(cdpString(d.FrameID)),
			URL:     pool.Intern(cdpString(d.DocumentURL)),
			Title:   pool.Intern(cdpString(d.Title)),
		}

		nodes := d.Nodes
		if nodes == nil {
			nodes = &domsnapshot.NodeTreeSnapshot{}
		}
		n := len(nodes.NodeType)
		t := &doc.Nodes
		t.ParentIndex = make([]int, n)
		t.NodeType = make([]int, n)
		t.NodeName = make([]dom.Handle, n)
		t.NodeValue = make([]dom.Handle, n)
		t.BackendNodeID = make([]int64, n)
		t.Attributes = make([][]dom.Handle, n)
		t.TextValue = rareStrings(n, nodes.TextValue, intern)
		t.InputValue = rareStrings(n, nodes.InputValue, intern)
		t.CurrentSourceURL = rareStrings(n, nodes.CurrentSourceURL, intern)
		t.ShadowRootType = rareStrings(n, nodes.ShadowRootType, intern)
		t.IsClickable = rareBools(n, nodes.IsClickable)
		t.ContentDocument = rareInts(n, nodes.ContentDocumentIndex)

		for i := 0; i < n; i++ {
			if i < len(nodes.ParentIndex) {
				t.ParentIndex[i] = int(nodes.ParentIndex[i])
			} else {
				t.ParentIndex[i] = -1
			}
			t.NodeType[i] = int(nodes.NodeType[i])
			if i < len(nodes.NodeName) {
				t.NodeName[i] = intern(nodes.NodeName[i])
			} else {
				t.NodeName[i] = dom.NoString
			}
			if i < len(nodes.NodeValue) {
				t.NodeValue[i] = intern(nodes.NodeValue[i])
			} else {
				t.NodeValue[i] = dom.NoString
			}
			if i < len(nodes.BackendNodeID) {
				t.BackendNodeID[i] = int64(nodes.BackendNodeID[i])
			}
			if i < len(nodes.Attributes) && nodes.Attributes[i] != nil {
				pairs := nodes.Attributes[i]
				row := make([]dom.Handle, 0, len(pairs))
				for _, idx := range pairs {
					row = append(row, intern(domsnapshot.StringIndex(idx)))
				}
				t.Attributes[i] = row
			}
		}

		layout := d.Layout
		if layout == nil {
			layout = &domsnapshot.LayoutTreeSnapshot{}
		}
		l := &doc.Layout
		for row, nodeIdx := range layout.NodeIndex {
			l.NodeIndex = append(l.NodeIndex, int(nodeIdx))
			l.Bounds = append(l.Bounds, rect4(layout.Bounds, row))
			l.ScrollRects = append(l.ScrollRects, rect4(layout.ScrollRects, row))
			l.ClientRects = append(l.ClientRects, rect4(layout.ClientRects, row))
			if row < len(layout.PaintOrders) {
				l.PaintOrders = append(l.PaintOrders, int(layout.PaintOrders[row]))
			} else {
				l.PaintOrders = append(l.PaintOrders, 0)
			}
			var styleRow []dom.Handle
			if row < len(layout.Styles) && layout.Styles[row] != nil {
				for _, idx := range layout.Styles[row] {
					styleRow = append(styleRow, intern(domsnapshot.StringIndex(idx)))
				}
			}
			l.Styles = append(l.Styles, styleRow)
		}

		snap.Documents = append(snap.Documents, doc)
	}

	convertAXNodes(snap, pool, axNodes)

	snap.Strings = pool.Strings()
	if pool.Overflowed() {
		snap.Warnings = append(snap.Warnings,
			entity.NewWarning(entity.WarnSizeLimitReached, "string pool capacity reached, some values degraded"))
	}
	return snap
}

func convertAXNodes(snap *dom.Snapshot, pool *dom.Pool, axNodes []*accessibility.Node) {
	backendByAXID := make(map[accessibility.NodeID]int64, len(axNodes))
	for _, n := range axNodes {
		if n.BackendDOMNodeID > 0 {
			backendByAXID[n.NodeID] = int64(n.BackendDOMNodeID)
		}
	}

	internValue := func(v *accessibility.Value) dom.Handle {
		s := axValueText(v)
		if s == "" {
			return dom.NoString
		}
		return pool.Intern(s)
	}

	for _, n := range axNodes {
		if n.BackendDOMNodeID <= 0 {
			continue
		}
		wire := dom.AXNode{
			BackendNodeID: int64(n.BackendDOMNodeID),
			Ignored:       n.Ignored,
			Role:          internValue(n.Role),
			Name:          internValue(n.Name),
			Description:   internValue(n.Description),
		}
		for _, p := range n.Properties {
			if p == nil {
				continue
			}
			wire.Properties = append(wire.Properties,
				[2]dom.Handle{pool.Intern(string(p.Name)), internValue(p.Value)})
		}
		for _, child := range n.ChildIDs {
			if backend, ok := backendByAXID[child]; ok {
				wire.ChildIDs = append(wire.ChildIDs, backend)
			}
		}
		snap.AXNodes = append(snap.AXNodes, wire)
	}
}

// axValueText renders an AX value as text. Malformed values degrade to "".
func axValueText(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var raw any
	if err := json.Unmarshal(v.Value, &raw); err != nil {
		return ""
	}
	switch x := raw.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

func rareStrings(n int, data *domsnapshot.RareStringData, intern func(domsnapshot.StringIndex) dom.Handle) []dom.Handle {
	out := make([]dom.Handle, n)
	for i := range out {
		out[i] = dom.NoString
	}
	if data == nil {
		return out
	}
	for k, idx := range data.Index {
		if idx >= 0 && int(idx) < n && k < len(data.Value) {
			out[idx] = intern(data.Value[k])
		}
	}
	return out
}

func rareBools(n int, data *domsnapshot.RareBooleanData) []bool {
	out := make([]bool, n)
	if data == nil {
		return out
	}
	for _, idx := range data.Index {
		if idx >= 0 && int(idx) < n {
			out[idx] = true
		}
	}
	return out
}

func rareInts(n int, data *domsnapshot.RareIntegerData) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	if data == nil {
		return out
	}
	for k, idx := range data.Index {
		if idx >= 0 && int(idx) < n && k < len(data.Value) {
			out[idx] = int(data.Value[k])
		}
	}
	return out
}

func rect4(rects []domsnapshot.Rectangle, row int) [4]float64 {
	var out [4]float64
	if row >= len(rects) {
		return out
	}
	r := rects[row]
	for i := 0; i < len(r) && i < 4; i++ {
		out[i] = r[i]
	}
	return out
}
