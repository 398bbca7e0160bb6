package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Viewport controller constants. The settle delays compensate for
// asynchronous layout and paint in the browser after a scroll or zoom;
// they are empirically sufficient waits, not correctness guarantees.
const (
	centerDeviation = 0.30

	defaultSettleAfterScroll = 100 * time.Millisecond
	defaultSettleAfterZoom   = 200 * time.Millisecond

	// Single-element zoom band and targets.
	zoomInBelow    = 0.1
	zoomOutAbove   = 0.8
	zoomInTarget   = 0.4
	zoomOutTarget  = 0.6
	// Group zoom band and targets. Groups tolerate more coverage before
	// zooming out since separating multiple elements needs headroom.
	groupZoomInBelow   = 0.2
	groupZoomOutAbove  = 0.9
	groupZoomInTarget  = 0.6
	groupZoomOutTarget = 0.7
)

func clampZoom(f float64) float64 {
	if f < MinZoom {
		return MinZoom
	}
	if f > MaxZoom {
		return MaxZoom
	}
	return f
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// ShouldCenter reports whether an element centered at (cx, cy) in viewport
// coordinates deviates enough from the viewport center to justify a
// scroll: more than 30% of viewport width or height.
func ShouldCenter(cx, cy float64, vp ViewportInfo) bool {
	dx := math.Abs(cx - float64(vp.Width)/2)
	dy := math.Abs(cy - float64(vp.Height)/2)
	return dx > float64(vp.Width)*centerDeviation || dy > float64(vp.Height)*centerDeviation
}

// OptimalZoom computes a zoom factor from single-element area coverage.
// Coverage inside [0.1, 0.8] needs no adjustment; tiny elements zoom in
// toward 40% coverage, oversized ones zoom out toward 60%. Clamped to
// [0.5, 3.0] and rounded to two decimals.
func OptimalZoom(elementArea, viewportArea float64) float64 {
	return coverageZoom(elementArea, viewportArea, zoomInBelow, zoomOutAbove, zoomInTarget, zoomOutTarget)
}

// OptimalGroupZoom is OptimalZoom for the bounding box of a group, with
// looser thresholds (0.2/0.9) and targets (0.6/0.7).
func OptimalGroupZoom(groupArea, viewportArea float64) float64 {
	return coverageZoom(groupArea, viewportArea, groupZoomInBelow, groupZoomOutAbove, groupZoomInTarget, groupZoomOutTarget)
}

func coverageZoom(area, viewportArea, inBelow, outAbove, inTarget, outTarget float64) float64 {
	if area <= 0 || viewportArea <= 0 {
		return 1
	}
	coverage := area / viewportArea
	switch {
	case coverage < inBelow:
		return round2(math.Min(MaxZoom, math.Sqrt(inTarget/coverage)))
	case coverage > outAbove:
		return round2(math.Max(MinZoom, math.Sqrt(outTarget/coverage)))
	default:
		return 1
	}
}

// deviceContext models the browser tab's ambient state (zoom, scroll) that
// an inspection call mutates. It is acquired at call start and restored
// unconditionally at call end, so leaked zoom or scroll never corrupts a
// later call against the same tab.
type deviceContext struct {
	target Target
	log    *slog.Logger

	initial     ViewportInfo
	scrolled    bool
	zoomApplied float64 // 0 when untouched

	settleAfterScroll time.Duration
	settleAfterZoom   time.Duration
}

// acquireDevice snapshots viewport state for later restoration.
func acquireDevice(ctx context.Context, t Target, log *slog.Logger, settleScroll, settleZoom time.Duration) (*deviceContext, error) {
	if settleScroll <= 0 {
		settleScroll = defaultSettleAfterScroll
	}
	if settleZoom <= 0 {
		settleZoom = defaultSettleAfterZoom
	}
	raw, err := t.Eval(ctx, scriptViewportInfo)
	if err != nil {
		return nil, fmt.Errorf("inspector: read viewport: %w", err)
	}
	var vp ViewportInfo
	if err := json.Unmarshal(raw, &vp); err != nil {
		return nil, fmt.Errorf("inspector: decode viewport: %w", err)
	}
	return &deviceContext{
		target:            t,
		log:               log,
		initial:           vp,
		settleAfterScroll: settleScroll,
		settleAfterZoom:   settleZoom,
	}, nil
}

// centerElement scrolls one marked element to the viewport center when it
// deviates enough, then waits for the scroll to settle. Centering must
// complete before zoom is computed because zoom changes which
// viewport-relative position is centered.
func (d *deviceContext) centerElement(ctx context.Context, attr string, idx int, box BoxModel) (bool, error) {
	if !ShouldCenter(box.Border.CenterX(), box.Border.CenterY(), d.initial) {
		return false, nil
	}
	raw, err := d.target.Eval(ctx, scriptCenterElement, attr, idx)
	if err != nil {
		return false, fmt.Errorf("inspector: center element: %w", err)
	}
	if string(raw) == "null" {
		return false, fmt.Errorf("inspector: center element: marker %s=%d lost", attr, idx)
	}
	d.scrolled = true
	sleepCtx(ctx, d.settleAfterScroll)
	return true, nil
}

// centerGroup scrolls the bounding box of all marked elements to the
// viewport center when it deviates enough.
func (d *deviceContext) centerGroup(ctx context.Context, attr string, union Rect) (bool, error) {
	if !ShouldCenter(union.CenterX(), union.CenterY(), d.initial) {
		return false, nil
	}
	raw, err := d.target.Eval(ctx, scriptCenterGroup, attr)
	if err != nil {
		return false, fmt.Errorf("inspector: center group: %w", err)
	}
	if string(raw) == "null" {
		return false, fmt.Errorf("inspector: center group: no marked elements")
	}
	d.scrolled = true
	sleepCtx(ctx, d.settleAfterScroll)
	return true, nil
}

// applyZoom sets the page scale factor and waits for paint to settle.
// A factor of 1 is a no-op.
func (d *deviceContext) applyZoom(ctx context.Context, factor float64) error {
	if factor == 1 {
		return nil
	}
	if err := d.target.SetPageScale(ctx, factor); err != nil {
		return err
	}
	d.zoomApplied = factor
	sleepCtx(ctx, d.settleAfterZoom)
	return nil
}

// restore undoes zoom and scroll mutations. Failures are logged and
// swallowed; restoration must never mask the call's primary result or
// error. Safe to call when nothing was mutated.
func (d *deviceContext) restore(ctx context.Context) {
	if d.zoomApplied != 0 {
		if err := d.target.SetPageScale(ctx, 1); err != nil {
			d.log.Warn("inspector: zoom reset failed", "error", err)
		}
	}
	if d.scrolled {
		if _, err := d.target.Eval(ctx, scriptScrollTo, d.initial.ScrollX, d.initial.ScrollY); err != nil {
			d.log.Warn("inspector: scroll restore failed", "error", err)
		}
	}
}

// sleepCtx waits for the duration or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
