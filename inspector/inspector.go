package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/ofriw/inspect-mcp/idgen"
)

// markerPrefix is the stem of the call-unique marker attribute. The random
// suffix keeps concurrent calls against the same tab from clobbering each
// other's markers.
const markerPrefix = "data-inspect-mcp-"

// Config tunes one Inspector. Zero values take defaults.
type Config struct {
	// DocumentRetries bounds the document-root fetch attempts; the root
	// can be transiently unavailable right after navigation.
	DocumentRetries int

	// RetryBackoff is the linear backoff unit between document retries:
	// attempt n sleeps n*RetryBackoff.
	RetryBackoff time.Duration

	SettleAfterScroll time.Duration
	SettleAfterZoom   time.Duration

	Logger *slog.Logger

	// NewMarkerID mints the per-call marker attribute suffix.
	NewMarkerID idgen.Generator
}

func (c *Config) defaults() {
	if c.DocumentRetries <= 0 {
		c.DocumentRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.SettleAfterScroll <= 0 {
		c.SettleAfterScroll = defaultSettleAfterScroll
	}
	if c.SettleAfterZoom <= 0 {
		c.SettleAfterZoom = defaultSettleAfterZoom
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewMarkerID == nil {
		c.NewMarkerID = idgen.NanoID(8)
	}
}

// Inspector runs the inspection pipeline against a Target.
type Inspector struct {
	cfg Config
}

// New builds an Inspector, applying defaults to the config.
func New(cfg Config) *Inspector {
	cfg.defaults()
	return &Inspector{cfg: cfg}
}

// markResult is the JSON contract of scriptMarkElements.
type markResult struct {
	Total  int `json:"total"`
	Marked int `json:"marked"`
}

// Inspect runs one full inspection call: resolve the selector, apply
// optional edits, adjust the viewport, collect geometry and styles, and
// capture an annotated screenshot. Page mutations (markers, zoom, scroll)
// are undone before return regardless of outcome; restoration failures are
// logged, never returned, so they cannot mask the primary result.
func (ins *Inspector) Inspect(ctx context.Context, t Target, args InspectArgs) (*Result, error) {
	if err := args.normalize(); err != nil {
		return nil, err
	}
	log := ins.cfg.Logger

	if err := t.EnsureDomains(ctx); err != nil {
		return nil, err
	}

	attr := markerPrefix + ins.cfg.NewMarkerID()

	marked, err := ins.markElements(ctx, t, attr, args)
	if err != nil {
		return nil, err
	}
	defer ins.cleanupMarkers(t, attr)

	device, err := acquireDevice(ctx, t, log, ins.cfg.SettleAfterScroll, ins.cfg.SettleAfterZoom)
	if err != nil {
		return nil, err
	}
	defer device.restore(context.WithoutCancel(ctx))

	root, err := ins.documentRoot(ctx, t)
	if err != nil {
		return nil, err
	}

	if len(args.CSSEdits) > 0 {
		if err := ins.applyEdits(ctx, t, attr, marked, args.CSSEdits); err != nil {
			return nil, err
		}
	}

	boxes, err := ins.measureAll(ctx, t, attr, marked, args.CSSSelector)
	if err != nil {
		return nil, err
	}

	adj, err := ins.adjustViewport(ctx, device, attr, boxes, args)
	if err != nil {
		return nil, err
	}

	// Geometry moved if the viewport did; measure again so reported and
	// drawn boxes reflect the final state.
	if adj.Centered || adj.ZoomFactor != 1 {
		boxes, err = ins.measureAll(ctx, t, attr, marked, args.CSSSelector)
		if err != nil {
			return nil, err
		}
	}

	elements, stats, err := ins.collectStyles(ctx, t, root, attr, marked, args)
	if err != nil {
		return nil, err
	}
	for i := range elements {
		elements[i].BoxModel = boxes[i]
	}

	shot, shotBoxes, err := ins.capture(ctx, t, device.initial, boxes, adj.ZoomFactor)
	if err != nil {
		return nil, err
	}
	annotated := AnnotateScreenshot(shot, shotBoxes, log)

	var adjOut *ViewportAdjustments
	if adj.Centered || adj.ZoomFactor != 1 {
		adjOut = &adj
	}

	log.Info("inspector: inspection complete",
		"selector", args.CSSSelector,
		"matched", marked,
		"centered", adj.Centered,
		"zoom", adj.ZoomFactor,
	)

	if marked == 1 {
		e := elements[0]
		return &Result{Single: &InspectionResult{
			Screenshot:          annotated,
			ComputedStyles:      e.GroupedStyles.Flatten(),
			GroupedStyles:       e.GroupedStyles,
			CascadeRules:        e.CascadeRules,
			BoxModel:            e.BoxModel,
			AppliedEdits:        e.AppliedEdits,
			ViewportAdjustments: adjOut,
			Stats:               stats,
		}}, nil
	}

	return &Result{Multi: &MultiInspectionResult{
		Screenshot:          annotated,
		Elements:            elements,
		Relationships:       Relationships(boxes, args.CSSSelector),
		ViewportAdjustments: adjOut,
		Stats:               stats,
	}}, nil
}

// markElements tags selector matches with the call's marker attribute and
// classifies the two resolution failures: a selector the engine rejects
// versus one that matches nothing.
func (ins *Inspector) markElements(ctx context.Context, t Target, attr string, args InspectArgs) (int, error) {
	raw, err := t.Eval(ctx, scriptMarkElements, args.CSSSelector, attr, args.Limit)
	if err != nil {
		if strings.Contains(err.Error(), "SyntaxError") {
			return 0, &SelectorError{Selector: args.CSSSelector, Err: ErrInvalidSelector}
		}
		return 0, fmt.Errorf("inspector: mark elements: %w", err)
	}
	var mr markResult
	if err := json.Unmarshal(raw, &mr); err != nil {
		return 0, fmt.Errorf("inspector: decode mark result: %w", err)
	}
	if mr.Marked == 0 {
		return 0, &SelectorError{Selector: args.CSSSelector, Err: ErrElementNotFound}
	}
	if mr.Total > mr.Marked {
		ins.cfg.Logger.Debug("inspector: match count capped",
			"selector", args.CSSSelector, "total", mr.Total, "limit", mr.Marked)
	}
	return mr.Marked, nil
}

// cleanupMarkers strips the call's marker attribute. Runs on a detached
// context so cleanup still happens when the call's context is already done.
func (ins *Inspector) cleanupMarkers(t Target, attr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := t.Eval(ctx, scriptCleanupMarkers, attr); err != nil {
		ins.cfg.Logger.Warn("inspector: marker cleanup failed", "attr", attr, "error", err)
	}
}

// documentRoot fetches the document root with linear-backoff retries.
func (ins *Inspector) documentRoot(ctx context.Context, t Target) (NodeID, error) {
	var lastErr error
	for attempt := 1; attempt <= ins.cfg.DocumentRetries; attempt++ {
		root, err := t.DocumentRoot(ctx)
		if err == nil {
			return root, nil
		}
		lastErr = err
		ins.cfg.Logger.Debug("inspector: document root fetch failed",
			"attempt", attempt, "error", err)
		if attempt < ins.cfg.DocumentRetries {
			sleepCtx(ctx, time.Duration(attempt)*ins.cfg.RetryBackoff)
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrDocumentUnavailable, lastErr)
}

func (ins *Inspector) applyEdits(ctx context.Context, t Target, attr string, marked int, edits map[string]string) error {
	for i := 0; i < marked; i++ {
		raw, err := t.Eval(ctx, scriptSetInlineStyle, attr, i, edits)
		if err != nil {
			return fmt.Errorf("inspector: apply edits to element %d: %w", i, err)
		}
		if string(raw) != "true" {
			return fmt.Errorf("inspector: apply edits: marker %s=%d lost", attr, i)
		}
	}
	return nil
}

// measureAll reads viewport-space box models for every marked element.
// Any element without layout fails the whole call.
func (ins *Inspector) measureAll(ctx context.Context, t Target, attr string, marked int, selector string) ([]BoxModel, error) {
	boxes := make([]BoxModel, marked)
	for i := 0; i < marked; i++ {
		raw, err := t.Eval(ctx, scriptElementMetrics, attr, i)
		if err != nil {
			return nil, fmt.Errorf("inspector: measure element %d: %w", i, err)
		}
		if string(raw) == "null" {
			return nil, &SelectorError{Selector: selector, Err: ErrElementNotFound}
		}
		var m ElementMetrics
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("inspector: decode metrics for element %d: %w", i, err)
		}
		if !m.Visible {
			return nil, &SelectorError{Selector: selector, Err: ErrElementNotVisible}
		}
		m.Rect.Space = SpaceViewport
		boxes[i] = DeriveBoxModel(m)
	}
	return boxes, nil
}

// adjustViewport centers and zooms per the call's flags. Centering always
// runs before zoom: zoom pivots on the viewport center, so the order is
// load-bearing.
func (ins *Inspector) adjustViewport(ctx context.Context, d *deviceContext, attr string, boxes []BoxModel, args InspectArgs) (ViewportAdjustments, error) {
	adj := ViewportAdjustments{ZoomFactor: 1}

	single := len(boxes) == 1
	borders := make([]Rect, len(boxes))
	for i, b := range boxes {
		borders[i] = b.Border
	}
	union := unionRect(borders)

	if args.autoCenter() {
		var (
			centered bool
			err      error
		)
		if single {
			centered, err = d.centerElement(ctx, attr, 0, boxes[0])
		} else {
			centered, err = d.centerGroup(ctx, attr, union)
		}
		if err != nil {
			return adj, err
		}
		adj.Centered = centered
	}

	viewportArea := float64(d.initial.Width) * float64(d.initial.Height)
	switch {
	case args.ZoomFactor != nil:
		adj.ZoomFactor = *args.ZoomFactor
	case args.autoZoom() && single:
		adj.ZoomFactor = OptimalZoom(boxes[0].Border.Area(), viewportArea)
	case args.autoZoom():
		adj.ZoomFactor = OptimalGroupZoom(union.Area(), viewportArea)
	}

	if err := d.applyZoom(ctx, adj.ZoomFactor); err != nil {
		return adj, err
	}
	return adj, nil
}

// collectStyles gathers computed styles and cascade rules for every marked
// element, resolving each marker back to a protocol node id.
func (ins *Inspector) collectStyles(ctx context.Context, t Target, root NodeID, attr string, marked int, args InspectArgs) ([]ElementInspection, Stats, error) {
	var stats Stats
	elements := make([]ElementInspection, marked)

	for i := 0; i < marked; i++ {
		node, err := t.Query(ctx, root, fmt.Sprintf(`[%s="%d"]`, attr, i))
		if err != nil {
			return nil, stats, err
		}
		if node == 0 {
			return nil, stats, &SelectorError{Selector: args.CSSSelector, Err: ErrElementNotFound}
		}

		computed, err := t.ComputedStyle(ctx, node)
		if err != nil {
			return nil, stats, err
		}
		grouped := ClassifyStyles(computed, args.PropertyGroups)

		rules, err := t.MatchedRules(ctx, node)
		if err != nil {
			return nil, stats, err
		}
		filtered := FilterRules(rules, args.PropertyGroups, false)

		stats.TotalProperties += len(computed)
		stats.FilteredProperties += len(grouped.Flatten())
		stats.TotalRules += len(rules)
		stats.FilteredRules += len(filtered)

		elements[i] = ElementInspection{
			Index:          i,
			ComputedStyles: grouped.Flatten(),
			GroupedStyles:  grouped,
			CascadeRules:   filtered,
			AppliedEdits:   args.CSSEdits,
		}
	}
	return elements, stats, nil
}

// capture grabs the screenshot and maps viewport-space boxes into its
// pixel space, accounting for the applied zoom and for any device scale
// inferred from the decoded image dimensions.
func (ins *Inspector) capture(ctx context.Context, t Target, vp ViewportInfo, boxes []BoxModel, zoom float64) ([]byte, []BoxModel, error) {
	shot, err := t.Screenshot(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if len(shot) == 0 {
		return nil, nil, fmt.Errorf("%w: empty capture", ErrCaptureFailed)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(shot))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode dimensions: %v", ErrCaptureFailed, err)
	}

	out := make([]BoxModel, len(boxes))
	for i, b := range boxes {
		out[i] = TransformForScreenshot(
			b.Scale(zoom),
			float64(vp.Width), float64(vp.Height),
			cfg.Width, cfg.Height,
			nil,
		)
	}
	return shot, out, nil
}
