// Package inspector implements the element inspection pipeline: selector
// resolution, box-model measurement, viewport centering and zoom, computed
// style and cascade collection, spatial relationships, and screenshot
// annotation. It drives a Chrome target over CDP through the Target
// interface and is exposed as an MCP tool via RegisterMCP.
package inspector

import "fmt"

// Space identifies the coordinate space a Rect lives in. CSS page pixels,
// viewport-relative pixels and screenshot (device) pixels must never be
// mixed without an explicit transform.
type Space string

const (
	SpacePage       Space = "page"
	SpaceViewport   Space = "viewport"
	SpaceScreenshot Space = "screenshot"
)

// Rect is an axis-aligned rectangle tagged with its coordinate space.
// The tag is deliberately excluded from JSON output; it exists so that
// transforms are explicit operations rather than implicit assumptions.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Space  Space   `json:"-"`
}

// CenterX returns the horizontal center of the rect.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center of the rect.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Area returns the rect's area.
func (r Rect) Area() float64 { return r.Width * r.Height }

// EdgeWidths holds the four edge widths of one box-model layer.
type EdgeWidths struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// ElementMetrics is the raw per-element measurement bundle read from the
// page: a viewport-space bounding rect plus margin/border/padding edge
// widths. It lives for one inspection pass and is discarded after the
// BoxModel is derived from it.
type ElementMetrics struct {
	Rect    Rect       `json:"rect"`
	Margin  EdgeWidths `json:"margin"`
	Border  EdgeWidths `json:"border"`
	Padding EdgeWidths `json:"padding"`
	Visible bool       `json:"visible"`
}

// BoxModel is the four concentric rectangles describing an element's
// layout geometry. By construction content ⊆ padding ⊆ border ⊆ margin.
type BoxModel struct {
	Content Rect `json:"content"`
	Padding Rect `json:"padding"`
	Border  Rect `json:"border"`
	Margin  Rect `json:"margin"`
}

// ComputedStyles maps CSS property names to their final string values.
type ComputedStyles map[string]string

// GroupedStyles maps a semantic group name (layout, box, typography, ...)
// to the property→value pairs classified into it.
type GroupedStyles map[string]map[string]string

// CascadeRule is one style rule matching an element, in the order the
// browser reports cascade application.
type CascadeRule struct {
	Selector    string            `json:"selector"`
	Source      string            `json:"source"`
	Specificity string            `json:"specificity"`
	Properties  map[string]string `json:"properties"`
}

// Distance summarises the spatial separation of one element pair.
// Horizontal and Vertical are edge-to-edge gaps (zero when the spans
// overlap); CenterToCenter is the Euclidean center distance.
type Distance struct {
	Horizontal     float64 `json:"horizontal"`
	Vertical       float64 `json:"vertical"`
	CenterToCenter float64 `json:"center_to_center"`
}

// Alignment holds the four-way edge alignment flags plus center alignment,
// all at a fixed 1px tolerance.
type Alignment struct {
	Top              bool `json:"top"`
	Bottom           bool `json:"bottom"`
	Left             bool `json:"left"`
	Right            bool `json:"right"`
	VerticalCenter   bool `json:"vertical_center"`
	HorizontalCenter bool `json:"horizontal_center"`
}

// ElementRelationship is the spatial summary of one unordered element pair.
type ElementRelationship struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Distance  Distance  `json:"distance"`
	Alignment Alignment `json:"alignment"`
}

// ViewportInfo is a snapshot of browser viewport state, read at call start
// and restored at call end.
type ViewportInfo struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor"`
	Mobile            bool    `json:"mobile"`
	ScrollX           float64 `json:"scrollX"`
	ScrollY           float64 `json:"scrollY"`
}

// ViewportAdjustments records what the viewport controller did during a
// call, for the caller's benefit.
type ViewportAdjustments struct {
	Centered   bool    `json:"centered"`
	ZoomFactor float64 `json:"zoom_factor"`
}

// Stats counts total vs surfaced properties and rules across a call.
type Stats struct {
	TotalProperties    int `json:"total_properties"`
	FilteredProperties int `json:"filtered_properties"`
	TotalRules         int `json:"total_rules"`
	FilteredRules      int `json:"filtered_rules"`
}

// InspectionResult is the terminal output for a single-element call.
type InspectionResult struct {
	Screenshot          []byte               `json:"-"`
	ComputedStyles      ComputedStyles       `json:"computed_styles"`
	GroupedStyles       GroupedStyles        `json:"grouped_styles"`
	CascadeRules        []CascadeRule        `json:"cascade_rules"`
	BoxModel            BoxModel             `json:"box_model"`
	AppliedEdits        map[string]string    `json:"applied_edits,omitempty"`
	ViewportAdjustments *ViewportAdjustments `json:"viewport_adjustments,omitempty"`
	Stats               Stats                `json:"stats"`
}

// ElementInspection is one element's share of a multi-element result.
type ElementInspection struct {
	Index          int               `json:"index"`
	BoxModel       BoxModel          `json:"box_model"`
	ComputedStyles ComputedStyles    `json:"computed_styles"`
	GroupedStyles  GroupedStyles     `json:"grouped_styles"`
	CascadeRules   []CascadeRule     `json:"cascade_rules"`
	AppliedEdits   map[string]string `json:"applied_edits,omitempty"`
}

// MultiInspectionResult is the terminal output when a selector matches
// more than one element: per-element data, pairwise relationships, and one
// shared annotated screenshot.
type MultiInspectionResult struct {
	Screenshot          []byte                `json:"-"`
	Elements            []ElementInspection   `json:"elements"`
	Relationships       []ElementRelationship `json:"relationships"`
	ViewportAdjustments *ViewportAdjustments  `json:"viewport_adjustments,omitempty"`
	Stats               Stats                 `json:"stats"`
}

// Result is the tagged single/multi variant. Exactly one field is non-nil.
type Result struct {
	Single *InspectionResult
	Multi  *MultiInspectionResult
}

// PNG returns the screenshot bytes regardless of variant.
func (r *Result) PNG() []byte {
	if r.Single != nil {
		return r.Single.Screenshot
	}
	if r.Multi != nil {
		return r.Multi.Screenshot
	}
	return nil
}

// Default and limit values for InspectArgs.
const (
	DefaultLimit = 10
	MaxLimit     = 20
	MinZoom      = 0.5
	MaxZoom      = 3.0
)

// DefaultPropertyGroups is the canonical default group set.
var DefaultPropertyGroups = []string{"layout", "box", "typography", "colors"}

// InspectArgs are the arguments of one inspection call.
type InspectArgs struct {
	CSSSelector    string            `json:"css_selector"`
	URL            string            `json:"url"`
	PropertyGroups []string          `json:"property_groups,omitempty"`
	CSSEdits       map[string]string `json:"css_edits,omitempty"`
	Limit          int               `json:"limit,omitempty"`
	AutoCenter     *bool             `json:"auto_center,omitempty"`
	AutoZoom       *bool             `json:"auto_zoom,omitempty"`
	ZoomFactor     *float64          `json:"zoom_factor,omitempty"`
}

// normalize validates required fields and applies defaults and clamps.
func (a *InspectArgs) normalize() error {
	if a.CSSSelector == "" {
		return fmt.Errorf("inspector: css_selector is required")
	}
	if a.URL == "" {
		return fmt.Errorf("inspector: url is required")
	}
	if a.Limit <= 0 {
		a.Limit = DefaultLimit
	}
	if a.Limit > MaxLimit {
		a.Limit = MaxLimit
	}
	if len(a.PropertyGroups) == 0 {
		a.PropertyGroups = append([]string(nil), DefaultPropertyGroups...)
	}
	if a.ZoomFactor != nil {
		z := clampZoom(*a.ZoomFactor)
		a.ZoomFactor = &z
	}
	return nil
}

func (a *InspectArgs) autoCenter() bool { return a.AutoCenter == nil || *a.AutoCenter }
func (a *InspectArgs) autoZoom() bool   { return a.AutoZoom == nil || *a.AutoZoom }
