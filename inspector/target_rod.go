package inspector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// RodTarget adapts a Rod page to the Target interface.
type RodTarget struct {
	page *rod.Page
}

// NewRodTarget wraps a connected Rod page.
func NewRodTarget(page *rod.Page) *RodTarget {
	return &RodTarget{page: page}
}

func (t *RodTarget) EnsureDomains(ctx context.Context) error {
	p := t.page.Context(ctx)
	if err := (proto.DOMEnable{}).Call(p); err != nil {
		return fmt.Errorf("inspector: enable DOM domain: %w", err)
	}
	if err := (proto.CSSEnable{}).Call(p); err != nil {
		return fmt.Errorf("inspector: enable CSS domain: %w", err)
	}
	if err := (proto.PageEnable{}).Call(p); err != nil {
		return fmt.Errorf("inspector: enable Page domain: %w", err)
	}
	return nil
}

func (t *RodTarget) DocumentRoot(ctx context.Context) (NodeID, error) {
	depth := 0
	doc, err := proto.DOMGetDocument{Depth: &depth}.Call(t.page.Context(ctx))
	if err != nil {
		return 0, fmt.Errorf("inspector: get document: %w", err)
	}
	return doc.Root.NodeID, nil
}

func (t *RodTarget) Query(ctx context.Context, root NodeID, selector string) (NodeID, error) {
	res, err := proto.DOMQuerySelector{NodeID: root, Selector: selector}.Call(t.page.Context(ctx))
	if err != nil {
		return 0, fmt.Errorf("inspector: query %q: %w", selector, err)
	}
	return res.NodeID, nil
}

func (t *RodTarget) ComputedStyle(ctx context.Context, node NodeID) (ComputedStyles, error) {
	res, err := proto.CSSGetComputedStyleForNode{NodeID: node}.Call(t.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("inspector: computed style: %w", err)
	}
	styles := make(ComputedStyles, len(res.ComputedStyle))
	for _, p := range res.ComputedStyle {
		styles[p.Name] = p.Value
	}
	return styles, nil
}

func (t *RodTarget) MatchedRules(ctx context.Context, node NodeID) ([]CascadeRule, error) {
	res, err := proto.CSSGetMatchedStylesForNode{NodeID: node}.Call(t.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("inspector: matched styles: %w", err)
	}

	var rules []CascadeRule

	// Matched rules arrive in ascending cascade order; keep that order.
	for _, match := range res.MatchedCSSRules {
		if match.Rule == nil || match.Rule.Style == nil {
			continue
		}
		selector := ruleSelector(match)
		rules = append(rules, CascadeRule{
			Selector:    selector,
			Source:      originSource(match.Rule.Origin),
			Specificity: Specificity(selector),
			Properties:  styleProperties(match.Rule.Style),
		})
	}

	// The style attribute wins over every matched rule; report it last.
	if res.InlineStyle != nil {
		if props := styleProperties(res.InlineStyle); len(props) > 0 {
			rules = append(rules, CascadeRule{
				Selector:    "element.style",
				Source:      SourceInline,
				Specificity: "1,0,0,0",
				Properties:  props,
			})
		}
	}

	return rules, nil
}

// ruleSelector picks the selector that actually matched, falling back to
// the whole selector list text.
func ruleSelector(match *proto.CSSRuleMatch) string {
	list := match.Rule.SelectorList
	if list == nil {
		return ""
	}
	if len(match.MatchingSelectors) > 0 {
		i := match.MatchingSelectors[0]
		if i >= 0 && i < len(list.Selectors) {
			return list.Selectors[i].Text
		}
	}
	return list.Text
}

func originSource(origin proto.CSSStyleSheetOrigin) string {
	switch origin {
	case proto.CSSStyleSheetOriginUserAgent:
		return SourceUserAgent
	case proto.CSSStyleSheetOriginInjected:
		return "injected"
	case proto.CSSStyleSheetOriginInspector:
		return "inspector"
	default:
		return "author"
	}
}

func styleProperties(style *proto.CSSCSSStyle) map[string]string {
	props := make(map[string]string, len(style.CSSProperties))
	for _, p := range style.CSSProperties {
		props[p.Name] = p.Value
	}
	return props
}

func (t *RodTarget) Screenshot(ctx context.Context, clip *Rect) ([]byte, error) {
	req := proto.PageCaptureScreenshot{
		Format:      proto.PageCaptureScreenshotFormatPng,
		FromSurface: true,
	}
	if clip != nil {
		req.Clip = &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  1,
		}
	}
	res, err := req.Call(t.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("inspector: capture screenshot: %w", err)
	}
	return res.Data, nil
}

func (t *RodTarget) SetPageScale(ctx context.Context, scale float64) error {
	err := proto.EmulationSetPageScaleFactor{PageScaleFactor: scale}.Call(t.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("inspector: set page scale %v: %w", scale, err)
	}
	return nil
}

func (t *RodTarget) Eval(ctx context.Context, fn string, args ...any) (json.RawMessage, error) {
	res, err := t.page.Context(ctx).Eval(fn, args...)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("inspector: encode eval result: %w", err)
	}
	return data, nil
}
