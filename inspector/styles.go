package inspector

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Property group taxonomy. Each recognized property belongs to exactly one
// group; unrecognized non-custom properties are not surfaced. The partition
// deliberately keeps border-* under box and background-* split between
// colors (paint) and visual (placement).
var propertyGroup = map[string]string{
	// layout
	"display": "layout", "box-sizing": "layout", "float": "layout",
	"clear": "layout", "overflow": "layout", "overflow-x": "layout",
	"overflow-y": "layout", "visibility": "layout", "vertical-align": "layout",
	"object-fit": "layout", "object-position": "layout",

	// box
	"width": "box", "height": "box", "min-width": "box", "min-height": "box",
	"max-width": "box", "max-height": "box",
	"margin": "box", "margin-top": "box", "margin-right": "box",
	"margin-bottom": "box", "margin-left": "box",
	"padding": "box", "padding-top": "box", "padding-right": "box",
	"padding-bottom": "box", "padding-left": "box",
	"border": "box", "border-width": "box", "border-style": "box",
	"border-color": "box", "border-radius": "box",
	"border-top-width": "box", "border-right-width": "box",
	"border-bottom-width": "box", "border-left-width": "box",
	"border-top-style": "box", "border-right-style": "box",
	"border-bottom-style": "box", "border-left-style": "box",
	"border-top-color": "box", "border-right-color": "box",
	"border-bottom-color": "box", "border-left-color": "box",

	// flexbox
	"flex": "flexbox", "flex-direction": "flexbox", "flex-wrap": "flexbox",
	"flex-flow": "flexbox", "flex-grow": "flexbox", "flex-shrink": "flexbox",
	"flex-basis": "flexbox", "justify-content": "flexbox",
	"align-items": "flexbox", "align-content": "flexbox",
	"align-self": "flexbox", "order": "flexbox", "gap": "flexbox",
	"row-gap": "flexbox", "column-gap": "flexbox",

	// grid
	"grid": "grid", "grid-template": "grid", "grid-template-columns": "grid",
	"grid-template-rows": "grid", "grid-template-areas": "grid",
	"grid-auto-columns": "grid", "grid-auto-rows": "grid",
	"grid-auto-flow": "grid", "grid-area": "grid",
	"grid-column": "grid", "grid-column-start": "grid", "grid-column-end": "grid",
	"grid-row": "grid", "grid-row-start": "grid", "grid-row-end": "grid",
	"place-items": "grid", "place-content": "grid", "place-self": "grid",

	// typography
	"font": "typography", "font-family": "typography", "font-size": "typography",
	"font-weight": "typography", "font-style": "typography",
	"font-variant": "typography", "font-stretch": "typography",
	"line-height": "typography", "letter-spacing": "typography",
	"word-spacing": "typography", "text-align": "typography",
	"text-decoration": "typography", "text-transform": "typography",
	"text-indent": "typography", "text-overflow": "typography",
	"white-space": "typography", "word-break": "typography",
	"overflow-wrap": "typography", "direction": "typography",

	// colors
	"color": "colors", "background-color": "colors", "background": "colors",
	"background-image": "colors", "accent-color": "colors",
	"caret-color": "colors", "outline-color": "colors",

	// visual
	"opacity": "visual", "box-shadow": "visual", "text-shadow": "visual",
	"filter": "visual", "backdrop-filter": "visual", "transform": "visual",
	"transform-origin": "visual", "transition": "visual", "animation": "visual",
	"cursor": "visual", "outline": "visual", "outline-width": "visual",
	"outline-style": "visual", "outline-offset": "visual",
	"background-position": "visual", "background-size": "visual",
	"background-repeat": "visual", "background-attachment": "visual",
	"mix-blend-mode": "visual", "clip-path": "visual",

	// positioning
	"position": "positioning", "top": "positioning", "right": "positioning",
	"bottom": "positioning", "left": "positioning", "z-index": "positioning",
	"inset": "positioning",
}

// essentialProperties are always surfaced regardless of the requested
// groups, so a heavily filtered response stays minimally useful.
var essentialProperties = map[string]bool{
	"display":  true,
	"position": true,
	"width":    true,
	"height":   true,
}

const (
	customGroup     = "custom"
	maxValueLength  = 100
	maxFontFamilies = 3
)

// groupOf returns the semantic group of a property, or "" for properties
// outside the taxonomy.
func groupOf(property string) string {
	if strings.HasPrefix(property, "--") {
		return customGroup
	}
	return propertyGroup[property]
}

// includeProperty reports whether a property survives the requested-group
// filter. Essential properties always do.
func includeProperty(property string, requested map[string]bool) bool {
	if essentialProperties[property] {
		return true
	}
	g := groupOf(property)
	return g != "" && requested[g]
}

// groupSet normalizes a requested group list into a lookup set. Unknown
// group names are silently ignored.
func groupSet(groups []string) map[string]bool {
	set := make(map[string]bool, len(groups))
	for _, g := range groups {
		set[strings.ToLower(strings.TrimSpace(g))] = true
	}
	return set
}

// ClassifyStyles partitions a computed style map into semantic groups,
// keeping only the requested groups plus essential properties, and
// truncating oversized values.
func ClassifyStyles(styles ComputedStyles, requestedGroups []string) GroupedStyles {
	requested := groupSet(requestedGroups)
	out := make(GroupedStyles)
	for prop, value := range styles {
		if !includeProperty(prop, requested) {
			continue
		}
		g := groupOf(prop)
		if g == "" {
			continue
		}
		if out[g] == nil {
			out[g] = make(map[string]string)
		}
		out[g][prop] = TruncateValue(prop, value)
	}
	return out
}

// Flatten merges grouped styles back into a single property→value map.
func (g GroupedStyles) Flatten() ComputedStyles {
	out := make(ComputedStyles)
	for _, props := range g {
		for k, v := range props {
			out[k] = v
		}
	}
	return out
}

// Selector tokenization for specificity counting. Functional pseudo-class
// arguments and attribute blocks are removed first so their contents cannot
// be miscounted.
var (
	reParenArgs   = regexp.MustCompile(`\([^)]*\)`)
	reAttr        = regexp.MustCompile(`\[[^\]]*\]`)
	reID          = regexp.MustCompile(`#[A-Za-z_][\w-]*`)
	reClass       = regexp.MustCompile(`\.[A-Za-z_][\w-]*`)
	rePseudoElem  = regexp.MustCompile(`::[a-z-]+`)
	rePseudoClass = regexp.MustCompile(`:[a-z-]+(\([^)]*\))?`)
	reTypeToken   = regexp.MustCompile(`(?:^|[\s>+~,(])([a-zA-Z][\w-]*)`)
)

// Specificity computes the 4-part specificity of a selector as the string
// "inline,ids,classes,elements". The inline slot is always 0 here; inline
// style attributes are reported through a rule's source tag instead.
// Counting follows standard CSS: ids for #id; classes for .class, [attr]
// and pseudo-classes (a parameterized pseudo-class counts once); elements
// for type selectors and ::pseudo-elements.
func Specificity(selector string) string {
	s := strings.TrimSpace(selector)
	if s == "" {
		return "0,0,0,0"
	}

	// Empty out functional arguments first; a selector inside :not(...) or
	// :is(...) must not count on top of the pseudo-class itself.
	s = reParenArgs.ReplaceAllString(s, "()")

	attrs := len(reAttr.FindAllString(s, -1))
	s = reAttr.ReplaceAllString(s, " ")

	ids := len(reID.FindAllString(s, -1))
	s = reID.ReplaceAllString(s, " ")

	classes := len(reClass.FindAllString(s, -1))
	s = reClass.ReplaceAllString(s, " ")

	pseudoElems := len(rePseudoElem.FindAllString(s, -1))
	s = rePseudoElem.ReplaceAllString(s, " ")

	pseudoClasses := len(rePseudoClass.FindAllString(s, -1))
	s = rePseudoClass.ReplaceAllString(s, " ")

	elements := pseudoElems
	for _, m := range reTypeToken.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			elements++
		}
	}

	return fmt.Sprintf("0,%d,%d,%d", ids, classes+attrs+pseudoClasses, elements)
}

// TruncateValue bounds a style value's size for the consuming agent
// without losing the dominant signal. font-family lists keep their first
// three entries; other long values are cut at 97 characters plus an
// ellipsis marker.
func TruncateValue(property, value string) string {
	if property == "font-family" {
		parts := strings.Split(value, ",")
		if len(parts) > maxFontFamilies {
			kept := make([]string, maxFontFamilies)
			for i := range kept {
				kept[i] = strings.TrimSpace(parts[i])
			}
			return strings.Join(kept, ", ") + ", ..."
		}
	}
	if utf8.RuneCountInString(value) <= maxValueLength {
		return value
	}
	// Cut on rune boundaries so multi-byte values stay valid UTF-8.
	runes := []rune(value)
	return string(runes[:maxValueLength-3]) + "..."
}

// SourceUserAgent tags rules originating from the browser's default
// stylesheet; SourceInline tags the element's style attribute.
const (
	SourceUserAgent = "user-agent"
	SourceInline    = "inline"
)

// FilterRules applies the requested-group filter to cascade rules. Unless
// includeAll is set it drops user-agent rules, filters each retained
// rule's properties by the same group test used for computed styles, and
// drops rules left with no properties. Rule order is preserved.
func FilterRules(rules []CascadeRule, requestedGroups []string, includeAll bool) []CascadeRule {
	if includeAll {
		return rules
	}
	requested := groupSet(requestedGroups)
	var out []CascadeRule
	for _, rule := range rules {
		if rule.Source == SourceUserAgent {
			continue
		}
		props := make(map[string]string)
		for k, v := range rule.Properties {
			if includeProperty(k, requested) {
				props[k] = TruncateValue(k, v)
			}
		}
		if len(props) == 0 {
			continue
		}
		rule.Properties = props
		out = append(out, rule)
	}
	return out
}
