package inspector

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSpecificity(t *testing.T) {
	tests := []struct {
		selector string
		want     string
	}{
		{"", "0,0,0,0"},
		{"div", "0,0,0,1"},
		{".card", "0,0,1,0"},
		{"#header", "0,1,0,0"},
		{"#a.b.c div", "0,1,2,1"},
		{"ul li a", "0,0,0,3"},
		{"a:hover", "0,0,1,1"},
		{"p::first-line", "0,0,0,2"},
		{"input[type=\"text\"]", "0,0,1,1"},
		{"li:nth-child(2n+1)", "0,0,1,1"},
		{"nav > ul > li", "0,0,0,3"},
		{"*", "0,0,0,0"},
		// Selectors inside functional arguments count as one pseudo-class,
		// never as extra ids or classes.
		{"a:not(#x)", "0,0,1,1"},
		{"div:is(.a, .b)", "0,0,1,1"},
		{"li:not([disabled]):hover", "0,0,2,1"},
	}
	for _, tt := range tests {
		if got := Specificity(tt.selector); got != tt.want {
			t.Errorf("Specificity(%q) = %q, want %q", tt.selector, got, tt.want)
		}
	}
}

func TestClassifyStyles_GroupsAndEssentials(t *testing.T) {
	styles := ComputedStyles{
		"display":        "flex",
		"position":       "absolute",
		"width":          "100px",
		"height":         "50px",
		"color":          "rgb(0, 0, 0)",
		"font-size":      "14px",
		"flex-direction": "row",
		"z-index":        "10",
		"--brand-color":  "#f00",
		"unknownprop":    "whatever",
	}

	grouped := ClassifyStyles(styles, []string{"typography", "custom"})

	if grouped["typography"]["font-size"] != "14px" {
		t.Fatalf("typography: %+v", grouped["typography"])
	}
	if grouped["custom"]["--brand-color"] != "#f00" {
		t.Fatalf("custom: %+v", grouped["custom"])
	}
	// Essentials always surface even when their group wasn't requested.
	if grouped["layout"]["display"] != "flex" {
		t.Fatalf("essential display missing: %+v", grouped)
	}
	if grouped["positioning"]["position"] != "absolute" {
		t.Fatalf("essential position missing: %+v", grouped)
	}
	if grouped["box"]["width"] != "100px" || grouped["box"]["height"] != "50px" {
		t.Fatalf("essential dimensions missing: %+v", grouped["box"])
	}
	// Non-requested, non-essential groups are excluded.
	if _, ok := grouped["colors"]; ok {
		t.Fatalf("colors should be filtered: %+v", grouped)
	}
	if _, ok := grouped["flexbox"]; ok {
		t.Fatalf("flexbox should be filtered: %+v", grouped)
	}
	// Properties outside the taxonomy are never surfaced.
	for g, props := range grouped {
		if _, ok := props["unknownprop"]; ok {
			t.Fatalf("unknown property leaked into %s", g)
		}
	}
}

func TestClassifyStyles_UnknownGroupIgnored(t *testing.T) {
	styles := ComputedStyles{"color": "red", "display": "block", "position": "static", "width": "1px", "height": "1px"}
	grouped := ClassifyStyles(styles, []string{"nonsense", "colors"})
	if grouped["colors"]["color"] != "red" {
		t.Fatalf("colors missing: %+v", grouped)
	}
}

func TestTruncateValue(t *testing.T) {
	short := "10px"
	if got := TruncateValue("width", short); got != short {
		t.Fatalf("short value changed: %q", got)
	}

	long := strings.Repeat("a", 150)
	got := TruncateValue("background-image", long)
	if len(got) != 100 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long value: len %d, %q", len(got), got[90:])
	}

	exactly := strings.Repeat("b", 100)
	if got := TruncateValue("filter", exactly); got != exactly {
		t.Fatal("boundary value should pass unchanged")
	}
}

func TestTruncateValue_MultiByte(t *testing.T) {
	long := strings.Repeat("é", 120)
	got := TruncateValue("content", long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got[:10])
	}
	if utf8.RuneCountInString(got) != 100 || !strings.HasSuffix(got, "...") {
		t.Fatalf("multi-byte value: %d runes, %q", utf8.RuneCountInString(got), got[len(got)-10:])
	}
}

func TestTruncateValue_FontFamily(t *testing.T) {
	fonts := `Helvetica, Arial, "Segoe UI", Roboto, sans-serif`
	got := TruncateValue("font-family", fonts)
	want := `Helvetica, Arial, "Segoe UI", ...`
	if got != want {
		t.Fatalf("font-family: got %q, want %q", got, want)
	}

	few := "Georgia, serif"
	if got := TruncateValue("font-family", few); got != few {
		t.Fatalf("short list changed: %q", got)
	}
}

func TestFilterRules(t *testing.T) {
	rules := []CascadeRule{
		{Selector: "div", Source: SourceUserAgent, Specificity: "0,0,0,1",
			Properties: map[string]string{"display": "block"}},
		{Selector: ".card", Source: "author", Specificity: "0,0,1,0",
			Properties: map[string]string{"color": "red", "cursor": "pointer"}},
		{Selector: ".empty", Source: "author", Specificity: "0,0,1,0",
			Properties: map[string]string{"transition": "all 1s"}},
		{Selector: "element.style", Source: SourceInline, Specificity: "1,0,0,0",
			Properties: map[string]string{"width": "50px"}},
	}

	out := FilterRules(rules, []string{"colors"}, false)

	if len(out) != 2 {
		t.Fatalf("filtered rules: got %d: %+v", len(out), out)
	}
	// User-agent dropped, .card keeps only color, inline keeps essential width.
	if out[0].Selector != ".card" || len(out[0].Properties) != 1 {
		t.Fatalf("rule 0: %+v", out[0])
	}
	if out[1].Selector != "element.style" || out[1].Properties["width"] != "50px" {
		t.Fatalf("rule 1: %+v", out[1])
	}

	// includeAll bypasses every filter.
	all := FilterRules(rules, []string{"colors"}, true)
	if len(all) != 4 {
		t.Fatalf("includeAll: got %d rules", len(all))
	}
}

func TestGroupedStylesFlatten(t *testing.T) {
	g := GroupedStyles{
		"box":    {"width": "1px"},
		"colors": {"color": "red"},
	}
	flat := g.Flatten()
	if len(flat) != 2 || flat["width"] != "1px" || flat["color"] != "red" {
		t.Fatalf("flatten: %+v", flat)
	}
}
