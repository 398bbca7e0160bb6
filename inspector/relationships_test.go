package inspector

import "testing"

func boxAt(x, y, w, h float64) BoxModel {
	return BoxModel{Border: Rect{X: x, Y: y, Width: w, Height: h}}
}

func TestRelationships_PairCount(t *testing.T) {
	boxes := []BoxModel{
		boxAt(0, 0, 10, 10),
		boxAt(20, 0, 10, 10),
		boxAt(40, 0, 10, 10),
	}
	rels := Relationships(boxes, ".item")
	if len(rels) != 3 {
		t.Fatalf("pairs: got %d, want 3", len(rels))
	}
	if rels[0].From != ".item[0]" || rels[0].To != ".item[1]" {
		t.Fatalf("labels: %q -> %q", rels[0].From, rels[0].To)
	}
}

func TestRelationships_FewerThanTwo(t *testing.T) {
	if rels := Relationships([]BoxModel{boxAt(0, 0, 10, 10)}, "a"); rels != nil {
		t.Fatalf("single element: %+v", rels)
	}
	if rels := Relationships(nil, "a"); rels != nil {
		t.Fatalf("empty: %+v", rels)
	}
}

func TestRelationships_RowAlignment(t *testing.T) {
	// Same y and height: a horizontal row.
	boxes := []BoxModel{
		boxAt(0, 100, 50, 30),
		boxAt(70, 100, 50, 30),
	}
	rels := Relationships(boxes, ".cell")
	r := rels[0]

	if !r.Alignment.Top || !r.Alignment.Bottom || !r.Alignment.VerticalCenter {
		t.Fatalf("row alignment flags: %+v", r.Alignment)
	}
	if r.Alignment.Left || r.Alignment.Right || r.Alignment.HorizontalCenter {
		t.Fatalf("unexpected column flags: %+v", r.Alignment)
	}
	if r.Distance.Horizontal != 20 {
		t.Fatalf("horizontal gap: got %v, want 20", r.Distance.Horizontal)
	}
	// Vertical spans coincide, so the vertical gap is zero.
	if r.Distance.Vertical != 0 {
		t.Fatalf("vertical gap: got %v", r.Distance.Vertical)
	}
	// Centers are (25,115) and (95,115): distance 70.
	if r.Distance.CenterToCenter != 70 {
		t.Fatalf("center distance: got %v", r.Distance.CenterToCenter)
	}
}

func TestRelationships_ToleranceOnePixel(t *testing.T) {
	boxes := []BoxModel{
		boxAt(0, 100, 50, 30),
		boxAt(70, 101, 50, 30), // 1px off: still aligned
	}
	if r := Relationships(boxes, "x")[0]; !r.Alignment.Top {
		t.Fatalf("1px offset should align: %+v", r.Alignment)
	}

	boxes[1] = boxAt(70, 102, 50, 30) // 2px off: not aligned
	if r := Relationships(boxes, "x")[0]; r.Alignment.Top {
		t.Fatalf("2px offset should not align: %+v", r.Alignment)
	}
}

func TestRelationships_OverlapGapIsZero(t *testing.T) {
	boxes := []BoxModel{
		boxAt(0, 0, 100, 100),
		boxAt(50, 50, 100, 100),
	}
	r := Relationships(boxes, "x")[0]
	if r.Distance.Horizontal != 0 || r.Distance.Vertical != 0 {
		t.Fatalf("overlapping boxes should have zero gaps: %+v", r.Distance)
	}
}

func TestRelationships_CenterDistanceRounded(t *testing.T) {
	boxes := []BoxModel{
		boxAt(0, 0, 10, 10),  // center (5,5)
		boxAt(10, 7, 10, 10), // center (15,12): hypot(10,7)=12.2066
	}
	r := Relationships(boxes, "x")[0]
	if r.Distance.CenterToCenter != 12 {
		t.Fatalf("rounded center distance: got %v, want 12", r.Distance.CenterToCenter)
	}
}
