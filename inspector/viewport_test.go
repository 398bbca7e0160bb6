package inspector

import "testing"

func TestOptimalZoom_InBandIsUnit(t *testing.T) {
	vp := 1280.0 * 1024.0
	for _, coverage := range []float64{0.1, 0.3, 0.5, 0.8} {
		if got := OptimalZoom(coverage*vp, vp); got != 1.0 {
			t.Errorf("coverage %v: got %v, want exactly 1.0", coverage, got)
		}
	}
}

func TestOptimalZoom_TinyElementClampsAtMax(t *testing.T) {
	// 50x20 in 1280x1024: coverage well below 0.1.
	if got := OptimalZoom(50*20, 1280*1024); got != MaxZoom {
		t.Fatalf("tiny element zoom: got %v, want %v", got, MaxZoom)
	}
}

func TestOptimalZoom_ZoomIn(t *testing.T) {
	vp := 1000.0
	// coverage 0.05 -> sqrt(0.4/0.05) = sqrt(8) = 2.83.
	if got := OptimalZoom(50, vp); got != 2.83 {
		t.Fatalf("zoom in: got %v, want 2.83", got)
	}
}

func TestOptimalZoom_ZoomOut(t *testing.T) {
	vp := 1000.0
	// coverage 0.9 -> sqrt(0.6/0.9) = 0.8165 -> 0.82.
	if got := OptimalZoom(900, vp); got != 0.82 {
		t.Fatalf("zoom out: got %v, want 0.82", got)
	}
	// Gigantic coverage clamps at the minimum.
	if got := OptimalZoom(10_000, vp); got != MinZoom {
		t.Fatalf("oversized zoom: got %v, want %v", got, MinZoom)
	}
}

func TestOptimalGroupZoom_Thresholds(t *testing.T) {
	vp := 1000.0
	// Group band is wider: 0.15 coverage needs no zoom for a group.
	if got := OptimalGroupZoom(150, vp); got != 1.0 {
		t.Fatalf("group in-band: got %v", got)
	}
	// Single-element band would have zoomed out at 0.85; groups do not.
	if got := OptimalGroupZoom(850, vp); got != 1.0 {
		t.Fatalf("group 0.85 coverage: got %v", got)
	}
	// coverage 0.1 -> sqrt(0.6/0.1) = 2.449 -> 2.45.
	if got := OptimalGroupZoom(100, vp); got != 2.45 {
		t.Fatalf("group zoom in: got %v", got)
	}
	// coverage 0.95 -> sqrt(0.7/0.95) = 0.858 -> 0.86.
	if got := OptimalGroupZoom(950, vp); got != 0.86 {
		t.Fatalf("group zoom out: got %v", got)
	}
}

func TestOptimalZoom_DegenerateAreas(t *testing.T) {
	if got := OptimalZoom(0, 1000); got != 1.0 {
		t.Fatalf("zero element area: got %v", got)
	}
	if got := OptimalZoom(100, 0); got != 1.0 {
		t.Fatalf("zero viewport area: got %v", got)
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0.1, MinZoom},
		{0.5, 0.5},
		{1.7, 1.7},
		{3.0, 3.0},
		{9.0, MaxZoom},
	}
	for _, tt := range tests {
		if got := clampZoom(tt.in); got != tt.want {
			t.Errorf("clampZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShouldCenter(t *testing.T) {
	vp := ViewportInfo{Width: 1000, Height: 800}

	// Dead center: no.
	if ShouldCenter(500, 400, vp) {
		t.Fatal("centered element should not recenter")
	}
	// Within 30% on both axes: no. (dx=290 < 300, dy=230 < 240)
	if ShouldCenter(790, 630, vp) {
		t.Fatal("within threshold should not recenter")
	}
	// Past 30% horizontally: yes.
	if !ShouldCenter(810, 400, vp) {
		t.Fatal("off-center X should recenter")
	}
	// Past 30% vertically: yes.
	if !ShouldCenter(500, 650, vp) {
		t.Fatal("off-center Y should recenter")
	}
}
