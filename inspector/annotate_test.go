package inspector

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func whitePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestAnnotateScreenshot_DrawsOverlay(t *testing.T) {
	raw := whitePNG(200, 150)
	boxes := []BoxModel{{
		Content: Rect{X: 60, Y: 60, Width: 40, Height: 30},
		Padding: Rect{X: 55, Y: 55, Width: 50, Height: 40},
		Border:  Rect{X: 50, Y: 50, Width: 60, Height: 50},
		Margin:  Rect{X: 40, Y: 40, Width: 80, Height: 70},
	}}

	out := AnnotateScreenshot(raw, boxes, discardLogger())
	if bytes.Equal(out, raw) {
		t.Fatal("annotation left the image untouched")
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("annotated output not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 150 {
		t.Fatalf("dimensions changed: %v", img.Bounds())
	}

	// The content fill must have tinted pixels inside the content box.
	r, g, b, _ := img.At(80, 75).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Fatal("content fill missing")
	}
	// The ruler must reach the image edge at the border-box center row.
	r, g, b, _ = img.At(0, 75).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Fatal("horizontal ruler missing at image edge")
	}
}

func TestAnnotateScreenshot_OutOfBoundsBoxesClip(t *testing.T) {
	raw := whitePNG(100, 100)
	boxes := []BoxModel{{
		Content: Rect{X: -50, Y: -50, Width: 400, Height: 400},
		Padding: Rect{X: -55, Y: -55, Width: 410, Height: 410},
		Border:  Rect{X: -60, Y: -60, Width: 420, Height: 420},
		Margin:  Rect{X: -70, Y: -70, Width: 440, Height: 440},
	}}

	out := AnnotateScreenshot(raw, boxes, discardLogger())
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("clipped annotation broke the PNG: %v", err)
	}
}

func TestAnnotateScreenshot_FallbackOnBadInput(t *testing.T) {
	raw := []byte("not a png at all")
	out := AnnotateScreenshot(raw, []BoxModel{{}}, discardLogger())
	if !bytes.Equal(out, raw) {
		t.Fatal("bad input should return the raw bytes unchanged")
	}
}

func TestAnnotateScreenshot_MultiElementLabels(t *testing.T) {
	raw := whitePNG(300, 200)
	boxes := []BoxModel{
		{Content: Rect{X: 20, Y: 40, Width: 40, Height: 30},
			Padding: Rect{X: 18, Y: 38, Width: 44, Height: 34},
			Border:  Rect{X: 16, Y: 36, Width: 48, Height: 38},
			Margin:  Rect{X: 12, Y: 32, Width: 56, Height: 46}},
		{Content: Rect{X: 120, Y: 40, Width: 40, Height: 30},
			Padding: Rect{X: 118, Y: 38, Width: 44, Height: 34},
			Border:  Rect{X: 116, Y: 36, Width: 48, Height: 38},
			Margin:  Rect{X: 112, Y: 32, Width: 56, Height: 46}},
	}

	out := AnnotateScreenshot(raw, boxes, discardLogger())
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 300 {
		t.Fatalf("bounds: %v", img.Bounds())
	}

	// Each element's content fill carries its own palette tint: interior
	// pixels of the two content boxes must not share a color. Sample points
	// sit off the first element's ruler lines.
	r0, g0, b0, _ := img.At(45, 50).RGBA()
	r1, g1, b1, _ := img.At(145, 50).RGBA()
	if r0 == 0xffff && g0 == 0xffff && b0 == 0xffff {
		t.Fatal("first element content fill missing")
	}
	if r1 == 0xffff && g1 == 0xffff && b1 == 0xffff {
		t.Fatal("second element content fill missing")
	}
	if r0 == r1 && g0 == g1 && b0 == b1 {
		t.Fatalf("content fills share a color: %v,%v,%v", r0, g0, b0)
	}
}

func TestBlendPixel_OpaqueOver(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})

	blendPixel(img, 0, 0, color.NRGBA{R: 255, A: 255})
	got := img.RGBAAt(0, 0)
	if got.R != 255 || got.G != 0 || got.A != 255 {
		t.Fatalf("opaque blend: %+v", got)
	}

	// Out of bounds is a no-op, not a panic.
	blendPixel(img, -5, 100, color.NRGBA{R: 255, A: 255})
}

func TestBlendPixel_KeepsMaxAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{100, 100, 100, 255})

	blendPixel(img, 0, 0, color.NRGBA{R: 200, A: 128})
	got := img.RGBAAt(0, 0)
	if got.A != 255 {
		t.Fatalf("alpha must keep the more opaque value: %+v", got)
	}
	if got.R <= 100 {
		t.Fatalf("red channel should move toward the overlay: %+v", got)
	}
}
