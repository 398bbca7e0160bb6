package inspector

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box-model overlay colors, one per layer. Semi-transparent so page
// content stays legible under the annotation.
var (
	marginColor  = color.NRGBA{R: 246, G: 178, B: 107, A: 200}
	borderColor  = color.NRGBA{R: 255, G: 229, B: 153, A: 220}
	paddingColor = color.NRGBA{R: 147, G: 196, B: 125, A: 200}
	rulerColor   = color.NRGBA{R: 153, G: 153, B: 153, A: 150}
	labelColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelShadow  = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// contentFillAlpha keeps the per-element content fill translucent enough
// that page content stays legible under it.
const contentFillAlpha = 40

// highlightPalette tints each element's content fill and outline, cycled by
// element index so every element in a multi-element capture gets a distinct
// color.
var highlightPalette = []color.NRGBA{
	{R: 111, G: 168, B: 220, A: 220},
	{R: 224, G: 102, B: 102, A: 220},
	{R: 147, G: 196, B: 125, A: 220},
	{R: 194, G: 123, B: 206, A: 220},
	{R: 246, G: 178, B: 107, A: 220},
}

// AnnotateScreenshot draws box-model overlays for each element onto the
// captured PNG. Box rects must already be in screenshot pixel space.
// Annotation is best effort: any failure logs a warning and returns the
// raw capture untouched, since an unannotated screenshot still serves.
func AnnotateScreenshot(raw []byte, boxes []BoxModel, log *slog.Logger) []byte {
	out, err := annotate(raw, boxes)
	if err != nil {
		log.Warn("inspector: annotation failed, returning raw screenshot", "error", err)
		return raw
	}
	return out
}

func annotate(raw []byte, boxes []BoxModel) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	for i, box := range boxes {
		tint := highlightPalette[i%len(highlightPalette)]
		fill := color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: contentFillAlpha}
		strokeRect(img, box.Margin, marginColor, 1)
		strokeRect(img, box.Border, borderColor, 2)
		strokeRect(img, box.Padding, paddingColor, 1)
		fillRect(img, box.Content, fill)
		strokeRect(img, box.Content, tint, 2)
		if len(boxes) > 1 {
			drawLabel(img, box.Border, fmt.Sprintf("%d", i))
		}
	}

	// Rulers locate the primary element against the full capture; drawn
	// last so they stay visible over every overlay.
	if len(boxes) > 0 {
		drawRulers(img, boxes[0].Border)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode annotated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// strokeRect draws the rectangle outline at the given stroke width. Rects
// partially or fully outside the image are clipped silently.
func strokeRect(img *image.RGBA, r Rect, c color.NRGBA, width int) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.Width), int(r.Y+r.Height)
	for w := 0; w < width; w++ {
		for x := x0; x <= x1; x++ {
			blendPixel(img, x, y0+w, c)
			blendPixel(img, x, y1-w, c)
		}
		for y := y0; y <= y1; y++ {
			blendPixel(img, x0+w, y, c)
			blendPixel(img, x1-w, y, c)
		}
	}
}

func fillRect(img *image.RGBA, r Rect, c color.NRGBA) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.Width), int(r.Y+r.Height)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			blendPixel(img, x, y, c)
		}
	}
}

// drawRulers extends the border-box center lines across the full capture.
func drawRulers(img *image.RGBA, r Rect) {
	b := img.Bounds()
	cx, cy := int(r.CenterX()), int(r.CenterY())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		blendPixel(img, cx, y, rulerColor)
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		blendPixel(img, x, cy, rulerColor)
	}
}

// drawLabel paints the element index above the top-left corner of its
// border box, with a 1px shadow offset for contrast on any background.
func drawLabel(img *image.RGBA, r Rect, text string) {
	x := int(r.X) + 3
	y := int(r.Y) - 4
	if y < basicfont.Face7x13.Ascent {
		y = int(r.Y) + basicfont.Face7x13.Ascent + 3
	}
	drawText(img, x+1, y+1, text, labelShadow)
	drawText(img, x, y, text, labelColor)
}

func drawText(img *image.RGBA, x, y int, text string, c color.NRGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// blendPixel alpha-composites c over the existing pixel, keeping the more
// opaque of the two alphas. Out-of-bounds coordinates are ignored.
func blendPixel(img *image.RGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(c.A)
	inv := 255 - a
	out := color.RGBA{
		R: uint8((uint32(c.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(c.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(c.B)*a + uint32(dst.B)*inv) / 255),
		A: maxU8(c.A, dst.A),
	}
	img.SetRGBA(x, y, out)
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}
