package inspector

import "math"

// scaleEpsilon is the deviation from 1.0 above which a screenshot scale
// factor is considered real rather than rounding noise.
const scaleEpsilon = 0.01

// DeriveBoxModel builds the four-layer box model from raw element metrics.
// The measured bounding rect is the border box verbatim; margin expands it
// outward, padding and content shrink it inward. Physically inconsistent
// inputs (a resultant negative dimension) clamp to zero instead of
// propagating negative sizes.
func DeriveBoxModel(m ElementMetrics) BoxModel {
	border := m.Rect

	margin := Rect{
		X:      border.X - m.Margin.Left,
		Y:      border.Y - m.Margin.Top,
		Width:  border.Width + m.Margin.Left + m.Margin.Right,
		Height: border.Height + m.Margin.Top + m.Margin.Bottom,
		Space:  border.Space,
	}
	padding := shrink(border, m.Border)
	content := shrink(padding, m.Padding)

	return BoxModel{Content: content, Padding: padding, Border: border, Margin: margin}
}

// shrink insets a rect by the given edge widths, clamping dimensions at zero.
func shrink(r Rect, e EdgeWidths) Rect {
	out := Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  r.Width - e.Left - e.Right,
		Height: r.Height - e.Top - e.Bottom,
		Space:  r.Space,
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// TransformForScreenshot maps a viewport-space box model into screenshot
// pixel space. Expected dimensions are the clip region's when a clip was
// requested, else the full viewport's. The device-scale stage must run
// before the clip-offset stage; reversing them misplaces overlays whenever
// a non-unit scale and a clip are both present.
func TransformForScreenshot(box BoxModel, expectedW, expectedH float64, actualW, actualH int, clip *Rect) BoxModel {
	scaleX, scaleY := 1.0, 1.0
	if expectedW > 0 {
		scaleX = float64(actualW) / expectedW
	}
	if expectedH > 0 {
		scaleY = float64(actualH) / expectedH
	}

	apply := func(r Rect) Rect {
		if math.Abs(scaleX-1) > scaleEpsilon || math.Abs(scaleY-1) > scaleEpsilon {
			r = Rect{
				X:      r.X * scaleX,
				Y:      r.Y * scaleY,
				Width:  r.Width * scaleX,
				Height: r.Height * scaleY,
			}
		}
		if clip != nil {
			r.X -= clip.X * scaleX
			r.Y -= clip.Y * scaleY
			if r.X < 0 {
				r.X = 0
			}
			if r.Y < 0 {
				r.Y = 0
			}
		}
		r.Space = SpaceScreenshot
		return r
	}

	return BoxModel{
		Content: apply(box.Content),
		Padding: apply(box.Padding),
		Border:  apply(box.Border),
		Margin:  apply(box.Margin),
	}
}

// Scale multiplies every rect of the box model by a uniform factor. Used to
// map layout pixels to visual pixels after a page-scale (zoom) change.
func (b BoxModel) Scale(f float64) BoxModel {
	if f == 1 {
		return b
	}
	s := func(r Rect) Rect {
		return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f, Space: r.Space}
	}
	return BoxModel{Content: s(b.Content), Padding: s(b.Padding), Border: s(b.Border), Margin: s(b.Margin)}
}

// unionRect returns the bounding rect of all given rects.
func unionRect(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].Width, rects[0].Y+rects[0].Height
	for _, r := range rects[1:] {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.Width)
		maxY = math.Max(maxY, r.Y+r.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY, Space: rects[0].Space}
}
