package inspector

import (
	"fmt"
	"math"
)

// alignTolerance is the fixed tolerance, in pixels, for edge and center
// alignment flags.
const alignTolerance = 1.0

// Relationships computes the pairwise spatial summary of N elements from
// their border-box rects. It produces N·(N−1)/2 entries; the element-count
// cap enforced upstream keeps the quadratic cost trivial.
func Relationships(boxes []BoxModel, selector string) []ElementRelationship {
	if len(boxes) < 2 {
		return nil
	}
	out := make([]ElementRelationship, 0, len(boxes)*(len(boxes)-1)/2)
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			out = append(out, relate(
				boxes[i].Border, boxes[j].Border,
				fmt.Sprintf("%s[%d]", selector, i),
				fmt.Sprintf("%s[%d]", selector, j),
			))
		}
	}
	return out
}

func relate(a, b Rect, from, to string) ElementRelationship {
	dx := a.CenterX() - b.CenterX()
	dy := a.CenterY() - b.CenterY()

	return ElementRelationship{
		From: from,
		To:   to,
		Distance: Distance{
			Horizontal:     axisGap(a.X, a.X+a.Width, b.X, b.X+b.Width),
			Vertical:       axisGap(a.Y, a.Y+a.Height, b.Y, b.Y+b.Height),
			CenterToCenter: math.Round(math.Hypot(dx, dy)),
		},
		Alignment: Alignment{
			Top:              within(a.Y, b.Y),
			Bottom:           within(a.Y+a.Height, b.Y+b.Height),
			Left:             within(a.X, b.X),
			Right:            within(a.X+a.Width, b.X+b.Width),
			VerticalCenter:   within(a.CenterY(), b.CenterY()),
			HorizontalCenter: within(a.CenterX(), b.CenterX()),
		},
	}
}

// axisGap returns the positive gap between two 1D spans, or 0 when they
// overlap or touch.
func axisGap(aStart, aEnd, bStart, bEnd float64) float64 {
	if aEnd < bStart {
		return bStart - aEnd
	}
	if bEnd < aStart {
		return aStart - bEnd
	}
	return 0
}

func within(a, b float64) bool {
	return math.Abs(a-b) <= alignTolerance
}
