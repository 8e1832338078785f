package geo

import "fmt"

type Box struct {
	TopLeft Point
	Width   float64
	Height  float64
}

func NewBox(tl Point, width, height float64) Box {
	return Box{
		TopLeft: tl,
		Width:   width,
		Height:  height,
	}
}

func (b Box) Right() float64 {
	return b.TopLeft.X + b.Width
}

func (b Box) Bottom() float64 {
	return b.TopLeft.Y + b.Height
}

func (b Box) Center() Point {
	return NewPoint(b.TopLeft.X+b.Width/2, b.TopLeft.Y+b.Height/2)
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	left := b.TopLeft.X
	if other.TopLeft.X < left {
		left = other.TopLeft.X
	}
	top := b.TopLeft.Y
	if other.TopLeft.Y < top {
		top = other.TopLeft.Y
	}
	right := b.Right()
	if other.Right() > right {
		right = other.Right()
	}
	bottom := b.Bottom()
	if other.Bottom() > bottom {
		bottom = other.Bottom()
	}
	return NewBox(NewPoint(left, top), right-left, bottom-top)
}

// Contains reports whether other lies entirely within b. Edges touching is fine.
func (b Box) Contains(other Box) bool {
	return other.TopLeft.X >= b.TopLeft.X &&
		other.TopLeft.Y >= b.TopLeft.Y &&
		other.Right() <= b.Right() &&
		other.Bottom() <= b.Bottom()
}

// Overlaps reports whether b and other share any area. Touching edges do not
// overlap.
func (b Box) Overlaps(other Box) bool {
	return b.TopLeft.X < other.Right() && other.TopLeft.X < b.Right() &&
		b.TopLeft.Y < other.Bottom() && other.TopLeft.Y < b.Bottom()
}

func (b Box) ToString() string {
	return fmt.Sprintf("{TopLeft: %s, Width: %.0f, Height: %.0f}", b.TopLeft.ToString(), b.Width, b.Height)
}

// BoundingBox returns the union of boxes. ok is false for an empty slice.
func BoundingBox(boxes []Box) (_ Box, ok bool) {
	if len(boxes) == 0 {
		return Box{}, false
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out, true
}
