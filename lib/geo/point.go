package geo

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate. Whether it is canvas-absolute or relative to a
// parent depends on where it is stored.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Equals(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// Floor returns p with each coordinate raised to at least the matching
// coordinate of min.
func (p Point) Floor(min Point) Point {
	return Point{X: math.Max(p.X, min.X), Y: math.Max(p.Y, min.Y)}
}

func (p Point) ToString() string {
	return fmt.Sprintf("(%v, %v)", TruncateDecimals(p.X), TruncateDecimals(p.Y))
}

type Points []Point

// Min returns the component-wise minimum. ok is false for an empty set.
func (ps Points) Min() (_ Point, ok bool) {
	if len(ps) == 0 {
		return Point{}, false
	}
	min := ps[0]
	for _, p := range ps[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
	}
	return min, true
}
