package geo

import (
	"testing"
)

func TestPointAddSub(t *testing.T) {
	p := NewPoint(1.5, 5.25)
	q := NewPoint(-3.5, 2.25)

	if got := p.Add(q); !got.Equals(NewPoint(-2, 7.5)) {
		t.Fatalf("Expected (-2, 7.5), got %v", got.ToString())
	}
	if got := p.Add(q).Sub(q); !got.Equals(p) {
		t.Fatalf("Expected add then sub to round trip to %v, got %v", p.ToString(), got.ToString())
	}
}

func TestPointFloor(t *testing.T) {
	p := NewPoint(-10, 80)
	got := p.Floor(NewPoint(20, 60))
	if !got.Equals(NewPoint(20, 80)) {
		t.Fatalf("Expected (20, 80), got %v", got.ToString())
	}
}

func TestPointsMin(t *testing.T) {
	if _, ok := Points(nil).Min(); ok {
		t.Fatal("Expected empty set to have no minimum")
	}
	min, ok := Points{NewPoint(5, -1), NewPoint(-3, 4), NewPoint(0, 0)}.Min()
	if !ok || !min.Equals(NewPoint(-3, -1)) {
		t.Fatalf("Expected (-3, -1), got %v", min.ToString())
	}
}
