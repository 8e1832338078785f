// Package fclayouts holds the layered-graph model shared by the layout engines
// and the auto-layout pass that places a whole canvas with them.
package fclayouts

import (
	"context"
	"fmt"
	"strings"

	"oss.terrastruct.com/flowcanvas/lib/geo"
)

type Direction string

const (
	DirectionDown  Direction = "TB"
	DirectionUp    Direction = "BT"
	DirectionRight Direction = "LR"
	DirectionLeft  Direction = "RL"
)

// ParseDirection accepts the rank directions and their long forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "tb", "down":
		return DirectionDown, nil
	case "bt", "up":
		return DirectionUp, nil
	case "lr", "right":
		return DirectionRight, nil
	case "rl", "left":
		return DirectionLeft, nil
	}
	return "", fmt.Errorf("unknown direction %q, expected one of TB, BT, LR, RL", s)
}

func (d Direction) IsHorizontal() bool {
	return d == DirectionRight || d == DirectionLeft
}

const (
	DEFAULT_NODE_SEP  = 60.
	DEFAULT_RANK_SEP  = 100.
	DEFAULT_PADDING   = 40.
	DEFAULT_OWNER_GAP = 40.
)

type ConfigurableOpts struct {
	Direction Direction `toml:"direction" validate:"omitempty,oneof=TB BT LR RL"`
	NodeSep   float64   `toml:"node_sep" validate:"gte=0"`
	RankSep   float64   `toml:"rank_sep" validate:"gte=0"`
	// Padding is where the top-left of the laid out canvas lands.
	Padding float64 `toml:"padding" validate:"gte=0"`
	// OwnerGap is the vertical gap between an owner and the container beneath it.
	OwnerGap float64 `toml:"owner_gap" validate:"gte=0"`
}

var DefaultOpts = ConfigurableOpts{
	Direction: DirectionDown,
	NodeSep:   DEFAULT_NODE_SEP,
	RankSep:   DEFAULT_RANK_SEP,
	Padding:   DEFAULT_PADDING,
	OwnerGap:  DEFAULT_OWNER_GAP,
}

// Node is a box to place. Engines set TopLeft.
type Node struct {
	ID      string
	Width   float64
	Height  float64
	TopLeft geo.Point
}

func (n *Node) Box() geo.Box {
	return geo.NewBox(n.TopLeft, n.Width, n.Height)
}

type Edge struct {
	Source string
	Target string
}

// Graph is the flat directed graph handed to an engine.
type Graph struct {
	Nodes []*Node
	Edges []*Edge
}

func (g *Graph) Node(id string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Normalize translates every node so the minimum coordinate lands on origin.
func (g *Graph) Normalize(origin geo.Point) {
	tls := make(geo.Points, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		tls = append(tls, n.TopLeft)
	}
	min, ok := tls.Min()
	if !ok {
		return
	}
	delta := origin.Sub(min)
	for _, n := range g.Nodes {
		n.TopLeft = n.TopLeft.Add(delta)
	}
}

// LayoutGraph assigns TopLeft to every node of g. Absolute coordinates are
// free; callers normalize.
type LayoutGraph func(ctx context.Context, g *Graph, opts ConfigurableOpts) error
