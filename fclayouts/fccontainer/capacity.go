// fccontainer keeps container nodes large enough for their children.
//
// Children are stored relative to their container. The content area of a
// container starts at (padding.left, headerHeight+padding.top); no child may be
// placed above or left of it, and the container grows (never shrinks) to fit
// every child plus the trailing padding.
package fccontainer

import (
	"context"
	"math"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

const (
	DEFAULT_WIDTH         = 400.
	DEFAULT_HEIGHT        = 200.
	DEFAULT_HEADER_HEIGHT = 40.
	DEFAULT_PADDING       = 20.
	DEFAULT_CHILD_WIDTH   = 200.
	DEFAULT_CHILD_HEIGHT  = 100.
)

type ConfigurableOpts struct {
	MinWidth     float64 `toml:"min_width" validate:"gt=0"`
	MinHeight    float64 `toml:"min_height" validate:"gt=0"`
	HeaderHeight float64 `toml:"header_height" validate:"gte=0"`
	Padding      float64 `toml:"padding" validate:"gte=0"`
	ChildWidth   float64 `toml:"child_width" validate:"gt=0"`
	ChildHeight  float64 `toml:"child_height" validate:"gt=0"`
}

var DefaultOpts = ConfigurableOpts{
	MinWidth:     DEFAULT_WIDTH,
	MinHeight:    DEFAULT_HEIGHT,
	HeaderHeight: DEFAULT_HEADER_HEIGHT,
	Padding:      DEFAULT_PADDING,
	ChildWidth:   DEFAULT_CHILD_WIDTH,
	ChildHeight:  DEFAULT_CHILD_HEIGHT,
}

type Padding struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// VisualConfig is the resolved geometry of a container. It is derived, never
// stored.
type VisualConfig struct {
	Width        float64
	Height       float64
	HeaderHeight float64
	Padding      Padding
}

// ContentOrigin is the top-left corner of the area children may occupy.
func (cfg VisualConfig) ContentOrigin() geo.Point {
	return geo.NewPoint(cfg.Padding.Left, cfg.HeaderHeight+cfg.Padding.Top)
}

// TopologyNotifier is told about every node whose position or size changed so
// connector anchors can be recomputed. It must not call back into the graph.
type TopologyNotifier func(nodeID string)

// Engine runs capacity and layout passes over one graph.
type Engine struct {
	Opts   ConfigurableOpts
	Notify TopologyNotifier
}

func NewEngine(opts *ConfigurableOpts, notify TopologyNotifier) *Engine {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Engine{
		Opts:   *opts,
		Notify: notify,
	}
}

func (e *Engine) notify(id string) {
	if e.Notify != nil {
		e.Notify(id)
	}
}

// ResolveVisualConfig resolves a container's geometry with the precedence
// explicit data > style > measured size > default.
func (e *Engine) ResolveVisualConfig(c *fcgraph.Node) VisualConfig {
	cfg := VisualConfig{
		Width:        e.Opts.MinWidth,
		Height:       e.Opts.MinHeight,
		HeaderHeight: e.Opts.HeaderHeight,
		Padding: Padding{
			Top:    e.Opts.Padding,
			Right:  e.Opts.Padding,
			Bottom: e.Opts.Padding,
			Left:   e.Opts.Padding,
		},
	}

	switch {
	case c.Data.Width != nil:
		cfg.Width = *c.Data.Width
	case c.Style.Width != nil:
		cfg.Width = *c.Style.Width
	case c.Measured != nil && c.Measured.Width > 0:
		cfg.Width = c.Measured.Width
	}
	switch {
	case c.Data.Height != nil:
		cfg.Height = *c.Data.Height
	case c.Style.Height != nil:
		cfg.Height = *c.Style.Height
	case c.Measured != nil && c.Measured.Height > 0:
		cfg.Height = c.Measured.Height
	}

	if c.Data.HeaderHeight != nil {
		cfg.HeaderHeight = *c.Data.HeaderHeight
	}
	if p := fcgraph.NormalizePadding(c.Data.Padding); p != nil {
		if p.Top != nil {
			cfg.Padding.Top = *p.Top
		}
		if p.Right != nil {
			cfg.Padding.Right = *p.Right
		}
		if p.Bottom != nil {
			cfg.Padding.Bottom = *p.Bottom
		}
		if p.Left != nil {
			cfg.Padding.Left = *p.Left
		}
	}
	return cfg
}

// ChildApproxSize is the footprint used for capacity math: measured size when
// the renderer has reported one, then style, then explicit data, then the
// default child size. Containers use their resolved size.
func (e *Engine) ChildApproxSize(n *fcgraph.Node) fcgraph.Size {
	if n.IsContainer() {
		cfg := e.ResolveVisualConfig(n)
		return fcgraph.Size{Width: cfg.Width, Height: cfg.Height}
	}
	size := fcgraph.Size{Width: e.Opts.ChildWidth, Height: e.Opts.ChildHeight}
	switch {
	case n.Measured != nil && n.Measured.Width > 0:
		size.Width = n.Measured.Width
	case n.Style.Width != nil:
		size.Width = *n.Style.Width
	case n.Data.Width != nil:
		size.Width = *n.Data.Width
	}
	switch {
	case n.Measured != nil && n.Measured.Height > 0:
		size.Height = n.Measured.Height
	case n.Style.Height != nil:
		size.Height = *n.Style.Height
	case n.Data.Height != nil:
		size.Height = *n.Data.Height
	}
	return size
}

// Footprint is the box a node occupies in its parent's coordinates.
func (e *Engine) Footprint(n *fcgraph.Node) geo.Box {
	size := e.ChildApproxSize(n)
	return geo.NewBox(n.Position, size.Width, size.Height)
}

// Clamp floors p at the content origin of cfg.
func Clamp(p geo.Point, cfg VisualConfig) geo.Point {
	return p.Floor(cfg.ContentOrigin())
}

// setSize stores a container size as explicit data so it wins the precedence
// chain, mirroring it into style for the renderer. It reports whether the
// stored size changed.
func setSize(c *fcgraph.Node, width, height float64) bool {
	changed := c.Data.Width == nil || *c.Data.Width != width ||
		c.Data.Height == nil || *c.Data.Height != height
	c.Data.Width = go2.Pointer(width)
	c.Data.Height = go2.Pointer(height)
	c.Style.Width = go2.Pointer(width)
	c.Style.Height = go2.Pointer(height)
	return changed
}

// EnsureCapacity makes room for childID at desired, a position relative to
// containerID.
//
// If desired is left of or above the content origin, the container is moved
// up/left by the deficit and every other child is moved down/right by it, so
// nothing jumps on the canvas while the child's relative position becomes the
// content origin. The container then grows to fit the child plus trailing
// padding, never below the minimum size.
//
// A shifted container that has a parent is made room for in that parent the
// same way, up the chain.
//
// It returns the resolved config after growth and the adjusted position. The
// child itself is not moved; that is up to the caller.
func (e *Engine) EnsureCapacity(ctx context.Context, g *fcgraph.Graph, containerID, childID string, desired geo.Point) (VisualConfig, geo.Point) {
	c, ok := g.Node(containerID)
	if !ok {
		return e.ResolveVisualConfig(&fcgraph.Node{}), desired
	}
	cfg := e.ResolveVisualConfig(c)
	origin := cfg.ContentOrigin()

	deficit := geo.NewPoint(
		math.Max(0, origin.X-desired.X),
		math.Max(0, origin.Y-desired.Y),
	)
	if deficit.X > 0 || deficit.Y > 0 {
		log.Debug(ctx, "shifting container to fit child",
			slog.F("container", containerID),
			slog.F("child", childID),
			slog.F("deficit", deficit),
		)
		c.Position = c.Position.Sub(deficit)
		for _, sib := range g.Children(containerID) {
			if sib.ID == childID {
				continue
			}
			sib.Position = sib.Position.Add(deficit)
			e.notify(sib.ID)
		}
		desired = desired.Add(deficit)
		// The far edges stay where they were on the canvas.
		cfg.Width += deficit.X
		cfg.Height += deficit.Y
	}

	var size fcgraph.Size
	if child, ok := g.Node(childID); ok {
		size = e.ChildApproxSize(child)
	} else {
		size = fcgraph.Size{Width: e.Opts.ChildWidth, Height: e.Opts.ChildHeight}
	}

	cfg.Width = go2.Max(go2.Max(cfg.Width, desired.X+size.Width+cfg.Padding.Right), e.Opts.MinWidth)
	cfg.Height = go2.Max(go2.Max(cfg.Height, desired.Y+size.Height+cfg.Padding.Bottom), e.Opts.MinHeight)

	shifted := deficit.X > 0 || deficit.Y > 0
	if setSize(c, cfg.Width, cfg.Height) || shifted {
		e.notify(containerID)
	}
	// A nested container moved up/left must in turn fit its own parent.
	if shifted && c.ParentID != "" {
		_, pos := e.EnsureCapacity(ctx, g, c.ParentID, c.ID, c.Position)
		c.Position = pos
	}
	return cfg, desired
}

// ResetSize shrinks c back to the minimum size. Callers must lay its children
// out again afterwards.
func (e *Engine) ResetSize(c *fcgraph.Node) bool {
	return setSize(c, e.Opts.MinWidth, e.Opts.MinHeight)
}
