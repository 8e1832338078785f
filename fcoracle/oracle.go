// Package fcoracle is the mutation façade over a flowcanvas graph.
//
// Every UI intent goes through an Oracle, which mutates the graph, keeps
// containers sized through fccontainer and records settled states in
// fchistory. An Oracle is not safe for concurrent use; hosts serialize calls.
package fcoracle

import (
	"context"
	"time"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcclipboard"
	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fchistory"
	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/fclayouts/fcdagrelayout"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

type Opts struct {
	Registry Registry
	// Notify is told about every node whose position or size changed.
	Notify fccontainer.TopologyNotifier

	History   *fchistory.ConfigurableOpts
	Container *fccontainer.ConfigurableOpts
	Layout    *fclayouts.ConfigurableOpts
	// LayoutEngine defaults to the native dagre engine.
	LayoutEngine fclayouts.LayoutGraph

	Metrics *Metrics
	// Now defaults to time.Now.
	Now func() time.Time
	// IDs mints every node and edge id. It defaults to <type>_<millis>_<random>
	// node ids and uuid edge ids.
	IDs fcclipboard.IDSource

	// AllowDuplicateEdges permits several edges between the same handles.
	AllowDuplicateEdges bool
}

type Oracle struct {
	G          *fcgraph.Graph
	History    *fchistory.History
	Containers *fccontainer.Engine

	registry     Registry
	notify       fccontainer.TopologyNotifier
	layoutOpts   fclayouts.ConfigurableOpts
	layoutEngine fclayouts.LayoutGraph
	metrics      *Metrics
	now          func() time.Time
	allowDupes   bool

	ids       fcclipboard.IDSource
	clipboard *fcclipboard.Snapshot

	// suppressed holds containers resized by the engine whose in-flight
	// measurement must be dropped once.
	suppressed fccontainer.Suppression
	// pendingMeasure is the freshly created child whose first measurement
	// re-runs its container's layout.
	pendingMeasure string
	detaching      map[string]struct{}
}

// New wraps g. The load repair pass runs first: legacy fields are rewritten
// and every container is laid out again, deepest first. The repaired state is
// the first history entry.
func New(ctx context.Context, g *fcgraph.Graph, opts *Opts) (_ *Oracle, err error) {
	defer xdefer.Errorf(&err, "failed to create oracle")

	if opts == nil {
		opts = &Opts{}
	}
	o := &Oracle{
		G:            g,
		registry:     opts.Registry,
		notify:       opts.Notify,
		layoutEngine: opts.LayoutEngine,
		metrics:      opts.Metrics,
		now:          opts.Now,
		allowDupes:   opts.AllowDuplicateEdges,
		detaching:    make(map[string]struct{}),
	}
	if o.registry == nil {
		o.registry = DefaultRegistry
	}
	if o.layoutEngine == nil {
		o.layoutEngine = fcdagrelayout.Layout
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.layoutOpts = fclayouts.DefaultOpts
	if opts.Layout != nil {
		o.layoutOpts = *opts.Layout
	}
	o.ids = opts.IDs
	if o.ids == nil {
		o.ids = newIDSource(g, o.now)
	}
	o.Containers = fccontainer.NewEngine(opts.Container, o.topologyChanged)
	o.History = fchistory.New(g, opts.History)

	repaired := fcgraph.Repair(g)
	o.suppress(o.Containers.LayoutAll(ctx, g))
	if repaired > 0 {
		log.Info(ctx, "repaired legacy graph fields", slog.F("fields", repaired))
	}

	if _, err := o.History.Record(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Load decodes a persisted document and wraps it.
func Load(ctx context.Context, b []byte, opts *Opts) (*Oracle, error) {
	g, err := fcgraph.DeserializeGraph(b)
	if err != nil {
		return nil, err
	}
	return New(ctx, g, opts)
}

// Serialize encodes the current graph for persistence.
func (o *Oracle) Serialize() ([]byte, error) {
	return fcgraph.SerializeGraph(o.G)
}

func (o *Oracle) topologyChanged(id string) {
	if o.notify != nil {
		o.notify(id)
	}
}

func (o *Oracle) suppress(sup fccontainer.Suppression) {
	o.suppressed = o.suppressed.Merge(sup)
}

// Suppressed lists the containers whose next measurement will be ignored.
func (o *Oracle) Suppressed() []string {
	return o.suppressed.IDs()
}

// batch runs fn as one history transaction.
func (o *Oracle) batch(ctx context.Context, fn func() error) error {
	o.History.BatchStart()
	err := fn()
	if _, err2 := o.History.BatchEnd(ctx); err == nil {
		err = err2
	}
	return err
}

// record commits an immediate change.
func (o *Oracle) record(ctx context.Context, op string) error {
	o.metrics.applied(op)
	_, err := o.History.Record(ctx)
	return err
}

// schedule commits a continuous change once it settles.
func (o *Oracle) schedule(op string) {
	o.metrics.applied(op)
	o.History.Schedule(o.now())
}

// Tick records a scheduled change whose debounce window has passed. Hosts
// call it from their event loop.
func (o *Oracle) Tick(ctx context.Context) (bool, error) {
	return o.History.Poll(ctx, o.now())
}

// Flush records a scheduled change immediately.
func (o *Oracle) Flush(ctx context.Context) (bool, error) {
	return o.History.Flush(ctx)
}

func (o *Oracle) Undo(ctx context.Context) (bool, error) {
	ok, err := o.History.Undo(ctx)
	if err != nil || !ok {
		return ok, err
	}
	o.afterRestore()
	o.metrics.applied("undo")
	return true, nil
}

func (o *Oracle) Redo(ctx context.Context) (bool, error) {
	ok, err := o.History.Redo(ctx)
	if err != nil || !ok {
		return ok, err
	}
	o.afterRestore()
	o.metrics.applied("redo")
	return true, nil
}

// afterRestore drops gesture state that refers to the replaced collections.
func (o *Oracle) afterRestore() {
	o.detaching = make(map[string]struct{})
	o.pendingMeasure = ""
	o.suppressed = nil
	for _, n := range o.G.Nodes {
		o.topologyChanged(n.ID)
	}
}
