// Package fchistory implements linear undo/redo over whole-graph snapshots.
//
// The stack holds deep copies of the node and edge collections and a cursor
// at the entry matching the current state. Recording a state equal to the one
// at the cursor is a no-op, recording after an undo discards the redo tail and
// the oldest entries are evicted past the cap.
package fchistory

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"cdr.dev/slog"
	"github.com/cespare/xxhash/v2"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

const (
	DEFAULT_CAP      = 50
	DEFAULT_DEBOUNCE = 300 * time.Millisecond
)

type ConfigurableOpts struct {
	Cap      int           `toml:"cap" validate:"gte=1"`
	Debounce time.Duration `toml:"debounce" validate:"gte=0"`
}

var DefaultOpts = ConfigurableOpts{
	Cap:      DEFAULT_CAP,
	Debounce: DEFAULT_DEBOUNCE,
}

type Snapshot struct {
	Nodes []*fcgraph.Node
	Edges []*fcgraph.Edge

	sum uint64
	raw []byte
}

func (s *Snapshot) equals(other *Snapshot) bool {
	return s.sum == other.sum && bytes.Equal(s.raw, other.raw)
}

// History records snapshots of one graph. It is not safe for concurrent use.
type History struct {
	g    *fcgraph.Graph
	opts ConfigurableOpts

	stack  []*Snapshot
	cursor int

	batchDepth int
	restoring  bool

	pending Coalescer
}

func New(g *fcgraph.Graph, opts *ConfigurableOpts) *History {
	if opts == nil {
		opts = &DefaultOpts
	}
	h := &History{
		g:      g,
		opts:   *opts,
		cursor: -1,
	}
	h.pending.Window = h.opts.Debounce
	return h
}

func (h *History) Len() int {
	return len(h.stack)
}

// Cursor is the index of the entry matching the current state, -1 before the
// first record.
func (h *History) Cursor() int {
	return h.cursor
}

func (h *History) CanUndo() bool {
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	return h.cursor+1 < len(h.stack)
}

func (h *History) Batching() bool {
	return h.batchDepth > 0
}

// Restoring reports whether an undo or redo is writing the graph.
func (h *History) Restoring() bool {
	return h.restoring
}

// Record snapshots the current state. It does nothing inside a batch, while
// restoring, or when the state equals the entry at the cursor. Any pending
// debounced record is satisfied by this one.
func (h *History) Record(ctx context.Context) (recorded bool, err error) {
	defer xdefer.Errorf(&err, "failed to record history")

	if h.restoring || h.batchDepth > 0 {
		return false, nil
	}
	h.pending.Reset()

	snap, err := h.capture()
	if err != nil {
		return false, err
	}
	if h.cursor >= 0 && h.stack[h.cursor].equals(snap) {
		return false, nil
	}

	h.stack = append(h.stack[:h.cursor+1], snap)
	h.cursor++
	if len(h.stack) > h.opts.Cap {
		evicted := len(h.stack) - h.opts.Cap
		h.stack = append([]*Snapshot(nil), h.stack[evicted:]...)
		h.cursor -= evicted
	}

	log.Debug(ctx, "recorded history",
		slog.F("cursor", h.cursor),
		slog.F("len", len(h.stack)),
	)
	return true, nil
}

func (h *History) capture() (*Snapshot, error) {
	nodes, err := fcgraph.CopyNodes(h.g.Nodes)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Nodes: nodes,
		Edges: fcgraph.CopyEdges(h.g.Edges),
	}
	snap.raw, err = fingerprint(snap)
	if err != nil {
		return nil, err
	}
	snap.sum = xxhash.Sum64(snap.raw)
	return snap, nil
}

// fingerprint is the canonical encoding used for de-duplication. Selection,
// drag state and measured sizes don't make a state distinct.
func fingerprint(snap *Snapshot) ([]byte, error) {
	doc := fcgraph.Document{
		Nodes: make([]*fcgraph.Node, 0, len(snap.Nodes)),
		Edges: snap.Edges,
	}
	for _, n := range snap.Nodes {
		tmp := *n
		tmp.Selected = false
		tmp.Dragging = false
		tmp.Measured = nil
		doc.Nodes = append(doc.Nodes, &tmp)
	}
	return json.Marshal(doc)
}

// Undo restores the previous entry. A pending debounced record is flushed
// first so the change it covers is what gets undone.
func (h *History) Undo(ctx context.Context) (_ bool, err error) {
	defer xdefer.Errorf(&err, "failed to undo")

	if _, err := h.Flush(ctx); err != nil {
		return false, err
	}
	if !h.CanUndo() {
		return false, nil
	}
	if err := h.restore(h.stack[h.cursor-1]); err != nil {
		return false, err
	}
	h.cursor--
	log.Debug(ctx, "undo", slog.F("cursor", h.cursor))
	return true, nil
}

func (h *History) Redo(ctx context.Context) (_ bool, err error) {
	defer xdefer.Errorf(&err, "failed to redo")

	if _, err := h.Flush(ctx); err != nil {
		return false, err
	}
	if !h.CanRedo() {
		return false, nil
	}
	if err := h.restore(h.stack[h.cursor+1]); err != nil {
		return false, err
	}
	h.cursor++
	log.Debug(ctx, "redo", slog.F("cursor", h.cursor))
	return true, nil
}

func (h *History) restore(snap *Snapshot) error {
	h.restoring = true
	defer func() {
		h.restoring = false
	}()

	nodes, err := fcgraph.CopyNodes(snap.Nodes)
	if err != nil {
		return err
	}
	h.g.Replace(nodes, fcgraph.CopyEdges(snap.Edges))
	return nil
}

// BatchStart suppresses recording until the matching BatchEnd. Batches nest.
func (h *History) BatchStart() {
	h.batchDepth++
}

// BatchEnd closes a batch. Closing the outermost batch records once.
func (h *History) BatchEnd(ctx context.Context) (bool, error) {
	if h.batchDepth == 0 {
		log.Warn(ctx, "history batch ended without a start")
		return false, nil
	}
	h.batchDepth--
	if h.batchDepth > 0 {
		return false, nil
	}
	return h.Record(ctx)
}

// Schedule asks for a record once the graph has been quiet for the debounce
// window. Each call pushes the deadline back.
func (h *History) Schedule(now time.Time) {
	h.pending.Touch(now)
}

func (h *History) Pending() bool {
	return h.pending.Pending()
}

// Poll records if a scheduled record is due at now.
func (h *History) Poll(ctx context.Context, now time.Time) (bool, error) {
	if !h.pending.Due(now) {
		return false, nil
	}
	return h.Record(ctx)
}

// Flush records a scheduled record immediately.
func (h *History) Flush(ctx context.Context) (bool, error) {
	if !h.pending.Pending() {
		return false, nil
	}
	return h.Record(ctx)
}
