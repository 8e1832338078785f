package fcoracle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fcoracle"
)

func node(id, typ, parent string, config map[string]any) *fcgraph.Node {
	tmpl, _ := fcoracle.DefaultRegistry.Template(typ)
	return &fcgraph.Node{
		ID:       id,
		Type:     typ,
		ParentID: parent,
		Data: fcgraph.NodeData{
			Label:   id,
			Config:  config,
			Inputs:  tmpl.Inputs,
			Outputs: tmpl.Outputs,
		},
	}
}

func validationGraph() *fcgraph.Graph {
	g := fcgraph.NewGraph()
	g.AddNode(node("a", "http", "", nil))
	g.AddNode(node("b", "http", "", nil))
	g.AddNode(node("l", "loop", "", map[string]any{fcgraph.ConfigContainerID: "c"}))
	g.AddNode(node("c", fcgraph.TypeContainer, "", map[string]any{fcgraph.ConfigOwnerID: "l"}))
	g.AddNode(node("k1", "http", "c", nil))
	g.AddNode(node("k2", "http", "c", nil))
	g.AddNode(node("c2", fcgraph.TypeContainer, "", nil))
	g.AddNode(node("m", "http", "c2", nil))
	// io declares one handle as both an input and an output.
	io := node("io", "http", "", nil)
	io.Data.Inputs = append([]fcgraph.Port{{ID: "io"}}, io.Data.Inputs...)
	io.Data.Outputs = append([]fcgraph.Port{{ID: "io"}}, io.Data.Outputs...)
	g.AddNode(io)
	g.AddEdge(&fcgraph.Edge{ID: "e1", Source: "b", SourceHandle: "out", Target: "a", TargetHandle: "in"})
	return g
}

func TestValidateConnection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		conn fcoracle.Connection
		dups bool
		exp  error
	}{
		{
			name: "output_to_input",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "in"},
		},
		{
			name: "input_to_output",
			conn: fcoracle.Connection{Source: "b", SourceHandle: "in", Target: "a", TargetHandle: "out"},
		},
		{
			name: "self_loop",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "out", Target: "a", TargetHandle: "in"},
			exp:  fcoracle.ErrSelfLoop,
		},
		{
			name: "output_to_output",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "out"},
			exp:  fcoracle.ErrDirection,
		},
		{
			name: "duplicate",
			conn: fcoracle.Connection{Source: "b", SourceHandle: "out", Target: "a", TargetHandle: "in"},
			exp:  fcoracle.ErrDuplicate,
		},
		{
			name: "duplicate_allowed",
			conn: fcoracle.Connection{Source: "b", SourceHandle: "out", Target: "a", TargetHandle: "in"},
			dups: true,
		},
		{
			name: "undeclared_handle",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "nope", Target: "b", TargetHandle: "in"},
			exp:  fcoracle.ErrAmbiguousPort,
		},
		{
			name: "source_handle_both_directions",
			conn: fcoracle.Connection{Source: "io", SourceHandle: "io", Target: "b", TargetHandle: "in"},
			exp:  fcoracle.ErrAmbiguousPort,
		},
		{
			name: "target_handle_both_directions",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "out", Target: "io", TargetHandle: "io"},
			exp:  fcoracle.ErrAmbiguousPort,
		},
		{
			name: "other_handles_of_bidirectional_node",
			conn: fcoracle.Connection{Source: "io", SourceHandle: "out", Target: "a", TargetHandle: "in"},
		},
		{
			name: "unknown_node",
			conn: fcoracle.Connection{Source: "x", SourceHandle: "out", Target: "b", TargetHandle: "in"},
			exp:  fcoracle.ErrUnknownNode,
		},
		{
			name: "side_port_to_child",
			conn: fcoracle.Connection{Source: "c", SourceHandle: fcgraph.HandleLoopLeft, Target: "k1", TargetHandle: "in"},
		},
		{
			name: "child_to_side_port",
			conn: fcoracle.Connection{Source: "k2", SourceHandle: "out", Target: "c", TargetHandle: fcgraph.HandleLoopRight},
		},
		{
			name: "side_port_to_non_child",
			conn: fcoracle.Connection{Source: "c", SourceHandle: fcgraph.HandleLoopLeft, Target: "a", TargetHandle: "in"},
			exp:  fcoracle.ErrSidePort,
		},
		{
			name: "side_port_to_other_container_child",
			conn: fcoracle.Connection{Source: "c", SourceHandle: fcgraph.HandleLoopLeft, Target: "m", TargetHandle: "in"},
			exp:  fcoracle.ErrSidePort,
		},
		{
			name: "owner_to_own_container",
			conn: fcoracle.Connection{Source: "l", SourceHandle: fcgraph.HandleLoop, Target: "c", TargetHandle: fcgraph.HandleLoopIn},
		},
		{
			name: "owner_to_foreign_container",
			conn: fcoracle.Connection{Source: "l", SourceHandle: fcgraph.HandleLoop, Target: "c2", TargetHandle: fcgraph.HandleLoopIn},
			exp:  fcoracle.ErrLoopLink,
		},
		{
			name: "siblings_inside_container",
			conn: fcoracle.Connection{Source: "k1", SourceHandle: "out", Target: "k2", TargetHandle: "in"},
		},
		{
			name: "across_containers",
			conn: fcoracle.Connection{Source: "k1", SourceHandle: "out", Target: "m", TargetHandle: "in"},
			exp:  fcoracle.ErrBoundary,
		},
		{
			name: "into_container",
			conn: fcoracle.Connection{Source: "a", SourceHandle: "out", Target: "k1", TargetHandle: "in"},
			exp:  fcoracle.ErrBoundary,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := validationGraph()
			err := fcoracle.ValidateConnection(g, tc.conn, tc.dups)
			if tc.exp == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.exp), "got %v", err)
			assert.Len(t, g.Edges, 1)
		})
	}
}
