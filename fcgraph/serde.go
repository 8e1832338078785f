package fcgraph

import (
	"encoding/json"
	"fmt"
)

// Document is the persisted shape of a graph: the full node and edge arrays.
type Document struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

func (g *Graph) Document() Document {
	nodes := g.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	edges := g.Edges
	if edges == nil {
		edges = []*Edge{}
	}
	return Document{Nodes: nodes, Edges: edges}
}

func FromDocument(doc Document) *Graph {
	g := NewGraph()
	g.Replace(doc.Nodes, doc.Edges)
	return g
}

func SerializeGraph(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g.Document(), "", "  ")
}

// DeserializeGraph decodes a persisted document. It does not repair legacy
// fields; see Repair.
func DeserializeGraph(b []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	for i, n := range doc.Nodes {
		if n == nil {
			return nil, fmt.Errorf("failed to decode graph: node %d is null", i)
		}
	}
	for i, e := range doc.Edges {
		if e == nil {
			return nil, fmt.Errorf("failed to decode graph: edge %d is null", i)
		}
	}
	return FromDocument(doc), nil
}
