package fcoracle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"oss.terrastruct.com/util-go/xrand"

	"oss.terrastruct.com/flowcanvas/fcgraph"
)

// idSource mints node ids of the form <type>_<unix millis>_<random> and uuid
// edge ids. Ids are never handed out twice, even after the node is gone.
type idSource struct {
	g      *fcgraph.Graph
	now    func() time.Time
	issued map[string]struct{}
}

func newIDSource(g *fcgraph.Graph, now func() time.Time) *idSource {
	return &idSource{
		g:      g,
		now:    now,
		issued: make(map[string]struct{}),
	}
}

func (s *idSource) taken(id string) bool {
	if _, ok := s.issued[id]; ok {
		return true
	}
	_, ok := s.g.Node(id)
	return ok
}

func (s *idSource) NodeID(nodeType string) string {
	for {
		id := fmt.Sprintf("%s_%d_%s", nodeType, s.now().UnixMilli(), xrand.Base64(8))
		if !s.taken(id) {
			s.issued[id] = struct{}{}
			return id
		}
	}
}

func (s *idSource) EdgeID() string {
	for {
		id := uuid.NewString()
		if _, ok := s.g.Edge(id); !ok {
			return id
		}
	}
}
