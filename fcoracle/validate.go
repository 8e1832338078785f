package fcoracle

import (
	"errors"
	"fmt"

	"oss.terrastruct.com/flowcanvas/fcgraph"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrSelfLoop      = errors.New("self loop")
	ErrDuplicate     = errors.New("duplicate connection")
	ErrAmbiguousPort = errors.New("port is not exactly one of input or output")
	ErrDirection     = errors.New("connection must join an output to an input")
	ErrSidePort      = errors.New("container side port only connects to its direct children")
	ErrLoopLink      = errors.New("loop handles only connect an owner to its own container")
	ErrBoundary      = errors.New("connection crosses a container boundary")
)

// Connection is a prospective edge.
type Connection struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s:%s -> %s:%s", c.Source, c.SourceHandle, c.Target, c.TargetHandle)
}

type portKind int

const (
	portInvalid portKind = iota
	portInput
	portOutput
)

func kindOf(n *fcgraph.Node, handle string) portKind {
	in, out := n.HasInput(handle), n.HasOutput(handle)
	switch {
	case in && !out:
		return portInput
	case out && !in:
		return portOutput
	}
	return portInvalid
}

func isSidePort(n *fcgraph.Node, handle string) bool {
	return n.IsContainer() && (handle == fcgraph.HandleLoopLeft || handle == fcgraph.HandleLoopRight)
}

// ValidateConnection reports why c may not be added to g, or nil. It reads g
// and never changes it.
func ValidateConnection(g *fcgraph.Graph, c Connection, allowDuplicates bool) error {
	src, ok := g.Node(c.Source)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownNode, c.Source)
	}
	dst, ok := g.Node(c.Target)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownNode, c.Target)
	}
	if src.ID == dst.ID {
		return ErrSelfLoop
	}
	if !allowDuplicates {
		for _, e := range g.Edges {
			if e.Source == c.Source && e.SourceHandle == c.SourceHandle &&
				e.Target == c.Target && e.TargetHandle == c.TargetHandle {
				return ErrDuplicate
			}
		}
	}

	srcKind, dstKind := kindOf(src, c.SourceHandle), kindOf(dst, c.TargetHandle)
	if srcKind == portInvalid {
		return fmt.Errorf("%w: %s on %s", ErrAmbiguousPort, c.SourceHandle, src.ID)
	}
	if dstKind == portInvalid {
		return fmt.Errorf("%w: %s on %s", ErrAmbiguousPort, c.TargetHandle, dst.ID)
	}
	if srcKind == dstKind {
		return ErrDirection
	}

	srcSide, dstSide := isSidePort(src, c.SourceHandle), isSidePort(dst, c.TargetHandle)
	switch {
	case srcSide && dstSide:
		return ErrSidePort
	case srcSide:
		if dst.ParentID != src.ID {
			return ErrSidePort
		}
		return nil
	case dstSide:
		if src.ParentID != dst.ID {
			return ErrSidePort
		}
		return nil
	}

	if owner, container, ok := loopPair(src, c.SourceHandle, dst, c.TargetHandle); ok {
		if !linked(owner, container) {
			return ErrLoopLink
		}
		return nil
	}

	if src.ParentID != dst.ParentID {
		return ErrBoundary
	}
	return nil
}

// loopPair matches an owner's loop handle joined to a container's loop-in
// handle, in either direction.
func loopPair(a *fcgraph.Node, ah string, b *fcgraph.Node, bh string) (owner, container *fcgraph.Node, ok bool) {
	if ah == fcgraph.HandleLoop && bh == fcgraph.HandleLoopIn && !a.IsContainer() && b.IsContainer() {
		return a, b, true
	}
	if bh == fcgraph.HandleLoop && ah == fcgraph.HandleLoopIn && !b.IsContainer() && a.IsContainer() {
		return b, a, true
	}
	return nil, nil, false
}

// linked reports whether owner and container name each other.
func linked(owner, container *fcgraph.Node) bool {
	cid, _ := owner.ConfigString(fcgraph.ConfigContainerID)
	oid, _ := container.ConfigString(fcgraph.ConfigOwnerID)
	return cid == container.ID && oid == owner.ID
}
