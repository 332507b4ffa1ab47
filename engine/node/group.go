// package node provides the disposable scene nodes produced by the sector pipeline and the
// owning Group container that releases them as a unit.
package node

import (
	"sync"

	"github.com/google/uuid"
)

// Group is an owning container of nodes. Nodes added to a Group belong to it: releasing the
// Group releases every child exactly once, and nodes added after release are released
// immediately instead of being leaked.
//
// Group also satisfies Node, so groups nest.
type Group struct {
	mu       sync.Mutex
	id       string
	name     string
	children []Node
	released bool
}

var _ Node = &Group{}

// NewGroup creates an empty, named Group with a fresh trace ID.
//
// Parameters:
//   - name: the group's debug name
//
// Returns:
//   - *Group: the new group
func NewGroup(name string) *Group {
	return &Group{
		id:   uuid.NewString(),
		name: name,
	}
}

// ID returns the group's trace identifier, unique per group.
func (g *Group) ID() string {
	return g.id
}

// Name returns the group's debug name.
func (g *Group) Name() string {
	return g.name
}

// Payload returns nil; a group renders only its children.
func (g *Group) Payload() any {
	return nil
}

// Resources returns nil; resources are owned by the children.
func (g *Group) Resources() []Resource {
	return nil
}

// Add transfers ownership of the given nodes to the group. Nil nodes are ignored.
//
// Parameters:
//   - nodes: the nodes to add
func (g *Group) Add(nodes ...Node) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		for _, n := range nodes {
			if n != nil {
				n.Release()
			}
		}
		return
	}
	for _, n := range nodes {
		if n != nil {
			g.children = append(g.children, n)
		}
	}
	g.mu.Unlock()
}

// Children returns a snapshot of the group's direct children.
//
// Returns:
//   - []Node: the children in insertion order
func (g *Group) Children() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Node, len(g.children))
	copy(out, g.children)
	return out
}

// Len returns the number of direct children.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.children)
}

// Released reports whether Release has been called.
func (g *Group) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// Release recursively releases every child. Only the first call has an effect.
func (g *Group) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	children := g.children
	g.children = nil
	g.mu.Unlock()

	for _, c := range children {
		c.Release()
	}
}
