package node

import (
	"sync"
)

// Resource is anything holding GPU-side memory that must be released explicitly.
// *wgpu.Buffer, *wgpu.BindGroup and *wgpu.TextureView all satisfy it.
type Resource interface {
	Release()
}

// node is the implementation of the Node interface.
type node struct {
	name      string
	payload   any
	resources []Resource
	once      sync.Once
}

// Node defines the interface for a renderable scene node produced by a geometry builder.
// A Node owns the GPU resources attached to it; releasing the node releases them.
type Node interface {
	// Name retrieves the node's debug name.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// Payload retrieves the builder-specific data the node renders, such as decoded
	// attribute arrays. The pipeline never inspects it.
	//
	// Returns:
	//   - any: the payload, or nil
	Payload() any

	// Resources retrieves the GPU resources owned by this node.
	//
	// Returns:
	//   - []Resource: the owned resources
	Resources() []Resource

	// Release releases every owned resource. Only the first call has an effect.
	Release()
}

var _ Node = &node{}

// NewNode creates a new Node configured with the provided options.
//
// Parameters:
//   - options: variadic list of NodeBuilderOption functions to configure the node
//
// Returns:
//   - Node: a new Node instance
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Payload() any {
	return n.payload
}

func (n *node) Resources() []Resource {
	return n.resources
}

func (n *node) Release() {
	n.once.Do(func() {
		for _, r := range n.resources {
			if r != nil {
				r.Release()
			}
		}
		n.resources = nil
	})
}
