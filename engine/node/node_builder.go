package node

// NodeBuilderOption is a function that configures a node instance during construction.
type NodeBuilderOption func(*node)

// WithName is an option builder that sets the debug name of the node.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - NodeBuilderOption: a function that applies the name option to a node
func WithName(name string) NodeBuilderOption {
	return func(n *node) {
		n.name = name
	}
}

// WithPayload is an option builder that attaches builder-specific render data to the node.
//
// Parameters:
//   - payload: the data the node renders
//
// Returns:
//   - NodeBuilderOption: a function that applies the payload option to a node
func WithPayload(payload any) NodeBuilderOption {
	return func(n *node) {
		n.payload = payload
	}
}

// WithResources is an option builder that transfers ownership of GPU resources to the node.
//
// Parameters:
//   - resources: the resources released together with the node
//
// Returns:
//   - NodeBuilderOption: a function that applies the resources option to a node
func WithResources(resources ...Resource) NodeBuilderOption {
	return func(n *node) {
		n.resources = append(n.resources, resources...)
	}
}
