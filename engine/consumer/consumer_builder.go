package consumer

import (
	"github.com/Carmen-Shannon/oxy-sector/engine/builder"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
)

// ConsumerBuilderOption is a function that configures a sector geometry consumer during construction.
type ConsumerBuilderOption func(*sectorGeometryConsumer)

// WithMaterialProvider is an option builder that sets the provider used to resolve model materials.
//
// Parameters:
//   - provider: the material provider, typically a material.Library
//
// Returns:
//   - ConsumerBuilderOption: a function that applies the material provider option to a consumer
func WithMaterialProvider(provider builder.MaterialProvider) ConsumerBuilderOption {
	return func(c *sectorGeometryConsumer) {
		c.materials = provider
	}
}

// WithPrimitiveBuilder is an option builder that sets the primitive builder.
func WithPrimitiveBuilder(b builder.PrimitiveBuilder) ConsumerBuilderOption {
	return func(c *sectorGeometryConsumer) {
		c.primitiveBuilder = b
	}
}

// WithTriangleMeshBuilder is an option builder that sets the triangle mesh builder.
func WithTriangleMeshBuilder(b builder.TriangleMeshBuilder) ConsumerBuilderOption {
	return func(c *sectorGeometryConsumer) {
		c.triangleBuilder = b
	}
}

// WithSimpleGeometryBuilder is an option builder that sets the simple geometry builder.
func WithSimpleGeometryBuilder(b builder.SimpleGeometryBuilder) ConsumerBuilderOption {
	return func(c *sectorGeometryConsumer) {
		c.simpleBuilder = b
	}
}

// WithFilter is an option builder that sets the spatial filter applied to instanced meshes.
//
// Parameters:
//   - f: the filter to use
//
// Returns:
//   - ConsumerBuilderOption: a function that applies the filter option to a consumer
func WithFilter(f filter.Filter) ConsumerBuilderOption {
	return func(c *sectorGeometryConsumer) {
		c.instanceFilter = f
	}
}
