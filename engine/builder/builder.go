// package builder declares the collaborators the sector geometry consumer delegates to: material
// resolution and the three geometry builders that turn decoded sector data into scene nodes.
// Implementations live outside the pipeline; this package only fixes their contracts and offers
// func adapters plus passthrough builders for tools and tests.
package builder

import (
	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/material"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

// MaterialProvider resolves the material set of a model.
// material.Library satisfies it.
type MaterialProvider interface {
	// ModelMaterials retrieves the material set registered for a model.
	//
	// Parameters:
	//   - modelID: the model identifier
	//
	// Returns:
	//   - material.Set: the model's materials
	//   - bool: false if the model is unknown
	ModelMaterials(modelID string) (material.Set, bool)
}

// PrimitiveBuilder builds scene nodes from the parametric primitive collections of a detailed sector.
type PrimitiveBuilder interface {
	// BuildPrimitives builds one or more nodes for the given primitive collections. When clip is
	// non-nil the builder discards primitives outside it.
	//
	// Parameters:
	//   - primitives: the sector's primitive collections
	//   - materials: the model's materials
	//   - bounds: the sector bounds
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - []node.Node: the built nodes, owned by the caller
	//   - error: error if a collection cannot be decoded
	BuildPrimitives(primitives []geometry.PrimitiveCollection, materials material.Set, bounds common.Box3, clip *common.Box3) ([]node.Node, error)
}

// TriangleMeshBuilder builds scene nodes from the merged triangle meshes of a detailed sector.
type TriangleMeshBuilder interface {
	// BuildTriangleMeshes builds nodes for the given triangle meshes. When clip is non-nil the
	// builder discards triangles outside it.
	//
	// Parameters:
	//   - meshes: the sector's triangle meshes
	//   - bounds: the sector bounds
	//   - triangleMaterial: the model's triangle mesh material
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - []node.Node: the built nodes, owned by the caller
	//   - error: error if a mesh cannot be built
	BuildTriangleMeshes(meshes []geometry.TriangleMesh, bounds common.Box3, triangleMaterial material.Material, clip *common.Box3) ([]node.Node, error)
}

// SimpleGeometryBuilder builds the single node of a simple (quad) sector.
type SimpleGeometryBuilder interface {
	// BuildSimpleGeometryMesh decodes the raw simple payload into a node.
	//
	// Parameters:
	//   - rawBytes: the undecoded payload, never empty
	//   - materials: the model's materials
	//   - bounds: the sector bounds
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - node.Node: the built node, or nil if nothing survived clipping
	//   - error: error if the payload cannot be decoded
	BuildSimpleGeometryMesh(rawBytes []byte, materials material.Set, bounds common.Box3, clip *common.Box3) (node.Node, error)
}

// MaterialProviderFunc adapts a function to MaterialProvider.
type MaterialProviderFunc func(modelID string) (material.Set, bool)

// ModelMaterials implements MaterialProvider.
func (f MaterialProviderFunc) ModelMaterials(modelID string) (material.Set, bool) {
	return f(modelID)
}

// PrimitiveBuilderFunc adapts a function to PrimitiveBuilder.
type PrimitiveBuilderFunc func(primitives []geometry.PrimitiveCollection, materials material.Set, bounds common.Box3, clip *common.Box3) ([]node.Node, error)

// BuildPrimitives implements PrimitiveBuilder.
func (f PrimitiveBuilderFunc) BuildPrimitives(primitives []geometry.PrimitiveCollection, materials material.Set, bounds common.Box3, clip *common.Box3) ([]node.Node, error) {
	return f(primitives, materials, bounds, clip)
}

// TriangleMeshBuilderFunc adapts a function to TriangleMeshBuilder.
type TriangleMeshBuilderFunc func(meshes []geometry.TriangleMesh, bounds common.Box3, triangleMaterial material.Material, clip *common.Box3) ([]node.Node, error)

// BuildTriangleMeshes implements TriangleMeshBuilder.
func (f TriangleMeshBuilderFunc) BuildTriangleMeshes(meshes []geometry.TriangleMesh, bounds common.Box3, triangleMaterial material.Material, clip *common.Box3) ([]node.Node, error) {
	return f(meshes, bounds, triangleMaterial, clip)
}

// SimpleGeometryBuilderFunc adapts a function to SimpleGeometryBuilder.
type SimpleGeometryBuilderFunc func(rawBytes []byte, materials material.Set, bounds common.Box3, clip *common.Box3) (node.Node, error)

// BuildSimpleGeometryMesh implements SimpleGeometryBuilder.
func (f SimpleGeometryBuilderFunc) BuildSimpleGeometryMesh(rawBytes []byte, materials material.Set, bounds common.Box3, clip *common.Box3) (node.Node, error) {
	return f(rawBytes, materials, bounds, clip)
}
