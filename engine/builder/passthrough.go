package builder

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/material"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

// PrimitivePayload is the node payload produced by Passthrough for a primitive collection.
type PrimitivePayload struct {
	Collection geometry.PrimitiveCollection
	Material   material.Material
}

// TriangleMeshPayload is the node payload produced by Passthrough for a triangle mesh.
type TriangleMeshPayload struct {
	Mesh     geometry.TriangleMesh
	Bounds   common.Box3
	Material material.Material
}

// SimplePayload is the node payload produced by Passthrough for a simple sector.
type SimplePayload struct {
	RawBytes []byte
	Material material.Material
}

// Passthrough implements every geometry builder without decoding anything: each non-empty input
// becomes one node whose payload is the input itself. Clipping is applied at the granularity it
// can be decided without decoding: whole sectors for primitives and simple geometry, whole meshes
// for triangle meshes. It backs the sectorbench tool and is a reference for real builders.
type Passthrough struct{}

var (
	_ PrimitiveBuilder      = Passthrough{}
	_ TriangleMeshBuilder   = Passthrough{}
	_ SimpleGeometryBuilder = Passthrough{}
)

// BuildPrimitives implements PrimitiveBuilder.
func (Passthrough) BuildPrimitives(primitives []geometry.PrimitiveCollection, materials material.Set, bounds common.Box3, clip *common.Box3) ([]node.Node, error) {
	if clip != nil && !clip.Intersects(bounds) {
		return nil, nil
	}

	var nodes []node.Node
	for _, c := range primitives {
		if c.Count == 0 {
			continue
		}
		nodes = append(nodes, node.NewNode(
			node.WithName(fmt.Sprintf("primitives/%s", c.Kind)),
			node.WithPayload(PrimitivePayload{Collection: c, Material: materials.Primitive(c.Kind)}),
		))
	}
	return nodes, nil
}

// BuildTriangleMeshes implements TriangleMeshBuilder.
func (Passthrough) BuildTriangleMeshes(meshes []geometry.TriangleMesh, bounds common.Box3, triangleMaterial material.Material, clip *common.Box3) ([]node.Node, error) {
	var nodes []node.Node
	for _, m := range meshes {
		if len(m.Indices) == 0 {
			continue
		}
		meshBounds, err := filter.BaseBounds(m.Vertices, m.Indices, 0, len(m.Indices)/3)
		if err != nil {
			return nil, err
		}
		if clip != nil && !clip.Intersects(meshBounds) {
			continue
		}
		nodes = append(nodes, node.NewNode(
			node.WithName(fmt.Sprintf("triangleMesh/%d", m.FileID)),
			node.WithPayload(TriangleMeshPayload{Mesh: m, Bounds: meshBounds, Material: triangleMaterial}),
		))
	}
	return nodes, nil
}

// BuildSimpleGeometryMesh implements SimpleGeometryBuilder.
func (Passthrough) BuildSimpleGeometryMesh(rawBytes []byte, materials material.Set, bounds common.Box3, clip *common.Box3) (node.Node, error) {
	if clip != nil && !clip.Intersects(bounds) {
		return nil, nil
	}
	return node.NewNode(
		node.WithName("simple/quads"),
		node.WithPayload(SimplePayload{RawBytes: rawBytes, Material: materials.Simple()}),
	), nil
}
