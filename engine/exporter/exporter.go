// package exporter writes renderable results as binary glTF for inspection in external viewers.
package exporter

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Carmen-Shannon/oxy-sector/engine/builder"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

// ErrTypeExport is the error type of failed exports.
const ErrTypeExport = "export_failed"

// InstanceExtras is attached to every exported instance node.
type InstanceExtras struct {
	TreeIndex uint32   `json:"treeIndex"`
	Color     [4]uint8 `json:"color"`
}

// ExportGLB writes result as a single-scene GLB document.
//
// Every mesh instance becomes one glTF mesh holding its de-indexed triangle range, and every
// surviving placement becomes a node referencing that mesh with the placement matrix. Triangle
// meshes produced by builder.Passthrough are exported untransformed. Other nodes are skipped.
//
// Parameters:
//   - w: the destination
//   - result: the result to export, not modified
//
// Returns:
//   - error: error if a buffer is malformed or encoding fails
func ExportGLB(w io.Writer, result geometry.RenderableResult) error {
	doc := gltf.NewDocument()
	root := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "sector"})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, root)

	if result.SectorMeshes != nil {
		name := result.SectorMeshes.Name()
		doc.Nodes[root].Name = name
		if err := exportTriangleMeshes(doc, root, result.SectorMeshes.Children()); err != nil {
			return err
		}
	}

	for _, file := range result.InstancedMeshes {
		if err := exportInstancedMeshFile(doc, root, file); err != nil {
			return err
		}
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return errors.New("encoding glb failed").
			WithType(ErrTypeExport).
			Wrap(err)
	}
	return nil
}

func exportTriangleMeshes(doc *gltf.Document, root int, children []node.Node) error {
	for _, child := range children {
		payload, ok := child.Payload().(builder.TriangleMeshPayload)
		if !ok {
			continue
		}

		mesh := payload.Mesh
		positions, err := trianglePositions(mesh.Vertices, mesh.Indices, 0, len(mesh.Indices)/3)
		if err != nil {
			return errors.New("exporting triangle mesh failed").
				WithType(errors.Type(err)).
				WithTag("file_id", mesh.FileID).
				Wrap(err)
		}
		if len(positions) == 0 {
			continue
		}

		meshIndex := addMesh(doc, child.Name(), positions)
		addChild(doc, root, &gltf.Node{
			Name: child.Name(),
			Mesh: gltf.Index(meshIndex),
		})
	}
	return nil
}

func exportInstancedMeshFile(doc *gltf.Document, root int, file geometry.InstancedMeshFile) error {
	if err := file.Validate(); err != nil {
		return err
	}

	for i, mi := range file.Instances {
		positions, err := trianglePositions(file.Vertices, file.Indices, mi.TriangleOffset, mi.TriangleCount)
		if err != nil {
			return errors.New("exporting mesh instance failed").
				WithType(errors.Type(err)).
				WithTag("file_id", file.FileID).
				WithTag("mesh_instance", i).
				Wrap(err)
		}
		if len(positions) == 0 {
			continue
		}

		meshName := fmt.Sprintf("instancedMesh/%d/%d", file.FileID, i)
		meshIndex := addMesh(doc, meshName, positions)

		for p := 0; p < mi.Count(); p++ {
			var matrix [16]float64
			for k, v := range mi.InstanceMatrices[p*16 : p*16+16] {
				matrix[k] = float64(v)
			}
			addChild(doc, root, &gltf.Node{
				Name:   fmt.Sprintf("%s/%d", meshName, mi.TreeIndices[p]),
				Mesh:   gltf.Index(meshIndex),
				Matrix: matrix,
				Extras: InstanceExtras{TreeIndex: mi.TreeIndices[p], Color: mi.Color(p)},
			})
		}
	}
	return nil
}

// trianglePositions de-indexes a triangle range. Index values are direct element offsets into
// vertices.
func trianglePositions(vertices []float32, indices []uint32, triangleOffset, triangleCount int) ([][3]float32, error) {
	// BaseBounds performs the same range and offset checks this loop relies on.
	if _, err := filter.BaseBounds(vertices, indices, triangleOffset, triangleCount); err != nil {
		return nil, err
	}

	positions := make([][3]float32, 0, 3*triangleCount)
	for _, k := range indices[3*triangleOffset : 3*(triangleOffset+triangleCount)] {
		positions = append(positions, [3]float32{vertices[k], vertices[k+1], vertices[k+2]})
	}
	return positions, nil
}

func addMesh(doc *gltf.Document, name string, positions [][3]float32) int {
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Mode: gltf.PrimitiveTriangles,
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, positions),
			},
		}},
	})
	return len(doc.Meshes) - 1
}

func addChild(doc *gltf.Document, parent int, n *gltf.Node) {
	doc.Nodes = append(doc.Nodes, n)
	doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, len(doc.Nodes)-1)
}
