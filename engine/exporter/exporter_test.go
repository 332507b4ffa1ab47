package exporter

import (
	"bytes"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-sector/engine/builder"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

func testResult() geometry.RenderableResult {
	var matrices []float32
	for _, x := range []float32{2, 4} {
		m := mgl32.Translate3D(x, 0, 0)
		matrices = append(matrices, m[:]...)
	}

	group := node.NewGroup("plant/sector-1")
	group.Add(
		node.NewNode(
			node.WithName("triangleMesh/9"),
			node.WithPayload(builder.TriangleMeshPayload{Mesh: geometry.TriangleMesh{
				FileID:   9,
				Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Indices:  []uint32{0, 3, 6},
			}}),
		),
		node.NewNode(node.WithName("opaque")),
	)

	return geometry.RenderableResult{
		SectorMeshes: group,
		// offset 1 exercises direct element addressing
		InstancedMeshes: []geometry.InstancedMeshFile{{
			FileID:   5,
			Vertices: []float32{-1, 0, 0, 0, 0, 1, 0, 0, 1, 1},
			Indices:  []uint32{1, 4, 7, 1, 1, 1},
			Instances: []geometry.MeshInstance{
				{
					TriangleOffset:   0,
					TriangleCount:    1,
					InstanceMatrices: matrices,
					Colors:           []uint8{1, 2, 3, 4, 5, 6, 7, 8},
					TreeIndices:      []uint32{100, 101},
				},
			},
		}},
	}
}

func TestExportGLBRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportGLB(&buf, testResult()))

	doc := gltf.NewDocument()
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(doc))

	require.Len(t, doc.Meshes, 2)
	// root, one triangle mesh node and two instance nodes
	require.Len(t, doc.Nodes, 4)

	root := doc.Nodes[doc.Scenes[0].Nodes[0]]
	require.Equal(t, "plant/sector-1", root.Name)
	require.Len(t, root.Children, 3)

	instanceNode := doc.Nodes[root.Children[2]]
	require.Equal(t, "instancedMesh/5/0/101", instanceNode.Name)
	require.Equal(t, float64(4), instanceNode.Matrix[12])

	mesh := doc.Meshes[*instanceNode.Mesh]
	positions, err := modeler.ReadPosition(doc, doc.Accessors[mesh.Primitives[0].Attributes[gltf.POSITION]], nil)
	require.NoError(t, err)
	require.Equal(t, [][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}}, positions)
}

func TestExportGLBEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportGLB(&buf, geometry.RenderableResult{}))
	require.NotZero(t, buf.Len())
}

func TestExportGLBRejectsMalformedBuffers(t *testing.T) {
	result := testResult()
	result.InstancedMeshes[0].Indices = []uint32{1, 4, 70}

	err := ExportGLB(&bytes.Buffer{}, result)
	require.Error(t, err)
	require.True(t, errors.IsType(err, filter.ErrTypeMalformedBuffer))
}

func TestTrianglePositionsUsesDirectOffsets(t *testing.T) {
	positions, err := trianglePositions([]float32{9, 1, 2, 3}, []uint32{1, 1, 1}, 0, 1)
	require.NoError(t, err)
	require.Equal(t, [][3]float32{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}}, positions)

	positions, err = trianglePositions(nil, nil, 0, 0)
	require.NoError(t, err)
	require.Empty(t, positions)
}
