package consumer

import (
	"sync/atomic"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/builder"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/material"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

const modelID = "plant"

type countingFilter struct {
	calls atomic.Int32
	inner filter.Filter
}

func (f *countingFilter) FilterInstances(vertices []float32, indices []uint32, mesh geometry.MeshInstance, clip *common.Box3) (geometry.MeshInstance, error) {
	f.calls.Add(1)
	return f.inner.FilterInstances(vertices, indices, mesh, clip)
}

type countingResource struct {
	released atomic.Int32
}

func (r *countingResource) Release() {
	r.released.Add(1)
}

// fixture records every collaborator call made by the consumer under test.
type fixture struct {
	materialCalls  atomic.Int32
	primitiveCalls atomic.Int32
	triangleCalls  atomic.Int32
	simpleCalls    atomic.Int32

	primitiveClip *common.Box3
	triangleClip  *common.Box3
	resource      *countingResource

	primitiveErr error
	triangleErr  error
	simpleErr    error

	filter *countingFilter
}

func newFixture() *fixture {
	return &fixture{
		resource: &countingResource{},
		filter:   &countingFilter{inner: filter.NewSpatialFilter()},
	}
}

func (fx *fixture) consumer(known ...string) SectorGeometryConsumer {
	library := material.NewLibrary()
	for _, id := range known {
		library.Register(id, material.DefaultSet(id))
	}

	return NewSectorGeometryConsumer(
		WithMaterialProvider(builder.MaterialProviderFunc(func(id string) (material.Set, bool) {
			fx.materialCalls.Add(1)
			return library.ModelMaterials(id)
		})),
		WithPrimitiveBuilder(builder.PrimitiveBuilderFunc(func(primitives []geometry.PrimitiveCollection, materials material.Set, bounds common.Box3, clip *common.Box3) ([]node.Node, error) {
			fx.primitiveCalls.Add(1)
			fx.primitiveClip = clip
			n := node.NewNode(node.WithName("primitive"), node.WithResources(fx.resource))
			return []node.Node{n}, fx.primitiveErr
		})),
		WithTriangleMeshBuilder(builder.TriangleMeshBuilderFunc(func(meshes []geometry.TriangleMesh, bounds common.Box3, triangleMaterial material.Material, clip *common.Box3) ([]node.Node, error) {
			fx.triangleCalls.Add(1)
			fx.triangleClip = clip
			if fx.triangleErr != nil {
				return nil, fx.triangleErr
			}
			return []node.Node{node.NewNode(node.WithName(triangleMaterial.Name()))}, nil
		})),
		WithSimpleGeometryBuilder(builder.SimpleGeometryBuilderFunc(func(rawBytes []byte, materials material.Set, bounds common.Box3, clip *common.Box3) (node.Node, error) {
			fx.simpleCalls.Add(1)
			if fx.simpleErr != nil {
				return nil, fx.simpleErr
			}
			return node.NewNode(node.WithName("quads"), node.WithPayload(rawBytes)), nil
		})),
		WithFilter(fx.filter),
	)
}

var (
	sectorBounds = common.NewBox3([3]float32{0, 0, 0}, [3]float32{10, 10, 10})
	sector       = geometry.SectorMetadata{ID: 7, Depth: 2, Bounds: sectorBounds}
	unitVertices = []float32{0, 0, 0, 1, 0, 0, 0, 1, 1}
	unitIndices  = []uint32{0, 3, 6}
	insideClip   = common.NewBox3([3]float32{0, 0, 0}, [3]float32{5, 5, 5})
	containsClip = common.NewBox3([3]float32{-1, -1, -1}, [3]float32{11, 11, 11})
	disjointClip = common.NewBox3([3]float32{50, 50, 50}, [3]float32{60, 60, 60})
)

func placements(translations ...[3]float32) geometry.MeshInstance {
	mi := geometry.MeshInstance{TriangleOffset: 0, TriangleCount: 1}
	for i, t := range translations {
		m := mgl32.Translate3D(t[0], t[1], t[2])
		mi.InstanceMatrices = append(mi.InstanceMatrices, m[:]...)
		mi.Colors = append(mi.Colors, uint8(10*i), 0, 0, 255)
		mi.TreeIndices = append(mi.TreeIndices, uint32(i+1))
	}
	return mi
}

func detailedPayload() geometry.DetailedPayload {
	return geometry.DetailedPayload{
		Primitives: []geometry.PrimitiveCollection{{Kind: geometry.PrimitiveBox, Count: 1, Data: []byte{1}}},
		TriangleMeshes: []geometry.TriangleMesh{{
			FileID:   3,
			Vertices: unitVertices,
			Indices:  unitIndices,
		}},
		InstanceMeshFiles: []geometry.InstancedMeshFile{
			{
				FileID:    11,
				Vertices:  unitVertices,
				Indices:   unitIndices,
				Instances: []geometry.MeshInstance{placements([3]float32{1, 1, 1}, [3]float32{8, 8, 8})},
			},
			{
				FileID:    12,
				Vertices:  unitVertices,
				Indices:   unitIndices,
				Instances: []geometry.MeshInstance{placements([3]float32{9, 0, 0})},
			},
		},
	}
}

func TestTransformSimpleSectorMissingMaterials(t *testing.T) {
	fx := newFixture()
	c := fx.consumer()

	_, err := c.TransformSimpleSector("ghost", sectorBounds, geometry.SimplePayload{RawBytes: []byte{1}}, nil)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeMissingMaterials))
	require.Contains(t, err.Error(), "could not find materials for model 'ghost'")
	require.Equal(t, int32(1), fx.materialCalls.Load())
	require.Zero(t, fx.simpleCalls.Load())
}

func TestTransformSimpleSectorEmptyPayload(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)

	result, err := c.TransformSimpleSector(modelID, sectorBounds, geometry.SimplePayload{}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.SectorMeshes)
	require.Zero(t, result.SectorMeshes.Len())
	require.NotNil(t, result.InstancedMeshes)
	require.Empty(t, result.InstancedMeshes)
	require.Zero(t, fx.simpleCalls.Load())
}

func TestTransformSimpleSectorDelegates(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)

	raw := []byte{1, 2, 3}
	result, err := c.TransformSimpleSector(modelID, sectorBounds, geometry.SimplePayload{RawBytes: raw}, &insideClip)
	require.NoError(t, err)
	require.Equal(t, int32(1), fx.simpleCalls.Load())
	require.Equal(t, "plant/simple", result.SectorMeshes.Name())

	children := result.SectorMeshes.Children()
	require.Len(t, children, 1)
	require.Equal(t, raw, children[0].Payload())
	require.Empty(t, result.InstancedMeshes)
}

func TestTransformSimpleSectorBuilderError(t *testing.T) {
	fx := newFixture()
	fx.simpleErr = errors.New("bad quads").WithType("decode")
	c := fx.consumer(modelID)

	_, err := c.TransformSimpleSector(modelID, sectorBounds, geometry.SimplePayload{RawBytes: []byte{1}}, nil)
	require.Error(t, err)
	require.True(t, errors.IsType(err, "decode"))
}

func TestTransformDetailedSectorMissingMaterials(t *testing.T) {
	fx := newFixture()
	c := fx.consumer()

	payload := detailedPayload()
	payload.InstanceMeshFiles[0].Instances[0].Colors = nil // malformed, must not be reached

	_, err := c.TransformDetailedSector(modelID, sector, payload, &insideClip)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeMissingMaterials))
	require.Contains(t, err.Error(), "could not find materials for model 'plant'")
	require.Equal(t, int32(1), fx.materialCalls.Load())
	require.Zero(t, fx.primitiveCalls.Load())
	require.Zero(t, fx.triangleCalls.Load())
	require.Zero(t, fx.filter.calls.Load())
}

func TestTransformDetailedSectorClipsInstances(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)
	payload := detailedPayload()

	result, err := c.TransformDetailedSector(modelID, sector, payload, &insideClip)
	require.NoError(t, err)
	require.Equal(t, int32(1), fx.materialCalls.Load())
	require.Equal(t, "plant/sector-7", result.SectorMeshes.Name())
	require.Equal(t, 2, result.SectorMeshes.Len())
	require.Equal(t, &insideClip, fx.primitiveClip)
	require.Equal(t, &insideClip, fx.triangleClip)
	require.Equal(t, int32(2), fx.filter.calls.Load())

	// file 12 has its only placement outside the clip and is dropped
	require.Len(t, result.InstancedMeshes, 1)
	file := result.InstancedMeshes[0]
	require.Equal(t, uint64(11), file.FileID)
	require.Len(t, file.Instances, 1)

	original := payload.InstanceMeshFiles[0].Instances[0]
	survivor := file.Instances[0]
	require.Equal(t, 1, survivor.Count())
	require.Equal(t, original.Matrix(0), survivor.Matrix(0))
	require.Equal(t, original.Color(0), survivor.Color(0))
	require.Equal(t, []uint32{1}, survivor.TreeIndices)

	require.Same(t, &payload.InstanceMeshFiles[0].Vertices[0], &file.Vertices[0])
	require.Same(t, &payload.InstanceMeshFiles[0].Indices[0], &file.Indices[0])
}

func TestTransformDetailedSectorClipContainingSectorSkipsFilter(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)
	payload := detailedPayload()

	result, err := c.TransformDetailedSector(modelID, sector, payload, &containsClip)
	require.NoError(t, err)
	require.Zero(t, fx.filter.calls.Load())
	require.Nil(t, fx.primitiveClip)
	require.Nil(t, fx.triangleClip)

	require.Len(t, result.InstancedMeshes, 2)
	for i, file := range result.InstancedMeshes {
		require.True(t, file.Instances[0].SharesStorageWith(payload.InstanceMeshFiles[i].Instances[0]))
	}
}

func TestTransformDetailedSectorWithoutClip(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)
	payload := detailedPayload()
	payload.InstanceMeshFiles = append(payload.InstanceMeshFiles, geometry.InstancedMeshFile{
		FileID:    13,
		Vertices:  unitVertices,
		Indices:   unitIndices,
		Instances: []geometry.MeshInstance{{TriangleOffset: 0, TriangleCount: 1}},
	})

	result, err := c.TransformDetailedSector(modelID, sector, payload, nil)
	require.NoError(t, err)
	require.Zero(t, fx.filter.calls.Load())

	// file 13 carries no placements at all
	require.Len(t, result.InstancedMeshes, 2)
	require.Equal(t, 3, result.InstanceCount())
}

func TestTransformDetailedSectorDisjointClipDropsFiles(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)

	result, err := c.TransformDetailedSector(modelID, sector, detailedPayload(), &disjointClip)
	require.NoError(t, err)
	require.NotNil(t, result.InstancedMeshes)
	require.Empty(t, result.InstancedMeshes)
}

func TestTransformDetailedSectorIsIdempotent(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)
	payload := detailedPayload()

	first, err := c.TransformDetailedSector(modelID, sector, payload, &insideClip)
	require.NoError(t, err)
	second, err := c.TransformDetailedSector(modelID, sector, payload, &insideClip)
	require.NoError(t, err)

	require.Equal(t, first.InstancedMeshes, second.InstancedMeshes)
	require.NotEqual(t, first.SectorMeshes.ID(), second.SectorMeshes.ID())
}

func TestTransformDetailedSectorReleasesGroupOnError(t *testing.T) {
	fx := newFixture()
	fx.triangleErr = errors.New("broken mesh")
	c := fx.consumer(modelID)

	_, err := c.TransformDetailedSector(modelID, sector, detailedPayload(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "building triangle meshes failed")
	require.Equal(t, int32(1), fx.resource.released.Load())
}

func TestTransformDetailedSectorMalformedInstances(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)
	payload := detailedPayload()
	payload.InstanceMeshFiles[1].Instances[0].TreeIndices = append(payload.InstanceMeshFiles[1].Instances[0].TreeIndices, 99)

	_, err := c.TransformDetailedSector(modelID, sector, payload, &insideClip)
	require.Error(t, err)
	require.True(t, errors.IsType(err, filter.ErrTypeMalformedBuffer), err.Error())
	require.Equal(t, int32(1), fx.resource.released.Load())
}

func TestTransformDispatch(t *testing.T) {
	fx := newFixture()
	c := fx.consumer(modelID)

	result, err := c.Transform(modelID, sector, geometry.SimplePayload{RawBytes: []byte{1}}, nil)
	require.NoError(t, err)
	require.Equal(t, "plant/simple", result.SectorMeshes.Name())

	payload := detailedPayload()
	result, err = c.Transform(modelID, sector, &payload, nil)
	require.NoError(t, err)
	require.Equal(t, "plant/sector-7", result.SectorMeshes.Name())

	_, err = c.Transform(modelID, sector, nil, nil)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeUnknownPayload))
}

func TestDefaultsUsePassthroughBuilders(t *testing.T) {
	c := NewSectorGeometryConsumer(WithMaterialProvider(material.NewLibrary(material.WithModelSet(modelID, material.DefaultSet(modelID)))))

	result, err := c.TransformDetailedSector(modelID, sector, detailedPayload(), &insideClip)
	require.NoError(t, err)
	require.Equal(t, 2, result.SectorMeshes.Len())
	require.Equal(t, 1, result.InstanceCount())

	result.Release()
	require.True(t, result.SectorMeshes.Released())
}
