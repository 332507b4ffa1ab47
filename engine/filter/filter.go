// package filter implements the spatial filter that discards the placements of an instanced mesh
// lying outside the active clip volume.
//
// The filter computes the bounds of the shared base mesh once, transforms that box by each
// placement matrix and keeps the placements whose transformed box intersects the clip volume.
// All scratch state lives on the stack of a single call, so one filter value may be used by any
// number of sector workers in parallel.
package filter

import (
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
)

// ErrTypeMalformedBuffer is the error type returned for buffer-layout invariant violations.
const ErrTypeMalformedBuffer = geometry.ErrTypeMalformedBuffer

// spatialFilter is the implementation of the Filter interface.
type spatialFilter struct {
	stats *Stats
}

// Stats accumulates how many placements a filter evaluated and kept. It is safe for concurrent use.
type Stats struct {
	Evaluated atomic.Int64
	Kept      atomic.Int64
}

// Filter defines the interface for clipping the placements of an instanced mesh.
type Filter interface {
	// FilterInstances returns the placements of mesh whose transformed base-mesh bounds
	// intersect clip.
	//
	// The result is always a MeshInstance value. When clip is nil, or when every placement
	// survives, the result is the input itself and shares its backing arrays; no allocation
	// happens. Otherwise the result owns freshly allocated arrays sized exactly to the survivors,
	// in their original relative order.
	//
	// Index values are direct element offsets into vertices: index k addresses the position
	// vertices[k], vertices[k+1], vertices[k+2].
	//
	// Parameters:
	//   - vertices: the file's shared, flat vertex buffer
	//   - indices: the file's shared index buffer
	//   - mesh: the triangle range and placements to filter
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - geometry.MeshInstance: the surviving placements
	//   - error: a malformed_buffer error if the buffers violate their layout invariants
	FilterInstances(vertices []float32, indices []uint32, mesh geometry.MeshInstance, clip *common.Box3) (geometry.MeshInstance, error)
}

var _ Filter = &spatialFilter{}

// NewSpatialFilter creates a new Filter configured with the provided options.
//
// Parameters:
//   - options: variadic list of FilterBuilderOption functions to configure the filter
//
// Returns:
//   - Filter: a new Filter instance
func NewSpatialFilter(options ...FilterBuilderOption) Filter {
	f := &spatialFilter{}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *spatialFilter) FilterInstances(vertices []float32, indices []uint32, mesh geometry.MeshInstance, clip *common.Box3) (geometry.MeshInstance, error) {
	if clip == nil {
		return mesh, nil
	}

	if err := mesh.Validate(len(indices)); err != nil {
		return geometry.MeshInstance{}, err
	}

	base, err := BaseBounds(vertices, indices, mesh.TriangleOffset, mesh.TriangleCount)
	if err != nil {
		return geometry.MeshInstance{}, err
	}

	count := mesh.Count()
	clipBox := *clip

	// Record survivors first so the output arrays are sized exactly and each placement is
	// transformed once.
	visible := make([]uint64, (count+63)/64)
	kept := 0
	for i := 0; i < count; i++ {
		if instanceVisible(base, mesh.InstanceMatrices[i*16:i*16+16], clipBox) {
			visible[i/64] |= 1 << (i % 64)
			kept++
		}
	}

	if f.stats != nil {
		f.stats.Evaluated.Add(int64(count))
		f.stats.Kept.Add(int64(kept))
	}

	if kept == count {
		return mesh, nil
	}

	out := geometry.MeshInstance{
		TriangleOffset:   mesh.TriangleOffset,
		TriangleCount:    mesh.TriangleCount,
		InstanceMatrices: make([]float32, 0, kept*16),
		Colors:           make([]uint8, 0, kept*4),
		TreeIndices:      make([]uint32, 0, kept),
	}
	if kept == 0 {
		return out, nil
	}

	for i := 0; i < count; i++ {
		if visible[i/64]&(1<<(i%64)) == 0 {
			continue
		}
		out.InstanceMatrices = append(out.InstanceMatrices, mesh.InstanceMatrices[i*16:i*16+16]...)
		out.Colors = append(out.Colors, mesh.Colors[i*4:i*4+4]...)
		out.TreeIndices = append(out.TreeIndices, mesh.TreeIndices[i])
	}

	return out, nil
}

// instanceVisible transforms the base bounds by one placement matrix and tests it against clip.
func instanceVisible(base common.Box3, matrix []float32, clip common.Box3) bool {
	return clip.Intersects(base.Transformed(common.Mat4FromSlice(matrix)))
}

// BaseBounds computes the bounds of the triangles [triangleOffset, triangleOffset+triangleCount)
// of a shared mesh. Each index value is a direct element offset into vertices.
// An empty triangle range yields an empty box.
//
// Parameters:
//   - vertices: the flat vertex buffer
//   - indices: the index buffer
//   - triangleOffset: the first triangle
//   - triangleCount: the number of triangles
//
// Returns:
//   - common.Box3: the bounds of every referenced position
//   - error: a malformed_buffer error if the range or an index value is out of range
func BaseBounds(vertices []float32, indices []uint32, triangleOffset, triangleCount int) (common.Box3, error) {
	bounds := common.EmptyBox3()

	if !geometry.TriangleRangeFits(triangleOffset, triangleCount, len(indices)) {
		return bounds, errors.New("triangle range exceeds index buffer").
			WithType(ErrTypeMalformedBuffer).
			WithTag("triangle_offset", triangleOffset).
			WithTag("triangle_count", triangleCount).
			WithTag("index_count", len(indices))
	}

	first := 3 * triangleOffset
	last := 3 * (triangleOffset + triangleCount)
	for _, k := range indices[first:last] {
		offset := int(k)
		if offset+2 >= len(vertices) {
			return bounds, errors.New("index value exceeds vertex buffer").
				WithType(ErrTypeMalformedBuffer).
				WithTag("index_value", offset).
				WithTag("vertex_values", len(vertices))
		}
		bounds.ExpandByPoint(vertices[offset], vertices[offset+1], vertices[offset+2])
	}

	return bounds, nil
}
