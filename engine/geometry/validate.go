package geometry

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeMalformedBuffer is the error type of every buffer-layout invariant violation.
const ErrTypeMalformedBuffer = "malformed_buffer"

// Validate checks the parallel-array layout of the instance and that its triangle range
// lies inside an index buffer of indexCount elements. It does not read any buffer contents.
//
// Parameters:
//   - indexCount: the length of the owning file's index buffer
//
// Returns:
//   - error: a malformed_buffer error describing the first violated invariant, or nil
func (mi MeshInstance) Validate(indexCount int) error {
	n := len(mi.TreeIndices)
	if len(mi.InstanceMatrices) != 16*n {
		return errors.New("instance matrices do not match tree indices").
			WithType(ErrTypeMalformedBuffer).
			WithTag("matrix_values", len(mi.InstanceMatrices)).
			WithTag("tree_indices", n)
	}
	if len(mi.Colors) != 4*n {
		return errors.New("instance colors do not match tree indices").
			WithType(ErrTypeMalformedBuffer).
			WithTag("color_values", len(mi.Colors)).
			WithTag("tree_indices", n)
	}
	if mi.TriangleOffset < 0 || mi.TriangleCount < 0 {
		return errors.New("negative triangle range").
			WithType(ErrTypeMalformedBuffer).
			WithTag("triangle_offset", mi.TriangleOffset).
			WithTag("triangle_count", mi.TriangleCount)
	}
	if !TriangleRangeFits(mi.TriangleOffset, mi.TriangleCount, indexCount) {
		return errors.New("triangle range exceeds index buffer").
			WithType(ErrTypeMalformedBuffer).
			WithTag("triangle_offset", mi.TriangleOffset).
			WithTag("triangle_count", mi.TriangleCount).
			WithTag("index_count", indexCount)
	}
	return nil
}

// TriangleRangeFits reports whether the triangles [offset, offset+count) lie inside an index
// buffer of indexCount elements. It never multiplies the range, so it cannot overflow.
//
// Parameters:
//   - offset: the first triangle
//   - count: the number of triangles
//   - indexCount: the length of the index buffer
//
// Returns:
//   - bool: true if 3*(offset+count) <= indexCount and neither value is negative
func TriangleRangeFits(offset, count, indexCount int) bool {
	triangles := indexCount / 3
	return offset >= 0 && count >= 0 && count <= triangles && offset <= triangles-count
}

// Validate checks every mesh instance of the file against its shared index buffer.
//
// Returns:
//   - error: the first violation, tagged with the file id, or nil
func (f InstancedMeshFile) Validate() error {
	for i, mi := range f.Instances {
		if err := mi.Validate(len(f.Indices)); err != nil {
			return errors.New("invalid instanced mesh file").
				WithType(ErrTypeMalformedBuffer).
				WithTag("file_id", f.FileID).
				WithTag("mesh_instance", i).
				Wrap(err)
		}
	}
	return nil
}

// Validate checks the layout of every instanced mesh file in the payload.
//
// Returns:
//   - error: the first violation, or nil
func (p DetailedPayload) Validate() error {
	for _, f := range p.InstanceMeshFiles {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
