// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Box3 is an axis-aligned bounding box in 3D space.
// A Box3 with no points added is empty: its Min is +Inf and its Max is -Inf on every axis,
// so the first ExpandByPoint call collapses it onto that point.
// A non-empty Box3 always satisfies Min <= Max componentwise.
type Box3 struct {
	// Min is the minimum corner of the box.
	Min [3]float32
	// Max is the maximum corner of the box.
	Max [3]float32
}

// EmptyBox3 returns a box that contains no points.
//
// Returns:
//   - Box3: the empty box
func EmptyBox3() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// NewBox3 creates a box from explicit corners. The corners are sorted per axis so
// the returned box always satisfies Min <= Max.
//
// Parameters:
//   - min: the first corner
//   - max: the second corner
//
// Returns:
//   - Box3: the box spanning both corners
func NewBox3(min, max [3]float32) Box3 {
	var b Box3
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(min[i], max[i])
		b.Max[i] = math32.Max(min[i], max[i])
	}
	return b
}

// IsEmpty reports whether the box contains no points.
//
// Returns:
//   - bool: true if any axis has Max < Min
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows the box so it contains the given point.
//
// Parameters:
//   - x, y, z: the point coordinates
func (b *Box3) ExpandByPoint(x, y, z float32) {
	if x < b.Min[0] {
		b.Min[0] = x
	}
	if y < b.Min[1] {
		b.Min[1] = y
	}
	if z < b.Min[2] {
		b.Min[2] = z
	}
	if x > b.Max[0] {
		b.Max[0] = x
	}
	if y > b.Max[1] {
		b.Max[1] = y
	}
	if z > b.Max[2] {
		b.Max[2] = z
	}
}

// Intersects reports whether two boxes overlap. Bounds are closed, so boxes that only
// touch on a face, edge, or corner intersect. An empty box intersects nothing.
//
// Parameters:
//   - other: the box to test against
//
// Returns:
//   - bool: true if the boxes overlap
func (b Box3) Intersects(other Box3) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return other.Max[0] >= b.Min[0] && other.Min[0] <= b.Max[0] &&
		other.Max[1] >= b.Min[1] && other.Min[1] <= b.Max[1] &&
		other.Max[2] >= b.Min[2] && other.Min[2] <= b.Max[2]
}

// ContainsBox reports whether the other box lies entirely inside this box (closed bounds).
// An empty other box is contained by any non-empty box.
//
// Parameters:
//   - other: the candidate inner box
//
// Returns:
//   - bool: true if every point of other is inside b
func (b Box3) ContainsBox(other Box3) bool {
	if b.IsEmpty() {
		return false
	}
	if other.IsEmpty() {
		return true
	}
	return b.ContainsPoint(other.Min[0], other.Min[1], other.Min[2]) &&
		b.ContainsPoint(other.Max[0], other.Max[1], other.Max[2])
}

// ContainsPoint reports whether a point lies inside the box (closed bounds).
//
// Parameters:
//   - x, y, z: the point coordinates
//
// Returns:
//   - bool: true if the point is inside
func (b Box3) ContainsPoint(x, y, z float32) bool {
	return x >= b.Min[0] && x <= b.Max[0] &&
		y >= b.Min[1] && y <= b.Max[1] &&
		z >= b.Min[2] && z <= b.Max[2]
}

// Transformed returns the tightest axis-aligned box containing all eight corners of b
// after transformation by m. It uses Arvo's method: each output axis starts at the
// translation and accumulates the smaller and larger products of every matrix element
// against the source min/max, which is equivalent to transforming all corners without
// materializing them. The matrix is column-major, element (row, col) at m[col*4+row].
//
// Parameters:
//   - m: the affine transform to apply
//
// Returns:
//   - Box3: the transformed box, or an empty box if b is empty
func (b Box3) Transformed(m mgl32.Mat4) Box3 {
	if b.IsEmpty() {
		return EmptyBox3()
	}

	out := Box3{
		Min: [3]float32{m[12], m[13], m[14]},
		Max: [3]float32{m[12], m[13], m[14]},
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			e := m[col*4+row]
			lo := e * b.Min[col]
			hi := e * b.Max[col]
			if lo > hi {
				lo, hi = hi, lo
			}
			out.Min[row] += lo
			out.Max[row] += hi
		}
	}
	return out
}

// String formats the box for logs.
func (b Box3) String() string {
	if b.IsEmpty() {
		return "Box3(empty)"
	}
	return fmt.Sprintf("Box3(%v..%v)", b.Min, b.Max)
}
