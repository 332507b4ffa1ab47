package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix
// using the Gribb/Hartmann method.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	row := func(r int) [4]float32 {
		return [4]float32{viewProj.At(r, 0), viewProj.At(r, 1), viewProj.At(r, 2), viewProj.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(index int, a [4]float32, b [4]float32, sign float32) {
		p := &f.Planes[index]
		p.Normal = [3]float32{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]}
		p.Distance = a[3] + sign*b[3]
	}
	set(FrustumLeft, r3, r0, 1)
	set(FrustumRight, r3, r0, -1)
	set(FrustumBottom, r3, r1, 1)
	set(FrustumTop, r3, r1, -1)
	set(FrustumNear, r3, r2, 1)
	set(FrustumFar, r3, r2, -1)

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := math32.Sqrt(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// IntersectsBox reports whether a box is at least partially inside the frustum.
// For each plane the box corner furthest along the plane normal (the positive vertex)
// is tested; if it lies behind any plane the box is fully outside. The test is
// conservative: some boxes near frustum corners are reported as intersecting.
//
// Parameters:
//   - b: the box to test
//
// Returns:
//   - bool: false only if the box is certainly outside the frustum
func (f Frustum) IntersectsBox(b Box3) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var px, py, pz float32
		if p.Normal[0] >= 0 {
			px = b.Max[0]
		} else {
			px = b.Min[0]
		}
		if p.Normal[1] >= 0 {
			py = b.Max[1]
		} else {
			py = b.Min[1]
		}
		if p.Normal[2] >= 0 {
			pz = b.Max[2]
		} else {
			pz = b.Min[2]
		}
		if p.Normal[0]*px+p.Normal[1]*py+p.Normal[2]*pz+p.Distance < 0 {
			return false
		}
	}
	return true
}
