package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mat4FromSlice copies 16 consecutive column-major values into a matrix.
// The caller guarantees len(values) >= 16.
//
// Parameters:
//   - values: the source values
//
// Returns:
//   - mgl32.Mat4: the decoded matrix
func Mat4FromSlice(values []float32) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], values[:16])
	return m
}

// ModelMatrix constructs a 4x4 placement matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). The result is column-major.
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the composed placement matrix
func ModelMatrix(position, rotation, scale [3]float32) mgl32.Mat4 {
	r := mgl32.HomogRotate3DY(rotation[1]).
		Mul4(mgl32.HomogRotate3DX(rotation[0])).
		Mul4(mgl32.HomogRotate3DZ(rotation[2]))
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// ViewProjection builds the combined projection * view matrix of a perspective camera
// looking from eye towards target.
//
// Parameters:
//   - eye: camera position in world space
//   - target: point the camera looks at
//   - up: the camera's up vector
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the view-projection matrix
func ViewProjection(eye, target, up [3]float32, fovY, aspect, near, far float32) mgl32.Mat4 {
	view := mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(target), mgl32.Vec3(up))
	return mgl32.Perspective(fovY, aspect, near, far).Mul4(view)
}
