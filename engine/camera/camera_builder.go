package camera

import "github.com/Carmen-Shannon/oxy-sector/common"

// CameraBuilderOption is a function that configures a camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithEye sets the camera position.
//
// Parameters:
//   - eye: the world-space eye position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithEye(eye [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eye = eye
	}
}

// WithTarget sets the point the camera looks at.
//
// Parameters:
//   - target: the world-space target
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's target
func WithTarget(target [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = target
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithFov sets the camera's field of view in radians. Non-positive values are ignored.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = common.PositiveOr(fov, c.fov)
	}
}

// WithAspect sets the camera's aspect ratio (width / height). Non-positive values are ignored.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = common.PositiveOr(aspect, c.aspect)
	}
}

// WithNear sets the near clipping plane distance. Non-positive values are ignored.
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = common.PositiveOr(near, c.near)
	}
}

// WithFar sets the far clipping plane distance. Non-positive values are ignored.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = common.PositiveOr(far, c.far)
	}
}
