package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-sector/common"
)

// UploaderBuilderOption is a function that configures an uploader instance during construction.
type UploaderBuilderOption func(*uploader)

// WithDevice is an option builder that sets the device buffers are created on.
//
// Parameters:
//   - device: the wgpu device
//
// Returns:
//   - UploaderBuilderOption: a function that applies the device option to an uploader
func WithDevice(device *wgpu.Device) UploaderBuilderOption {
	return func(u *uploader) {
		u.device = device
	}
}

// WithQueue is an option builder that sets the queue buffer contents are written through.
//
// Parameters:
//   - queue: the device's queue
//
// Returns:
//   - UploaderBuilderOption: a function that applies the queue option to an uploader
func WithQueue(queue *wgpu.Queue) UploaderBuilderOption {
	return func(u *uploader) {
		u.queue = queue
	}
}

// WithLabelPrefix is an option builder that sets the prefix of every buffer label. An empty
// prefix keeps the default.
func WithLabelPrefix(prefix string) UploaderBuilderOption {
	return func(u *uploader) {
		u.labelPrefix = common.Coalesce(prefix, u.labelPrefix)
	}
}
