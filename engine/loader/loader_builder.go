package loader

import (
	"time"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/camera"
	"github.com/Carmen-Shannon/oxy-sector/engine/consumer"
	"github.com/Carmen-Shannon/oxy-sector/engine/profiler"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithConsumer is an option builder that sets the consumer transforming each sector.
//
// Parameters:
//   - c: the sector geometry consumer
//
// Returns:
//   - LoaderBuilderOption: a function that applies the consumer option to a loader
func WithConsumer(c consumer.SectorGeometryConsumer) LoaderBuilderOption {
	return func(l *loader) {
		l.consumer = c
	}
}

// WithWorkers is an option builder that sets the maximum number of pool workers.
// Non-positive values keep the default.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = common.PositiveOr(n, l.workers)
	}
}

// WithQueueSize is an option builder that sets the task queue capacity of the pool.
// Non-positive values keep the default.
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.queueSize = common.PositiveOr(n, l.queueSize)
	}
}

// WithIdleTimeout is an option builder that sets the worker idle timeout.
// Non-positive values keep the default.
func WithIdleTimeout(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		l.idleTimeout = common.PositiveOr(d, l.idleTimeout)
	}
}

// WithFrustum is an option builder that enables view frustum pre-culling of sectors.
//
// Parameters:
//   - f: the view frustum, typically from common.ExtractFrustum
//
// Returns:
//   - LoaderBuilderOption: a function that applies the frustum option to a loader
func WithFrustum(f common.Frustum) LoaderBuilderOption {
	return func(l *loader) {
		l.frustum = &f
	}
}

// WithCamera is an option builder that culls every batch against the camera's frustum at the
// time the batch starts. It takes precedence over WithFrustum.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - LoaderBuilderOption: a function that applies the camera option to a loader
func WithCamera(c camera.Camera) LoaderBuilderOption {
	return func(l *loader) {
		l.camera = c
	}
}

// WithUploader is an option builder that uploads every surviving instanced mesh file and
// attaches the resulting node to the sector group.
func WithUploader(u Uploader) LoaderBuilderOption {
	return func(l *loader) {
		l.uploader = u
	}
}

// WithProfiler is an option builder that ticks p once per batch.
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

// WithResultHandler is an option builder that sets a callback receiving every result of a
// batch in request order, after the batch completes.
//
// Parameters:
//   - h: the result callback
//
// Returns:
//   - LoaderBuilderOption: a function that applies the result handler option to a loader
func WithResultHandler(h ResultHandler) LoaderBuilderOption {
	return func(l *loader) {
		l.handler = h
	}
}
