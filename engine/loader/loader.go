// package loader streams batches of sectors through a sector geometry consumer on a worker pool.
//
// The loader is the layer that owns concurrency: each sector is one task on a dynamic worker
// pool, sectors outside the view frustum are culled before any geometry work, and surviving
// instanced meshes are optionally uploaded to the GPU and attached to the sector's group.
package loader

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/camera"
	"github.com/Carmen-Shannon/oxy-sector/engine/consumer"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
	"github.com/Carmen-Shannon/oxy-sector/engine/profiler"
)

// ErrTypeUploadFailed is the error type of failed GPU uploads.
const ErrTypeUploadFailed = "upload_failed"

// Request describes one sector to load.
type Request struct {
	ModelID string
	Sector  geometry.SectorMetadata
	Payload geometry.Payload
	// Clip is the active clip volume, nil for none.
	Clip *common.Box3
}

// Result is the outcome of one Request. Exactly one of Renderable, Culled or Err is meaningful.
type Result struct {
	Request    Request
	Renderable geometry.RenderableResult
	// Culled is true when the sector was outside the view frustum and never transformed.
	Culled bool
	// Err is the transformation or upload error, or the context error for requests that never started.
	Err error
}

// Uploader moves a surviving instanced mesh file into GPU memory. gpu.Uploader satisfies it.
type Uploader interface {
	UploadInstancedMeshFile(file geometry.InstancedMeshFile) (node.Node, error)
}

// ResultHandler receives every result of a batch, in request order.
type ResultHandler func(Result)

// loader is the implementation of the Loader interface.
type loader struct {
	consumer consumer.SectorGeometryConsumer
	pool     worker.DynamicWorkerPool

	workers     int
	queueSize   int
	idleTimeout time.Duration

	frustum  *common.Frustum
	camera   camera.Camera
	uploader Uploader
	profiler *profiler.Profiler
	handler  ResultHandler
}

// Loader defines the interface for loading batches of sectors concurrently.
type Loader interface {
	// LoadSectors transforms every request on the worker pool and blocks until the whole batch
	// is done. Requests not yet started when ctx is cancelled are skipped with ctx's error;
	// transformations already running complete normally.
	//
	// Parameters:
	//   - ctx: the batch context
	//   - requests: the sectors to load
	//
	// Returns:
	//   - []Result: one result per request, in request order, owned by the caller
	LoadSectors(ctx context.Context, requests []Request) []Result

	// Close stops the worker pool. The loader must not be used afterwards.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the provided options applied.
// Defaults: one worker per CPU, a queue of 256 tasks, 1 second idle timeout and a consumer with
// passthrough builders and an empty material library.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers:     runtime.NumCPU(),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
	for _, option := range options {
		option(l)
	}

	if l.consumer == nil {
		l.consumer = consumer.NewSectorGeometryConsumer()
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, l.idleTimeout)
	return l
}

func (l *loader) LoadSectors(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))

	// pool.Wait() blocks until workers idle-exit, so a WaitGroup is the batch barrier.
	frustum := l.frustum
	if l.camera != nil {
		f := l.camera.Frustum()
		frustum = &f
	}

	var wg sync.WaitGroup
	for i, req := range requests {
		results[i].Request = req
		lod := lodOf(req.Payload)

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			instrumentSectorLoad(lod, outcomeCancelled)
			continue
		}

		if frustum != nil && !frustum.IntersectsBox(req.Sector.Bounds) {
			results[i].Culled = true
			instrumentSectorLoad(lod, outcomeCulled)
			continue
		}

		wg.Add(1)
		idx := i
		r := req
		l.pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: r,
			Do: func() (any, error) {
				defer wg.Done()

				if err := ctx.Err(); err != nil {
					results[idx].Err = err
					instrumentSectorLoad(lod, outcomeCancelled)
					return nil, err
				}

				results[idx] = l.load(r, lod)
				return nil, results[idx].Err
			},
		})
	}
	wg.Wait()

	if l.handler != nil {
		for _, res := range results {
			l.handler(res)
		}
	}
	if l.profiler != nil {
		l.profiler.Tick(len(requests))
	}
	return results
}

func (l *loader) Close() {
	l.pool.Stop()
}

// load transforms and uploads one sector.
func (l *loader) load(req Request, lod string) Result {
	start := time.Now()
	defer instrumentTransformLatency(lod, start)

	res := Result{Request: req}
	renderable, err := l.consumer.Transform(req.ModelID, req.Sector, req.Payload, req.Clip)
	if err != nil {
		return l.fail(res, lod, err)
	}

	if l.uploader != nil {
		for _, file := range renderable.InstancedMeshes {
			n, err := l.uploader.UploadInstancedMeshFile(file)
			if err != nil {
				renderable.Release()
				return l.fail(res, lod, errors.New("uploading instanced mesh failed").
					WithType(ErrTypeUploadFailed).
					WithTag("file_id", file.FileID).
					Wrap(err))
			}
			renderable.SectorMeshes.Add(n)
		}
	}

	instrumentInstances(instanceCountOf(req.Payload), renderable.InstanceCount())
	instrumentSectorLoad(lod, outcomeLoaded)

	res.Renderable = renderable
	return res
}

func (l *loader) fail(res Result, lod string, err error) Result {
	instrumentSectorLoad(lod, outcomeFailed)
	instrumentSectorLoadError(lod, err)

	logs.Warn(errors.New("loading sector failed").
		WithTag("model_id", res.Request.ModelID).
		WithTag("sector_id", res.Request.Sector.ID).
		WithTag("lod", lod).
		Wrap(err))

	res.Err = err
	return res
}

// lodOf names the payload's level of detail for logs and metrics.
func lodOf(payload geometry.Payload) string {
	if payload == nil {
		return "unknown"
	}
	return payload.Kind().String()
}

// instanceCountOf counts the placements of a detailed payload before clipping.
func instanceCountOf(payload geometry.Payload) int {
	var files []geometry.InstancedMeshFile
	switch p := payload.(type) {
	case geometry.DetailedPayload:
		files = p.InstanceMeshFiles
	case *geometry.DetailedPayload:
		files = p.InstanceMeshFiles
	}

	n := 0
	for _, f := range files {
		n += f.InstanceCount()
	}
	return n
}
