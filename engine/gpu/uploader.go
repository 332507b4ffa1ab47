// package gpu uploads the instanced meshes of a renderable result into GPU buffers.
//
// Each uploaded file becomes a node owning its vertex, index and instance buffers, so releasing
// the sector group releases the GPU memory with it.
package gpu

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

const (
	// ErrTypeNoDevice is returned when an upload is attempted without a device or queue.
	ErrTypeNoDevice = "no_device"
	// ErrTypeBufferCreation is returned when the device refuses to create a buffer.
	ErrTypeBufferCreation = "buffer_creation"
	// ErrTypeDrawRange is returned when a draw does not fit the 32-bit fields of DrawRange.
	ErrTypeDrawRange = "draw_range"
)

// InstanceData is the per-instance vertex layout: a column-major model matrix, an RGBA8 color and
// the tree index, 72 bytes with no padding.
type InstanceData struct {
	Matrix    [16]float32
	Color     [4]uint8
	TreeIndex uint32
}

// InstanceStride is the size in bytes of one InstanceData.
const InstanceStride = int(unsafe.Sizeof(InstanceData{}))

// DrawRange is one indexed instanced draw over an uploaded file.
type DrawRange struct {
	FirstIndex    uint32
	IndexCount    uint32
	FirstInstance uint32
	InstanceCount uint32
}

// MeshBuffers is the payload of an uploaded node.
type MeshBuffers struct {
	FileID   uint64
	Vertex   *wgpu.Buffer
	Index    *wgpu.Buffer
	Instance *wgpu.Buffer
	Draws    []DrawRange
}

// uploader is the implementation of the Uploader interface.
type uploader struct {
	mu          sync.Mutex
	device      *wgpu.Device
	queue       *wgpu.Queue
	labelPrefix string
}

// Uploader defines the interface for moving instanced mesh files into GPU memory.
type Uploader interface {
	// UploadInstancedMeshFile creates and fills the vertex, index and instance buffers of file.
	//
	// Parameters:
	//   - file: a file that survived clipping
	//
	// Returns:
	//   - node.Node: a node with a MeshBuffers payload owning the three buffers
	//   - error: error if there is no device or a buffer cannot be created
	UploadInstancedMeshFile(file geometry.InstancedMeshFile) (node.Node, error)
}

var _ Uploader = &uploader{}

// NewUploader creates a new Uploader configured with the provided options.
//
// Parameters:
//   - options: variadic list of UploaderBuilderOption functions to configure the uploader
//
// Returns:
//   - Uploader: a new Uploader instance
func NewUploader(options ...UploaderBuilderOption) Uploader {
	u := &uploader{
		labelPrefix: "sector",
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func (u *uploader) UploadInstancedMeshFile(file geometry.InstancedMeshFile) (node.Node, error) {
	if u.device == nil || u.queue == nil {
		return nil, errors.New("gpu device not configured").
			WithType(ErrTypeNoDevice).
			WithTag("file_id", file.FileID)
	}

	label := fmt.Sprintf("%s/instancedMesh/%d", u.labelPrefix, file.FileID)
	instances, draws, err := PackInstances(file)
	if err != nil {
		return nil, err
	}

	// Device calls are serialised, sector workers upload in parallel.
	u.mu.Lock()
	defer u.mu.Unlock()

	var created []node.Resource
	release := func() {
		for _, r := range created {
			r.Release()
		}
	}

	vertex, err := u.createBuffer(label+" Vertex Buffer", common.SliceToBytes(file.Vertices), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	created = append(created, vertex)

	index, err := u.createBuffer(label+" Index Buffer", common.SliceToBytes(file.Indices), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
	if err != nil {
		release()
		return nil, err
	}
	created = append(created, index)

	instance, err := u.createBuffer(label+" Instance Buffer", common.SliceToBytes(instances), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	if err != nil {
		release()
		return nil, err
	}
	created = append(created, instance)

	return node.NewNode(
		node.WithName(label),
		node.WithPayload(MeshBuffers{
			FileID:   file.FileID,
			Vertex:   vertex,
			Index:    index,
			Instance: instance,
			Draws:    draws,
		}),
		node.WithResources(created...),
	), nil
}

func (u *uploader) createBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := u.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errors.New("creating buffer failed").
			WithType(ErrTypeBufferCreation).
			WithTag("label", label).
			WithTag("size", len(data)).
			Wrap(err)
	}
	if len(data) > 0 {
		u.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// PackInstances interleaves the placements of every mesh instance of file into the per-instance
// layout and returns one draw per mesh instance. Instances are packed in order, so draw i covers
// the placements of file.Instances[i].
//
// Parameters:
//   - file: the file to pack, assumed valid
//
// Returns:
//   - []InstanceData: the packed instances
//   - []DrawRange: one draw per mesh instance
//   - error: a draw_range error if an index or instance range does not fit in 32 bits
func PackInstances(file geometry.InstancedMeshFile) ([]InstanceData, []DrawRange, error) {
	data := make([]InstanceData, 0, file.InstanceCount())
	draws := make([]DrawRange, 0, len(file.Instances))

	for i, mi := range file.Instances {
		// every index of the draw, offset included, must be addressable as uint32
		if mi.TriangleOffset < 0 || mi.TriangleCount < 0 ||
			uint64(mi.TriangleOffset)+uint64(mi.TriangleCount) > math.MaxUint32/3 {
			return nil, nil, errors.New("index range does not fit a draw").
				WithType(ErrTypeDrawRange).
				WithTag("file_id", file.FileID).
				WithTag("mesh_instance", i).
				WithTag("triangle_offset", mi.TriangleOffset).
				WithTag("triangle_count", mi.TriangleCount)
		}
		if uint64(len(data))+uint64(mi.Count()) > math.MaxUint32 {
			return nil, nil, errors.New("instance range does not fit a draw").
				WithType(ErrTypeDrawRange).
				WithTag("file_id", file.FileID).
				WithTag("mesh_instance", i).
				WithTag("first_instance", len(data)).
				WithTag("instance_count", mi.Count())
		}

		draws = append(draws, DrawRange{
			FirstIndex:    uint32(3 * mi.TriangleOffset),
			IndexCount:    uint32(3 * mi.TriangleCount),
			FirstInstance: uint32(len(data)),
			InstanceCount: uint32(mi.Count()),
		})
		for j := 0; j < mi.Count(); j++ {
			var d InstanceData
			copy(d.Matrix[:], mi.InstanceMatrices[j*16:j*16+16])
			d.Color = mi.Color(j)
			d.TreeIndex = mi.TreeIndices[j]
			data = append(data, d)
		}
	}
	return data, draws, nil
}
