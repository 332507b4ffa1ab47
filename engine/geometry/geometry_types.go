// package geometry holds the data model flowing through the sector pipeline: the level-of-detail
// payload variants produced upstream, the instanced mesh layout shared by all instances of a file,
// and the renderable result handed to the caller.
package geometry

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
	"github.com/go-gl/mathgl/mgl32"
)

// LevelOfDetail identifies which payload variant a sector was streamed with.
type LevelOfDetail int

const (
	// LevelOfDetailSimple is the coarse, quad-based payload carried as raw bytes.
	LevelOfDetailSimple LevelOfDetail = iota
	// LevelOfDetailDetailed is the structured primitive / triangle / instanced payload.
	LevelOfDetailDetailed
)

func (l LevelOfDetail) String() string {
	switch l {
	case LevelOfDetailSimple:
		return "simple"
	case LevelOfDetailDetailed:
		return "detailed"
	}
	return "unknown"
}

// PrimitiveKind enumerates the parametric primitive collections a detailed sector may carry.
type PrimitiveKind int

const (
	PrimitiveBox PrimitiveKind = iota
	PrimitiveCircle
	PrimitiveCone
	PrimitiveEccentricCone
	PrimitiveEllipsoidSegment
	PrimitiveGeneralCylinder
	PrimitiveGeneralRing
	PrimitiveQuad
	PrimitiveSphericalSegment
	PrimitiveTorusSegment
	PrimitiveTrapezium
	PrimitiveNut
)

var primitiveKindNames = [...]string{
	"box", "circle", "cone", "eccentricCone", "ellipsoidSegment", "generalCylinder",
	"generalRing", "quad", "sphericalSegment", "torusSegment", "trapezium", "nut",
}

func (k PrimitiveKind) String() string {
	if k < 0 || int(k) >= len(primitiveKindNames) {
		return "unknown"
	}
	return primitiveKindNames[k]
}

// PrimitiveKinds returns every known primitive kind in declaration order.
func PrimitiveKinds() []PrimitiveKind {
	kinds := make([]PrimitiveKind, len(primitiveKindNames))
	for i := range kinds {
		kinds[i] = PrimitiveKind(i)
	}
	return kinds
}

// SectorMetadata describes one streamed spatial partition of a model.
type SectorMetadata struct {
	// ID is the sector identifier within its model.
	ID uint64
	// Depth is the sector's depth in the model's sector tree.
	Depth int
	// Bounds is the world-space bounding box of the sector.
	Bounds common.Box3
}

// Payload is the tagged union of sector payload variants. It is implemented by
// SimplePayload and DetailedPayload only.
type Payload interface {
	// Kind returns which level-of-detail variant the payload is.
	//
	// Returns:
	//   - LevelOfDetail: the payload variant
	Kind() LevelOfDetail
}

// SimplePayload carries the coarse quad geometry of a sector as undecoded bytes.
type SimplePayload struct {
	RawBytes []byte
}

// Kind implements Payload.
func (SimplePayload) Kind() LevelOfDetail { return LevelOfDetailSimple }

// DetailedPayload carries the structured geometry of a sector.
type DetailedPayload struct {
	// Primitives are the parametric primitive collections, decoded by the primitive builder.
	Primitives []PrimitiveCollection
	// TriangleMeshes are the merged, non-instanced triangle meshes.
	TriangleMeshes []TriangleMesh
	// InstanceMeshFiles are the shared meshes placed by per-instance matrices.
	InstanceMeshFiles []InstancedMeshFile
}

// Kind implements Payload.
func (DetailedPayload) Kind() LevelOfDetail { return LevelOfDetailDetailed }

// PrimitiveCollection is an opaque, already-parsed block of primitives of one kind.
type PrimitiveCollection struct {
	Kind  PrimitiveKind
	Count int
	Data  []byte
}

// TriangleMesh describes one merged triangle mesh of a sector. Index values address
// Vertices as direct element offsets, the same convention as InstancedMeshFile.
type TriangleMesh struct {
	FileID      uint64
	Vertices    []float32
	Indices     []uint32
	Colors      []uint8
	TreeIndices []uint32
}

// InstancedMeshFile is a base mesh shared by every instance placed from it.
// Vertices and Indices are read-only once produced and may be shared by many
// InstancedMeshFile values.
type InstancedMeshFile struct {
	FileID    uint64
	Vertices  []float32
	Indices   []uint32
	Instances []MeshInstance
}

// InstanceCount returns the total number of placements across all mesh instances of the file.
func (f InstancedMeshFile) InstanceCount() int {
	n := 0
	for _, mi := range f.Instances {
		n += mi.Count()
	}
	return n
}

// MeshInstance is a triangle range of a file's shared mesh and every placement of it.
// InstanceMatrices, Colors and TreeIndices are parallel arrays: placement i uses
// InstanceMatrices[16i:16i+16] (column-major), Colors[4i:4i+4] (RGBA) and TreeIndices[i].
type MeshInstance struct {
	TriangleOffset   int
	TriangleCount    int
	InstanceMatrices []float32
	Colors           []uint8
	TreeIndices      []uint32
}

// Count returns the number of placements.
func (mi MeshInstance) Count() int {
	return len(mi.TreeIndices)
}

// Matrix decodes the placement matrix of instance i.
//
// Parameters:
//   - i: the instance index, in [0, Count())
//
// Returns:
//   - mgl32.Mat4: the column-major placement matrix
func (mi MeshInstance) Matrix(i int) mgl32.Mat4 {
	return common.Mat4FromSlice(mi.InstanceMatrices[i*16 : i*16+16])
}

// Color returns the RGBA color of instance i.
func (mi MeshInstance) Color(i int) [4]uint8 {
	return [4]uint8{mi.Colors[i*4], mi.Colors[i*4+1], mi.Colors[i*4+2], mi.Colors[i*4+3]}
}

// SharesStorageWith reports whether both values are views over the same backing arrays.
// A filtered MeshInstance shares storage with its input when nothing was removed.
// Values without placements never share storage, since nil slices carry no backing array.
//
// Parameters:
//   - other: the value to compare against
//
// Returns:
//   - bool: true if both have placements and all three parallel arrays share their backing storage
func (mi MeshInstance) SharesStorageWith(other MeshInstance) bool {
	return mi.Count() > 0 &&
		len(mi.TreeIndices) == len(other.TreeIndices) &&
		unsafe.SliceData(mi.InstanceMatrices) == unsafe.SliceData(other.InstanceMatrices) &&
		unsafe.SliceData(mi.Colors) == unsafe.SliceData(other.Colors) &&
		unsafe.SliceData(mi.TreeIndices) == unsafe.SliceData(other.TreeIndices)
}

// RenderableResult is the output of one sector transformation. Ownership passes to the caller,
// who must call Release once the sector is no longer displayed.
type RenderableResult struct {
	// SectorMeshes holds the primitive, triangle-mesh and simple-geometry nodes of the sector.
	SectorMeshes *node.Group
	// InstancedMeshes holds the instanced mesh files that survived clipping.
	InstancedMeshes []InstancedMeshFile
}

// Release releases every GPU resource held by the result's nodes.
func (r RenderableResult) Release() {
	if r.SectorMeshes != nil {
		r.SectorMeshes.Release()
	}
}

// InstanceCount returns the number of surviving placements across all instanced mesh files.
func (r RenderableResult) InstanceCount() int {
	n := 0
	for _, f := range r.InstancedMeshes {
		n += f.InstanceCount()
	}
	return n
}
