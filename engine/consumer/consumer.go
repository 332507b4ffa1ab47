// package consumer turns decoded sector payloads into renderable results.
//
// A SectorGeometryConsumer resolves the model's materials, delegates primitive, triangle-mesh and
// simple geometry to the configured builders and clips instanced meshes through a spatial filter.
// Calls share nothing mutable, so one consumer serves every sector worker.
package consumer

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/builder"
	"github.com/Carmen-Shannon/oxy-sector/engine/filter"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/material"
	"github.com/Carmen-Shannon/oxy-sector/engine/node"
)

const (
	// ErrTypeMissingMaterials is returned when the material provider knows nothing of a model.
	ErrTypeMissingMaterials = "missing_materials"
	// ErrTypeUnknownPayload is returned by Transform for payloads of an unsupported level of detail.
	ErrTypeUnknownPayload = "unknown_payload"
)

// sectorGeometryConsumer is the implementation of the SectorGeometryConsumer interface.
type sectorGeometryConsumer struct {
	materials        builder.MaterialProvider
	primitiveBuilder builder.PrimitiveBuilder
	triangleBuilder  builder.TriangleMeshBuilder
	simpleBuilder    builder.SimpleGeometryBuilder
	instanceFilter   filter.Filter
}

// SectorGeometryConsumer defines the interface for transforming sector payloads into
// renderable results.
type SectorGeometryConsumer interface {
	// TransformSimpleSector builds the result of a simple (quad) sector.
	// A zero-length payload yields an empty result without invoking the simple geometry builder.
	//
	// Parameters:
	//   - modelID: the model the sector belongs to
	//   - sectorBounds: the sector bounds
	//   - payload: the raw simple payload
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - geometry.RenderableResult: the result, owned by the caller
	//   - error: a missing_materials error if the model is unknown, or the builder's error
	TransformSimpleSector(modelID string, sectorBounds common.Box3, payload geometry.SimplePayload, clip *common.Box3) (geometry.RenderableResult, error)

	// TransformDetailedSector builds the result of a detailed sector.
	// When clip fully contains the sector bounds the call proceeds as if clip were nil, and the
	// spatial filter is never invoked.
	//
	// Parameters:
	//   - modelID: the model the sector belongs to
	//   - sector: the sector metadata
	//   - payload: the decoded detailed payload
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - geometry.RenderableResult: the result, owned by the caller
	//   - error: a missing_materials or malformed_buffer error, or a builder's error
	TransformDetailedSector(modelID string, sector geometry.SectorMetadata, payload geometry.DetailedPayload, clip *common.Box3) (geometry.RenderableResult, error)

	// Transform dispatches to the simple or detailed path based on the payload's level of detail.
	//
	// Parameters:
	//   - modelID: the model the sector belongs to
	//   - sector: the sector metadata
	//   - payload: a geometry.SimplePayload or geometry.DetailedPayload
	//   - clip: the clip volume, or nil for no clipping
	//
	// Returns:
	//   - geometry.RenderableResult: the result, owned by the caller
	//   - error: error if the payload kind is unknown or the selected path fails
	Transform(modelID string, sector geometry.SectorMetadata, payload geometry.Payload, clip *common.Box3) (geometry.RenderableResult, error)
}

var _ SectorGeometryConsumer = &sectorGeometryConsumer{}

// NewSectorGeometryConsumer creates a new SectorGeometryConsumer configured with the provided options.
// Builders default to builder.Passthrough, the filter to a plain spatial filter and the material
// provider to an empty material library.
//
// Parameters:
//   - options: variadic list of ConsumerBuilderOption functions to configure the consumer
//
// Returns:
//   - SectorGeometryConsumer: a new SectorGeometryConsumer instance
func NewSectorGeometryConsumer(options ...ConsumerBuilderOption) SectorGeometryConsumer {
	c := &sectorGeometryConsumer{}
	for _, opt := range options {
		opt(c)
	}

	if c.materials == nil {
		c.materials = material.NewLibrary()
	}
	if c.primitiveBuilder == nil {
		c.primitiveBuilder = builder.Passthrough{}
	}
	if c.triangleBuilder == nil {
		c.triangleBuilder = builder.Passthrough{}
	}
	if c.simpleBuilder == nil {
		c.simpleBuilder = builder.Passthrough{}
	}
	if c.instanceFilter == nil {
		c.instanceFilter = filter.NewSpatialFilter()
	}
	return c
}

func (c *sectorGeometryConsumer) TransformSimpleSector(modelID string, sectorBounds common.Box3, payload geometry.SimplePayload, clip *common.Box3) (geometry.RenderableResult, error) {
	materials, err := c.modelMaterials(modelID)
	if err != nil {
		return geometry.RenderableResult{}, err
	}

	group := node.NewGroup(fmt.Sprintf("%s/simple", modelID))
	result := geometry.RenderableResult{
		SectorMeshes:    group,
		InstancedMeshes: []geometry.InstancedMeshFile{},
	}

	if len(payload.RawBytes) == 0 {
		return result, nil
	}

	n, err := c.simpleBuilder.BuildSimpleGeometryMesh(payload.RawBytes, materials, sectorBounds, clip)
	if err != nil {
		group.Release()
		return geometry.RenderableResult{}, errors.New("building simple geometry failed").
			WithType(errors.Type(err)).
			WithTag("model_id", modelID).
			Wrap(err)
	}
	group.Add(n)

	logs.WithTag("model_id", modelID).
		WithTag("group_id", group.ID()).
		WithTag("nodes", group.Len()).
		Debug("simple sector transformed")

	return result, nil
}

func (c *sectorGeometryConsumer) TransformDetailedSector(modelID string, sector geometry.SectorMetadata, payload geometry.DetailedPayload, clip *common.Box3) (geometry.RenderableResult, error) {
	materials, err := c.modelMaterials(modelID)
	if err != nil {
		return geometry.RenderableResult{}, err
	}

	if clip != nil && clip.ContainsBox(sector.Bounds) {
		clip = nil
	}

	group := node.NewGroup(fmt.Sprintf("%s/sector-%d", modelID, sector.ID))
	fail := func(msg string, err error) (geometry.RenderableResult, error) {
		group.Release()
		return geometry.RenderableResult{}, errors.New(msg).
			WithType(errors.Type(err)).
			WithTag("model_id", modelID).
			WithTag("sector_id", sector.ID).
			Wrap(err)
	}

	primitives, err := c.primitiveBuilder.BuildPrimitives(payload.Primitives, materials, sector.Bounds, clip)
	group.Add(primitives...)
	if err != nil {
		return fail("building primitives failed", err)
	}

	triangleMeshes, err := c.triangleBuilder.BuildTriangleMeshes(payload.TriangleMeshes, sector.Bounds, materials.TriangleMesh(), clip)
	group.Add(triangleMeshes...)
	if err != nil {
		return fail("building triangle meshes failed", err)
	}

	instanced, err := c.filterInstancedMeshFiles(payload.InstanceMeshFiles, clip)
	if err != nil {
		return fail("filtering instanced meshes failed", err)
	}

	result := geometry.RenderableResult{
		SectorMeshes:    group,
		InstancedMeshes: instanced,
	}

	logs.WithTag("model_id", modelID).
		WithTag("sector_id", sector.ID).
		WithTag("group_id", group.ID()).
		WithTag("nodes", group.Len()).
		WithTag("instanced_files", len(instanced)).
		WithTag("instances", result.InstanceCount()).
		WithTag("clipped", clip != nil).
		Debug("detailed sector transformed")

	return result, nil
}

func (c *sectorGeometryConsumer) Transform(modelID string, sector geometry.SectorMetadata, payload geometry.Payload, clip *common.Box3) (geometry.RenderableResult, error) {
	switch p := payload.(type) {
	case geometry.SimplePayload:
		return c.TransformSimpleSector(modelID, sector.Bounds, p, clip)
	case *geometry.SimplePayload:
		return c.TransformSimpleSector(modelID, sector.Bounds, *p, clip)
	case geometry.DetailedPayload:
		return c.TransformDetailedSector(modelID, sector, p, clip)
	case *geometry.DetailedPayload:
		return c.TransformDetailedSector(modelID, sector, *p, clip)
	default:
		return geometry.RenderableResult{}, errors.Newf("unsupported payload %T", payload).
			WithType(ErrTypeUnknownPayload).
			WithTag("model_id", modelID).
			WithTag("sector_id", sector.ID)
	}
}

// modelMaterials resolves the model's materials exactly once per call.
func (c *sectorGeometryConsumer) modelMaterials(modelID string) (material.Set, error) {
	materials, ok := c.materials.ModelMaterials(modelID)
	if !ok || materials == nil {
		return nil, errors.Newf("could not find materials for model '%s'", modelID).
			WithType(ErrTypeMissingMaterials).
			WithTag("model_id", modelID)
	}
	return materials, nil
}

// filterInstancedMeshFiles clips every instance of every file. Instances left without placements
// are dropped, and so are files left without instances. Surviving files share FileID, Vertices
// and Indices with their input.
func (c *sectorGeometryConsumer) filterInstancedMeshFiles(files []geometry.InstancedMeshFile, clip *common.Box3) ([]geometry.InstancedMeshFile, error) {
	out := make([]geometry.InstancedMeshFile, 0, len(files))
	for _, file := range files {
		if err := file.Validate(); err != nil {
			return nil, err
		}

		instances := make([]geometry.MeshInstance, 0, len(file.Instances))
		for i, mi := range file.Instances {
			if clip != nil {
				filtered, err := c.instanceFilter.FilterInstances(file.Vertices, file.Indices, mi, clip)
				if err != nil {
					return nil, errors.New("invalid mesh instance").
						WithType(errors.Type(err)).
						WithTag("file_id", file.FileID).
						WithTag("mesh_instance", i).
						Wrap(err)
				}
				mi = filtered
			}
			if mi.Count() > 0 {
				instances = append(instances, mi)
			}
		}

		if len(instances) == 0 {
			continue
		}
		out = append(out, geometry.InstancedMeshFile{
			FileID:    file.FileID,
			Vertices:  file.Vertices,
			Indices:   file.Indices,
			Instances: instances,
		})
	}
	return out, nil
}
