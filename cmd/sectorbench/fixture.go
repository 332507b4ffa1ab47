package main

import (
	"io"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/camera"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
	"github.com/Carmen-Shannon/oxy-sector/engine/loader"
	"github.com/Carmen-Shannon/oxy-sector/engine/material"
)

const errTypeInvalidFixture = "invalid_fixture"

// fixture is the JSON document sectorbench loads.
type fixture struct {
	Models  []fixtureModel  `json:"models"`
	Camera  *fixtureCamera  `json:"camera,omitempty"`
	Sectors []fixtureSector `json:"sectors"`
}

type fixtureModel struct {
	ID        string     `json:"id"`
	BaseColor [4]float32 `json:"baseColor"`
}

// fixtureCamera places a perspective camera. FovY is in degrees.
type fixtureCamera struct {
	Eye    [3]float32 `json:"eye"`
	Target [3]float32 `json:"target"`
	FovY   float32    `json:"fovY"`
	Aspect float32    `json:"aspect"`
	Near   float32    `json:"near"`
	Far    float32    `json:"far"`
}

type fixtureBox struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type fixtureSector struct {
	Model    string           `json:"model"`
	ID       uint64           `json:"id"`
	Depth    int              `json:"depth"`
	Bounds   fixtureBox       `json:"bounds"`
	Clip     *fixtureBox      `json:"clip,omitempty"`
	Simple   []byte           `json:"simple,omitempty"`
	Detailed *fixtureDetailed `json:"detailed,omitempty"`
}

type fixtureDetailed struct {
	Primitives        []fixturePrimitive    `json:"primitives"`
	TriangleMeshes    []fixtureTriangleMesh `json:"triangleMeshes"`
	InstanceMeshFiles []fixtureInstanceFile `json:"instanceMeshFiles"`
}

type fixturePrimitive struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
	Data  []byte `json:"data"`
}

type fixtureTriangleMesh struct {
	FileID      uint64     `json:"fileId"`
	Vertices    []float32  `json:"vertices"`
	Indices     []uint32   `json:"indices"`
	Colors      [][4]uint8 `json:"colors"`
	TreeIndices []uint32   `json:"treeIndices"`
}

type fixtureInstanceFile struct {
	FileID    uint64            `json:"fileId"`
	Vertices  []float32         `json:"vertices"`
	Indices   []uint32          `json:"indices"`
	Instances []fixtureInstance `json:"instances"`
}

// fixtureInstance places a triangle range. Placements are appended after Matrices, so Colors
// and TreeIndices list the matrix instances first.
type fixtureInstance struct {
	TriangleOffset int                `json:"triangleOffset"`
	TriangleCount  int                `json:"triangleCount"`
	Matrices       [][16]float32      `json:"matrices"`
	Placements     []fixturePlacement `json:"placements"`
	Colors         [][4]uint8         `json:"colors"`
	TreeIndices    []uint32           `json:"treeIndices"`
}

// fixturePlacement is a placement given as translation, Euler rotation in radians and scale.
// A zero scale means unit scale.
type fixturePlacement struct {
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
}

func (p fixturePlacement) matrix() [16]float32 {
	scale := p.Scale
	if scale == ([3]float32{}) {
		scale = [3]float32{1, 1, 1}
	}
	return common.ModelMatrix(p.Position, p.Rotation, scale)
}

// readFixture decodes a fixture document.
func readFixture(r io.Reader) (fixture, error) {
	var f fixture
	data, err := io.ReadAll(r)
	if err != nil {
		return f, errors.New("reading fixture failed").Wrap(err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, errors.New("decoding fixture failed").
			WithType(errTypeInvalidFixture).
			Wrap(err)
	}
	return f, nil
}

// library registers a material set for every fixture model.
func (f fixture) library() material.Library {
	lib := material.NewLibrary()
	for _, m := range f.Models {
		set := material.DefaultSet(m.ID)
		if m.BaseColor != ([4]float32{}) {
			set = coloredSet(m.ID, m.BaseColor)
		}
		lib.Register(m.ID, set)
	}
	return lib
}

func coloredSet(modelID string, color [4]float32) material.Set {
	named := func(family string) material.Material {
		return material.NewMaterial(
			material.WithName(modelID+"/"+family),
			material.WithBaseColor(color),
			material.WithTransparent(color[3] < 1),
			material.WithPipelineKey(family),
		)
	}

	options := []material.SetBuilderOption{
		material.WithTriangleMeshMaterial(named("triangleMesh")),
		material.WithInstancedMeshMaterial(named("instancedMesh")),
		material.WithSimpleMaterial(named("simple")),
	}
	for _, kind := range geometry.PrimitiveKinds() {
		options = append(options, material.WithPrimitiveMaterial(kind, named(kind.String())))
	}
	return material.NewSet(options...)
}

// viewCamera returns the fixture camera, or false when the fixture has none.
func (f fixture) viewCamera() (camera.Camera, bool) {
	if f.Camera == nil {
		return nil, false
	}
	c := f.Camera
	return camera.NewCamera(
		camera.WithEye(c.Eye),
		camera.WithTarget(c.Target),
		camera.WithFov(c.FovY*math.Pi/180),
		camera.WithAspect(c.Aspect),
		camera.WithNear(c.Near),
		camera.WithFar(c.Far),
	), true
}

// requests converts every fixture sector into a load request.
func (f fixture) requests() ([]loader.Request, error) {
	requests := make([]loader.Request, 0, len(f.Sectors))
	for _, s := range f.Sectors {
		req := loader.Request{
			ModelID: s.Model,
			Sector: geometry.SectorMetadata{
				ID:     s.ID,
				Depth:  s.Depth,
				Bounds: common.NewBox3(s.Bounds.Min, s.Bounds.Max),
			},
		}
		if s.Clip != nil {
			clip := common.NewBox3(s.Clip.Min, s.Clip.Max)
			req.Clip = &clip
		}

		switch {
		case s.Detailed != nil:
			payload, err := s.Detailed.payload()
			if err != nil {
				return nil, errors.New("invalid detailed sector").
					WithType(errTypeInvalidFixture).
					WithTag("sector_id", s.ID).
					Wrap(err)
			}
			req.Payload = payload
		default:
			req.Payload = geometry.SimplePayload{RawBytes: s.Simple}
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (d fixtureDetailed) payload() (geometry.DetailedPayload, error) {
	var p geometry.DetailedPayload

	for _, prim := range d.Primitives {
		kind, ok := parsePrimitiveKind(prim.Kind)
		if !ok {
			return p, errors.Newf("unknown primitive kind %q", prim.Kind).
				WithType(errTypeInvalidFixture)
		}
		p.Primitives = append(p.Primitives, geometry.PrimitiveCollection{Kind: kind, Count: prim.Count, Data: prim.Data})
	}

	for _, m := range d.TriangleMeshes {
		p.TriangleMeshes = append(p.TriangleMeshes, geometry.TriangleMesh{
			FileID:      m.FileID,
			Vertices:    m.Vertices,
			Indices:     m.Indices,
			Colors:      flattenColors(m.Colors),
			TreeIndices: m.TreeIndices,
		})
	}

	for _, file := range d.InstanceMeshFiles {
		out := geometry.InstancedMeshFile{
			FileID:   file.FileID,
			Vertices: file.Vertices,
			Indices:  file.Indices,
		}
		for _, inst := range file.Instances {
			matrices := append([][16]float32(nil), inst.Matrices...)
			for _, placement := range inst.Placements {
				matrices = append(matrices, placement.matrix())
			}
			out.Instances = append(out.Instances, geometry.MeshInstance{
				TriangleOffset:   inst.TriangleOffset,
				TriangleCount:    inst.TriangleCount,
				InstanceMatrices: flattenMatrices(matrices),
				Colors:           flattenColors(inst.Colors),
				TreeIndices:      inst.TreeIndices,
			})
		}
		p.InstanceMeshFiles = append(p.InstanceMeshFiles, out)
	}

	return p, p.Validate()
}

func parsePrimitiveKind(name string) (geometry.PrimitiveKind, bool) {
	for _, kind := range geometry.PrimitiveKinds() {
		if kind.String() == name {
			return kind, true
		}
	}
	return 0, false
}

func flattenColors(rows [][4]uint8) []uint8 {
	out := make([]uint8, 0, 4*len(rows))
	for _, row := range rows {
		out = append(out, row[:]...)
	}
	return out
}

func flattenMatrices(rows [][16]float32) []float32 {
	out := make([]float32, 0, 16*len(rows))
	for _, row := range rows {
		out = append(out, row[:]...)
	}
	return out
}
