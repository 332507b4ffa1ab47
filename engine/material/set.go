package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
)

// set is the implementation of the Set interface.
type set struct {
	primitives    map[geometry.PrimitiveKind]Material
	triangleMesh  Material
	instancedMesh Material
	simple        Material
}

// Set defines the materials of one model, one per geometry family. A Set is resolved once per
// sector transformation and shared read-only by every builder invoked for that sector.
type Set interface {
	// Primitive retrieves the material for a primitive kind.
	//
	// Parameters:
	//   - kind: the primitive kind
	//
	// Returns:
	//   - Material: the material, or nil if the model has none for that kind
	Primitive(kind geometry.PrimitiveKind) Material

	// TriangleMesh retrieves the material for merged triangle meshes.
	//
	// Returns:
	//   - Material: the triangle mesh material, or nil
	TriangleMesh() Material

	// InstancedMesh retrieves the material for instanced meshes.
	//
	// Returns:
	//   - Material: the instanced mesh material, or nil
	InstancedMesh() Material

	// Simple retrieves the material for the coarse simple-geometry level of detail.
	//
	// Returns:
	//   - Material: the simple geometry material, or nil
	Simple() Material
}

var _ Set = &set{}

// NewSet creates a new Set configured with the provided options.
//
// Parameters:
//   - options: variadic list of SetBuilderOption functions to configure the set
//
// Returns:
//   - Set: a new Set instance
func NewSet(options ...SetBuilderOption) Set {
	s := &set{
		primitives: make(map[geometry.PrimitiveKind]Material),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// DefaultSet creates a Set with an opaque white material for every geometry family,
// named after the model so render statistics can be attributed.
//
// Parameters:
//   - modelID: the model the materials belong to
//
// Returns:
//   - Set: the populated set
func DefaultSet(modelID string) Set {
	named := func(family string) Material {
		return NewMaterial(WithName(fmt.Sprintf("%s/%s", modelID, family)), WithPipelineKey(family))
	}

	options := make([]SetBuilderOption, 0, len(geometry.PrimitiveKinds())+3)
	for _, kind := range geometry.PrimitiveKinds() {
		options = append(options, WithPrimitiveMaterial(kind, named(kind.String())))
	}
	options = append(options,
		WithTriangleMeshMaterial(named("triangleMesh")),
		WithInstancedMeshMaterial(named("instancedMesh")),
		WithSimpleMaterial(named("simple")),
	)
	return NewSet(options...)
}

func (s *set) Primitive(kind geometry.PrimitiveKind) Material {
	return s.primitives[kind]
}

func (s *set) TriangleMesh() Material {
	return s.triangleMesh
}

func (s *set) InstancedMesh() Material {
	return s.instancedMesh
}

func (s *set) Simple() Material {
	return s.simple
}

// SetBuilderOption is a function that configures a set instance during construction.
type SetBuilderOption func(*set)

// WithPrimitiveMaterial is an option builder that sets the material of one primitive kind.
//
// Parameters:
//   - kind: the primitive kind
//   - m: the material
//
// Returns:
//   - SetBuilderOption: a function that applies the primitive material option to a set
func WithPrimitiveMaterial(kind geometry.PrimitiveKind, m Material) SetBuilderOption {
	return func(s *set) {
		s.primitives[kind] = m
	}
}

// WithTriangleMeshMaterial is an option builder that sets the triangle mesh material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - SetBuilderOption: a function that applies the triangle mesh material option to a set
func WithTriangleMeshMaterial(m Material) SetBuilderOption {
	return func(s *set) {
		s.triangleMesh = m
	}
}

// WithInstancedMeshMaterial is an option builder that sets the instanced mesh material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - SetBuilderOption: a function that applies the instanced mesh material option to a set
func WithInstancedMeshMaterial(m Material) SetBuilderOption {
	return func(s *set) {
		s.instancedMesh = m
	}
}

// WithSimpleMaterial is an option builder that sets the simple geometry material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - SetBuilderOption: a function that applies the simple material option to a set
func WithSimpleMaterial(m Material) SetBuilderOption {
	return func(s *set) {
		s.simple = m
	}
}
