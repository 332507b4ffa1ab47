// package material describes the materials a model's sectors are rendered with and the
// per-model material library the sector pipeline resolves them from.
package material

// material is the implementation of the Material interface.
type material struct {
	name        string
	baseColor   [4]float32
	transparent bool
	pipelineKey string
}

// Material defines the interface for a render material shared by every node built from one
// geometry family of a model. Materials are immutable once constructed, so one instance may be
// read concurrently by every sector worker of the model.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA color multiplied with per-instance colors.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Transparent reports whether nodes using the material are drawn in the blended pass.
	//
	// Returns:
	//   - bool: true for blended materials
	Transparent() bool

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}
