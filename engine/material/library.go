package material

import (
	"sort"
	"sync"
)

// library is the implementation of the Library interface.
type library struct {
	mu   sync.RWMutex
	sets map[string]Set
}

// Library defines the interface for the per-model material registry. Sector workers resolve
// materials concurrently, so every method is safe for concurrent use.
type Library interface {
	// ModelMaterials retrieves the material set registered for a model.
	//
	// Parameters:
	//   - modelID: the model identifier
	//
	// Returns:
	//   - Set: the registered set
	//   - bool: false if the model has no registered materials
	ModelMaterials(modelID string) (Set, bool)

	// Register adds or replaces the material set of a model.
	//
	// Parameters:
	//   - modelID: the model identifier
	//   - s: the material set
	Register(modelID string, s Set)

	// Remove drops the material set of a model, typically when the model is unloaded.
	//
	// Parameters:
	//   - modelID: the model identifier
	//
	// Returns:
	//   - bool: true if a set was registered
	Remove(modelID string) bool

	// ModelIDs returns the identifiers of every registered model, sorted.
	//
	// Returns:
	//   - []string: the model identifiers
	ModelIDs() []string
}

var _ Library = &library{}

// NewLibrary creates a new Library configured with the provided options.
//
// Parameters:
//   - options: variadic list of LibraryBuilderOption functions to configure the library
//
// Returns:
//   - Library: a new Library instance
func NewLibrary(options ...LibraryBuilderOption) Library {
	l := &library{
		sets: make(map[string]Set),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *library) ModelMaterials(modelID string) (Set, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sets[modelID]
	return s, ok
}

func (l *library) Register(modelID string, s Set) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets[modelID] = s
}

func (l *library) Remove(modelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sets[modelID]
	delete(l.sets, modelID)
	return ok
}

func (l *library) ModelIDs() []string {
	l.mu.RLock()
	ids := make([]string, 0, len(l.sets))
	for id := range l.sets {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// LibraryBuilderOption is a function that configures a library instance during construction.
type LibraryBuilderOption func(*library)

// WithModelSet is an option builder that pre-registers the material set of a model.
//
// Parameters:
//   - modelID: the model identifier
//   - s: the material set
//
// Returns:
//   - LibraryBuilderOption: a function that applies the model set option to a library
func WithModelSet(modelID string, s Set) LibraryBuilderOption {
	return func(l *library) {
		l.sets[modelID] = s
	}
}
