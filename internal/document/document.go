package document

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Colour is an RGB triple with 0-255 channels, matching what the viewer's
// set_object_colour operation expects.
type Colour struct {
	R uint8
	G uint8
	B uint8
}

// Entity is one document entity that has been published to the viewer.
// The ordinal records publish order within the session and is distinct from
// both LocalID (the document operator's identifier) and any viewer-assigned
// ID. The GUID identifies the entity across exports.
type Entity struct {
	LocalID int
	GUID    uuid.UUID
	Ordinal int
	Name    string
	Visible bool
	Colour  Colour
	Opacity float64
}

// Operator is the external document collaborator: the component that owns the
// working document and can materialize entities to mesh and metadata files.
// Implementations live outside this core; tests substitute fakes.
type Operator interface {
	// DocumentName returns the active document's name, without extension.
	DocumentName() string

	// SetDocumentName renames the active document.
	SetDocumentName(name string)

	// ExportEntity materializes entity under dir as sibling artifacts named
	// after baseName (a mesh file and a metadata file). It returns the
	// entity's identifier in the local document.
	ExportEntity(entity any, baseName, dir string) (int, error)

	// SaveDocument serializes the working document into dir.
	SaveDocument(dir string) error

	// CloseDocument closes the working document locally.
	CloseDocument() error
}

// Mirror is the authoritative in-memory record of published entity state.
// It is updated unconditionally by every sync operation, whether or not a
// viewer is attached; the remote viewer only ever follows it.
//
// Thread-safe: all methods may be called concurrently, and all returned
// entities are copies.
type Mirror struct {
	mu       sync.RWMutex
	entities map[int]*Entity // keyed by LocalID
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{
		entities: make(map[int]*Entity),
	}
}

// Add records a newly published entity. Entities start visible and fully
// opaque. Adding an ID that is already present leaves the existing record
// unchanged, so repeated publishes of the same local ID are idempotent.
func (m *Mirror) Add(localID, ordinal int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entities[localID]; exists {
		return
	}
	m.entities[localID] = &Entity{
		LocalID: localID,
		GUID:    uuid.New(),
		Ordinal: ordinal,
		Name:    name,
		Visible: true,
		Opacity: 1.0,
	}
}

// SetVisibility sets an entity's visibility. Unknown IDs are ignored:
// an entity cannot become visible without first being published.
func (m *Mirror) SetVisibility(localID int, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entities[localID]; ok {
		e.Visible = visible
	}
}

// SetOpacity sets an entity's opacity, clamped to [0, 1].
// Unknown IDs are ignored.
func (m *Mirror) SetOpacity(localID int, opacity float64) {
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entities[localID]; ok {
		e.Opacity = opacity
	}
}

// SetColour sets an entity's colour. Unknown IDs are ignored.
func (m *Mirror) SetColour(localID int, colour Colour) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entities[localID]; ok {
		e.Colour = colour
	}
}

// Get returns a copy of the entity with the given local ID.
func (m *Mirror) Get(localID int) (Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entities[localID]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// IDs returns the local IDs of all published entities, sorted ascending.
func (m *Mirror) IDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns copies of every published entity, sorted by ordinal.
func (m *Mirror) All() []Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Entity, 0, len(m.entities))
	for _, e := range m.entities {
		all = append(all, *e)
	}
	slices.SortFunc(all, func(a, b Entity) int { return a.Ordinal - b.Ordinal })
	return all
}

// Len returns the number of published entities.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}
