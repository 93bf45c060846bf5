package tile

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	ErrDuplicateID  = errors.New("duplicate tile id")
	ErrUnknownKind  = errors.New("unknown tile kind")
	ErrInvalidLayer = errors.New("invalid layer")
)

// DuplicateIdError is returned when a (layer, id) pair is registered twice.
type DuplicateIdError struct {
	Layer Layer
	ID    string
}

func (e *DuplicateIdError) Error() string {
	return fmt.Sprintf("%s: %s/%q", ErrDuplicateID, e.Layer, e.ID)
}

// Is makes errors.Is(err, ErrDuplicateID) match.
func (e *DuplicateIdError) Is(target error) bool {
	return target == ErrDuplicateID
}

// Registry is the catalog of tile kinds. Kinds live in an arena and are
// referred to by KindID; an ID never changes once assigned.
//
// A Registry is built once at startup and read-only afterwards, so it is
// safe to share between goroutines after registration finishes.
type Registry struct {
	kinds    []Kind
	byLayer  [LayerCount]map[string]KindID
	defaults [LayerCount]KindID
	random   *RandomTable
}

// NewRegistry returns a registry holding the four empty default kinds.
func NewRegistry() *Registry {
	r := &Registry{random: NewRandomTable(DefaultRandomSeed)}
	for _, l := range Layers {
		r.byLayer[l] = make(map[string]KindID)
		id := KindID(len(r.kinds))
		r.kinds = append(r.kinds, Kind{
			ID:          "",
			Layer:       l,
			DisplayName: "empty " + l.String(),
			Priority:    0,
			Behavior:    Plain{},
		})
		r.byLayer[l][""] = id
		r.defaults[l] = id
	}
	return r
}

// Register adds a kind and returns its ID.
func (r *Registry) Register(k Kind) (KindID, error) {
	if !k.Layer.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLayer, k.Layer)
	}
	if _, ok := r.byLayer[k.Layer][k.ID]; ok {
		return 0, &DuplicateIdError{Layer: k.Layer, ID: k.ID}
	}
	if k.Behavior == nil {
		k.Behavior = Plain{}
	}
	id := KindID(len(r.kinds))
	r.kinds = append(r.kinds, k)
	r.byLayer[k.Layer][k.ID] = id
	return id, nil
}

// MustRegister is like Register but panics on error. It is meant for
// built-in catalogs where a duplicate is a programming error.
func (r *Registry) MustRegister(k Kind) KindID {
	id, err := r.Register(k)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the kind registered for (layer, id).
func (r *Registry) Lookup(layer Layer, id string) (KindID, error) {
	if !layer.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLayer, layer)
	}
	kid, ok := r.byLayer[layer][id]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%q", ErrUnknownKind, layer, id)
	}
	return kid, nil
}

// LookupOrDefault returns the kind registered for (layer, id), or the
// layer's default kind when there is none. It never fails; an invalid
// layer yields the terrain default.
func (r *Registry) LookupOrDefault(layer Layer, id string) KindID {
	kid, err := r.Lookup(layer, id)
	if err != nil {
		return r.Default(layer)
	}
	return kid
}

// Default returns the empty kind of a layer, or the terrain default for
// an invalid layer.
func (r *Registry) Default(layer Layer) KindID {
	if !layer.Valid() {
		return r.defaults[Terrain]
	}
	return r.defaults[layer]
}

// Kind returns the definition of a kind. The returned value must not be
// modified. It panics on IDs not issued by this registry.
func (r *Registry) Kind(id KindID) *Kind {
	return &r.kinds[id]
}

// Has reports whether id was issued by this registry.
func (r *Registry) Has(id KindID) bool {
	return int(id) < len(r.kinds)
}

// Kinds returns the IDs registered on a layer in registration order.
func (r *Registry) Kinds(layer Layer) []KindID {
	var ids []KindID
	for i := range r.kinds {
		if r.kinds[i].Layer == layer {
			ids = append(ids, KindID(i))
		}
	}
	return ids
}

// Len returns the number of registered kinds, defaults included.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// Random returns the registry's deterministic variation table.
func (r *Registry) Random() *RandomTable {
	return r.random
}
