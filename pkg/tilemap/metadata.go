package tilemap

import (
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Metadata is a handle on the ordered key/value store of one cell on one
// layer. Every handle for a cell reads and writes the same store. Setting a
// key to the empty string removes it; when the last key is removed the
// store is released from its grid, and the next Set through any handle
// creates it again.
type Metadata struct {
	grid  *Grid
	layer int
	index int
}

// cellData is the store itself, owned by the grid.
type cellData struct {
	keys   []string
	values map[string]string
}

func newMetadata(g *Grid, layer, index int) *Metadata {
	return &Metadata{grid: g, layer: layer, index: index}
}

// data returns the cell's current store, or nil when it has none.
func (m *Metadata) data() *cellData {
	if m == nil {
		return nil
	}
	return m.grid.meta[m.layer][m.index]
}

// Get returns the value of key, or "" when unset.
func (m *Metadata) Get(key string) string {
	d := m.data()
	if d == nil {
		return ""
	}
	return d.values[key]
}

// Has reports whether key holds a non-empty value.
func (m *Metadata) Has(key string) bool {
	d := m.data()
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Set stores value under key. An empty value removes the key.
func (m *Metadata) Set(key, value string) {
	if value == "" {
		m.remove(key)
		return
	}
	d := m.data()
	if d == nil {
		d = &cellData{values: make(map[string]string)}
		m.grid.meta[m.layer][m.index] = d
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (m *Metadata) remove(key string) {
	d := m.data()
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	if i := slices.Index(d.keys, key); i >= 0 {
		d.keys = slices.Delete(d.keys, i, i+1)
	}
	if len(d.keys) == 0 {
		delete(m.grid.meta[m.layer], m.index)
	}
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	d := m.data()
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	d := m.data()
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// Range calls fn for every pair in insertion order until fn returns false.
func (m *Metadata) Range(fn func(key, value string) bool) {
	d := m.data()
	if d == nil {
		return
	}
	for _, k := range slices.Clone(d.keys) {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// Hash returns a hash over all pairs that does not depend on insertion
// order. An empty store hashes to 0.
func (m *Metadata) Hash() uint64 {
	d := m.data()
	if d == nil || len(d.keys) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(d.keys))
	h := xxhash.New()
	for _, k := range sorted {
		_, _ = h.WriteString(k)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(d.values[k])
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// Equal reports whether both stores hold the same pairs.
func (m *Metadata) Equal(other *Metadata) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.Keys() {
		if !other.Has(k) || other.Get(k) != m.Get(k) {
			return false
		}
	}
	return true
}
