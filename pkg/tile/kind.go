package tile

import (
	"strconv"
	"strings"
)

// KindID is the index of a kind in its registry. Two cells hold the same
// kind exactly when they hold the same KindID.
type KindID uint32

// NameFunc computes a display name from the cell's attributes and the
// map context.
type NameFunc func(attrs Attributes, env Environment, weather Weather) string

// Kind is the immutable definition of a type of tile. Kinds are owned by a
// Registry and shared by every cell that uses them.
type Kind struct {
	// ID is unique per layer. The empty ID is reserved for the layer default.
	ID    string
	Layer Layer

	DisplayName string
	NameFunc    NameFunc

	// Texture is a texture name template, see ResolveTexture.
	Texture string
	// Transition is the texture blended over lower-priority neighbors.
	// Defaults to Texture when empty.
	Transition string
	// Overlay is drawn in the after-transition pass when set.
	Overlay string

	// Solid blocks movement. It is read by the movement system only.
	Solid bool
	// Priority orders terrain transitions. Higher draws over lower.
	Priority int

	Behavior   Behavior
	Events     EventHandler
	Attributes []AttributeDescriptor
}

// IsDefault reports whether k is the empty default kind of its layer.
func (k *Kind) IsDefault() bool {
	return k.ID == ""
}

// ResolvedName returns the kind's display name for a cell.
func (k *Kind) ResolvedName(attrs Attributes, env Environment, weather Weather) string {
	if k.NameFunc != nil {
		return k.NameFunc(attrs, env, weather)
	}
	if k.DisplayName != "" {
		return k.DisplayName
	}
	return k.ID
}

// TransitionTexture returns the texture blended over lower-priority
// neighbors.
func (k *Kind) TransitionTexture() string {
	if k.Transition != "" {
		return k.Transition
	}
	return k.Texture
}

// Attributes is read access to a cell's metadata.
type Attributes interface {
	Get(key string) string
}

// MetadataStore is read/write access to a cell's metadata, handed to
// event handlers.
type MetadataStore interface {
	Attributes
	Set(key, value string)
}

// AttributeType is the value type an editor offers for an attribute.
type AttributeType uint8

// Attribute types.
const (
	AttrString AttributeType = iota
	AttrInt
	AttrBool
	AttrChoice
)

// AttributeDescriptor describes one editable per-cell attribute of a kind.
// Only the map editor consumes it.
type AttributeDescriptor struct {
	Key     string
	Label   string
	Type    AttributeType
	Default string
	Choices []string
}

// Params are the per-cell values a texture template is resolved with.
type Params struct {
	Frame       int
	Connection  Connection
	Variation   int
	Stage       int
	Environment Environment
	Weather     Weather
}

// ResolveTexture substitutes the {frame}, {connection}, {variation},
// {stage}, {environment} and {weather} placeholders of a template.
func ResolveTexture(template string, p Params) string {
	if !strings.Contains(template, "{") {
		return template
	}
	r := strings.NewReplacer(
		"{frame}", strconv.Itoa(p.Frame),
		"{connection}", p.Connection.String(),
		"{variation}", strconv.Itoa(p.Variation),
		"{stage}", strconv.Itoa(p.Stage),
		"{environment}", p.Environment.String(),
		"{weather}", p.Weather.String(),
	)
	return r.Replace(template)
}
