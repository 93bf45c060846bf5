package tile

import (
	"errors"
	"math"
	"testing"
)

func TestNewRegistry_Defaults(t *testing.T) {
	r := NewRegistry()

	if r.Len() != LayerCount {
		t.Fatalf("expected %d default kinds, got %d", LayerCount, r.Len())
	}

	for _, l := range Layers {
		id := r.Default(l)
		k := r.Kind(id)
		if !k.IsDefault() {
			t.Errorf("%s default has id %q", l, k.ID)
		}
		if k.Layer != l {
			t.Errorf("%s default registered on layer %s", l, k.Layer)
		}
		got, err := r.Lookup(l, "")
		if err != nil || got != id {
			t.Errorf("Lookup(%s, \"\") = %d, %v; expected %d", l, got, err, id)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Register(Kind{ID: "grass", Layer: Terrain}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := r.Register(Kind{ID: "grass", Layer: Terrain})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	var dup *DuplicateIdError
	if !errors.As(err, &dup) || dup.ID != "grass" || dup.Layer != Terrain {
		t.Errorf("unexpected error detail: %#v", err)
	}

	// Same id on another layer is a different kind.
	if _, err := r.Register(Kind{ID: "grass", Layer: Decoration}); err != nil {
		t.Errorf("same id on another layer rejected: %v", err)
	}

	// The empty id is reserved for the canonical defaults.
	if _, err := r.Register(Kind{ID: "", Layer: Creature}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected second empty kind to be rejected, got %v", err)
	}
}

func TestRegister_InvalidLayer(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(Kind{ID: "x", Layer: Layer(9)}); !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("expected ErrInvalidLayer, got %v", err)
	}
}

func TestLookupOrDefault(t *testing.T) {
	r := NewRegistry()
	wolf := r.MustRegister(Kind{ID: "wolf", Layer: Creature})

	if got := r.LookupOrDefault(Creature, "wolf"); got != wolf {
		t.Errorf("expected wolf %d, got %d", wolf, got)
	}
	if got := r.LookupOrDefault(Creature, "dragon"); got != r.Default(Creature) {
		t.Errorf("expected creature default, got %d", got)
	}
	if _, err := r.Lookup(Creature, "dragon"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}

	invalid := Layer(LayerCount + 3)
	if got := r.LookupOrDefault(invalid, "wolf"); got != r.Default(Terrain) {
		t.Errorf("expected terrain default for an invalid layer, got %d", got)
	}
	if got := r.Default(invalid); got != r.Default(Terrain) {
		t.Errorf("expected terrain default, got %d", got)
	}
}

func TestKinds_ByLayer(t *testing.T) {
	r := NewRegistry()
	a := r.MustRegister(Kind{ID: "a", Layer: Decoration})
	r.MustRegister(Kind{ID: "b", Layer: Terrain})
	c := r.MustRegister(Kind{ID: "c", Layer: Decoration})

	got := r.Kinds(Decoration)
	expected := []KindID{r.Default(Decoration), a, c}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("index %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestAnimated_FrameAt(t *testing.T) {
	a := Animated{FPS: 4, Frames: 3}

	tests := []struct {
		seconds  float64
		expected int
	}{
		{0, 0},
		{0.24, 0},
		{0.25, 1},
		{0.5, 2},
		{0.75, 0},
		{10.0, 1}, // floor(40) mod 3
	}

	for _, tc := range tests {
		if got := a.FrameAt(tc.seconds, 0, 0); got != tc.expected {
			t.Errorf("FrameAt(%v) = %d, expected %d", tc.seconds, got, tc.expected)
		}
	}
}

func TestAnimated_Period(t *testing.T) {
	a := Animated{FPS: 4, Frames: 3}
	period := a.Period()
	if math.Abs(period-0.75) > 1e-9 {
		t.Fatalf("expected period 0.75, got %v", period)
	}

	for _, s := range []float64{0, 0.1, 0.3, 0.6, 1.7} {
		if a.FrameAt(s, 0, 0) != a.FrameAt(s+period, 0, 0) {
			t.Errorf("frame at %v differs from frame one period later", s)
		}
	}
}

func TestAnimated_Variation(t *testing.T) {
	a := Animated{FPS: 1, Frames: 4, Variation: true}

	if a.FrameAt(0, 0, 0) != 0 {
		t.Errorf("even cell should not be offset")
	}
	if a.FrameAt(0, 1, 0) != 1 {
		t.Errorf("odd cell should be offset by one frame")
	}
	if a.FrameAt(3, 0, 1) != 0 {
		t.Errorf("offset frame should wrap around")
	}
	if a.FrameAt(0, -1, 0) != 1 {
		t.Errorf("negative odd cell should be offset by one frame")
	}
}

func TestAnimated_NoFrames(t *testing.T) {
	if got := (Animated{}).FrameAt(5, 1, 1); got != 0 {
		t.Errorf("expected frame 0 for empty animation, got %d", got)
	}
}

func TestConnectionOf(t *testing.T) {
	tests := []struct {
		left, right, up, down bool
		expected              Connection
	}{
		{false, false, false, false, ConnNone},
		{true, false, false, false, ConnLeft},
		{false, true, false, false, ConnRight},
		{true, true, false, false, ConnLeftRight},
		{false, false, true, false, ConnUp},
		{false, false, false, true, ConnDown},
		{false, false, true, true, ConnUpDown},
		{true, false, true, true, ConnLeft},
	}

	for _, tc := range tests {
		got := ConnectionOf(tc.left, tc.right, tc.up, tc.down)
		if got != tc.expected {
			t.Errorf("ConnectionOf(%v,%v,%v,%v) = %s, expected %s",
				tc.left, tc.right, tc.up, tc.down, got, tc.expected)
		}
	}
}

func TestRandomTable_Deterministic(t *testing.T) {
	a := NewRandomTable(DefaultRandomSeed)
	b := NewRandomTable(DefaultRandomSeed)

	for y := -3; y < 10; y++ {
		for x := -3; x < 10; x++ {
			if a.At(x, y, 16) != b.At(x, y, 16) {
				t.Fatalf("tables differ at (%d,%d)", x, y)
			}
		}
	}

	if a.At(-2, -5, 16) != a.At(2, 5, 16) {
		t.Errorf("negative coordinates should use absolute values")
	}
	if a.At(RandomTableSize, 0, 1) != a.At(0, 0, 1) {
		t.Errorf("index should wrap at table size")
	}
}

func TestConnected_Variation(t *testing.T) {
	table := NewRandomTable(1)
	c := Connected{Variations: 3}

	for x := 0; x < 50; x++ {
		v := c.Variation(table, x, 7, 50)
		if v < 0 || v >= 3 {
			t.Fatalf("variation %d out of range", v)
		}
	}
	if (Connected{Variations: 1}).Variation(table, 3, 3, 10) != 0 {
		t.Errorf("single variation should always be 0")
	}
}

func TestSingleFire_Stage(t *testing.T) {
	s := SingleFire{}

	tests := []struct {
		elapsed  uint64
		expected int
	}{
		{1, 0}, {4, 0}, {5, 1}, {8, 1}, {9, 2}, {500, 2},
	}
	for _, tc := range tests {
		if got := s.Stage(tc.elapsed); got != tc.expected {
			t.Errorf("Stage(%d) = %d, expected %d", tc.elapsed, got, tc.expected)
		}
	}

	custom := SingleFire{StageTicks: [2]uint64{1, 2}}
	if custom.Stage(2) != 1 || custom.Stage(3) != 2 {
		t.Errorf("custom thresholds not applied")
	}
}

func TestResolveTexture(t *testing.T) {
	p := Params{Frame: 2, Connection: ConnLeftRight, Variation: 1, Environment: Cave, Weather: Snow}

	tests := []struct {
		template string
		expected string
	}{
		{"terrain/grass", "terrain/grass"},
		{"terrain/water_{frame}", "terrain/water_2"},
		{"deco/hedge_{connection}_{variation}", "deco/hedge_leftright_1"},
		{"terrain/grass_{environment}_{weather}", "terrain/grass_cave_snow"},
	}
	for _, tc := range tests {
		if got := ResolveTexture(tc.template, p); got != tc.expected {
			t.Errorf("ResolveTexture(%q) = %q, expected %q", tc.template, got, tc.expected)
		}
	}
}

type mapAttrs map[string]string

func (m mapAttrs) Get(key string) string { return m[key] }

func TestResolvedName(t *testing.T) {
	plain := &Kind{ID: "grass", DisplayName: "Grass"}
	if got := plain.ResolvedName(nil, Overworld, Clear); got != "Grass" {
		t.Errorf("expected Grass, got %q", got)
	}

	bare := &Kind{ID: "dirt"}
	if got := bare.ResolvedName(nil, Overworld, Clear); got != "dirt" {
		t.Errorf("expected id fallback, got %q", got)
	}

	sign := &Kind{ID: "sign", NameFunc: func(attrs Attributes, env Environment, w Weather) string {
		if w == Rain {
			return "Wet sign: " + attrs.Get("text")
		}
		return "Sign: " + attrs.Get("text")
	}}
	if got := sign.ResolvedName(mapAttrs{"text": "hi"}, Overworld, Rain); got != "Wet sign: hi" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestLayer_String(t *testing.T) {
	if Terrain.String() != "terrain" || Control.String() != "control" {
		t.Errorf("unexpected layer names")
	}
	if Layer(7).String() != "Unknown(7)" {
		t.Errorf("unexpected unknown layer name %q", Layer(7).String())
	}
	if Environment(9).String() != "Unknown(9)" || Weather(9).String() != "Unknown(9)" {
		t.Errorf("unexpected unknown enum names")
	}
}
