// Package content holds the built-in tile catalog and the legacy id
// tables that map old numeric ids onto it.
package content

import (
	"fmt"

	"github.com/Faultbox/rpgmap/pkg/migrate"
	"github.com/Faultbox/rpgmap/pkg/tile"
)

// Kind ids of the built-in catalog.
const (
	Grass     = "grass"
	Dirt      = "dirt"
	Sand      = "sand"
	Water     = "water"
	StonePath = "stone_path"
	CaveFloor = "cave_floor"

	Hedge     = "hedge"
	Tree      = "tree"
	Rock      = "rock"
	TallGrass = "tall_grass"
	Doormat   = "doormat"
	Flower    = "flower"
	House     = "house"
	Sign      = "sign"
	Waterfall = "waterfall"

	Slime = "slime"
	Bat   = "bat"

	Warp  = "warp"
	Block = "block"
)

// Effects triggered on the world by built-in kinds.
const (
	EffectEncounter = "encounter"
	EffectWarp      = "warp"
	EffectDialog    = "dialog"
)

// Kinds returns the built-in catalog in registration order.
func Kinds() []tile.Kind {
	return []tile.Kind{
		// Terrain. Priorities form a total order.
		{ID: Water, Layer: tile.Terrain, Texture: "water_{frame}", Transition: "water_edge", Solid: true, Priority: 1000,
			Behavior: tile.Animated{FPS: 4, Frames: 4, Variation: true}},
		{ID: CaveFloor, Layer: tile.Terrain, Texture: "cave_floor", Priority: 1001},
		{ID: Sand, Layer: tile.Terrain, Texture: "sand", Transition: "sand_edge_{mask}", Priority: 1005},
		{ID: Dirt, Layer: tile.Terrain, Texture: "dirt", Transition: "dirt_edge", Priority: 1009},
		{ID: Grass, Layer: tile.Terrain, Texture: "grass_{environment}", Transition: "grass_edge", Priority: 1010},
		{ID: StonePath, Layer: tile.Terrain, DisplayName: "Stone path", Texture: "stone_path", Priority: 1020},

		// Decoration.
		{ID: Hedge, Layer: tile.Decoration, Texture: "hedge_{connection}_{variation}", Solid: true,
			Behavior: tile.Connected{Variations: 3}},
		{ID: Tree, Layer: tile.Decoration, Texture: "tree_{weather}", Solid: true,
			Behavior: tile.OffsetDraw{DY: -1}},
		{ID: Rock, Layer: tile.Decoration, Texture: "rock", Solid: true,
			Behavior: tile.ClusterPromoted{BigTexture: "rock_big"}},
		{ID: TallGrass, Layer: tile.Decoration, DisplayName: "Tall grass", Texture: "tall_grass",
			Behavior: tile.SingleFire{
				Stages: [3]string{"tall_grass_walk", "tall_grass_rustle", "tall_grass"},
				Effect: EffectEncounter,
			}},
		{ID: Doormat, Layer: tile.Decoration, Texture: "doormat", Behavior: tile.MatCarryThrough{}},
		{ID: Flower, Layer: tile.Decoration, Texture: "flower_{frame}",
			Behavior: tile.Animated{FPS: 2, Frames: 2, Variation: true}},
		{ID: House, Layer: tile.Decoration, Texture: "house_wall", Overlay: "house_roof_{weather}", Solid: true},
		{ID: Sign, Layer: tile.Decoration, Texture: "sign", Solid: true,
			NameFunc:   signName,
			Events:     tile.HandlerFuncs{Interact: readSign},
			Attributes: []tile.AttributeDescriptor{{Key: "text", Label: "Text", Type: tile.AttrString}},
		},
		{ID: Waterfall, Layer: tile.Decoration, Texture: "waterfall_{connection}_{frame}", Solid: true,
			Behavior: tile.AnimatedConnected{
				Animated:  tile.Animated{FPS: 6, Frames: 3},
				Connected: tile.Connected{},
			}},

		// Creature spawn markers.
		{ID: Slime, Layer: tile.Creature, Texture: "marker_slime", NameFunc: spawnName("Slime"),
			Attributes: spawnAttributes},
		{ID: Bat, Layer: tile.Creature, Texture: "marker_bat", NameFunc: spawnName("Bat"),
			Attributes: spawnAttributes},

		// Control markers.
		{ID: Warp, Layer: tile.Control, Texture: "marker_warp",
			Events: tile.HandlerFuncs{WalkEnter: warp},
			Attributes: []tile.AttributeDescriptor{
				{Key: "target", Label: "Target map", Type: tile.AttrString},
				{Key: "x", Label: "Target X", Type: tile.AttrInt, Default: "0"},
				{Key: "y", Label: "Target Y", Type: tile.AttrInt, Default: "0"},
			}},
		{ID: Block, Layer: tile.Control, Texture: "marker_block", Solid: true},
	}
}

var spawnAttributes = []tile.AttributeDescriptor{
	{Key: "level", Label: "Level", Type: tile.AttrInt, Default: "1"},
	{Key: "time", Label: "Spawn time", Type: tile.AttrChoice, Default: "any", Choices: []string{"any", "day", "night"}},
}

func signName(attrs tile.Attributes, _ tile.Environment, _ tile.Weather) string {
	if attrs != nil {
		if text := attrs.Get("text"); text != "" {
			return fmt.Sprintf("Sign (%s)", text)
		}
	}
	return "Sign"
}

func spawnName(name string) tile.NameFunc {
	return func(attrs tile.Attributes, env tile.Environment, _ tile.Weather) string {
		level := "1"
		if attrs != nil {
			if l := attrs.Get("level"); l != "" {
				level = l
			}
		}
		return fmt.Sprintf("%s Lv.%s (%s)", name, level, env)
	}
}

func readSign(w tile.World, meta tile.MetadataStore, at tile.Point) {
	if meta.Get("text") == "" {
		return
	}
	w.Trigger(EffectDialog, at)
}

func warp(w tile.World, meta tile.MetadataStore, at tile.Point) {
	if meta.Get("target") == "" {
		return
	}
	w.Trigger(EffectWarp, at)
}

// Register adds the catalog to reg.
func Register(reg *tile.Registry) error {
	for _, k := range Kinds() {
		if _, err := reg.Register(k); err != nil {
			return fmt.Errorf("registering %s %q: %w", k.Layer, k.ID, err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the defaults and the catalog.
func NewRegistry() (*tile.Registry, error) {
	reg := tile.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// LegacyTables returns the numeric id tables of the legacy map format.
func LegacyTables() migrate.Tables {
	return migrate.Tables{
		tile.Terrain: {
			10: Grass,
			11: Dirt,
			12: Sand,
			13: Water,
			14: StonePath,
			15: CaveFloor,
		},
		tile.Decoration: {
			1: Hedge,
			2: Tree,
			3: Rock,
			4: TallGrass,
			5: Doormat,
			6: Flower,
			7: House,
			8: Sign,
			9: Waterfall,
		},
		tile.Creature: {
			1: Slime,
			2: Bat,
		},
		tile.Control: {
			1: Warp,
			2: Block,
		},
	}
}

// NewMigrator returns a migrator for the legacy tables over reg, which
// must hold the catalog.
func NewMigrator(reg *tile.Registry) (*migrate.Migrator, error) {
	return migrate.New(reg, LegacyTables())
}
