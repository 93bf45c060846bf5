package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"

	"github.com/Faultbox/rpgmap/pkg/atlas"
	"github.com/Faultbox/rpgmap/pkg/tile"
)

const testTile = 8

var (
	green = color.RGBA{G: 200, A: 255}
	brown = color.RGBA{R: 120, G: 80, A: 255}
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	grey  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// solidSource serves single-colour images by name.
func solidSource(size int, colors map[string]color.RGBA) atlas.Source {
	return atlas.SourceFunc(func(name string) (image.Image, error) {
		c, ok := colors[name]
		if !ok {
			return nil, fmt.Errorf("no texture %q", name)
		}
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		return img, nil
	})
}

func newTestRenderer(t *testing.T, cfg Config, colors map[string]color.RGBA) (*Renderer, *atlas.Packer) {
	t.Helper()
	packer := atlas.New(64, solidSource(testTile, colors))
	r, err := New(cfg, packer)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r, packer
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, expected color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != expected {
		t.Errorf("pixel (%d,%d): expected %v, got %v", x, y, expected, got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error without an atlas")
	}
	if _, err := New(Config{TileSize: -1}, atlas.New(0, nil)); err == nil {
		t.Error("expected error for negative tile size")
	}
	r, err := New(Config{}, atlas.New(0, nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if r.TileSize() != DefaultTileSize {
		t.Errorf("expected default tile size, got %d", r.TileSize())
	}
	if _, err := r.Render(Frame{}); !errors.Is(err, ErrNoGrid) {
		t.Errorf("expected ErrNoGrid, got %v", err)
	}
}

func TestRender_FeatheredTransition(t *testing.T) {
	k := newTerrain(t)
	meadow := k.reg.MustRegister(tile.Kind{ID: "meadow", Layer: tile.Terrain, Texture: "grass", Priority: 1011})

	r, _ := newTestRenderer(t, Config{TileSize: testTile}, map[string]color.RGBA{
		"grass": green,
		"dirt":  brown,
	})

	r.SetGrid(k.grid(t, []tile.KindID{meadow}, []tile.KindID{k.dirt}))
	img, err := r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, testTile, 2*testTile) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	assertPixel(t, img, 3, 3, green)
	// The dirt cell's top row is fully grass, its bottom row untouched.
	assertPixel(t, img, 3, testTile, green)
	assertPixel(t, img, 3, 2*testTile-1, brown)

	r.SetGrid(k.grid(t, []tile.KindID{k.dirt}, []tile.KindID{meadow}))
	img, err = r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPixel(t, img, 3, 0, brown)
	assertPixel(t, img, 3, testTile-1, green)
}

func TestRender_DirectionalTransition(t *testing.T) {
	k := newTerrain(t)
	r, packer := newTestRenderer(t, Config{TileSize: testTile}, map[string]color.RGBA{
		"grass":        green,
		"dirt":         brown,
		"grass_edge_n": red,
		"grass_edge_s": blue,
	})

	r.SetGrid(k.grid(t, []tile.KindID{k.grass}, []tile.KindID{k.dirt}))
	img, err := r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPixel(t, img, 3, testTile+5, red)
	if _, ok := packer.Cached("grass_edge_s"); ok {
		t.Error("south edge must not be drawn")
	}

	r.SetGrid(k.grid(t, []tile.KindID{k.dirt}, []tile.KindID{k.grass}))
	img, err = r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPixel(t, img, 3, 5, blue)
	assertPixel(t, img, 3, testTile+5, green)
}

func TestRender_Layers(t *testing.T) {
	d := newDecor(t)
	colors := map[string]color.RGBA{
		"grass": green,
		"tree":  brown,
		"wall":  grey,
		"roof":  red,
		"slime": blue,
	}

	g := d.grid(t, 2, 2)
	set(t, g, tile.Decoration, d.roof, pt(0, 0))
	// The tree below draws onto the roof cell; the roof overlay still wins.
	set(t, g, tile.Decoration, d.tree, pt(0, 1), pt(1, 1))
	set(t, g, tile.Creature, d.slime, pt(1, 1))

	r, _ := newTestRenderer(t, Config{TileSize: testTile}, colors)
	r.SetGrid(g)
	img, err := r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPixel(t, img, 2, 2, red)
	assertPixel(t, img, testTile+2, 2, brown)
	assertPixel(t, img, testTile+2, testTile+2, green)

	markers, _ := newTestRenderer(t, Config{TileSize: testTile, ShowMarkers: true}, colors)
	markers.SetGrid(g)
	img, err = markers.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPixel(t, img, testTile+2, testTile+2, blue)
}

func TestRender_MissingTexture(t *testing.T) {
	d := newDecor(t)
	r, packer := newTestRenderer(t, Config{TileSize: testTile}, map[string]color.RGBA{})
	r.SetGrid(d.grid(t, 1, 1))

	img, err := r.Render(Frame{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// Missing textures draw the checker instead of failing.
	if img.RGBAAt(0, 0) == (color.RGBA{}) {
		t.Error("expected placeholder pixels")
	}
	if packer.Stats().Failed != 1 {
		t.Errorf("expected one failed source, got %d", packer.Stats().Failed)
	}
}

func TestDraw_Origin(t *testing.T) {
	d := newDecor(t)
	r, _ := newTestRenderer(t, Config{TileSize: testTile}, map[string]color.RGBA{"grass": white})
	r.SetGrid(d.grid(t, 1, 1))

	dst := image.NewRGBA(image.Rect(0, 0, 3*testTile, 3*testTile))
	if err := r.Draw(dst, image.Pt(testTile, testTile), Frame{}); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	assertPixel(t, dst, 0, 0, color.RGBA{})
	assertPixel(t, dst, testTile+1, testTile+1, white)
	assertPixel(t, dst, 2*testTile+1, 2*testTile+1, color.RGBA{})
}
