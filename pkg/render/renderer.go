package render

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/atlas"
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// DefaultTileSize is the edge length of a cell in pixels.
const DefaultTileSize = 32

// ErrNoGrid is returned when drawing before a grid is set.
var ErrNoGrid = errors.New("renderer has no grid")

// Config holds renderer configuration.
type Config struct {
	TileSize int
	// ShowMarkers draws the creature and control layers. They are
	// editor-only markers and stay hidden in game views.
	ShowMarkers bool
}

// Renderer composites a grid into RGBA images using an atlas.
type Renderer struct {
	config   Config
	packer   *atlas.Packer
	resolver Resolver

	// scratch holds a transition texture scaled to one cell before it is
	// masked onto the destination.
	scratch *image.RGBA
}

// New creates a renderer drawing textures from packer.
func New(cfg Config, packer *atlas.Packer) (*Renderer, error) {
	if packer == nil {
		return nil, errors.New("renderer needs an atlas")
	}
	if cfg.TileSize < 0 {
		return nil, fmt.Errorf("invalid tile size %d", cfg.TileSize)
	}
	if cfg.TileSize == 0 {
		cfg.TileSize = DefaultTileSize
	}
	return &Renderer{
		config:  cfg,
		packer:  packer,
		scratch: image.NewRGBA(image.Rect(0, 0, cfg.TileSize, cfg.TileSize)),
	}, nil
}

// SetGrid selects the grid to draw.
func (r *Renderer) SetGrid(g *tilemap.Grid) {
	r.resolver.Grid = g
	if g != nil {
		logger.Debug("renderer grid set",
			zap.String("name", g.Name),
			zap.Int("width", g.Width()),
			zap.Int("height", g.Height()),
		)
	}
}

// SetOccupancy provides entry ticks for single-fire kinds.
func (r *Renderer) SetOccupancy(o Occupancy) {
	r.resolver.Occupancy = o
}

// TileSize returns the cell edge length in pixels.
func (r *Renderer) TileSize() int {
	return r.config.TileSize
}

// Bounds returns the pixel bounds of the whole grid.
func (r *Renderer) Bounds() image.Rectangle {
	g := r.resolver.Grid
	if g == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, g.Width()*r.config.TileSize, g.Height()*r.config.TileSize)
}

// Render draws the whole grid into a new image.
func (r *Renderer) Render(f Frame) (*image.RGBA, error) {
	if r.resolver.Grid == nil {
		return nil, ErrNoGrid
	}
	dst := image.NewRGBA(r.Bounds())
	if err := r.Draw(dst, image.Point{}, f); err != nil {
		return nil, err
	}
	return dst, nil
}

// Draw composites the grid onto dst with cell (0,0) at origin. Cells are
// visited row-major in three passes: terrain with its transitions, then
// the upper layers, then after-transition overlays.
func (r *Renderer) Draw(dst *image.RGBA, origin image.Point, f Frame) error {
	g := r.resolver.Grid
	if g == nil {
		return ErrNoGrid
	}

	// Pass 1: terrain base, then blends from higher-priority neighbors.
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			for _, s := range r.resolver.Sprites(tile.Terrain, x, y, f) {
				r.drawSprite(dst, origin, s)
			}
			for _, o := range TransitionsAt(g, x, y) {
				r.drawTransition(dst, origin, tile.Point{X: x, Y: y}, o)
			}
		}
	}

	// Pass 2: decoration, then markers.
	layers := []tile.Layer{tile.Decoration}
	if r.config.ShowMarkers {
		layers = append(layers, tile.Creature, tile.Control)
	}
	for _, l := range layers {
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				for _, s := range r.resolver.Sprites(l, x, y, f) {
					r.drawSprite(dst, origin, s)
				}
			}
		}
	}

	// Pass 3: overlays that must sit above every neighbor.
	for _, l := range append([]tile.Layer{tile.Terrain}, layers...) {
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				for _, s := range r.resolver.Overlays(l, x, y, f) {
					r.drawSprite(dst, origin, s)
				}
			}
		}
	}
	return nil
}

func (r *Renderer) cell(origin image.Point, at tile.Point) image.Rectangle {
	ts := r.config.TileSize
	corner := origin.Add(image.Pt(at.X*ts, at.Y*ts))
	return image.Rectangle{Min: corner, Max: corner.Add(image.Pt(ts, ts))}
}

func (r *Renderer) region(s Sprite) atlas.Region {
	region := r.packer.Lookup(s.Texture)
	if s.Parts > 0 && !region.IsMissing() {
		region = region.Sub(s.Part.X, s.Part.Y, s.Parts)
	}
	return region
}

func (r *Renderer) drawSprite(dst *image.RGBA, origin image.Point, s Sprite) {
	if s.Texture == "" {
		return
	}
	r.blit(dst, r.cell(origin, s.At), r.region(s), draw.Over)
}

// blit copies a region into rect, scaling with nearest-neighbor sampling
// when the sizes differ.
func (r *Renderer) blit(dst draw.Image, rect image.Rectangle, region atlas.Region, op draw.Op) {
	src := r.packer.Image(region)
	if region.Size() == rect.Size() {
		draw.Draw(dst, rect, src, region.Rect.Min, op)
		return
	}
	draw.NearestNeighbor.Scale(dst, rect, src, region.Rect, op, nil)
}

func (r *Renderer) drawTransition(dst *image.RGBA, origin image.Point, at tile.Point, o Overlay) {
	name := tile.ResolveTexture(o.TextureName(), r.resolver.params())
	region := r.packer.Lookup(name)
	rect := r.cell(origin, at)

	if o.Directional() {
		r.blit(dst, rect, region, draw.Over)
		return
	}

	r.blit(r.scratch, r.scratch.Bounds(), region, draw.Src)
	mask := FeatherMask(r.config.TileSize, o.Mask)
	draw.DrawMask(dst, rect, r.scratch, image.Point{}, mask, image.Point{}, draw.Over)
}
