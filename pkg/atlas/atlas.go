// Package atlas packs tile source images into fixed-size pages so that a
// map can be drawn from a handful of surfaces.
//
// Packing is online shelf packing: images are placed left to right on the
// current shelf, a new shelf starts when the row is full and a new page
// starts when the page is full. Nothing is ever repacked; a change to any
// source drops every region at once (see Packer.Invalidate).
package atlas

import (
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/rpgmap/internal/logger"
)

// DefaultPageSize is the edge length of a page in pixels.
const DefaultPageSize = 1024

// RegionKind tells where a region's pixels live.
type RegionKind uint8

// Region kinds.
const (
	Packed     RegionKind = iota // inside a shared page
	Standalone                   // source larger than a page, stored on its own
	Placeholder                  // the constant missing-asset region
)

// Region is the location of a packed source. Page indexes the packer's
// pages for Packed regions and its standalone images for Standalone ones.
// Texture numbers the regions of one page in placement order.
type Region struct {
	Kind    RegionKind
	Page    int
	Texture int
	Rect    image.Rectangle
}

// MissingSize is the edge length of the missing-asset image.
const MissingSize = 16

// Missing is returned for sources that cannot be loaded.
var Missing = Region{
	Kind:    Placeholder,
	Page:    -1,
	Texture: -1,
	Rect:    image.Rect(0, 0, MissingSize, MissingSize),
}

// IsMissing reports whether r is the missing-asset region.
func (r Region) IsMissing() bool {
	return r.Kind == Placeholder
}

// Size returns the region's width and height.
func (r Region) Size() image.Point {
	return r.Rect.Size()
}

// Sub returns cell (dx, dy) of the region split into an n x n grid. It is
// used to draw one slice of a big sprite per map cell.
func (r Region) Sub(dx, dy, n int) Region {
	if n <= 1 {
		return r
	}
	w := r.Rect.Dx() / n
	h := r.Rect.Dy() / n
	origin := r.Rect.Min.Add(image.Pt(dx*w, dy*h))
	out := r
	out.Rect = image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
	return out
}

// Source provides decoded source images by name.
type Source interface {
	Image(name string) (image.Image, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(name string) (image.Image, error)

// Image calls f(name).
func (f SourceFunc) Image(name string) (image.Image, error) {
	return f(name)
}

// Stats summarises the packer's state.
type Stats struct {
	Pages      int
	Regions    int
	Standalone int
	Failed     int
}

// Packer is an online shelf packer with a name-keyed region cache.
// It is safe for concurrent use; Invalidate is atomic with respect to
// lookups.
type Packer struct {
	mu sync.RWMutex

	pageSize int
	source   Source

	pages      []*image.RGBA
	textures   []int
	standalone []*image.RGBA

	cursor      image.Point
	shelfHeight int

	regions map[string]Region
	failed  map[string]struct{}

	missing *image.RGBA
}

// New creates a packer with one blank page. A nil source makes Lookup
// return Missing for anything not placed explicitly.
func New(pageSize int, source Source) *Packer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	p := &Packer{
		pageSize: pageSize,
		source:   source,
		missing:  checker(MissingSize),
	}
	p.reset()
	return p
}

// PageSize returns the edge length of a page.
func (p *Packer) PageSize() int {
	return p.pageSize
}

func (p *Packer) reset() {
	p.pages = []*image.RGBA{p.newPage()}
	p.textures = []int{0}
	p.standalone = nil
	p.cursor = image.Point{}
	p.shelfHeight = 0
	p.regions = make(map[string]Region)
	p.failed = make(map[string]struct{})
}

func (p *Packer) newPage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, p.pageSize, p.pageSize))
}

// Cached returns the region of an already packed source.
func (p *Packer) Cached(name string) (Region, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.regions[name]
	return r, ok
}

// Lookup returns the region of a source, loading and packing it on first
// use. Sources that fail to load yield Missing; the failure is remembered
// until the next Invalidate.
func (p *Packer) Lookup(name string) Region {
	p.mu.RLock()
	r, ok := p.regions[name]
	_, failed := p.failed[name]
	p.mu.RUnlock()
	if ok {
		return r
	}
	if failed {
		return Missing
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.regions[name]; ok {
		return r
	}
	if _, failed := p.failed[name]; failed {
		return Missing
	}
	if p.source == nil {
		p.failed[name] = struct{}{}
		return Missing
	}

	img, err := p.source.Image(name)
	if err != nil || img == nil {
		p.failed[name] = struct{}{}
		logger.Warn("atlas source unavailable", zap.String("name", name), zap.Error(err))
		return Missing
	}
	return p.place(name, img)
}

// Place packs img under name unless name is already packed, in which case
// the existing region is returned.
func (p *Packer) Place(name string, img image.Image) Region {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.regions[name]; ok {
		return r
	}
	return p.place(name, img)
}

func (p *Packer) place(name string, img image.Image) Region {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		p.failed[name] = struct{}{}
		logger.Warn("atlas source is empty", zap.String("name", name))
		return Missing
	}

	if w > p.pageSize || h > p.pageSize {
		surface := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(surface, surface.Bounds(), img, b.Min, draw.Src)
		r := Region{Kind: Standalone, Page: len(p.standalone), Rect: surface.Bounds()}
		p.standalone = append(p.standalone, surface)
		p.regions[name] = r
		logger.Debug("atlas standalone region",
			zap.String("name", name), zap.Int("width", w), zap.Int("height", h))
		return r
	}

	if p.cursor.X+w > p.pageSize {
		p.cursor.X = 0
		p.cursor.Y += p.shelfHeight
		p.shelfHeight = 0
	}
	if p.cursor.Y+h > p.pageSize {
		p.pages = append(p.pages, p.newPage())
		p.textures = append(p.textures, 0)
		p.cursor = image.Point{}
		p.shelfHeight = 0
		logger.Debug("atlas page allocated", zap.Int("page", len(p.pages)-1))
	}

	page := len(p.pages) - 1
	rect := image.Rectangle{Min: p.cursor, Max: p.cursor.Add(image.Pt(w, h))}
	draw.Draw(p.pages[page], rect, img, b.Min, draw.Src)

	r := Region{Kind: Packed, Page: page, Texture: p.textures[page], Rect: rect}
	p.textures[page]++
	p.regions[name] = r

	p.cursor.X += w
	p.shelfHeight = max(p.shelfHeight, h)
	return r
}

// Image returns the surface a region's pixels live on. The region's Rect
// addresses pixels of that surface.
func (p *Packer) Image(r Region) *image.RGBA {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch r.Kind {
	case Packed:
		if r.Page >= 0 && r.Page < len(p.pages) {
			return p.pages[r.Page]
		}
	case Standalone:
		if r.Page >= 0 && r.Page < len(p.standalone) {
			return p.standalone[r.Page]
		}
	}
	return p.missing
}

// Pages returns the number of shared pages.
func (p *Packer) Pages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pages)
}

// Page returns a shared page surface.
func (p *Packer) Page(i int) *image.RGBA {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i < 0 || i >= len(p.pages) {
		return nil
	}
	return p.pages[i]
}

// Invalidate drops every region and resets packing to a single blank page.
func (p *Packer) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := len(p.regions)
	pages := len(p.pages)
	p.reset()
	logger.Info("atlas invalidated", zap.Int("regions", dropped), zap.Int("pages", pages))
}

// Stats returns a snapshot of the packer's counters.
func (p *Packer) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		Pages:      len(p.pages),
		Regions:    len(p.regions),
		Standalone: len(p.standalone),
		Failed:     len(p.failed),
	}
}

// checker draws the magenta/black missing-asset pattern.
func checker(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	magenta := color.RGBA{R: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x < half) == (y < half) {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}
