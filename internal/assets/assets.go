// Package assets loads tile source images from directory roots and
// reports when they change.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // register BMP decoder

	"github.com/Faultbox/rpgmap/internal/logger"
)

// ErrNotFound is returned when no root holds an asset.
var ErrNotFound = errors.New("asset not found")

// Extensions are tried in order for names given without one.
var Extensions = []string{".png", ".bmp", ".gif", ".jpg", ".jpeg"}

// DefaultCacheBytes is the byte cache capacity used when none is given.
const DefaultCacheBytes = 64 << 20

// Manager handles asset loading from directory roots.
// Roots are searched in reverse order (last added = highest priority).
type Manager struct {
	roots []string
	cache *ristretto.Cache[string, []byte]
	mu    sync.RWMutex
}

// NewManager creates a manager whose byte cache holds up to maxBytes.
func NewManager(maxBytes int64) (*Manager, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10000,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating asset cache: %w", err)
	}
	return &Manager{cache: cache}, nil
}

// AddRoot adds a directory to search.
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("opening root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()

	logger.Debug("asset root added", zap.String("dir", dir))
	return nil
}

// Roots returns the search roots in the order they were added.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roots...)
}

// Path returns the file backing an asset name.
func (m *Manager) Path(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}

	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range Extensions {
			candidates = append(candidates, name+ext)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		for _, c := range candidates {
			p := filepath.Join(m.roots[i], filepath.FromSlash(c))
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// cacheKey folds the extension case so that every spelling of a file
// is dropped by Forget.
func cacheKey(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + strings.ToLower(ext)
}

// Load returns the raw bytes of an asset.
func (m *Manager) Load(name string) ([]byte, error) {
	key := cacheKey(name)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	p, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	m.cache.Set(key, data, int64(len(data)))
	m.cache.Wait()
	return data, nil
}

// Image decodes an asset as an image. PNG, BMP, GIF and JPEG are
// supported.
func (m *Manager) Image(name string) (image.Image, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	logger.Debug("asset decoded",
		zap.String("name", name),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return img, nil
}

// Forget drops cached bytes so the next Load reads from disk. The name is
// an asset name as reported by the watcher, so bytes loaded with an
// explicit image extension are dropped too. An empty name drops
// everything.
func (m *Manager) Forget(name string) {
	if name == "" {
		m.cache.Clear()
		return
	}
	key := cacheKey(name)
	m.cache.Del(key)
	for _, ext := range Extensions {
		m.cache.Del(key + ext)
	}
	m.cache.Wait()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses uint64) {
	return m.cache.Metrics.Hits(), m.cache.Metrics.Misses()
}

// Close releases the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	m.roots = nil
	m.mu.Unlock()
	m.cache.Close()
}

// NameOf returns the asset name of a file under root: the slash-separated
// relative path with a known image extension removed.
func NameOf(root, file string) (string, bool) {
	rel, err := filepath.Rel(root, file)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	name := filepath.ToSlash(rel)
	ext := strings.ToLower(path.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return strings.TrimSuffix(name, path.Ext(name)), true
		}
	}
	return name, true
}
