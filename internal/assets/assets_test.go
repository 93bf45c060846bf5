package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, path string, c color.RGBA, encode func(*bytes.Buffer, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	if err := encode(buf, img); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func encodePNG(buf *bytes.Buffer, img image.Image) error { return png.Encode(buf, img) }
func encodeBMP(buf *bytes.Buffer, img image.Image) error { return bmp.Encode(buf, img) }

func newTestManager(t *testing.T, roots ...string) *Manager {
	t.Helper()
	m, err := NewManager(1 << 20)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	for _, r := range roots {
		if err := m.AddRoot(r); err != nil {
			t.Fatalf("AddRoot failed: %v", err)
		}
	}
	return m
}

func TestManager_Image(t *testing.T) {
	root := t.TempDir()
	green := color.RGBA{G: 255, A: 255}
	writeImage(t, filepath.Join(root, "grass.png"), green, encodePNG)
	writeImage(t, filepath.Join(root, "terrain", "dirt.bmp"), color.RGBA{R: 100, A: 255}, encodeBMP)

	m := newTestManager(t, root)

	img, err := m.Image("grass")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	r, g, _, _ := img.At(1, 1).RGBA()
	if r != 0 || g != 0xffff {
		t.Errorf("unexpected pixel %v", img.At(1, 1))
	}

	if _, err := m.Image("terrain/dirt"); err != nil {
		t.Errorf("expected bmp to decode, got %v", err)
	}
	if _, err := m.Image("grass.png"); err != nil {
		t.Errorf("expected explicit extension to work, got %v", err)
	}
}

func TestManager_RootPriority(t *testing.T) {
	base, mod := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(base, "grass.png"), color.RGBA{G: 255, A: 255}, encodePNG)
	writeImage(t, filepath.Join(base, "dirt.png"), color.RGBA{R: 255, A: 255}, encodePNG)
	writeImage(t, filepath.Join(mod, "grass.png"), color.RGBA{B: 255, A: 255}, encodePNG)

	m := newTestManager(t, base, mod)

	p, err := m.Path("grass")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if filepath.Dir(p) != mod {
		t.Errorf("expected last root to win, got %s", p)
	}
	if p, _ := m.Path("dirt"); filepath.Dir(p) != base {
		t.Errorf("expected fallback to earlier root, got %s", p)
	}
}

func TestManager_NotFound(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	for _, name := range []string{"missing", "../escape", "/abs"} {
		if _, err := m.Load(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("%q: expected ErrNotFound, got %v", name, err)
		}
	}
	if err := m.AddRoot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestManager_CacheAndForget(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "grass.png")
	writeImage(t, path, color.RGBA{G: 255, A: 255}, encodePNG)

	m := newTestManager(t, root)
	first, err := m.Load("grass")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeImage(t, path, color.RGBA{B: 255, A: 255}, encodePNG)
	cached, err := m.Load("grass")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(first, cached) {
		t.Error("expected cached bytes before Forget")
	}
	if hits, _ := m.Stats(); hits == 0 {
		t.Error("expected a cache hit")
	}

	m.Forget("grass")
	fresh, err := m.Load("grass")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if bytes.Equal(first, fresh) {
		t.Error("expected fresh bytes after Forget")
	}
}

func TestManager_ForgetByAssetName(t *testing.T) {
	root := t.TempDir()
	files := []string{"grass.png", "terrain/dirt.BMP", "terrain/sand.jpeg"}

	m := newTestManager(t, root)
	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := m.Load(file); err != nil {
			t.Fatalf("Load(%q) failed: %v", file, err)
		}
	}

	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file))
		if err := os.WriteFile(path, []byte("new"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		name, ok := NameOf(root, path)
		if !ok {
			t.Fatalf("NameOf(%s) failed", path)
		}
		m.Forget(name)

		data, err := m.Load(file)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", file, err)
		}
		if string(data) != "new" {
			t.Errorf("%q: stale bytes %q after change to %q", file, data, name)
		}
	}
}

func TestNameOf(t *testing.T) {
	root := filepath.FromSlash("/data/tiles")
	tests := []struct {
		file     string
		expected string
		ok       bool
	}{
		{"/data/tiles/grass.png", "grass", true},
		{"/data/tiles/terrain/dirt.BMP", "terrain/dirt", true},
		{"/data/tiles/readme.txt", "readme.txt", true},
		{"/data/other/grass.png", "", false},
	}
	for _, tc := range tests {
		name, ok := NameOf(root, filepath.FromSlash(tc.file))
		if name != tc.expected || ok != tc.ok {
			t.Errorf("%s: expected %q %v, got %q %v", tc.file, tc.expected, tc.ok, name, ok)
		}
	}
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	names, err := m.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeImage(t, filepath.Join(root, "water.png"), color.RGBA{B: 255, A: 255}, encodePNG)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case name := <-names:
			if name == "water" {
				cancel()
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for change")
		}
	}
}
