package tilemap

import (
	"testing"

	"github.com/Faultbox/rpgmap/pkg/tile"
)

// pathGrid creates a width x height grid with solid rocks at the given cells.
func pathGrid(t *testing.T, width, height int, blocked ...tile.Point) *Grid {
	t.Helper()

	reg := tile.NewRegistry()
	rock := reg.MustRegister(tile.Kind{ID: "rock", Layer: tile.Decoration, Solid: true})
	g, err := New(reg, width, height)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, b := range blocked {
		if err := g.Set(tile.Decoration, b.X, b.Y, rock); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	return g
}

func checkPath(t *testing.T, g *Grid, path []tile.Point, from, to tile.Point) {
	t.Helper()

	if len(path) == 0 {
		t.Fatal("expected path, got nil")
	}
	if path[0] != from {
		t.Errorf("path should start at %v, got %v", from, path[0])
	}
	if path[len(path)-1] != to {
		t.Errorf("path should end at %v, got %v", to, path[len(path)-1])
	}
	for i := 1; i < len(path); i++ {
		if manhattan(path[i-1], path[i]) != 1 {
			t.Errorf("step %d from %v to %v is not orthogonal", i, path[i-1], path[i])
		}
		if !g.Walkable(path[i].X, path[i].Y) {
			t.Errorf("path goes through blocked cell %v", path[i])
		}
	}
}

func TestFindPath_Simple(t *testing.T) {
	g := pathGrid(t, 5, 5)
	from, to := tile.Point{X: 0, Y: 0}, tile.Point{X: 4, Y: 4}

	path := g.FindPath(from, to)
	checkPath(t, g, path, from, to)
	if len(path) != 9 {
		t.Errorf("expected 9 cells, got %d", len(path))
	}
}

func TestFindPath_WithObstacle(t *testing.T) {
	// Wall in the middle column with a gap at the bottom.
	g := pathGrid(t, 5, 5,
		tile.Point{X: 2, Y: 0}, tile.Point{X: 2, Y: 1}, tile.Point{X: 2, Y: 2}, tile.Point{X: 2, Y: 3})
	from, to := tile.Point{X: 0, Y: 0}, tile.Point{X: 4, Y: 0}

	path := g.FindPath(from, to)
	checkPath(t, g, path, from, to)
	if len(path) != 13 {
		t.Errorf("expected the detour through the gap (13 cells), got %d", len(path))
	}
}

func TestFindPath_NoPath(t *testing.T) {
	tests := []struct {
		name    string
		blocked []tile.Point
		to      tile.Point
	}{
		{"walled off", []tile.Point{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 2}}, tile.Point{X: 4, Y: 1}},
		{"blocked goal", []tile.Point{{X: 4, Y: 1}}, tile.Point{X: 4, Y: 1}},
		{"off grid", nil, tile.Point{X: 5, Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := pathGrid(t, 5, 3, tt.blocked...)
			if path := g.FindPath(tile.Point{X: 0, Y: 1}, tt.to); path != nil {
				t.Errorf("expected nil, got %v", path)
			}
		})
	}
}

func TestFindPath_SameCell(t *testing.T) {
	g := pathGrid(t, 3, 3)
	p := tile.Point{X: 1, Y: 1}

	path := g.FindPath(p, p)
	if len(path) != 1 || path[0] != p {
		t.Errorf("expected single-cell path, got %v", path)
	}
}

func TestWalkable(t *testing.T) {
	g := pathGrid(t, 3, 3, tile.Point{X: 1, Y: 1})

	tests := []struct {
		x, y     int
		expected bool
	}{
		{0, 0, true},
		{1, 1, false},
		{-1, 0, false},
		{3, 0, false},
	}
	for _, tc := range tests {
		if got := g.Walkable(tc.x, tc.y); got != tc.expected {
			t.Errorf("Walkable(%d, %d) = %v, expected %v", tc.x, tc.y, got, tc.expected)
		}
	}
}
