package main

import (
	"path/filepath"
	"testing"

	"github.com/Faultbox/rpgmap/pkg/tile"
)

func TestPingPong(t *testing.T) {
	route := []tile.Point{{X: 0}, {X: 1}, {X: 2}}

	expected := []int{0, 1, 2, 1, 0, 1, 2}
	for step, x := range expected {
		if got := pingPong(route, step); got.X != x {
			t.Errorf("step %d: expected x=%d, got %v", step, x, got)
		}
	}
	if got := pingPong(route[:1], 5); got != route[0] {
		t.Errorf("single-cell route: expected %v, got %v", route[0], got)
	}
}

func TestWalkRoute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.map")
	if err := writeDemoMap(path, "demo", 16, 12); err != nil {
		t.Fatalf("writeDemoMap failed: %v", err)
	}
	grid, _, err := loadGrid(path)
	if err != nil {
		t.Fatalf("loadGrid failed: %v", err)
	}

	route := walkRoute(grid)
	if len(route) == 0 {
		t.Fatal("expected a route across the demo map")
	}
	if route[0].X != 0 || route[len(route)-1].X != grid.Width()-1 {
		t.Errorf("route should cross the map, got %v to %v", route[0], route[len(route)-1])
	}
	for _, p := range route {
		if !grid.Walkable(p.X, p.Y) {
			t.Errorf("route crosses blocked cell %v", p)
		}
	}
}
