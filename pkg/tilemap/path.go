package tilemap

import (
	"container/heap"

	"github.com/Faultbox/rpgmap/pkg/tile"
)

// Walkable reports whether no layer of (x, y) holds a solid kind.
// Off-grid cells are never walkable.
func (g *Grid) Walkable(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	i := y*g.width + x
	for _, l := range tile.Layers {
		if g.registry.Kind(g.cells[l][i]).Solid {
			return false
		}
	}
	return true
}

// pathNode is an open-set entry of the search.
type pathNode struct {
	cell  int
	g, f  int
	index int
}

type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].cell < h[j].cell
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *pathHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*h = old[:len(old)-1]
	return n
}

// steps are tried in N, E, S, W order.
var steps = [4]tile.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// FindPath returns the shortest orthogonal walk from one cell to another,
// both ends included, using A* over Walkable cells. The start cell itself
// does not need to be walkable. It returns nil when the goal is off the
// grid, blocked, or unreachable.
func (g *Grid) FindPath(from, to tile.Point) []tile.Point {
	if !g.InBounds(from.X, from.Y) || !g.Walkable(to.X, to.Y) {
		return nil
	}

	start, goal := g.key(from), g.key(to)
	parent := make([]int, g.width*g.height)
	cost := make([]int, len(parent))
	closed := make([]bool, len(parent))
	nodes := make(map[int]*pathNode)
	for i := range parent {
		parent[i] = -1
		cost[i] = -1
	}

	open := &pathHeap{}
	cost[start] = 0
	first := &pathNode{cell: start, f: manhattan(from, to)}
	heap.Push(open, first)
	nodes[start] = first

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		delete(nodes, current.cell)
		if current.cell == goal {
			return g.reconstruct(parent, goal)
		}
		closed[current.cell] = true

		at := g.point(current.cell)
		for _, s := range steps {
			next := at.Add(s.X, s.Y)
			if !g.Walkable(next.X, next.Y) {
				continue
			}
			k := g.key(next)
			if closed[k] {
				continue
			}

			cg := current.g + 1
			if cost[k] >= 0 && cg >= cost[k] {
				continue
			}
			cost[k] = cg
			parent[k] = current.cell
			if n, ok := nodes[k]; ok {
				n.g = cg
				n.f = cg + manhattan(next, to)
				heap.Fix(open, n.index)
				continue
			}
			n := &pathNode{cell: k, g: cg, f: cg + manhattan(next, to)}
			heap.Push(open, n)
			nodes[k] = n
		}
	}
	return nil
}

func (g *Grid) key(p tile.Point) int { return p.Y*g.width + p.X }

func (g *Grid) point(k int) tile.Point {
	return tile.Point{X: k % g.width, Y: k / g.width}
}

func (g *Grid) reconstruct(parent []int, goal int) []tile.Point {
	var path []tile.Point
	for k := goal; k >= 0; k = parent[k] {
		path = append(path, g.point(k))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func manhattan(a, b tile.Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
