package pathfinding

import "voxelnav/internal/world"

func reconstruct(node *pathNode) []world.Cell {
	var path []world.Cell
	for ; node != nil; node = node.parent {
		path = append(path, node.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// simplify keeps the endpoints and every cell where the step vector changes.
func simplify(path []world.Cell) Route {
	if len(path) <= 2 {
		return Route(path)
	}
	out := make(Route, 0, len(path))
	out = append(out, path[0])
	for i := 1; i < len(path)-1; i++ {
		if step(path[i-1], path[i]) != step(path[i], path[i+1]) {
			out = append(out, path[i])
		}
	}
	return append(out, path[len(path)-1])
}

func step(from, to world.Cell) world.Cell {
	return world.Cell{X: to.X - from.X, Y: to.Y - from.Y, Z: to.Z - from.Z}
}

// Last returns the final waypoint.
func (r Route) Last() (world.Cell, bool) {
	if len(r) == 0 {
		return world.Cell{}, false
	}
	return r[len(r)-1], true
}
