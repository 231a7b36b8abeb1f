package pathfinding

import "voxelnav/internal/world"

var cardinals = [...]struct{ dx, dz int }{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// standable reports whether a mover's feet can occupy c: two passable cells
// with solid ground underneath.
func standable(q world.Query, c world.Cell) bool {
	return world.Passable(q, c) && world.Passable(q, c.Up()) && q.IsSolid(c.Down())
}

func headroom(q world.Query, dst world.Cell) bool {
	return world.Passable(q, dst) && world.Passable(q, dst.Up())
}

// stepUpHeadroom also needs the cell above the mover's head to be clear for the jump.
func stepUpHeadroom(q world.Query, src, dst world.Cell) bool {
	return headroom(q, dst) && world.Passable(q, src.UpN(2))
}

func (n *Navigator) neighbors(q world.Query, pos world.Cell, canFly bool) []world.Cell {
	out := make([]world.Cell, 0, 14)
	for _, dir := range cardinals {
		level := pos.Add(dir.dx, 0, dir.dz)
		if standable(q, level) && headroom(q, level) {
			out = append(out, level)
		}

		up := level.Up()
		if standable(q, up) && stepUpHeadroom(q, pos, up) {
			out = append(out, up)
		}

		for drop := 1; drop <= n.cfg.MaxDrop; drop++ {
			down := level.DownN(drop)
			if standable(q, down) && headroom(q, level) {
				out = append(out, down)
				break
			}
		}
	}

	if canFly {
		if up := pos.Up(); world.Passable(q, up) && world.Passable(q, up.Up()) {
			out = append(out, up)
		}
		if down := pos.Down(); world.Passable(q, down) && world.Passable(q, pos) {
			out = append(out, down)
		}
	}
	return out
}
