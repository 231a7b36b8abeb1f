package pool

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/config"
	"voxelnav/internal/world"
)

// Locator finds the best fluid landing zone below a point.
type Locator struct {
	cfg config.PoolConfig
}

func NewLocator(cfg config.PoolConfig) *Locator {
	return &Locator{cfg: cfg}
}

type candidate struct {
	centre mgl64.Vec3
	cells  int
	score  float64
}

// Locate returns the centroid of the best-scoring pool as (x, surfaceY+0.5, z).
// Pools score by horizontal distance minus a bonus per cell, so a large pool
// beats a nearer small one. ok is false when no fluid lies below.
func (l *Locator) Locate(q world.Query, from mgl64.Vec3) (mgl64.Vec3, bool) {
	origin := world.CellAt(from.X(), from.Y(), from.Z())
	seeds := l.seeds(q, origin)
	if len(seeds) == 0 {
		return mgl64.Vec3{}, false
	}

	visited := make(map[world.Cell]struct{})
	var best *candidate
	for _, seed := range seeds {
		if _, seen := visited[seed]; seen {
			continue
		}
		if !q.IsFluid(seed) {
			continue
		}
		c, ok := l.flood(q, seed, visited)
		if !ok {
			continue
		}
		c.score = math.Hypot(c.centre.X()-from.X(), c.centre.Z()-from.Z()) - float64(c.cells)*l.cfg.SizeWeight
		if best == nil || c.score < best.score {
			best = &c
		}
	}
	if best == nil {
		return mgl64.Vec3{}, false
	}
	return best.centre, true
}

// seeds scans square rings out to the scan radius and records the top cell of
// every contiguous fluid run in each column.
func (l *Locator) seeds(q world.Query, origin world.Cell) []world.Cell {
	var seeds []world.Cell
	for r := 0; r <= l.cfg.ScanRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if r > 0 && abs(dx) != r && abs(dz) != r {
					continue
				}
				inFluid := false
				for dy := 1; dy <= l.cfg.ScanDepth; dy++ {
					c := world.Cell{X: origin.X + dx, Y: origin.Y - dy, Z: origin.Z + dz}
					fluid := q.IsFluid(c)
					if fluid && !inFluid {
						seeds = append(seeds, c)
					}
					inFluid = fluid
				}
			}
		}
	}
	return seeds
}

var directions = [...]struct{ dx, dz int }{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// flood grows seed across its Y layer. The cell cap counts every cell queued,
// fluid or not, and all of them are marked in visited.
func (l *Locator) flood(q world.Query, seed world.Cell, visited map[world.Cell]struct{}) (candidate, bool) {
	local := map[world.Cell]struct{}{seed: {}}
	queue := []world.Cell{seed}
	var sumX, sumZ float64
	count := 0

	for len(queue) > 0 && len(local) < l.cfg.MaxPoolCells {
		cur := queue[0]
		queue = queue[1:]
		if !q.IsFluid(cur) {
			continue
		}
		sumX += float64(cur.X) + 0.5
		sumZ += float64(cur.Z) + 0.5
		count++
		for _, d := range directions {
			next := world.Cell{X: cur.X + d.dx, Y: seed.Y, Z: cur.Z + d.dz}
			if _, ok := local[next]; !ok {
				local[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}

	for c := range local {
		visited[c] = struct{}{}
	}
	if count == 0 {
		return candidate{}, false
	}
	return candidate{
		centre: mgl64.Vec3{sumX / float64(count), float64(seed.Y) + 0.5, sumZ / float64(count)},
		cells:  count,
	}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
