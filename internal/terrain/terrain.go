package terrain

import (
	"context"
	"io"
	"log"
	"math"

	"github.com/aquilax/go-perlin"

	"voxelnav/internal/config"
	"voxelnav/internal/world"
)

// Generator builds repeatable rolling terrain from Perlin noise. Columns whose
// surface sits below the water level are topped up with fluid.
type Generator struct {
	cfg    config.TerrainConfig
	noise  *perlin.Perlin
	logger *log.Logger
}

type Option func(*Generator)

func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGenerator(cfg config.TerrainConfig, opts ...Option) *Generator {
	g := &Generator{
		cfg:    cfg,
		noise:  perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Height returns the Y of the topmost solid block of column (x, z).
func (g *Generator) Height(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.cfg.Frequency, float64(z)*g.cfg.Frequency)
	n = math.Max(-1, math.Min(1, n))
	return g.cfg.BaseHeight + int(math.Round(n*g.cfg.Amplitude))
}

// Generate fills every column in the inclusive x/z rectangle [min, max]. The grid
// has bedrock at y=-1 so nothing falls out of the world.
func (g *Generator) Generate(ctx context.Context, min, max world.ColumnCoord) (*world.Grid, error) {
	grid := world.NewGrid()
	grid.SetBedrock(-1)

	total := (max.X - min.X + 1) * (max.Z - min.Z + 1)
	water := 0
	for x := min.X; x <= max.X; x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for z := min.Z; z <= max.Z; z++ {
			top := g.Height(x, z)
			if top >= 0 {
				grid.Fill(world.Bounds{
					Min: world.Cell{X: x, Y: 0, Z: z},
					Max: world.Cell{X: x, Y: top, Z: z},
				}, world.BlockSolid)
			}
			if top < g.cfg.WaterLevel {
				grid.Fill(world.Bounds{
					Min: world.Cell{X: x, Y: top + 1, Z: z},
					Max: world.Cell{X: x, Y: g.cfg.WaterLevel, Z: z},
				}, world.BlockFluid)
				water++
			}
		}
	}
	g.logger.Printf("generated %d columns (%d flooded) seed=%d", total, water, g.cfg.Seed)
	return grid, nil
}

// DropArena is a bedrock floor at y=-depth-1 with a square fluid pool of the
// given radius centred on pool. The pool's surface is at y=0.
func DropArena(pool world.ColumnCoord, radius, depth int) *world.Grid {
	grid := world.NewGrid()
	grid.SetBedrock(-depth - 1)
	grid.Fill(world.Bounds{
		Min: world.Cell{X: pool.X - radius, Y: -depth, Z: pool.Z - radius},
		Max: world.Cell{X: pool.X + radius, Y: 0, Z: pool.Z + radius},
	}, world.BlockFluid)
	return grid
}
