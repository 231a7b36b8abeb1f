package pool

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelnav/internal/config"
	"voxelnav/internal/world"
)

func newTestLocator(t *testing.T) *Locator {
	t.Helper()
	return NewLocator(config.Default().Pool)
}

func TestLocateNothingBelow(t *testing.T) {
	grid := world.NewGrid()
	grid.SetBedrock(0)

	_, ok := newTestLocator(t).Locate(grid, mgl64.Vec3{0.5, 20, 0.5})
	assert.False(t, ok)
}

func TestLocatePrefersLargePoolOverNearPuddle(t *testing.T) {
	grid := world.NewGrid()
	// single cell two blocks away
	grid.Set(world.Cell{X: 2, Y: 5, Z: 0}, world.BlockFluid)
	// 5x10 pool about ten blocks away
	grid.Fill(world.Bounds{
		Min: world.Cell{X: 8, Y: 5, Z: -5},
		Max: world.Cell{X: 12, Y: 5, Z: 4},
	}, world.BlockFluid)

	target, ok := newTestLocator(t).Locate(grid, mgl64.Vec3{0.5, 20, 0.5})
	require.True(t, ok)
	assert.InDelta(t, 10.5, target.X(), 1e-9)
	assert.InDelta(t, 5.5, target.Y(), 1e-9)
	assert.InDelta(t, 0.0, target.Z(), 1e-9)
}

func TestLocateSeesPoolBelowDecoration(t *testing.T) {
	grid := world.NewGrid()
	grid.Set(world.Cell{X: 0, Y: 15, Z: 0}, world.BlockFluid)
	grid.Fill(world.Bounds{
		Min: world.Cell{X: -3, Y: 2, Z: -3},
		Max: world.Cell{X: 3, Y: 2, Z: 3},
	}, world.BlockFluid)

	loc := newTestLocator(t)
	seeds := loc.seeds(grid, world.Cell{X: 0, Y: 20, Z: 0})
	assert.Contains(t, seeds, world.Cell{X: 0, Y: 15, Z: 0})
	assert.Contains(t, seeds, world.Cell{X: 0, Y: 2, Z: 0})

	target, ok := loc.Locate(grid, mgl64.Vec3{0.5, 20, 0.5})
	require.True(t, ok)
	assert.InDelta(t, 2.5, target.Y(), 1e-9)
	assert.InDelta(t, 0.5, target.X(), 1e-9)
	assert.InDelta(t, 0.5, target.Z(), 1e-9)
}

func TestLocateDeepPoolSeedsOnlyTopOfRun(t *testing.T) {
	grid := world.NewGrid()
	grid.Fill(world.Bounds{
		Min: world.Cell{X: 0, Y: 0, Z: 0},
		Max: world.Cell{X: 0, Y: 6, Z: 0},
	}, world.BlockFluid)

	seeds := newTestLocator(t).seeds(grid, world.Cell{X: 0, Y: 10, Z: 0})
	assert.Equal(t, []world.Cell{{X: 0, Y: 6, Z: 0}}, seeds)
}

func TestFloodRespectsCellCap(t *testing.T) {
	grid := world.NewGrid()
	grid.Fill(world.Bounds{
		Min: world.Cell{X: -40, Y: 0, Z: -40},
		Max: world.Cell{X: 40, Y: 0, Z: 40},
	}, world.BlockFluid)

	loc := newTestLocator(t)
	visited := make(map[world.Cell]struct{})
	c, ok := loc.flood(grid, world.Cell{X: 0, Y: 0, Z: 0}, visited)
	require.True(t, ok)
	assert.Less(t, c.cells, 200)
	assert.Positive(t, c.cells)
	assert.GreaterOrEqual(t, len(visited), 200)
	for cell := range visited {
		assert.Equal(t, 0, cell.Y)
	}
}

func TestLocateScansOnlyWithinRadius(t *testing.T) {
	grid := world.NewGrid()
	grid.Set(world.Cell{X: 11, Y: 0, Z: 0}, world.BlockFluid)

	_, ok := newTestLocator(t).Locate(grid, mgl64.Vec3{0.5, 20, 0.5})
	assert.False(t, ok)

	grid.Set(world.Cell{X: 10, Y: 0, Z: 0}, world.BlockFluid)
	target, ok := newTestLocator(t).Locate(grid, mgl64.Vec3{0.5, 20, 0.5})
	require.True(t, ok)
	assert.InDelta(t, 11.0, target.X(), 1e-9, "the flood still reaches cells beyond the scan radius")
}
