package steering

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelnav/internal/config"
	"voxelnav/internal/physics"
	"voxelnav/internal/world"
)

type recordingObserver struct {
	kinds []DecisionKind
}

func (r *recordingObserver) SteerDecided(kind DecisionKind) {
	r.kinds = append(r.kinds, kind)
}

func newTestSolver(t *testing.T) (*Solver, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	return NewSolver(config.Default().Steering, WithObserver(obs)), obs
}

// dropWorld is a deep pool at y=-4..0 under an open sky.
func dropWorld(t *testing.T) *world.Grid {
	t.Helper()
	grid := world.NewGrid()
	grid.Fill(world.Bounds{
		Min: world.Cell{X: -15, Y: -4, Z: -15},
		Max: world.Cell{X: 15, Y: 0, Z: 15},
	}, world.BlockFluid)
	return grid
}

var (
	dropStart  = physics.NewState(0.5, 60, 0.5, 0, 0, 0)
	dropTarget = mgl64.Vec3{0.5, 0.5, 10.5}
)

func TestBearing(t *testing.T) {
	origin := mgl64.Vec3{0, 0, 0}
	assert.InDelta(t, 0, Bearing(origin, mgl64.Vec3{0, 0, 5}), 1e-9)
	assert.InDelta(t, 90, Bearing(origin, mgl64.Vec3{-5, 0, 0}), 1e-9)
	assert.InDelta(t, -90, Bearing(origin, mgl64.Vec3{5, 0, 0}), 1e-9)
	assert.InDelta(t, 180, Bearing(origin, mgl64.Vec3{0, 0, -5}), 1e-9)
}

func TestComputeHeadingDirect(t *testing.T) {
	solver, obs := newTestSolver(t)
	grid := dropWorld(t)

	h := solver.ComputeHeading(grid, dropStart, dropTarget, nil)
	assert.InDelta(t, 0, h.Yaw, 1e-9)
	assert.Equal(t, 1, h.Forward)
	assert.Equal(t, 0, h.Sideways)
	assert.Equal(t, []DecisionKind{DecisionDirect}, obs.kinds)
	assert.Less(t, solver.Score(grid, dropStart, h.Yaw, dropTarget), 1000.0)
}

func TestComputeHeadingKeepsClearPreviousHeading(t *testing.T) {
	solver, obs := newTestSolver(t)
	grid := dropWorld(t)
	prev := Heading{Yaw: 10, Forward: 1}

	// direct would land closer, but the previous heading is still clear
	require.Less(t, solver.Score(grid, dropStart, 0, dropTarget), solver.Score(grid, dropStart, 10, dropTarget))

	for i := 0; i < 3; i++ {
		h := solver.ComputeHeading(grid, dropStart, dropTarget, &prev)
		assert.Equal(t, prev, h)
	}
	assert.Equal(t, []DecisionKind{DecisionHysteresis, DecisionHysteresis, DecisionHysteresis}, obs.kinds)
}

func TestComputeHeadingDodgesObstacle(t *testing.T) {
	solver, obs := newTestSolver(t)
	grid := dropWorld(t)
	// slab across the direct line, extending further toward +x than -x
	grid.Fill(world.Bounds{
		Min: world.Cell{X: -1, Y: 10, Z: 3},
		Max: world.Cell{X: 3, Y: 20, Z: 8},
	}, world.BlockSolid)

	require.GreaterOrEqual(t, solver.Score(grid, dropStart, 0, dropTarget), 100_000.0)

	h := solver.ComputeHeading(grid, dropStart, dropTarget, nil)
	assert.InDelta(t, 22.5, h.Yaw, 1e-9)
	assert.Equal(t, 1, h.Forward)
	assert.Equal(t, []DecisionKind{DecisionDodge}, obs.kinds)

	// a previous heading that now collides is dropped
	obs.kinds = nil
	blocked := Heading{Yaw: 0, Forward: 1}
	h = solver.ComputeHeading(grid, dropStart, dropTarget, &blocked)
	assert.InDelta(t, 22.5, h.Yaw, 1e-9)
	assert.Equal(t, []DecisionKind{DecisionDodge}, obs.kinds)
}

func TestComputeHeadingAllBlocked(t *testing.T) {
	solver, obs := newTestSolver(t)
	grid := world.NewGrid()
	grid.Fill(world.Bounds{
		Min: world.Cell{X: -30, Y: 30, Z: -30},
		Max: world.Cell{X: 30, Y: 30, Z: 30},
	}, world.BlockSolid)

	h := solver.ComputeHeading(grid, dropStart, dropTarget, nil)
	assert.InDelta(t, 0, h.Yaw, 1e-9, "equal penalties keep the direct bearing")
	assert.Equal(t, []DecisionKind{DecisionBlocked}, obs.kinds)
}

func TestScoreBands(t *testing.T) {
	solver, _ := newTestSolver(t)

	airborne := solver.Score(world.NewGrid(), dropStart, 0, dropTarget)
	assert.GreaterOrEqual(t, airborne, 50.0)
	assert.Less(t, airborne, 1000.0)

	early := world.NewGrid()
	early.Fill(world.Bounds{Min: world.Cell{X: -5, Y: 50, Z: -5}, Max: world.Cell{X: 5, Y: 50, Z: 5}}, world.BlockSolid)
	late := world.NewGrid()
	late.Fill(world.Bounds{Min: world.Cell{X: -5, Y: 10, Z: -5}, Max: world.Cell{X: 5, Y: 10, Z: 5}}, world.BlockSolid)
	assert.Greater(t, solver.Score(early, dropStart, 0, dropTarget), solver.Score(late, dropStart, 0, dropTarget))
}
