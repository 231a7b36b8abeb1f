package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelnav/internal/world"
)

func TestStepIsDeterministic(t *testing.T) {
	s := NewState(0.25, 64, -3.75, 0.1, -0.4, 0.05)
	a := Step(s, 37.5, 1, -1)
	b := Step(s, 37.5, 1, -1)
	if a != b {
		t.Fatalf("identical inputs produced %v and %v", a, b)
	}
	assert.Equal(t, NewState(0.25, 64, -3.75, 0.1, -0.4, 0.05), s, "input must not be mutated")
}

func TestStepAppliesThrustBeforeDrag(t *testing.T) {
	// yaw 0 faces +Z, so forward thrust lands entirely on vz
	next := Step(NewState(0, 0, 0, 0, 0, 0), 0, 1, 0)
	assert.InDelta(t, 0, next.Vel.X(), 1e-12)
	assert.InDelta(t, AirThrust*HorizontalDrag, next.Vel.Z(), 1e-12)
	assert.InDelta(t, -Gravity*VerticalDrag, next.Vel.Y(), 1e-12)
	assert.Equal(t, next.Vel, next.Pos, "position advances by the new velocity")

	// yaw 90 faces -X
	west := Step(NewState(0, 0, 0, 0, 0, 0), 90, 1, 0)
	assert.InDelta(t, -AirThrust*HorizontalDrag, west.Vel.X(), 1e-12)
	assert.InDelta(t, 0, west.Vel.Z(), 1e-12)

	// positive sideways at yaw 0 pushes +X
	left := Step(NewState(0, 0, 0, 0, 0, 0), 0, 0, 1)
	assert.InDelta(t, AirThrust*HorizontalDrag, left.Vel.X(), 1e-12)
}

func TestDragMonotonicity(t *testing.T) {
	s := NewState(0, 200, 0, 0.8, 0, -0.6)
	for i := 0; i < 400; i++ {
		next := Step(s, 0, 0, 0)
		if math.Abs(next.Vel.X()) >= math.Abs(s.Vel.X()) && s.Vel.X() != 0 {
			t.Fatalf("tick %d: |vx| did not shrink: %v -> %v", i, s.Vel.X(), next.Vel.X())
		}
		if math.Abs(next.Vel.Z()) >= math.Abs(s.Vel.Z()) && s.Vel.Z() != 0 {
			t.Fatalf("tick %d: |vz| did not shrink: %v -> %v", i, s.Vel.Z(), next.Vel.Z())
		}
		if next.Vel.Y() >= s.Vel.Y() {
			t.Fatalf("tick %d: vy should keep falling toward terminal velocity", i)
		}
		s = next
	}
	terminal := -Gravity * VerticalDrag / (1 - VerticalDrag)
	assert.InDelta(t, terminal, s.Vel.Y(), 5e-3)
	assert.InDelta(t, -3.92, terminal, 1e-9)
}

func TestValidRejectsNonFinite(t *testing.T) {
	assert.True(t, NewState(1, 2, 3, 0, 0, 0).Valid())
	assert.False(t, NewState(math.NaN(), 2, 3, 0, 0, 0).Valid())
	assert.False(t, NewState(1, 2, 3, 0, math.Inf(-1), 0).Valid())
}

func TestCollidesIgnoresFluid(t *testing.T) {
	grid := world.NewGrid()
	grid.Set(world.Cell{X: 1, Y: 0, Z: 0}, world.BlockSolid)
	grid.Set(world.Cell{X: -1, Y: 0, Z: 0}, world.BlockFluid)

	assert.False(t, Collides(grid, NewState(0.5, 0, 0.5, 0, 0, 0)))
	assert.True(t, Collides(grid, NewState(0.75, 0, 0.5, 0, 0, 0)), "box edge reaches x=1.05")
	assert.False(t, Collides(grid, NewState(0.25, 0, 0.5, 0, 0, 0)), "fluid on the other side never collides")
	assert.False(t, Collides(grid, NewState(0.5, -1.5, 0.5, 0, 0, 0)))

	head := world.NewGrid()
	head.Set(world.Cell{X: 0, Y: 2, Z: 0}, world.BlockSolid)
	assert.False(t, Collides(head, NewState(0.5, 0.2, 0.5, 0, 0, 0)), "top of box stops just below y=2")
	assert.True(t, Collides(head, NewState(0.5, 0.3, 0.5, 0, 0, 0)))

	assert.True(t, Player.Collides(head, mgl64.Vec3{0.5, 1, 0.5}))
}

func TestInFluidChecksFeetCell(t *testing.T) {
	grid := world.NewGrid()
	grid.Set(world.Cell{X: 0, Y: 0, Z: 0}, world.BlockFluid)

	assert.True(t, InFluid(grid, NewState(0.9, 0.1, 0.9, 0, 0, 0)))
	assert.False(t, InFluid(grid, NewState(0.9, 1.0, 0.9, 0, 0, 0)))
	assert.False(t, InFluid(grid, NewState(-0.1, 0.5, 0.5, 0, 0, 0)))
}

func TestSimulateOutcomes(t *testing.T) {
	grid := world.NewGrid()
	grid.Fill(world.Bounds{Min: world.Cell{X: -3, Y: -5, Z: -3}, Max: world.Cell{X: 3, Y: 0, Z: 3}}, world.BlockFluid)
	start := NewState(0.5, 30, 0.5, 0, 0, 0)

	out := Simulate(grid, start, 0, 0, 0, 200, 8)
	require.Equal(t, Landed, out.Kind)
	assert.True(t, grid.IsFluid(FeetCell(out.Final)))
	assert.InDelta(t, 0.5, out.Final.Pos.X(), 1e-9, "no input means no drift")

	grid.Set(world.Cell{X: 0, Y: 10, Z: 0}, world.BlockSolid)
	out = Simulate(grid, start, 0, 0, 0, 200, 8)
	require.Equal(t, Collided, out.Kind)
	assert.Equal(t, "collided", out.Kind.String())

	out = Simulate(world.NewGrid(), start, 0, 0, 0, 5, 0)
	assert.Equal(t, Airborne, out.Kind)
	assert.Equal(t, 5, out.Tick)
}

func TestSimulateGraceSkipsLaunchPlatform(t *testing.T) {
	grid := world.NewGrid()
	grid.Set(world.Cell{X: 0, Y: 9, Z: 0}, world.BlockSolid)
	start := NewState(0.5, 10, 0.5, 0, 0, 0)

	assert.Equal(t, Collided, Simulate(grid, start, 0, 0, 0, 20, 0).Kind)
	assert.Equal(t, Airborne, Simulate(grid, start, 0, 0, 0, 20, 8).Kind)
}

func TestWrapDegrees(t *testing.T) {
	assert.InDelta(t, -170.0, WrapDegrees(190), 1e-9)
	assert.InDelta(t, 170.0, WrapDegrees(-190), 1e-9)
	assert.InDelta(t, 180.0, WrapDegrees(-180), 1e-9)
	assert.InDelta(t, 0.0, WrapDegrees(720), 1e-9)
}
