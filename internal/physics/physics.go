package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/world"
)

// Per-tick constants for a body in free fall.
const (
	Gravity        = 0.08
	VerticalDrag   = 0.98
	HorizontalDrag = 0.91
	AirThrust      = 0.02
)

// State is an immutable snapshot of a falling body: feet position and velocity in blocks per tick.
type State struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3
}

func NewState(x, y, z, vx, vy, vz float64) State {
	return State{Pos: mgl64.Vec3{x, y, z}, Vel: mgl64.Vec3{vx, vy, vz}}
}

// Valid reports whether every component is finite. Step assumes valid input.
func (s State) Valid() bool {
	for i := 0; i < 3; i++ {
		if !finite(s.Pos[i]) || !finite(s.Vel[i]) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Step advances one tick. yaw is in degrees, forward and sideways are in {-1, 0, 1}
// with positive sideways meaning left. Thrust is added before drag, and velocity is
// updated before position.
func Step(s State, yaw float64, forward, sideways int) State {
	sin, cos := math.Sincos(mgl64.DegToRad(yaw))
	f, sw := float64(forward), float64(sideways)

	thrustX := (sw*cos - f*sin) * AirThrust
	thrustZ := (f*cos + sw*sin) * AirThrust

	vel := mgl64.Vec3{
		(s.Vel.X() + thrustX) * HorizontalDrag,
		(s.Vel.Y() - Gravity) * VerticalDrag,
		(s.Vel.Z() + thrustZ) * HorizontalDrag,
	}
	return State{Pos: s.Pos.Add(vel), Vel: vel}
}

// Body is an axis-aligned box centred on x/z with its base at the feet position.
type Body struct {
	HalfWidth float64
	Height    float64
}

// Player is the standard humanoid body: 0.6 wide and 1.8 tall.
var Player = Body{HalfWidth: 0.3, Height: 1.8}

// Collides reports whether the body at feet position pos overlaps a solid, non-fluid cell.
func (b Body) Collides(q world.Query, pos mgl64.Vec3) bool {
	x0 := int(math.Floor(pos.X() - b.HalfWidth))
	x1 := int(math.Floor(pos.X() + b.HalfWidth))
	y0 := int(math.Floor(pos.Y()))
	y1 := int(math.Floor(pos.Y() + b.Height - 0.001))
	z0 := int(math.Floor(pos.Z() - b.HalfWidth))
	z1 := int(math.Floor(pos.Z() + b.HalfWidth))

	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				c := world.Cell{X: x, Y: y, Z: z}
				if q.IsSolid(c) && !q.IsFluid(c) {
					return true
				}
			}
		}
	}
	return false
}

// Collides tests the player body at the state's position.
func Collides(q world.Query, s State) bool {
	return Player.Collides(q, s.Pos)
}

// InFluid checks only the cell containing the feet.
func InFluid(q world.Query, s State) bool {
	return q.IsFluid(FeetCell(s))
}

func FeetCell(s State) world.Cell {
	return world.CellAt(s.Pos.X(), s.Pos.Y(), s.Pos.Z())
}

// HorizontalDistance is the x/z distance from the state's position to (x, z).
func (s State) HorizontalDistance(x, z float64) float64 {
	return math.Hypot(s.Pos.X()-x, s.Pos.Z()-z)
}

// WrapDegrees maps an angle into (-180, 180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
