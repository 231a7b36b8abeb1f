package navigation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/world"
)

var faces = [...]struct {
	offset world.Cell
	centre mgl64.Vec3
}{
	{world.Cell{X: 0, Y: 1, Z: 0}, mgl64.Vec3{0.5, 1.0, 0.5}},
	{world.Cell{X: 0, Y: -1, Z: 0}, mgl64.Vec3{0.5, 0.0, 0.5}},
	{world.Cell{X: 1, Y: 0, Z: 0}, mgl64.Vec3{1.0, 0.5, 0.5}},
	{world.Cell{X: -1, Y: 0, Z: 0}, mgl64.Vec3{0.0, 0.5, 0.5}},
	{world.Cell{X: 0, Y: 0, Z: 1}, mgl64.Vec3{0.5, 0.5, 1.0}},
	{world.Cell{X: 0, Y: 0, Z: -1}, mgl64.Vec3{0.5, 0.5, 0.0}},
}

// ExposedFaceAim returns the centre of the face of target nearest to eye whose
// neighbour is not a full cube. ok is false when every face is covered.
func ExposedFaceAim(q world.Query, target world.Cell, eye mgl64.Vec3) (mgl64.Vec3, bool) {
	base := cellOrigin(target)
	best := math.MaxFloat64
	var aim mgl64.Vec3
	found := false
	for _, f := range faces {
		neighbour := target.Add(f.offset.X, f.offset.Y, f.offset.Z)
		if !q.IsFullyPassable(neighbour) {
			continue
		}
		point := base.Add(f.centre)
		if d := point.Sub(eye).LenSqr(); d < best {
			best, aim, found = d, point, true
		}
	}
	return aim, found
}

func cellOrigin(c world.Cell) mgl64.Vec3 {
	return mgl64.Vec3{float64(c.X), float64(c.Y), float64(c.Z)}
}

func cellCentre(c world.Cell) mgl64.Vec3 {
	return cellOrigin(c).Add(mgl64.Vec3{0.5, 0.5, 0.5})
}

// lookAngles returns the yaw and pitch in degrees that point eye at p.
// Pitch is positive looking down.
func lookAngles(eye, p mgl64.Vec3) (yaw, pitch float64) {
	d := p.Sub(eye)
	horizontal := math.Hypot(d.X(), d.Z())
	yaw = mgl64.RadToDeg(math.Atan2(-d.X(), d.Z()))
	pitch = mgl64.Clamp(mgl64.RadToDeg(-math.Atan2(d.Y(), horizontal)), -90, 90)
	return yaw, pitch
}
