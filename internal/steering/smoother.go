package steering

import (
	"math"
	"time"

	"voxelnav/internal/physics"
)

// Smoother turns a camera toward a target yaw at a fixed angular speed. It is
// driven per render frame, independently of the tick rate.
type Smoother struct {
	speed    float64 // degrees per second
	maxDelta time.Duration
	current  float64
	last     time.Time
	seeded   bool
}

func NewSmoother(degreesPerSecond float64, maxDelta time.Duration) *Smoother {
	return &Smoother{speed: degreesPerSecond, maxDelta: maxDelta}
}

// Frame returns the yaw to apply at now. The first frame after a Reset adopts
// actual as-is; later frames step along the shortest arc toward target.
func (s *Smoother) Frame(now time.Time, target, actual float64) float64 {
	if !s.seeded {
		s.seeded = true
		s.current = actual
		s.last = now
		return s.current
	}

	dt := now.Sub(s.last)
	s.last = now
	if dt > s.maxDelta {
		dt = s.maxDelta
	}
	if dt < 0 {
		dt = 0
	}

	diff := physics.WrapDegrees(target - s.current)
	maxStep := s.speed * dt.Seconds()
	if math.Abs(diff) <= maxStep {
		s.current += diff
	} else {
		s.current += math.Copysign(maxStep, diff)
	}
	return s.current
}

func (s *Smoother) Reset() {
	s.seeded = false
}
