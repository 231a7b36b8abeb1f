package physics

import "voxelnav/internal/world"

type OutcomeKind int

const (
	// Airborne means the lookahead ran out before anything was hit.
	Airborne OutcomeKind = iota
	Landed
	Collided
)

func (k OutcomeKind) String() string {
	switch k {
	case Landed:
		return "landed"
	case Collided:
		return "collided"
	default:
		return "airborne"
	}
}

// Outcome describes how a simulated fall ended.
type Outcome struct {
	Kind  OutcomeKind
	Tick  int
	Final State
}

// Simulate steps s with a constant input for up to ticks steps. Collisions are
// ignored for the first grace ticks since the body starts overlapping its launch
// platform and nothing resolves that contact.
func Simulate(q world.Query, s State, yaw float64, forward, sideways, ticks, grace int) Outcome {
	for t := 0; t < ticks; t++ {
		s = Step(s, yaw, forward, sideways)
		if t >= grace && Collides(q, s) {
			return Outcome{Kind: Collided, Tick: t, Final: s}
		}
		if InFluid(q, s) {
			return Outcome{Kind: Landed, Tick: t, Final: s}
		}
	}
	return Outcome{Kind: Airborne, Tick: ticks, Final: s}
}
