package steering

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/config"
	"voxelnav/internal/physics"
	"voxelnav/internal/world"
)

// Heading is one tick of control input: a world yaw in degrees plus key intents.
type Heading struct {
	Yaw      float64
	Forward  int
	Sideways int
}

// DecisionKind names the branch ComputeHeading took.
type DecisionKind string

const (
	DecisionHysteresis DecisionKind = "hysteresis"
	DecisionDirect     DecisionKind = "direct"
	DecisionDodge      DecisionKind = "dodge"
	DecisionBlocked    DecisionKind = "blocked"
)

// Observer is notified of every steering decision.
type Observer interface {
	SteerDecided(kind DecisionKind)
}

// Solver picks headings for a falling body by simulating each candidate forward.
type Solver struct {
	cfg      config.SteeringConfig
	observer Observer
}

type SolverOption func(*Solver)

func WithObserver(observer Observer) SolverOption {
	return func(s *Solver) {
		s.observer = observer
	}
}

func NewSolver(cfg config.SteeringConfig, opts ...SolverOption) *Solver {
	s := &Solver{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bearing returns the yaw in degrees that faces from toward to on the x/z plane.
// Yaw 0 faces +Z and yaw 90 faces -X.
func Bearing(from, to mgl64.Vec3) float64 {
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	return mgl64.RadToDeg(math.Atan2(-dx, dz))
}

// ComputeHeading keeps prev while it still clears every obstacle, otherwise heads
// straight for target, otherwise sweeps alternating offsets from the direct bearing
// and takes the first clear one. If nothing is clear the lowest score wins.
// Steering is always expressed as yaw with forward held.
func (s *Solver) ComputeHeading(q world.Query, state physics.State, target mgl64.Vec3, prev *Heading) Heading {
	if prev != nil && s.Score(q, state, prev.Yaw, target) < s.cfg.BlockedThreshold {
		s.decided(DecisionHysteresis)
		return Heading{Yaw: prev.Yaw, Forward: 1}
	}

	direct := Bearing(state.Pos, target)
	bestYaw, bestScore := direct, s.Score(q, state, direct, target)
	if bestScore < s.cfg.BlockedThreshold {
		s.decided(DecisionDirect)
		return Heading{Yaw: direct, Forward: 1}
	}

	increment := 360.0 / float64(s.cfg.DodgeDirections)
	for i := 1; i <= s.cfg.DodgeDirections/2; i++ {
		offset := float64(i) * increment
		for _, yaw := range [2]float64{direct + offset, direct - offset} {
			if score := s.Score(q, state, yaw, target); score < bestScore {
				bestYaw, bestScore = yaw, score
			}
		}
		if bestScore < s.cfg.BlockedThreshold {
			s.decided(DecisionDodge)
			return Heading{Yaw: bestYaw, Forward: 1}
		}
	}

	s.decided(DecisionBlocked)
	return Heading{Yaw: bestYaw, Forward: 1}
}

// Score simulates holding forward at yaw. Lower is better; anything at or above
// the blocked threshold hit a solid cell, and earlier hits score worse.
func (s *Solver) Score(q world.Query, state physics.State, yaw float64, target mgl64.Vec3) float64 {
	out := physics.Simulate(q, state, yaw, 1, 0, s.cfg.Lookahead, s.cfg.GraceTicks)
	remaining := out.Final.HorizontalDistance(target.X(), target.Z())
	switch out.Kind {
	case physics.Collided:
		return 100_000 + float64(s.cfg.Lookahead-out.Tick)*500
	case physics.Landed:
		return remaining
	default:
		return 50 + remaining
	}
}

func (s *Solver) decided(kind DecisionKind) {
	if s.observer != nil {
		s.observer.SteerDecided(kind)
	}
}
