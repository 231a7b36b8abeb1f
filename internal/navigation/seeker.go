package navigation

import (
	"context"
	"errors"
	"io"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"voxelnav/internal/config"
	"voxelnav/internal/pathfinding"
	"voxelnav/internal/physics"
	"voxelnav/internal/world"
)

// Router computes walking routes.
type Router interface {
	FindPath(ctx context.Context, q world.Query, start, goal world.Cell, canFly bool, reach float64) (pathfinding.Route, error)
}

// Observation is the host's view of the avatar for one tick.
type Observation struct {
	Position   mgl64.Vec3 // feet
	EyeHeight  float64    // zero uses the configured default
	Yaw        float64
	Pitch      float64
	CanFly     bool
	Flying     bool
	TargetGone bool // the current target no longer exists in the world
}

// Output is the seeker's actuation request for one tick.
type Output struct {
	Active    bool
	Done      bool // the candidate set ran dry and the seeker stopped
	Phase     Phase
	Yaw       float64
	Pitch     float64
	Forward   bool
	Jump      bool
	Use       bool
	FlyToggle bool
	Target    *world.Cell
	Waypoint  *world.Cell
}

type commandKind int

const (
	cmdStart commandKind = iota + 1
	cmdStop
	cmdSetTargets
)

// Command is a queued request applied at the start of the next Tick.
type Command struct {
	kind    commandKind
	targets []world.Cell
}

// Seeker walks an avatar to a sequence of target cells and interacts with each.
type Seeker struct {
	cfg      config.NavigationConfig
	router   Router
	logger   *log.Logger
	observer Observer

	commands chan Command

	active     bool
	activation uuid.UUID
	phase      Phase
	candidates []world.Cell
	target     *world.Cell

	route    pathfinding.Route
	routeIdx int
	waypoint *world.Cell
	cooldown int

	anchor  mgl64.Vec3
	stuck   int
	jumping bool

	interactTicks int
	attempts      int
	flyTap        int
}

type Option func(*Seeker)

func WithLogger(logger *log.Logger) Option {
	return func(s *Seeker) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Seeker) {
		s.observer = observer
	}
}

func NewSeeker(cfg config.NavigationConfig, router Router, opts ...Option) *Seeker {
	s := &Seeker{
		cfg:      cfg,
		router:   router,
		logger:   log.New(io.Discard, "", 0),
		commands: make(chan Command, cfg.CommandQueue),
		phase:    PhaseIdle,
		flyTap:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit queues a command without blocking and reports whether it was accepted.
func (s *Seeker) Submit(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		return false
	}
}

// Start activates the seeker with target as the only candidate.
func (s *Seeker) Start(target world.Cell) bool {
	return s.Submit(Command{kind: cmdStart, targets: []world.Cell{target}})
}

// StartAll activates the seeker over a candidate set, nearest first.
func (s *Seeker) StartAll(targets []world.Cell) bool {
	return s.Submit(Command{kind: cmdStart, targets: append([]world.Cell(nil), targets...)})
}

// SetTargets replaces the candidate set without interrupting the current target.
func (s *Seeker) SetTargets(targets []world.Cell) bool {
	return s.Submit(Command{kind: cmdSetTargets, targets: append([]world.Cell(nil), targets...)})
}

func (s *Seeker) Stop() bool {
	return s.Submit(Command{kind: cmdStop})
}

func (s *Seeker) Active() bool { return s.active }

func (s *Seeker) Phase() Phase { return s.phase }

// Target returns the current target, if any.
func (s *Seeker) Target() (world.Cell, bool) {
	if s.target == nil {
		return world.Cell{}, false
	}
	return *s.target, true
}

func (s *Seeker) drain() {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *Seeker) apply(cmd Command) {
	switch cmd.kind {
	case cmdStart:
		s.reset()
		s.active = true
		s.activation = uuid.New()
		s.candidates = cmd.targets
		s.logger.Printf("seek %s: started with %d candidates", s.activation, len(s.candidates))
	case cmdSetTargets:
		s.candidates = cmd.targets
	case cmdStop:
		s.halt("stopped")
	}
}

func (s *Seeker) halt(reason string) {
	if !s.active {
		return
	}
	s.logger.Printf("seek %s: %s", s.activation, reason)
	s.reset()
	s.active = false
	s.candidates = nil
}

func (s *Seeker) reset() {
	s.setPhase(PhaseIdle)
	s.target = nil
	s.clearRoute()
	s.cooldown = 0
	s.stuck = 0
	s.jumping = false
	s.interactTicks = 0
	s.attempts = 0
	s.flyTap = -1
}

func (s *Seeker) clearRoute() {
	s.route = nil
	s.routeIdx = 0
	s.waypoint = nil
}

func (s *Seeker) setPhase(to Phase) {
	if s.phase == to {
		return
	}
	from := s.phase
	s.phase = to
	if s.observer != nil {
		s.observer.PhaseChanged(from, to)
	}
}

func (s *Seeker) recovered(kind RecoveryKind) {
	if s.observer != nil {
		s.observer.Recovered(kind)
	}
}

// Tick advances the state machine by one step. Within a tick the order is fixed:
// queued commands, stuck detection, waypoint advance, phase transition, aim.
func (s *Seeker) Tick(ctx context.Context, q world.Query, obs Observation) Output {
	s.drain()
	if !s.active {
		return Output{}
	}
	if s.cooldown > 0 {
		s.cooldown--
	}

	if s.target == nil && !s.pickTarget(obs.Position) {
		s.halt("no targets left")
		return Output{Done: true, Phase: PhaseIdle}
	}

	eye := obs.Position.Add(mgl64.Vec3{0, s.eyeHeight(obs), 0})
	dist := cellCentre(*s.target).Sub(eye).Len()

	if s.phase == PhaseMoving || s.phase == PhaseApproaching {
		if s.detectStuck(ctx, q, obs) {
			return Output{Active: true, Phase: s.phase, Yaw: obs.Yaw, Pitch: obs.Pitch}
		}
	} else {
		s.stuck = 0
		s.jumping = false
	}

	s.advanceWaypoint(obs.Position)

	yawDiff, pitchDiff := s.aimDiffs(q, eye, dist, obs)
	aimClose := math.Abs(yawDiff) < s.cfg.AimTolerance && math.Abs(pitchDiff) < s.cfg.AimTolerance
	aimFine := math.Abs(yawDiff) < s.cfg.FineAimTolerance && math.Abs(pitchDiff) < s.cfg.FineAimTolerance

	s.transition(ctx, q, obs, dist, aimClose, aimFine)

	out := Output{Active: true, Phase: s.phase, Yaw: obs.Yaw, Pitch: obs.Pitch}
	if s.target != nil {
		target := *s.target
		out.Target = &target
		yawDiff, pitchDiff = s.aimDiffs(q, eye, dist, obs)
		speed := s.cfg.TurnRate + math.Min((math.Abs(yawDiff)+math.Abs(pitchDiff))/1800, s.cfg.TurnRateBoostCap)
		if s.phase == PhaseApproaching || s.phase == PhaseInteracting {
			speed = s.cfg.FinalTurnRate
		}
		out.Yaw = obs.Yaw + yawDiff*speed
		out.Pitch = mgl64.Clamp(obs.Pitch+pitchDiff*speed, -90, 90)
	}
	if s.waypoint != nil {
		wp := *s.waypoint
		out.Waypoint = &wp
	}
	out.Forward = s.phase == PhaseMoving || s.phase == PhaseApproaching
	out.Use = s.phase == PhaseInteracting
	// double tap: press on the first and the last-but-one tick of the countdown
	out.Jump = s.jumping || s.flyTap == s.cfg.FlyTapTicks || s.flyTap == 1
	out.FlyToggle = s.flyTap >= 0

	if s.flyTap >= 0 {
		s.flyTap--
	}
	return out
}

func (s *Seeker) eyeHeight(obs Observation) float64 {
	if obs.EyeHeight > 0 {
		return obs.EyeHeight
	}
	return s.cfg.EyeHeight
}

// pickTarget selects the candidate nearest to pos.
func (s *Seeker) pickTarget(pos mgl64.Vec3) bool {
	best := math.MaxFloat64
	idx := -1
	for i, c := range s.candidates {
		if d := cellCentre(c).Sub(pos).LenSqr(); d < best {
			best, idx = d, i
		}
	}
	if idx < 0 {
		return false
	}
	target := s.candidates[idx]
	s.target = &target
	s.clearRoute()
	s.setPhase(PhaseIdle)
	s.logger.Printf("seek %s: target %v", s.activation, target)
	return true
}

// dropTarget forgets the current target and removes it from the candidate set.
func (s *Seeker) dropTarget(kind RecoveryKind) {
	if s.target != nil {
		s.logger.Printf("seek %s: %s %v", s.activation, kind, *s.target)
		for i, c := range s.candidates {
			if c == *s.target {
				s.candidates = append(s.candidates[:i], s.candidates[i+1:]...)
				break
			}
		}
	}
	s.recovered(kind)
	s.target = nil
	s.clearRoute()
	s.stuck = 0
	s.jumping = false
	s.interactTicks = 0
	s.attempts = 0
	s.setPhase(PhaseIdle)
}

// detectStuck counts ticks without meaningful displacement. It reports true
// when the target was abandoned.
func (s *Seeker) detectStuck(ctx context.Context, q world.Query, obs Observation) bool {
	moved := obs.Position.Sub(s.anchor).Len()
	s.anchor = obs.Position
	if moved < s.cfg.MoveEpsilon {
		s.stuck++
	} else {
		s.stuck = 0
		s.jumping = false
	}

	if s.stuck == s.cfg.JumpAfterTicks {
		s.recovered(RecoveryJump)
	}
	if s.stuck >= s.cfg.JumpAfterTicks {
		s.jumping = true
	}
	// the stagnant count keeps running across recalculation so abandonment is bounded
	if s.stuck >= s.cfg.RecalcAfterTicks && s.cooldown <= 0 && s.phase == PhaseMoving {
		s.computePath(ctx, q, obs)
		s.cooldown = s.cfg.RecalcCooldownTicks
		s.recovered(RecoveryRecalculate)
	}
	if s.stuck >= s.cfg.AbandonAfterTicks {
		s.dropTarget(RecoveryAbandon)
		return true
	}
	return false
}

func (s *Seeker) advanceWaypoint(pos mgl64.Vec3) {
	if s.phase != PhaseMoving || s.route == nil || s.waypoint == nil {
		return
	}
	c := cellCentre(*s.waypoint)
	if math.Hypot(c.X()-pos.X(), c.Z()-pos.Z()) >= s.cfg.WaypointReach {
		return
	}
	s.routeIdx++
	if s.routeIdx < len(s.route) {
		wp := s.route[s.routeIdx]
		s.waypoint = &wp
		s.stuck = 0
		return
	}
	s.clearRoute()
}

// aimPoint is the exposed face near the end, the current waypoint while turning
// or moving, and the target centre otherwise.
func (s *Seeker) aimPoint(q world.Query, eye mgl64.Vec3, dist float64) mgl64.Vec3 {
	target := *s.target
	switch {
	case (s.phase == PhaseApproaching || s.phase == PhaseInteracting) && dist < s.cfg.FaceAimRange:
		if p, ok := ExposedFaceAim(q, target, eye); ok {
			return p
		}
	case (s.phase == PhaseRotating || s.phase == PhaseMoving) && s.waypoint != nil:
		return cellCentre(*s.waypoint)
	}
	return cellCentre(target)
}

func (s *Seeker) aimDiffs(q world.Query, eye mgl64.Vec3, dist float64, obs Observation) (float64, float64) {
	yaw, pitch := lookAngles(eye, s.aimPoint(q, eye, dist))
	return physics.WrapDegrees(yaw - obs.Yaw), pitch - obs.Pitch
}

func (s *Seeker) transition(ctx context.Context, q world.Query, obs Observation, dist float64, aimClose, aimFine bool) {
	switch s.phase {
	case PhaseIdle:
		s.attempts = 0
		if dist < s.cfg.ProximityRange {
			s.clearRoute()
			s.setPhase(PhaseApproaching)
			return
		}
		s.computePath(ctx, q, obs)
		s.setPhase(PhaseRotating)

	case PhaseRotating:
		if aimClose {
			s.anchor = obs.Position
			s.stuck = 0
			s.setPhase(PhaseMoving)
		}

	case PhaseMoving:
		if s.waypoint != nil {
			dy := float64(s.waypoint.Y) - obs.Position.Y()
			if s.flyTap < 0 && ((dy > 1.5 && obs.CanFly && !obs.Flying) || (dy < -3 && obs.Flying)) {
				s.flyTap = s.cfg.FlyTapTicks
			}
		}
		if s.waypoint == nil || dist < s.cfg.ApproachRange {
			if dist < s.cfg.ProximityRange {
				s.clearRoute()
				s.setPhase(PhaseApproaching)
			} else if s.waypoint == nil && s.cooldown <= 0 {
				s.computePath(ctx, q, obs)
			}
		}

	case PhaseApproaching:
		if dist < s.cfg.InteractRange && aimFine {
			s.interactTicks = 0
			s.setPhase(PhaseInteracting)
		} else if dist >= s.cfg.ProximityRange {
			s.computePath(ctx, q, obs)
			s.setPhase(PhaseMoving)
		}

	case PhaseInteracting:
		s.interactTicks++
		if obs.TargetGone {
			s.dropTarget(RecoveryCompleted)
			return
		}
		if s.interactTicks >= s.cfg.InteractTicks {
			s.attempts++
			s.interactTicks = 0
			if s.attempts >= s.cfg.InteractAttempts {
				s.dropTarget(RecoveryGiveUp)
				return
			}
			s.setPhase(PhaseApproaching)
		}
	}
}

// computePath routes from the avatar's cell to the target. Without a route the
// seeker beelines toward the target.
func (s *Seeker) computePath(ctx context.Context, q world.Query, obs Observation) {
	s.cooldown = s.cfg.PathCooldownTicks
	start := world.CellAt(obs.Position.X(), obs.Position.Y(), obs.Position.Z())
	route, err := s.router.FindPath(ctx, q, start, *s.target, obs.CanFly, s.cfg.PathReach)
	if err != nil || len(route) == 0 {
		if err != nil && !errors.Is(err, pathfinding.ErrNotFound) {
			s.logger.Printf("seek %s: route to %v failed: %v", s.activation, *s.target, err)
		}
		s.clearRoute()
		return
	}

	s.route = route
	s.routeIdx = 0
	if len(route) > 1 && route[0].Distance(start) < s.cfg.WaypointSkip {
		s.routeIdx = 1
	}
	wp := route[s.routeIdx]
	s.waypoint = &wp
}
