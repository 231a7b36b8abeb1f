package steering

import (
	"io"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"voxelnav/internal/config"
	"voxelnav/internal/physics"
	"voxelnav/internal/world"
)

// Command toggles the drop driver. Commands are queued and applied at the start
// of the next Tick.
type Command int

const (
	CommandStart Command = iota + 1
	CommandStop
)

// Locator finds a landing target below a point.
type Locator interface {
	Locate(q world.Query, from mgl64.Vec3) (mgl64.Vec3, bool)
}

// Observation is the host's view of the falling body for one tick.
type Observation struct {
	State    physics.State
	Yaw      float64
	OnGround bool
	InFluid  bool
}

// Control is the driver's output for one tick.
type Control struct {
	Active    bool
	Landed    bool
	TargetYaw float64
	Forward   int
	Sideways  int
	Target    *mgl64.Vec3
}

// Driver steers a fall toward a pool. It locates the pool once per activation
// and re-solves the heading every few ticks.
type Driver struct {
	cfg     config.DropConfig
	solver  *Solver
	locator Locator
	logger  *log.Logger

	commands chan Command

	active     bool
	activation uuid.UUID
	target     *mgl64.Vec3
	heading    *Heading
	counter    int
}

type DriverOption func(*Driver)

func WithDriverLogger(logger *log.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDriver(cfg config.DropConfig, solver *Solver, locator Locator, opts ...DriverOption) *Driver {
	d := &Driver{
		cfg:      cfg,
		solver:   solver,
		locator:  locator,
		logger:   log.New(io.Discard, "", 0),
		commands: make(chan Command, cfg.CommandQueue),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit queues a command without blocking. It reports false when the queue is full.
func (d *Driver) Submit(cmd Command) bool {
	select {
	case d.commands <- cmd:
		return true
	default:
		return false
	}
}

func (d *Driver) Start() bool { return d.Submit(CommandStart) }
func (d *Driver) Stop() bool  { return d.Submit(CommandStop) }

func (d *Driver) Active() bool { return d.active }

func (d *Driver) drain() {
	for {
		select {
		case cmd := <-d.commands:
			switch cmd {
			case CommandStart:
				d.activate()
			case CommandStop:
				d.deactivate("stopped")
			}
		default:
			return
		}
	}
}

func (d *Driver) activate() {
	d.active = true
	d.activation = uuid.New()
	d.target = nil
	d.heading = nil
	d.counter = 0
	d.logger.Printf("drop %s: started", d.activation)
}

func (d *Driver) deactivate(reason string) {
	if !d.active {
		return
	}
	d.logger.Printf("drop %s: %s", d.activation, reason)
	d.active = false
	d.target = nil
	d.heading = nil
	d.counter = 0
}

// Tick applies queued commands and returns this tick's control. Without a
// target the body holds still.
func (d *Driver) Tick(q world.Query, obs Observation) Control {
	d.drain()
	if !d.active {
		return Control{}
	}
	if obs.OnGround || obs.InFluid {
		d.deactivate("landed")
		return Control{Landed: true}
	}
	if !obs.State.Valid() {
		d.logger.Printf("drop %s: ignoring non-finite state %v", d.activation, obs.State)
		return Control{Active: true, TargetYaw: obs.Yaw}
	}

	if d.target == nil {
		if target, ok := d.locator.Locate(q, obs.State.Pos); ok {
			d.target = &target
			d.logger.Printf("drop %s: target %.1f, %.0f, %.1f", d.activation, target.X(), target.Y(), target.Z())
		}
	}
	if d.target == nil {
		return Control{Active: true, TargetYaw: obs.Yaw}
	}

	d.counter++
	if d.counter >= d.cfg.SteerEveryTicks {
		d.counter = 0
		heading := d.solver.ComputeHeading(q, obs.State, *d.target, d.heading)
		d.heading = &heading
	}

	target := *d.target
	ctl := Control{Active: true, TargetYaw: obs.Yaw, Target: &target}
	if d.heading != nil {
		ctl.TargetYaw = d.heading.Yaw
		ctl.Forward = d.heading.Forward
		ctl.Sideways = d.heading.Sideways
	}
	return ctl
}
