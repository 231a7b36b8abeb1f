package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"

	"voxelnav/internal/config"
	"voxelnav/internal/metrics"
	"voxelnav/internal/physics"
	"voxelnav/internal/pool"
	"voxelnav/internal/steering"
	"voxelnav/internal/terrain"
	"voxelnav/internal/world"
)

func main() {
	var (
		configPath  = flag.String("config", "", "optional YAML configuration file")
		worldPath   = flag.String("world", "", "optional world snapshot; a single pool arena is used when empty")
		startX      = flag.Float64("x", 0.5, "start x")
		startY      = flag.Float64("y", 80, "start y (feet)")
		startZ      = flag.Float64("z", 0.5, "start z")
		startYaw    = flag.Float64("yaw", 0, "initial yaw in degrees")
		poolX       = flag.Int("pool-x", 12, "arena pool centre x")
		poolZ       = flag.Int("pool-z", 9, "arena pool centre z")
		poolRadius  = flag.Int("pool-radius", 2, "arena pool radius")
		frames      = flag.Int("frames", 4, "render frames per tick for the yaw smoother")
		maxTicks    = flag.Int("ticks", 2000, "give up after this many ticks")
		verbose     = flag.Bool("v", false, "print every tick")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address and keep running")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[dropsim] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *frames <= 0 {
		logger.Fatalf("frames must be positive")
	}

	var grid *world.Grid
	if *worldPath != "" {
		if grid, err = world.LoadSnapshotFile(*worldPath); err != nil {
			logger.Fatalf("load world: %v", err)
		}
	} else {
		grid = terrain.DropArena(world.ColumnCoord{X: *poolX, Z: *poolZ}, *poolRadius, 4)
	}

	collectors := metrics.New(prometheus.NewRegistry())
	solver := steering.NewSolver(cfg.Steering, steering.WithObserver(collectors.SteerObserver()))
	driver := steering.NewDriver(cfg.Drop, solver, pool.NewLocator(cfg.Pool), steering.WithDriverLogger(logger))
	smoother := steering.NewSmoother(cfg.Drop.RotationSpeed, cfg.Drop.MaxFrameDelta.Duration())

	state := physics.NewState(*startX, *startY, *startZ, 0, 0, 0)
	yaw := *startYaw
	tickRate := cfg.Navigation.TickRate.Duration()
	frameStep := tickRate / time.Duration(*frames)
	clock := time.Unix(0, 0)

	driver.Start()
	result := "timed out"
	var target *mgl64.Vec3
	tick := 0
	for ; tick < *maxTicks; tick++ {
		obs := steering.Observation{
			State:    state,
			Yaw:      yaw,
			OnGround: physics.Collides(grid, state),
			InFluid:  physics.InFluid(grid, state),
		}
		ctl := driver.Tick(grid, obs)
		if ctl.Target != nil && target == nil {
			target = ctl.Target
		}
		if ctl.Landed {
			result = "landed on ground"
			if obs.InFluid {
				result = "landed in fluid"
			}
			break
		}

		for f := 0; f < *frames; f++ {
			clock = clock.Add(frameStep)
			yaw = smoother.Frame(clock, ctl.TargetYaw, yaw)
		}
		state = physics.Step(state, yaw, ctl.Forward, ctl.Sideways)

		if *verbose {
			fmt.Printf("tick %4d pos %7.2f %7.2f %7.2f yaw %7.2f input %+d/%+d\n",
				tick, state.Pos.X(), state.Pos.Y(), state.Pos.Z(), yaw, ctl.Forward, ctl.Sideways)
		}
	}

	fmt.Println("== Drop Simulation ==")
	fmt.Printf("Result: %s after %s ticks (%s simulated)\n", result, humanize.Comma(int64(tick)), time.Duration(tick)*tickRate)
	fmt.Printf("Final position: %.2f, %.2f, %.2f\n", state.Pos.X(), state.Pos.Y(), state.Pos.Z())
	fmt.Printf("Fell %.1f blocks\n", *startY-state.Pos.Y())
	if target != nil {
		fmt.Printf("Pool target: %.2f, %.2f, %.2f, missed by %.2f blocks\n",
			target.X(), target.Y(), target.Z(), state.HorizontalDistance(target.X(), target.Z()))
	} else {
		fmt.Println("No pool found below the start")
	}
	if err := printDecisions(collectors); err != nil {
		logger.Printf("gather metrics: %v", err)
	}

	if *metricsAddr != "" {
		logger.Printf("serving metrics on %s/metrics", *metricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", collectors.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Fatalf("metrics server: %v", err)
		}
	}
}

func printDecisions(collectors *metrics.Collectors) error {
	counts, err := collectors.Decisions()
	if err != nil {
		return err
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	fmt.Print("Steering decisions:")
	if len(kinds) == 0 {
		fmt.Print(" none")
	}
	for _, kind := range kinds {
		fmt.Printf(" %s=%s", kind, humanize.Comma(int64(counts[kind])))
	}
	fmt.Println()
	return nil
}
