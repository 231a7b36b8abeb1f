package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"voxelnav/internal/config"
	"voxelnav/internal/metrics"
	"voxelnav/internal/pathfinding"
	"voxelnav/internal/terrain"
	"voxelnav/internal/world"
)

type pathJob struct {
	start world.Cell
	goal  world.Cell
}

type totals struct {
	nodes      atomic.Int64
	heuristics atomic.Int64
	neighbors  atomic.Int64
	routeTime  atomic.Int64
	waypoints  atomic.Int64
	successes  atomic.Int64
	failures   atomic.Int64
	timeouts   atomic.Int64
}

func main() {
	var (
		configPath    = flag.String("config", "", "optional YAML configuration file")
		worldPath     = flag.String("world", "", "optional world snapshot; generated terrain is used when empty")
		totalRequests = flag.Int("requests", 2000, "number of pathfinding requests to issue")
		concurrency   = flag.Int("concurrency", runtime.NumCPU(), "number of concurrent workers")
		radius        = flag.Int("radius", 48, "half-width of the generated terrain in blocks")
		maxSpan       = flag.Int("span", 24, "maximum horizontal distance between start and goal")
		fly           = flag.Bool("fly", false, "allow flying moves")
		timeout       = flag.Duration("timeout", 250*time.Millisecond, "per-request timeout")
		seed          = flag.Int64("seed", 1337, "random seed for start/goal selection")
		metricsAddr   = flag.String("metrics-addr", "", "serve Prometheus metrics on this address and keep running")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathprofile] ", log.LstdFlags|log.Lmicroseconds)

	if *totalRequests <= 0 || *concurrency <= 0 || *radius <= 0 || *maxSpan <= 0 {
		fmt.Fprintln(os.Stderr, "requests, concurrency, radius and span must be positive")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	grid, bounds, err := loadWorld(cfg, *worldPath, *radius, logger)
	if err != nil {
		logger.Fatalf("load world: %v", err)
	}

	candidates := surfaceCells(grid, bounds)
	if len(candidates) < 2 {
		logger.Fatalf("not enough standable cells to profile (%d)", len(candidates))
	}
	logger.Printf("%s standable cells", humanize.Comma(int64(len(candidates))))

	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)
	navigator := pathfinding.NewNavigator(cfg.Pathfinding)

	jobs := make(chan pathJob)
	var sums totals
	ctx := pathfinding.ContextWithProfiler(context.Background(), collectors.PathProfiler())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(jobs)
		rng := rand.New(rand.NewSource(*seed))
		for i := 0; i < *totalRequests; i++ {
			job := pickJob(rng, candidates, *maxSpan)
			select {
			case jobs <- job:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
		return nil
	})

	for i := 0; i < *concurrency; i++ {
		group.Go(func() error {
			for job := range jobs {
				routeCtx, cancel := context.WithTimeout(groupCtx, *timeout)
				began := time.Now()
				route, stats, err := navigator.FindPathWithStats(routeCtx, grid, job.start, job.goal, *fly, cfg.Pathfinding.ReachDistance)
				cancel()

				sums.nodes.Add(stats.NodesExpanded)
				sums.heuristics.Add(stats.HeuristicEvaluations)
				sums.neighbors.Add(stats.NeighborCount)
				sums.routeTime.Add(int64(time.Since(began)))

				switch {
				case errors.Is(err, context.DeadlineExceeded):
					sums.timeouts.Add(1)
				case errors.Is(err, pathfinding.ErrNotFound):
					sums.failures.Add(1)
				case err != nil:
					return err
				default:
					sums.successes.Add(1)
					sums.waypoints.Add(int64(len(route)))
				}
			}
			return nil
		})
	}

	startWall := time.Now()
	if err := group.Wait(); err != nil {
		logger.Fatalf("profile: %v", err)
	}
	report(cfg, &sums, *totalRequests, *concurrency, *fly, time.Since(startWall))

	if *metricsAddr != "" {
		logger.Printf("serving metrics on %s/metrics", *metricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", collectors.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Fatalf("metrics server: %v", err)
		}
	}
}

func loadWorld(cfg *config.Config, path string, radius int, logger *log.Logger) (*world.Grid, world.Bounds, error) {
	if path != "" {
		grid, err := world.LoadSnapshotFile(path)
		if err != nil {
			return nil, world.Bounds{}, err
		}
		return grid, snapshotBounds(grid), nil
	}
	lo := world.ColumnCoord{X: -radius, Z: -radius}
	hi := world.ColumnCoord{X: radius, Z: radius}
	gen := terrain.NewGenerator(cfg.Terrain, terrain.WithLogger(logger))
	grid, err := gen.Generate(context.Background(), lo, hi)
	if err != nil {
		return nil, world.Bounds{}, err
	}
	return grid, world.Bounds{
		Min: world.Cell{X: lo.X, Z: lo.Z},
		Max: world.Cell{X: hi.X, Z: hi.Z},
	}, nil
}

func snapshotBounds(grid *world.Grid) world.Bounds {
	var b world.Bounds
	first := true
	grid.ForEachBlock(func(c world.Cell, _ world.BlockType) bool {
		if first {
			b = world.Bounds{Min: c, Max: c}
			first = false
			return true
		}
		b.Min.X, b.Min.Z = min(b.Min.X, c.X), min(b.Min.Z, c.Z)
		b.Max.X, b.Max.Z = max(b.Max.X, c.X), max(b.Max.Z, c.Z)
		return true
	})
	return b
}

// surfaceCells returns the cell above the topmost solid block of every dry column.
func surfaceCells(grid *world.Grid, b world.Bounds) []world.Cell {
	cells := make([]world.Cell, 0, (b.Max.X-b.Min.X+1)*(b.Max.Z-b.Min.Z+1))
	for x := b.Min.X; x <= b.Max.X; x++ {
		for z := b.Min.Z; z <= b.Max.Z; z++ {
			top, ok := grid.HighestSolid(x, z)
			if !ok {
				continue
			}
			cell := world.Cell{X: x, Y: top + 1, Z: z}
			if grid.IsFluid(cell) || grid.IsSolid(cell.Up()) {
				continue
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

// pickJob prefers goals within span of the start and falls back to any other
// cell after a bounded number of draws.
func pickJob(rng *rand.Rand, candidates []world.Cell, span int) pathJob {
	start := candidates[rng.Intn(len(candidates))]
	for attempt := 0; ; attempt++ {
		goal := candidates[rng.Intn(len(candidates))]
		if goal == start {
			continue
		}
		dx, dz := goal.X-start.X, goal.Z-start.Z
		if dx*dx+dz*dz <= span*span || attempt >= 64 {
			return pathJob{start: start, goal: goal}
		}
	}
}

func report(cfg *config.Config, sums *totals, requests, concurrency int, fly bool, wall time.Duration) {
	n := float64(requests)
	succ := sums.successes.Load()
	avgWaypoints := 0.0
	if succ > 0 {
		avgWaypoints = float64(sums.waypoints.Load()) / float64(succ)
	}

	fmt.Println("== Voxel Pathfinding Profile ==")
	fmt.Printf("Requests: %s (concurrency %d, fly %t)\n", humanize.Comma(int64(requests)), concurrency, fly)
	fmt.Printf("Node budget: %s, max drop %d\n", humanize.Comma(int64(cfg.Pathfinding.MaxSearchNodes)), cfg.Pathfinding.MaxDrop)
	fmt.Printf("Successes: %d, Not found: %d, Timeouts: %d\n", succ, sums.failures.Load(), sums.timeouts.Load())
	fmt.Printf("Average waypoints per route: %.2f\n", avgWaypoints)
	fmt.Printf("Average per-route duration: %s\n", time.Duration(sums.routeTime.Load()/int64(requests)))
	fmt.Printf("Wall clock duration: %s\n", wall)
	fmt.Printf("Average nodes expanded: %.2f\n", float64(sums.nodes.Load())/n)
	fmt.Printf("Average heuristic evaluations: %.2f\n", float64(sums.heuristics.Load())/n)
	fmt.Printf("Neighbours generated: %s\n", humanize.Comma(sums.neighbors.Load()))
}
