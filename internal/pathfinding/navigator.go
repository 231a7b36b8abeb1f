package pathfinding

import (
	"container/heap"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"time"

	"voxelnav/internal/config"
	"voxelnav/internal/world"
)

// ErrNotFound is returned when no route reaches the goal region within the node budget.
var ErrNotFound = errors.New("pathfinding: no route found")

// Route is an ordered, simplified list of feet positions from start to near the goal.
type Route []world.Cell

// Navigator performs A* search over standable grid cells.
type Navigator struct {
	cfg    config.PathfindingConfig
	logger *log.Logger
}

type Option func(*Navigator)

// WithLogger routes diagnostic output to logger.
func WithLogger(logger *log.Logger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewNavigator(cfg config.PathfindingConfig, opts ...Option) *Navigator {
	n := &Navigator{
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FindPath locates a route from start to within reach of goal. Walking routes
// only visit standable cells; canFly adds straight vertical moves.
func (n *Navigator) FindPath(ctx context.Context, q world.Query, start, goal world.Cell, canFly bool, reach float64) (Route, error) {
	raw, err := n.search(ctx, q, start, goal, canFly, reach)
	if err != nil {
		return nil, err
	}
	return simplify(raw), nil
}

// FindPathWithStats runs FindPath and returns the counters recorded for this search alone.
func (n *Navigator) FindPathWithStats(ctx context.Context, q world.Query, start, goal world.Cell, canFly bool, reach float64) (Route, MetricsSnapshot, error) {
	var metrics NavigatorMetrics
	ctx = ContextWithProfiler(ctx, Tee(profilerFromContext(ctx), metrics.Profiler()))
	route, err := n.FindPath(ctx, q, start, goal, canFly, reach)
	return route, metrics.Snapshot(), err
}

func (n *Navigator) search(ctx context.Context, q world.Query, start, goal world.Cell, canFly bool, reach float64) ([]world.Cell, error) {
	profiler := profilerFromContext(ctx)
	began := time.Now()
	expanded := 0
	found := false
	defer func() {
		if profiler != nil {
			profiler.RecordSearch(found, expanded, time.Since(began))
		}
	}()

	start = n.snap(q, start, canFly)

	open := &nodeQueue{}
	heap.Init(open)
	var seq uint64
	push := func(cell world.Cell, parent *pathNode, g float64) {
		if profiler != nil {
			profiler.RecordHeuristicEvaluation()
		}
		seq++
		heap.Push(open, &pathNode{cell: cell, parent: parent, g: g, h: heuristic(cell, goal), seq: seq})
	}

	bestG := map[world.Cell]float64{start: 0}
	push(start, nil, 0)

	for open.Len() > 0 && expanded < n.cfg.MaxSearchNodes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		current := heap.Pop(open).(*pathNode)
		expanded++
		if profiler != nil {
			profiler.RecordNodeExpanded()
		}

		if current.cell.Distance(goal) <= reach {
			found = true
			return reconstruct(current), nil
		}
		if g, ok := bestG[current.cell]; ok && current.g > g {
			continue
		}

		neighbors := n.neighbors(q, current.cell, canFly)
		if profiler != nil {
			profiler.RecordNeighborGeneration(len(neighbors))
		}
		for _, next := range neighbors {
			g := current.g + moveCost(current.cell, next)
			if best, ok := bestG[next]; ok && g >= best {
				continue
			}
			bestG[next] = g
			push(next, current, g)
		}
	}

	n.logger.Printf("no route %v -> %v (fly=%t reach=%.2f) after %d nodes", start, goal, canFly, reach, expanded)
	return nil, ErrNotFound
}

// snap moves start onto the nearest stance: the cell itself, then downward, then upward.
// When nothing qualifies the original cell is searched from anyway.
func (n *Navigator) snap(q world.Query, pos world.Cell, canFly bool) world.Cell {
	if standable(q, pos) {
		return pos
	}
	if canFly && world.Passable(q, pos) && world.Passable(q, pos.Up()) {
		return pos
	}
	for dy := 0; dy <= n.cfg.SnapDown; dy++ {
		if c := pos.DownN(dy); standable(q, c) {
			return c
		}
	}
	for dy := 1; dy <= n.cfg.SnapUp; dy++ {
		if c := pos.UpN(dy); standable(q, c) {
			return c
		}
	}
	n.logger.Printf("no stance near %v, searching from it anyway", pos)
	return pos
}

func heuristic(a, b world.Cell) float64 {
	return a.Distance(b)
}

func moveCost(from, to world.Cell) float64 {
	cost := 1.414
	if float64(from.DistanceSq(to)) < 2.1 {
		cost = 1.0
	}
	if dy := to.Y - from.Y; dy != 0 {
		cost += math.Abs(float64(dy)) * 0.5
	}
	return cost
}

type pathNode struct {
	cell   world.Cell
	parent *pathNode
	g, h   float64
	seq    uint64
	index  int
}

func (p *pathNode) f() float64 { return p.g + p.h }

// nodeQueue orders by f, then by smaller h, then by insertion order so equal-cost
// searches always produce the same route.
type nodeQueue []*pathNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if fa, fb := a.f(), b.f(); fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
