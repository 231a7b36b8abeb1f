package pathfinding

import (
	"context"
	"sync/atomic"
	"time"
)

// NavigatorProfiler captures instrumentation hooks for grid pathfinding.
type NavigatorProfiler interface {
	RecordHeuristicEvaluation()
	RecordNodeExpanded()
	RecordNeighborGeneration(count int)
	RecordSearch(found bool, expanded int, duration time.Duration)
}

// NavigatorMetrics accumulates profiling counters for Navigator searches.
type NavigatorMetrics struct {
	searches             atomic.Int64
	failures             atomic.Int64
	searchTime           atomic.Int64
	heuristicEvaluations atomic.Int64
	nodesExpanded        atomic.Int64
	neighborGenerations  atomic.Int64
	neighborCount        atomic.Int64
}

// MetricsSnapshot captures a point-in-time copy of navigator metrics.
type MetricsSnapshot struct {
	Searches             int64
	Failures             int64
	SearchTime           time.Duration
	HeuristicEvaluations int64
	NodesExpanded        int64
	NeighborGenerations  int64
	NeighborCount        int64
}

// Profiler returns a NavigatorProfiler implementation backed by this metric set.
func (m *NavigatorMetrics) Profiler() NavigatorProfiler {
	if m == nil {
		return nil
	}
	return (*metricsProfiler)(m)
}

// Reset zeroes all counters in the metrics set.
func (m *NavigatorMetrics) Reset() {
	if m == nil {
		return
	}
	m.searches.Store(0)
	m.failures.Store(0)
	m.searchTime.Store(0)
	m.heuristicEvaluations.Store(0)
	m.nodesExpanded.Store(0)
	m.neighborGenerations.Store(0)
	m.neighborCount.Store(0)
}

// Snapshot captures the current counter values.
func (m *NavigatorMetrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Searches:             m.searches.Load(),
		Failures:             m.failures.Load(),
		SearchTime:           time.Duration(m.searchTime.Load()),
		HeuristicEvaluations: m.heuristicEvaluations.Load(),
		NodesExpanded:        m.nodesExpanded.Load(),
		NeighborGenerations:  m.neighborGenerations.Load(),
		NeighborCount:        m.neighborCount.Load(),
	}
}

type metricsProfiler NavigatorMetrics

func (m *metricsProfiler) RecordHeuristicEvaluation() {
	(*NavigatorMetrics)(m).heuristicEvaluations.Add(1)
}

func (m *metricsProfiler) RecordNodeExpanded() {
	(*NavigatorMetrics)(m).nodesExpanded.Add(1)
}

func (m *metricsProfiler) RecordNeighborGeneration(count int) {
	metrics := (*NavigatorMetrics)(m)
	metrics.neighborGenerations.Add(1)
	metrics.neighborCount.Add(int64(count))
}

func (m *metricsProfiler) RecordSearch(found bool, _ int, duration time.Duration) {
	metrics := (*NavigatorMetrics)(m)
	metrics.searches.Add(1)
	if !found {
		metrics.failures.Add(1)
	}
	metrics.searchTime.Add(duration.Nanoseconds())
}

// Tee fans every hook out to each non-nil profiler.
func Tee(profilers ...NavigatorProfiler) NavigatorProfiler {
	var out teeProfiler
	for _, p := range profilers {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

type teeProfiler []NavigatorProfiler

func (t teeProfiler) RecordHeuristicEvaluation() {
	for _, p := range t {
		p.RecordHeuristicEvaluation()
	}
}

func (t teeProfiler) RecordNodeExpanded() {
	for _, p := range t {
		p.RecordNodeExpanded()
	}
}

func (t teeProfiler) RecordNeighborGeneration(count int) {
	for _, p := range t {
		p.RecordNeighborGeneration(count)
	}
}

func (t teeProfiler) RecordSearch(found bool, expanded int, duration time.Duration) {
	for _, p := range t {
		p.RecordSearch(found, expanded, duration)
	}
}

type profilerContextKey struct{}

// ContextWithProfiler returns a context that will report the provided profiler during
// pathfinding operations.
func ContextWithProfiler(ctx context.Context, profiler NavigatorProfiler) context.Context {
	if profiler == nil {
		return ctx
	}
	return context.WithValue(ctx, profilerContextKey{}, profiler)
}

func profilerFromContext(ctx context.Context) NavigatorProfiler {
	if ctx == nil {
		return nil
	}
	if profiler, ok := ctx.Value(profilerContextKey{}).(NavigatorProfiler); ok {
		return profiler
	}
	return nil
}
