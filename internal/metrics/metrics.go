package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelnav/internal/navigation"
	"voxelnav/internal/pathfinding"
	"voxelnav/internal/steering"
)

const namespace = "voxelnav"

// Collectors exports navigation, steering and pathfinding activity to Prometheus.
type Collectors struct {
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	nodesExpanded  prometheus.Histogram
	heuristics     prometheus.Counter
	neighbors      prometheus.Counter

	phases     *prometheus.CounterVec
	recoveries *prometheus.CounterVec
	decisions  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// private registry.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collectors{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathfinding",
			Name:      "searches_total",
			Help:      "Route searches by result.",
		}, []string{"result"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pathfinding",
			Name:      "search_duration_seconds",
			Help:      "Wall time spent per route search.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		nodesExpanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pathfinding",
			Name:      "nodes_expanded",
			Help:      "Nodes expanded per route search.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}),
		heuristics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathfinding",
			Name:      "heuristic_evaluations_total",
			Help:      "Heuristic evaluations across all searches.",
		}),
		neighbors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathfinding",
			Name:      "neighbors_generated_total",
			Help:      "Neighbour cells produced by move generation.",
		}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "phase_transitions_total",
			Help:      "Seeker phase transitions by destination phase.",
		}, []string{"phase"}),
		recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "recoveries_total",
			Help:      "Seeker recovery and completion events by kind.",
		}, []string{"kind"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drop",
			Name:      "steering_decisions_total",
			Help:      "Drop steering decisions by branch.",
		}, []string{"decision"}),
	}
	reg.MustRegister(
		c.searches, c.searchDuration, c.nodesExpanded, c.heuristics, c.neighbors,
		c.phases, c.recoveries, c.decisions,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c
}

// Handler serves the registry the collectors were registered with, or the
// default gatherer when that registry cannot be gathered.
func (c *Collectors) Handler() http.Handler {
	if c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Decisions gathers the drop steering decision counts keyed by branch.
func (c *Collectors) Decisions() (map[string]float64, error) {
	if c.gatherer == nil {
		return nil, errors.New("metrics: registry cannot be gathered")
	}
	families, err := c.gatherer.Gather()
	if err != nil {
		return nil, err
	}
	name := prometheus.BuildFQName(namespace, "drop", "steering_decisions_total")
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "decision" {
					counts[lp.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return counts, nil
}

// PathProfiler returns a profiler suitable for pathfinding.ContextWithProfiler.
func (c *Collectors) PathProfiler() pathfinding.NavigatorProfiler {
	return (*pathProfiler)(c)
}

// SeekObserver returns an observer for navigation.WithObserver.
func (c *Collectors) SeekObserver() navigation.Observer {
	return (*seekObserver)(c)
}

// SteerObserver returns an observer for steering.WithObserver.
func (c *Collectors) SteerObserver() steering.Observer {
	return (*steerObserver)(c)
}

type pathProfiler Collectors

func (p *pathProfiler) RecordHeuristicEvaluation() {
	p.heuristics.Inc()
}

func (p *pathProfiler) RecordNodeExpanded() {}

func (p *pathProfiler) RecordNeighborGeneration(count int) {
	p.neighbors.Add(float64(count))
}

func (p *pathProfiler) RecordSearch(found bool, expanded int, duration time.Duration) {
	result := "found"
	if !found {
		result = "not_found"
	}
	p.searches.WithLabelValues(result).Inc()
	p.searchDuration.Observe(duration.Seconds())
	p.nodesExpanded.Observe(float64(expanded))
}

type seekObserver Collectors

func (o *seekObserver) PhaseChanged(_, to navigation.Phase) {
	o.phases.WithLabelValues(string(to)).Inc()
}

func (o *seekObserver) Recovered(kind navigation.RecoveryKind) {
	o.recoveries.WithLabelValues(string(kind)).Inc()
}

type steerObserver Collectors

func (o *steerObserver) SteerDecided(kind steering.DecisionKind) {
	o.decisions.WithLabelValues(string(kind)).Inc()
}
