package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelnav/internal/config"
	"voxelnav/internal/navigation"
	"voxelnav/internal/pathfinding"
	"voxelnav/internal/steering"
	"voxelnav/internal/world"
)

func TestPathProfilerCountsSearches(t *testing.T) {
	c := New(prometheus.NewRegistry())
	grid := world.NewGrid()
	grid.SetBedrock(-1)

	nav := pathfinding.NewNavigator(config.Default().Pathfinding)
	ctx := pathfinding.ContextWithProfiler(context.Background(), c.PathProfiler())

	_, err := nav.FindPath(ctx, grid, world.Cell{}, world.Cell{X: 6}, false, 1.5)
	require.NoError(t, err)

	// a goal buried in a sealed box cannot be reached
	sealed := world.Cell{X: 4, Y: 0, Z: 4}
	grid.Fill(world.Bounds{Min: sealed.Add(-1, -1, -1), Max: sealed.Add(1, 1, 1)}, world.BlockSolid)
	grid.Clear(sealed)
	cfg := config.Default().Pathfinding
	cfg.MaxSearchNodes = 50
	_, err = pathfinding.NewNavigator(cfg).FindPath(ctx, grid, world.Cell{}, sealed, false, 0)
	require.ErrorIs(t, err, pathfinding.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches.WithLabelValues("not_found")))
	assert.Positive(t, testutil.ToFloat64(c.heuristics))
	assert.Positive(t, testutil.ToFloat64(c.neighbors))
	assert.Equal(t, 1, testutil.CollectAndCount(c.nodesExpanded))
}

func TestSeekObserverCountsTransitions(t *testing.T) {
	c := New(nil)
	obs := c.SeekObserver()
	obs.PhaseChanged(navigation.PhaseIdle, navigation.PhaseRotating)
	obs.PhaseChanged(navigation.PhaseRotating, navigation.PhaseMoving)
	obs.PhaseChanged(navigation.PhaseMoving, navigation.PhaseIdle)
	obs.PhaseChanged(navigation.PhaseIdle, navigation.PhaseRotating)
	obs.Recovered(navigation.RecoveryJump)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.phases.WithLabelValues("rotating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phases.WithLabelValues("moving")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.recoveries.WithLabelValues("jump")))
	assert.Zero(t, testutil.ToFloat64(c.recoveries.WithLabelValues("abandon")))
}

func TestSteerObserverCountsDecisions(t *testing.T) {
	c := New(nil)
	c.SteerObserver().SteerDecided(steering.DecisionDirect)
	c.SteerObserver().SteerDecided(steering.DecisionDirect)
	c.SteerObserver().SteerDecided(steering.DecisionBlocked)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.decisions.WithLabelValues("direct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisions.WithLabelValues("blocked")))
}

func TestDecisionsGathersCounts(t *testing.T) {
	c := New(prometheus.NewRegistry())
	counts, err := c.Decisions()
	require.NoError(t, err)
	assert.Empty(t, counts)

	c.SteerObserver().SteerDecided(steering.DecisionDirect)
	c.SteerObserver().SteerDecided(steering.DecisionBlocked)
	c.SteerObserver().SteerDecided(steering.DecisionBlocked)

	counts, err = c.Decisions()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"direct": 1, "blocked": 2}, counts)

	var reg prometheus.Registerer = struct{ prometheus.Registerer }{prometheus.NewRegistry()}
	_, err = New(reg).Decisions()
	assert.Error(t, err, "a registerer that cannot gather has no counts")
}

func TestHandlerServesRegistry(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.PathProfiler().RecordSearch(true, 12, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `voxelnav_pathfinding_searches_total{result="found"} 1`))
}
