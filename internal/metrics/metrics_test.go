package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/metrics"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/vk/blockflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func TestCollector_CountsRunsAndBlocks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	src := testutil.NewSpy("src").WithOutput("out", cty.Number)
	sink := testutil.NewSpy("sink").WithInput("in", cty.Number)
	g := dag.New("test.metrics", dag.WithObserver(c))
	_, err := g.Connect(src, sink, dag.Map("out", "in"))
	require.NoError(t, err)
	src.Fn = func(context.Context, *stopper.Stopper, *testutil.Spy) error {
		return src.Out("out").Set(cty.NumberIntVal(1))
	}

	_, err = g.Run(context.Background())
	require.NoError(t, err)

	sink.Fn = func(context.Context, *stopper.Stopper, *testutil.Spy) error { return errors.New("boom") }
	_, err = g.Run(context.Background())
	require.Error(t, err)

	g.Stop()

	assert.Equal(t, 1.0, promtest.ToFloat64(c.RunsCounter("test.metrics", "completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.RunsCounter("test.metrics", "failed")))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.BlocksCounter("test.metrics", "src", "completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.BlocksCounter("test.metrics", "sink", "failed")))

	count, err := promtest.GatherAndCount(reg, "blockflow_dag_stops_total", "blockflow_dag_active_runs")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0.0, promtest.ToFloat64(c.ActiveRuns()))
}
