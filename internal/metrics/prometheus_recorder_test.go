package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_RecordsBuildMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveBuildDuration(1500 * time.Millisecond)
	rec.IncBuildOutcome(OutcomeSuccess)
	rec.AddPageDisposition(PageRebuilt, 3)
	rec.AddPageDisposition(PageCached, 7)
	rec.AddPageDisposition(PageSkipped, 0) // no-op
	rec.SetFeedEntries(12)
	rec.IncWatchEvent("incremental")

	require.Equal(t, float64(1),
		testutil.ToFloat64(rec.buildOutcome.WithLabelValues("success")))
	require.Equal(t, float64(3),
		testutil.ToFloat64(rec.pageDispositions.WithLabelValues("rebuilt")))
	require.Equal(t, float64(7),
		testutil.ToFloat64(rec.pageDispositions.WithLabelValues("cached")))
	require.Equal(t, float64(12), testutil.ToFloat64(rec.feedEntries))
	require.Equal(t, float64(1),
		testutil.ToFloat64(rec.watchEvents.WithLabelValues("incremental")))
}

func TestNoopRecorder_SafeToCall(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	rec.ObserveBuildDuration(time.Second)
	rec.IncBuildOutcome(OutcomeFailed)
	rec.AddPageDisposition(PageCached, 5)
	rec.SetFeedEntries(0)
	rec.IncWatchEvent("full")
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var rec *PrometheusRecorder
	rec.ObserveBuildDuration(time.Second)
	rec.IncBuildOutcome(OutcomeSuccess)
	rec.AddPageDisposition(PageRebuilt, 1)
	rec.SetFeedEntries(1)
	rec.IncWatchEvent("full")
}
