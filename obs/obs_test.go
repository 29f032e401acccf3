package obs_test

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitview.dev/metrics/obs"
)

func TestCollector(t *testing.T) {
	c := obs.NewCollector()

	c.Fetches.WithLabelValues("trip").Inc()
	c.Fetches.WithLabelValues("trip").Inc()
	c.DedupHits.WithLabelValues("route").Inc()
	c.FetchDuration.Observe(0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Fetches.WithLabelValues("trip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DedupHits.WithLabelValues("route")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Errors.WithLabelValues("trip")))
}

func TestHandler(t *testing.T) {
	c := obs.NewCollector()
	c.StaleDrops.WithLabelValues("agency").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "metrics_stale_drops_total")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := obs.NewCollector()
	b := obs.NewCollector()

	a.Fetches.WithLabelValues("trip").Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Fetches.WithLabelValues("trip")))
}
