// Package obs counts what the fetch coordinator does: fetches
// issued, dedup hits, stale responses dropped, errors recorded. The
// collector carries its own registry so embedding applications don't
// collide with it.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Fetches    *prometheus.CounterVec // scope label
	DedupHits  *prometheus.CounterVec
	StaleDrops *prometheus.CounterVec
	Errors     *prometheus.CounterVec

	FetchDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metrics_fetches_total",
			Help: "Total backend fetches issued.",
		}, []string{"scope"}),
		DedupHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metrics_dedup_hits_total",
			Help: "Fetches skipped because the request fingerprint was unchanged.",
		}, []string{"scope"}),
		StaleDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metrics_stale_drops_total",
			Help: "Responses discarded because a newer request superseded them.",
		}, []string{"scope"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metrics_fetch_errors_total",
			Help: "Fetches that ended in an error transition.",
		}, []string{"scope"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metrics_fetch_duration_seconds",
			Help:    "Duration of backend fetches.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	reg.MustRegister(c.Fetches, c.DedupHits, c.StaleDrops, c.Errors, c.FetchDuration)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
