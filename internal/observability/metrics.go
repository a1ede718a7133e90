package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "engine",
		Name:      "cache_hits_total",
		Help:      "Number of snapshot reads served from the cache.",
	})
	cacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "engine",
		Name:      "cache_misses_total",
		Help:      "Number of snapshot reads that required a platform fetch.",
	})
	fetchFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "engine",
		Name:      "fetch_failures_total",
		Help:      "Number of failed snapshot fetches from the data platform.",
	})
	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "engagement_service",
		Subsystem: "engine",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of snapshot fetches from the data platform.",
		Buckets:   prometheus.DefBuckets,
	})
	refreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "engagement_service",
		Subsystem: "engine",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful snapshot refresh.",
	})
)

func init() {
	prometheus.MustRegister(cacheHitCounter, cacheMissCounter, fetchFailureCounter, fetchDuration, refreshGauge)
}

// RecordCacheHit counts a snapshot read served from the cache.
func RecordCacheHit() { cacheHitCounter.Inc() }

// RecordCacheMiss counts a snapshot read that went to the platform.
func RecordCacheMiss() { cacheMissCounter.Inc() }

// RecordFetchFailure counts a failed platform fetch.
func RecordFetchFailure() { fetchFailureCounter.Inc() }

// RecordFetch tracks fetch latency.
func RecordFetch(elapsed time.Duration) { fetchDuration.Observe(elapsed.Seconds()) }

// RecordRefresh updates the refresh watermark gauge.
func RecordRefresh(ts time.Time) {
	if ts.IsZero() {
		return
	}
	refreshGauge.Set(float64(ts.Unix()))
}
