package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FollowOperations counts follow and unfollow requests by outcome.
	FollowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsphere_follow_operations_total",
		Help: "Total follow graph operations by outcome",
	}, []string{"outcome"})

	// FeedBuildLatency records how long composing one feed page takes.
	FeedBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogsphere_feed_build_seconds",
		Help:    "Feed page composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode", "strategy"})

	// PostWrites counts post mutations by operation.
	PostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsphere_post_writes_total",
		Help: "Total post mutations by operation",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsphere_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})
)

// ObserveFeedBuild returns a function that records feed build latency when
// called (e.g. defer).
func ObserveFeedBuild(mode, strategy string) func() {
	start := time.Now()
	return func() {
		FeedBuildLatency.WithLabelValues(mode, strategy).Observe(time.Since(start).Seconds())
	}
}
