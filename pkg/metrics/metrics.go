// Package metrics 注册推荐链路与索引刷新的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐请求
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lastcall_recommend_requests_total",
			Help: "Total number of recommend requests by result source and reason",
		},
		[]string{"source", "reason"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lastcall_recommend_duration_seconds",
			Help:    "Duration of recommend requests in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	RecommendCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lastcall_recommend_candidates",
			Help:    "Number of candidates entering the scoring pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// 索引刷新
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lastcall_refresh_runs_total",
			Help: "Total number of index refresh runs by status",
		},
		[]string{"status"}, // "success", "no_embeddings", "error"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lastcall_refresh_duration_seconds",
			Help:    "Duration of index refresh runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	EmbeddingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lastcall_embedding_failures_total",
			Help: "Total number of items whose embedding call failed during refresh",
		},
	)

	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lastcall_index_items",
			Help: "Number of items in the published vector index",
		},
	)

	IndexVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lastcall_index_version",
			Help: "Version of the published vector index snapshot",
		},
	)
)

// RecordRecommend 记录一次推荐请求。
func RecordRecommend(source, reason string, candidates int, duration time.Duration) {
	RecommendRequests.WithLabelValues(source, reason).Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendCandidates.Observe(float64(candidates))
}

// RecordRefresh 记录一次索引刷新。
func RecordRefresh(status string, failures int, duration time.Duration) {
	RefreshRuns.WithLabelValues(status).Inc()
	RefreshDuration.Observe(duration.Seconds())
	EmbeddingFailures.Add(float64(failures))
}

// SetIndex 更新索引规模与版本。
func SetIndex(size int, version uint64) {
	IndexSize.Set(float64(size))
	IndexVersion.Set(float64(version))
}
