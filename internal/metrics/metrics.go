// Package metrics 同步层的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal 按表与结果统计的拉取次数
	// outcome: success / cache_hit / stale_fallback / error
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_sheet_fetches_total",
			Help: "Total number of sheet data requests by outcome",
		},
		[]string{"sheet", "outcome"},
	)

	// RowsDropped 校验丢弃的行数
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_rows_dropped_total",
			Help: "Total number of rows dropped by required-field validation",
		},
		[]string{"sheet"},
	)

	// RefreshDuration 全量刷新耗时
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockboard_refresh_duration_seconds",
			Help:    "Duration of full refresh cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CachedSheets 当前缓存的表数量
	CachedSheets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockboard_cached_sheets",
			Help: "Number of sheets with a live cache entry",
		},
	)
)

const (
	OutcomeSuccess       = "success"
	OutcomeCacheHit      = "cache_hit"
	OutcomeStaleFallback = "stale_fallback"
	OutcomeError         = "error"
)
