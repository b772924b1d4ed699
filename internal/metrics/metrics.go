// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// コンテンツ解決・報酬エンジン・セッション層から利用する。
type MetricsCollector interface {
	RecordImageResolved(source string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordGenerationRetry(model string)
	RecordGenerationLatency(duration time.Duration)
	RecordStoryCompleted()
	RecordBadgeAwarded(badgeID string)
	RecordRareDrop()
	SessionOpened()
	SessionClosed()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	imageResolved  *prometheus.CounterVec
	cacheHit       prometheus.Counter
	cacheMiss      prometheus.Counter
	genRetry       *prometheus.CounterVec
	genLatency     prometheus.Histogram
	storyCompleted prometheus.Counter
	badgeAwarded   *prometheus.CounterVec
	rareDrop       prometheus.Counter
	activeSessions prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		imageResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntalo_image_resolved_total",
			Help: "解決された挿絵のソース別合計数",
		}, []string{"source"}),
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntalo_cache_hit_total",
			Help: "生成キャッシュヒットの合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntalo_cache_miss_total",
			Help: "生成キャッシュミスの合計数",
		}),
		genRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntalo_generation_retry_total",
			Help: "生成リクエストリトライのモデル別合計数",
		}, []string{"model"}),
		genLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ntalo_generation_latency_seconds",
			Help:    "生成リクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		storyCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntalo_story_completed_total",
			Help: "読了した物語の合計数",
		}),
		badgeAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntalo_badge_awarded_total",
			Help: "付与されたバッジのID別合計数",
		}, []string{"badge_id"}),
		rareDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntalo_rare_drop_total",
			Help: "レアキャラクター当選の合計数",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntalo_active_sessions",
			Help: "アクティブな読書セッション数",
		}),
	}

	reg.MustRegister(
		c.imageResolved,
		c.cacheHit,
		c.cacheMiss,
		c.genRetry,
		c.genLatency,
		c.storyCompleted,
		c.badgeAwarded,
		c.rareDrop,
		c.activeSessions,
	)

	return c
}

// RecordImageResolved は挿絵の解決をソース別に記録する。
// source: custom / embedded / asset / legacy / cache / generated / unavailable
func (c *Collector) RecordImageResolved(source string) {
	c.imageResolved.WithLabelValues(source).Inc()
}

// RecordCacheHit は生成キャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss は生成キャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// RecordGenerationRetry は生成リクエストのリトライを記録する。
func (c *Collector) RecordGenerationRetry(model string) {
	c.genRetry.WithLabelValues(model).Inc()
}

// RecordGenerationLatency は生成リクエストのレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.genLatency.Observe(duration.Seconds())
}

// RecordStoryCompleted は物語の読了を記録する。
func (c *Collector) RecordStoryCompleted() {
	c.storyCompleted.Inc()
}

// RecordBadgeAwarded はバッジの付与を記録する。
func (c *Collector) RecordBadgeAwarded(badgeID string) {
	c.badgeAwarded.WithLabelValues(badgeID).Inc()
}

// RecordRareDrop はレアキャラクターの当選を記録する。
func (c *Collector) RecordRareDrop() {
	c.rareDrop.Inc()
}

// SessionOpened はアクティブセッション数をインクリメントする。
func (c *Collector) SessionOpened() {
	c.activeSessions.Inc()
}

// SessionClosed はアクティブセッション数をデクリメントする。
func (c *Collector) SessionClosed() {
	c.activeSessions.Dec()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
