// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービス、HTTPミドルウェア、クリーンアップワーカーから利用する。
type Collector struct {
	authOutcomes    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	accountsPruned prometheus.Counter
	cleanupRuns     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialcode_auth_outcomes_total",
			Help: "認証操作の結果別件数",
		}, []string{"operation", "result", "kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialcode_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialcode_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		accountsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialcode_cleanup_accounts_pruned_total",
			Help: "削除済み投稿への保存参照を取り除いたアカウント数の合計",
		}),
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialcode_cleanup_runs_total",
			Help: "クリーンアップジョブの実行回数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.authOutcomes,
		c.httpRequests,
		c.httpDuration,
		c.accountsPruned,
		c.cleanupRuns,
	)

	return c
}

// RecordAuthOutcome は認証操作（login, register, refresh）の結果を記録する。
func (c *Collector) RecordAuthOutcome(operation string, kind model.ErrorKind, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.authOutcomes.WithLabelValues(operation, result, string(kind)).Inc()
}

// ObserveHTTPRequest はHTTPリクエストの件数とレイテンシを記録する。
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCleanup はクリーンアップジョブの結果を記録する。
func (c *Collector) RecordCleanup(pruned int64, err error) {
	if err != nil {
		c.cleanupRuns.WithLabelValues("failure").Inc()
		return
	}
	c.cleanupRuns.WithLabelValues("success").Inc()
	c.accountsPruned.Add(float64(pruned))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
