// Package metrics はPrometheusによるHTTPリクエストとワーカーのメトリクスを提供する。
//
// インスタンスごとに専用のレジストリを持つため、テストで複数生成しても衝突しない。
// nilの*Metricsに対する記録メソッドは何もしない。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// コマンド処理結果のラベル値。
const (
	// OutcomeAccepted は状態遷移が受理されたことを表す。
	OutcomeAccepted = "accepted"
	// OutcomeRejected は業務ルールにより拒否されたことを表す。
	OutcomeRejected = "rejected"
	// OutcomeNotFound は対象が存在しなかったことを表す。
	OutcomeNotFound = "not_found"
	// OutcomeOK は参照系コマンドが成功したことを表す。
	OutcomeOK = "ok"
	// OutcomeError は内部障害を表す。
	OutcomeError = "error"
)

// Metrics はサービスのメトリクス一式を保持する。
type Metrics struct {
	// registry はこのインスタンス専用のレジストリ。
	registry *prometheus.Registry
	// httpRequests はHTTPリクエスト数。
	httpRequests *prometheus.CounterVec
	// httpDuration はHTTPリクエストの処理時間。
	httpDuration *prometheus.HistogramVec
	// commands はワーカーが処理したコマンド数。
	commands *prometheus.CounterVec
	// mailboxDepth はワーカーのメールボックスに滞留しているコマンド数。
	mailboxDepth *prometheus.GaugeVec
}

// New はメトリクスを生成する。メトリクス名にはserviceを接頭辞として付与する。
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: service + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    service + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: service + "_worker_commands_total",
				Help: "Total number of commands handled by workers",
			},
			[]string{"worker", "command", "outcome"},
		),
		mailboxDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: service + "_worker_mailbox_depth",
				Help: "Number of commands buffered in a worker mailbox",
			},
			[]string{"worker"},
		),
	}
}

// Middleware はHTTPリクエストの件数と処理時間を記録するginミドルウェアを返す。
// パスにはルート定義（例: /flats/:id）を使い、ラベルの種類数を抑える。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler はPrometheus形式でメトリクスを公開するハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCommand はワーカーのコマンド処理結果を記録する。
func (m *Metrics) ObserveCommand(worker, command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(worker, command, outcome).Inc()
}

// SetMailboxDepth はワーカーのメールボックスの滞留数を記録する。
func (m *Metrics) SetMailboxDepth(worker string, depth int) {
	if m == nil {
		return
	}
	m.mailboxDepth.WithLabelValues(worker).Set(float64(depth))
}
