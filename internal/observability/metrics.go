package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// Metrics carries every Prometheus collector the backend emits. All methods
// are safe on a nil receiver so call sites never have to gate on Enabled().
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	jobRuns    *prometheus.CounterVec
	jobLatency *prometheus.HistogramVec

	emailSends *prometheus.CounterVec

	assistRequests *prometheus.CounterVec
	assistLatency  *prometheus.HistogramVec
	assistTokens   *prometheus.CounterVec
	assistCost     *prometheus.CounterVec

	pdfRenders *prometheus.CounterVec
	pdfLatency *prometheus.HistogramVec

	realtimeClients prometheus.Gauge
	realtimeEvents  *prometheus.CounterVec

	notifyDeliveries *prometheus.CounterVec

	signedURLs *prometheus.CounterVec

	securityEvents *prometheus.CounterVec
	costTotal      *prometheus.CounterVec
	dataQuality    *prometheus.CounterVec

	rollupAudits       prometheus.Counter
	rollupAuditSlow    prometheus.Counter
	rollupAuditLatency *prometheus.HistogramVec
	rollupDrift        *prometheus.CounterVec

	queueDepth *prometheus.GaugeVec
	pgStats    *prometheus.GaugeVec
	redisUp    prometheus.Gauge
	redisPing  prometheus.Gauge

	sloCompliance *prometheus.GaugeVec
	sloBudget     *prometheus.GaugeVec
	sloBurn       *prometheus.GaugeVec

	sloLatencyThreshold  float64
	rollupAuditThreshold float64

	// The prometheus vectors are write-only from our side; the SLO evaluator
	// needs readable totals, so the hot paths also bump these.
	apiTotal       sloCounter
	apiError       sloCounter
	apiGood        sloCounter
	aggregateTotal sloCounter
	aggregateError sloCounter
	jobTotal       sloCounter
	jobError       sloCounter
	emailTotal     sloCounter
	emailError     sloCounter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

var (
	assistTelemetryOnce      sync.Once
	assistTelemetryOn        bool
	assistCostInputPer1KUSD  float64
	assistCostOutputPer1KUSD float64
)

func assistTelemetryEnabled() bool {
	assistTelemetryOnce.Do(loadAssistTelemetryConfig)
	return assistTelemetryOn
}

func assistCostRates() (float64, float64) {
	assistTelemetryOnce.Do(loadAssistTelemetryConfig)
	return assistCostInputPer1KUSD, assistCostOutputPer1KUSD
}

func loadAssistTelemetryConfig() {
	assistTelemetryOn = parseBoolEnv("ASSIST_TELEMETRY_ENABLED", false)
	assistCostInputPer1KUSD = parseFloatEnv("ASSIST_COST_INPUT_PER_1K", 0)
	assistCostOutputPer1KUSD = parseFloatEnv("ASSIST_COST_OUTPUT_PER_1K", 0)
}

func parseBoolEnv(key string, fallback bool) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if val == "" {
		return fallback
	}
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseFloatEnv(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		latencyThreshold := 0.5
		if v := strings.TrimSpace(os.Getenv("SLO_API_LATENCY_THRESHOLD_SECONDS")); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				latencyThreshold = f
			}
		}
		auditThreshold := 60.0
		if v := strings.TrimSpace(os.Getenv("SLO_ROLLUP_AUDIT_THRESHOLD_SECONDS")); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				auditThreshold = f
			}
		}
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			prometheus.NewGoCollector(),
		)
		factory := promauto.With(registry)
		instance = &Metrics{
			registry: registry,
			httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "http", Name: "requests_total",
				Help: "Total API requests by method/route/status.",
			}, []string{"method", "route", "status"}),
			httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "http", Name: "request_duration_seconds",
				Help:    "API request latency in seconds by method/route/status.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			}, []string{"method", "route", "status"}),
			httpInflight: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "http", Name: "inflight_requests",
				Help: "In-flight API requests.",
			}),
			aggregateOps: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "aggregate", Name: "operations_total",
				Help: "Aggregate write operations by operation/outcome status.",
			}, []string{"operation", "status"}),
			aggregateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "aggregate", Name: "operation_duration_seconds",
				Help:    "Aggregate write operation latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"operation", "status"}),
			aggregateConflicts: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "aggregate", Name: "conflicts_total",
				Help: "Aggregate operations rejected by concurrency guards.",
			}, []string{"operation"}),
			aggregateRetries: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "aggregate", Name: "retries_total",
				Help: "Aggregate operations that ended retryable.",
			}, []string{"operation"}),
			jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "jobs", Name: "runs_total",
				Help: "Scheduled job runs by job/status.",
			}, []string{"job", "status"}),
			jobLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "jobs", Name: "run_duration_seconds",
				Help:    "Scheduled job run duration in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			}, []string{"job", "status"}),
			emailSends: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "email", Name: "sends_total",
				Help: "Outbound email sends by kind/status.",
			}, []string{"kind", "status"}),
			assistRequests: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "assist", Name: "requests_total",
				Help: "AI assist calls by feature/model/status.",
			}, []string{"feature", "model", "status"}),
			assistLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "assist", Name: "request_duration_seconds",
				Help:    "AI assist call latency in seconds by feature/model/status.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			}, []string{"feature", "model", "status"}),
			assistTokens: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "assist", Name: "tokens_total",
				Help: "AI assist tokens by model/direction.",
			}, []string{"model", "direction"}),
			assistCost: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "assist", Name: "cost_usd_total",
				Help: "Estimated AI assist cost (USD) by model/direction.",
			}, []string{"model", "direction"}),
			pdfRenders: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "pdf", Name: "renders_total",
				Help: "PDF document renders by document/status.",
			}, []string{"document", "status"}),
			pdfLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "pdf", Name: "render_duration_seconds",
				Help:    "PDF render duration in seconds by document.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			}, []string{"document"}),
			realtimeClients: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "realtime", Name: "connected_clients",
				Help: "Connected SSE clients.",
			}),
			realtimeEvents: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "realtime", Name: "events_total",
				Help: "Realtime events published by kind.",
			}, []string{"kind"}),
			notifyDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "notify", Name: "deliveries_total",
				Help: "Notification deliveries by kind/channel.",
			}, []string{"kind", "channel"}),
			signedURLs: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "storage", Name: "signed_urls_total",
				Help: "Signed object URLs issued by category/operation.",
			}, []string{"category", "op"}),
			securityEvents: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "security", Name: "events_total",
				Help: "Security-related events by type.",
			}, []string{"event"}),
			costTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "cost", Name: "usd_total",
				Help: "Cost telemetry (USD) by category/source.",
			}, []string{"category", "source"}),
			dataQuality: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "data", Name: "quality_issues_total",
				Help: "Data quality issues by stage/issue/key.",
			}, []string{"stage", "issue", "key"}),
			rollupAudits: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "rollup", Name: "audits_total",
				Help: "Financial rollup audits performed.",
			}),
			rollupAuditSlow: factory.NewCounter(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "rollup", Name: "audits_slow_total",
				Help: "Financial rollup audits over the latency threshold.",
			}),
			rollupAuditLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "propflow", Subsystem: "rollup", Name: "audit_duration_seconds",
				Help:    "Financial rollup audit duration in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			}, []string{"status"}),
			rollupDrift: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: "propflow", Subsystem: "rollup", Name: "drift_total",
				Help: "Stored totals that disagreed with recomputed totals, by entity.",
			}, []string{"entity"}),
			queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "ops", Name: "approval_queue_depth",
				Help: "Rows awaiting a human decision, by queue.",
			}, []string{"queue"}),
			pgStats: factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "ops", Name: "postgres_stats",
				Help: "Postgres connection pool stats.",
			}, []string{"metric"}),
			redisUp: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "ops", Name: "redis_up",
				Help: "Redis connectivity (1=up, 0=down).",
			}),
			redisPing: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "ops", Name: "redis_ping_seconds",
				Help: "Redis ping latency in seconds.",
			}),
			sloCompliance: factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "slo", Name: "compliance",
				Help: "SLO compliance (SLI) over window.",
			}, []string{"slo", "window"}),
			sloBudget: factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "slo", Name: "error_budget_remaining",
				Help: "Error budget remaining (0-1).",
			}, []string{"slo", "window"}),
			sloBurn: factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "propflow", Subsystem: "slo", Name: "burn_rate",
				Help: "Error budget burn rate.",
			}, []string{"slo", "window"}),
			sloLatencyThreshold:  latencyThreshold,
			rollupAuditThreshold: auditThreshold,
		}
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// Handler serves the metrics registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer exposes /metrics on its own listener when METRICS_ADDR is set,
// keeping scrape traffic off the API port.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
	m.apiTotal.inc()
	if isServerErrorStatus(status) {
		m.apiError.inc()
	}
	if m.sloLatencyThreshold > 0 && dur.Seconds() <= m.sloLatencyThreshold {
		m.apiGood.inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.httpInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.httpInflight.Dec()
}

// ObserveAggregateOperation records one aggregate write with its outcome
// status ("success", "conflict", "validation", ...).
func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.WithLabelValues(operation, status).Inc()
	if dur > 0 {
		m.aggregateLatency.WithLabelValues(operation, status).Observe(dur.Seconds())
	}
	m.aggregateTotal.inc()
	if isSystemFailureStatus(status) {
		m.aggregateError.inc()
	}
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	m.aggregateConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	m.aggregateRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveJobRun(job, status string, dur time.Duration) {
	if m == nil {
		return
	}
	job = strings.TrimSpace(job)
	if job == "" {
		job = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	if dur > 0 {
		m.jobLatency.WithLabelValues(job, status).Observe(dur.Seconds())
	}
	m.jobTotal.inc()
	if isFailureStatus(status) {
		m.jobError.inc()
	}
}

func (m *Metrics) IncEmailSend(kind, status string) {
	if m == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	m.emailSends.WithLabelValues(kind, status).Inc()
	m.emailTotal.inc()
	if isFailureStatus(status) {
		m.emailError.inc()
	}
}

func (m *Metrics) ObserveAssistCall(feature, model, status string, dur time.Duration, promptTokens, completionTokens int) {
	if m == nil || !assistTelemetryEnabled() {
		return
	}
	feature = strings.TrimSpace(feature)
	if feature == "" {
		feature = "unknown"
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	m.assistRequests.WithLabelValues(feature, model, status).Inc()
	if dur > 0 {
		m.assistLatency.WithLabelValues(feature, model, status).Observe(dur.Seconds())
	}
	totalTokens := promptTokens + completionTokens
	if promptTokens > 0 {
		m.assistTokens.WithLabelValues(model, "input").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.assistTokens.WithLabelValues(model, "output").Add(float64(completionTokens))
	}
	if totalTokens > 0 {
		m.assistTokens.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
	inputRate, outputRate := assistCostRates()
	cost := 0.0
	if promptTokens > 0 && inputRate > 0 {
		in := (float64(promptTokens) / 1000.0) * inputRate
		m.assistCost.WithLabelValues(model, "input").Add(in)
		cost += in
	}
	if completionTokens > 0 && outputRate > 0 {
		out := (float64(completionTokens) / 1000.0) * outputRate
		m.assistCost.WithLabelValues(model, "output").Add(out)
		cost += out
	}
	if cost > 0 {
		m.AddCost("assist", "openai", cost)
	}
}

func (m *Metrics) ObservePDFRender(document, status string, dur time.Duration) {
	if m == nil {
		return
	}
	document = strings.TrimSpace(document)
	if document == "" {
		document = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	m.pdfRenders.WithLabelValues(document, status).Inc()
	if dur > 0 {
		m.pdfLatency.WithLabelValues(document).Observe(dur.Seconds())
	}
}

func (m *Metrics) RealtimeClientInc() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *Metrics) RealtimeClientDec() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}

func (m *Metrics) IncRealtimeEvent(kind string) {
	if m == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	m.realtimeEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotification(kind, channel string) {
	if m == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "unknown"
	}
	m.notifyDeliveries.WithLabelValues(kind, channel).Inc()
}

func (m *Metrics) IncSignedURL(category, op string) {
	if m == nil {
		return
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "unknown"
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "unknown"
	}
	m.signedURLs.WithLabelValues(category, op).Inc()
}

func (m *Metrics) IncSecurityEvent(event string) {
	if m == nil {
		return
	}
	event = strings.TrimSpace(event)
	if event == "" {
		event = "unknown"
	}
	m.securityEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) AddCost(category, source string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "unknown"
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}
	m.costTotal.WithLabelValues(category, source).Add(amount)
}

func (m *Metrics) IncDataQuality(stage, issue, key string) {
	if m == nil {
		return
	}
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	issue = strings.TrimSpace(issue)
	if issue == "" {
		issue = "unknown"
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "none"
	}
	m.dataQuality.WithLabelValues(stage, issue, key).Inc()
}

func (m *Metrics) ObserveRollupAudit(dur time.Duration, status string) {
	if m == nil {
		return
	}
	status = strings.TrimSpace(strings.ToLower(status))
	if status == "" {
		status = "unknown"
	}
	secs := dur.Seconds()
	if secs < 0 {
		secs = 0
	}
	m.rollupAudits.Inc()
	if m.rollupAuditThreshold > 0 && secs > m.rollupAuditThreshold {
		m.rollupAuditSlow.Inc()
	}
	m.rollupAuditLatency.WithLabelValues(status).Observe(secs)
}

func (m *Metrics) IncRollupDrift(entity string) {
	if m == nil {
		return
	}
	entity = strings.TrimSpace(entity)
	if entity == "" {
		entity = "unknown"
	}
	m.rollupDrift.WithLabelValues(entity).Inc()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.pgStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
				m.pgStats.WithLabelValues("max_idle_closed").Set(float64(stats.MaxIdleClosed))
				m.pgStats.WithLabelValues("max_idle_time_closed").Set(float64(stats.MaxIdleTimeClosed))
				m.pgStats.WithLabelValues("max_lifetime_closed").Set(float64(stats.MaxLifetimeClosed))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// StartApprovalQueueCollector gauges how many rows sit in each human decision
// queue so stuck approvals surface on dashboards before users complain.
func (m *Metrics) StartApprovalQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	queues := []struct {
		name   string
		model  interface{}
		status string
	}{
		{"payment_requests_pending", &types.PaymentRequest{}, types.PaymentStatusPending},
		{"quotations_submitted", &types.Quotation{}, types.QuotationStatusSubmitted},
		{"pm_invoices_awaiting_decision", &types.PropertyManagerInvoice{}, types.PMInvoiceStatusSentToPM},
		{"change_orders_proposed", &types.ChangeOrder{}, types.ChangeOrderStatusProposed},
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, q := range queues {
					var count int64
					if err := db.WithContext(ctx).Model(q.model).
						Where("status = ?", q.status).
						Count(&count).Error; err != nil {
						if log != nil {
							log.Warn("metrics: approval queue depth query failed", "queue", q.name, "error", err)
						}
						continue
					}
					m.queueDepth.WithLabelValues(q.name).Set(float64(count))
				}
			}
		}
	}()
}

// sloCounter is a readable running total for the SLO evaluator.
type sloCounter struct {
	n atomic.Uint64
}

func (c *sloCounter) inc() {
	c.n.Add(1)
}

func (c *sloCounter) value() float64 {
	return float64(c.n.Load())
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}

func isFailureStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "failed", "error", "timeout", "panic":
		return true
	default:
		return false
	}
}

// isSystemFailureStatus separates infrastructure failures from business
// rejections; a validation or conflict outcome is not an error budget spend.
func isSystemFailureStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "internal", "retryable":
		return true
	default:
		return false
	}
}
