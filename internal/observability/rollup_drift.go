package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// RollupDriftMetric describes one stored total that no longer matches the
// value recomputed from its source rows.
type RollupDriftMetric struct {
	Entity   string  `json:"entity"`
	EntityID string  `json:"entity_id,omitempty"`
	Field    string  `json:"field"`
	Stored   float64 `json:"stored"`
	Computed float64 `json:"computed"`
	Drift    float64 `json:"drift"`
}

type driftAlertState struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var driftAlerts driftAlertState

// ReportRollupDrift counts drifted rollups and, when alerting is enabled,
// posts the findings to the configured webhook. The rollup audit calls this
// after comparing stored totals against recomputed ones.
func ReportRollupDrift(ctx context.Context, log *logger.Logger, metrics []RollupDriftMetric, meta map[string]any) {
	if len(metrics) == 0 {
		return
	}
	if current := Current(); current != nil {
		for _, m := range metrics {
			current.IncRollupDrift(m.Entity)
		}
	}
	if log != nil {
		log.Warn("rollup drift detected", "count", len(metrics), "meta", meta)
	}
	if !rollupDriftAlertsEnabled() {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			meta["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			meta["request_id"] = td.RequestID
		}
	}

	webhook := rollupDriftAlertWebhook()
	if webhook == "" {
		return
	}
	key := "rollup_drift"
	driftAlerts.mu.Lock()
	if driftAlerts.last == nil {
		driftAlerts.last = map[string]time.Time{}
	}
	last := driftAlerts.last[key]
	minInterval := rollupDriftAlertMinInterval()
	if !last.IsZero() && time.Since(last) < minInterval {
		driftAlerts.mu.Unlock()
		return
	}
	driftAlerts.last[key] = time.Now()
	driftAlerts.mu.Unlock()

	payload := map[string]any{
		"title":     "Financial rollup drift detected",
		"metrics":   metrics,
		"meta":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		if log != nil {
			log.Warn("rollup drift alert request build failed", "error", err)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Warn("rollup drift alert post failed", "error", err)
		}
		return
	}
	_ = resp.Body.Close()
	if log != nil {
		log.Info("rollup drift alert sent", "status", resp.StatusCode)
	}
}

func rollupDriftAlertsEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("ROLLUP_DRIFT_ALERTS_ENABLED")))
	if v == "" {
		return false
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func rollupDriftAlertWebhook() string {
	val := strings.TrimSpace(os.Getenv("ROLLUP_DRIFT_ALERT_WEBHOOK_URL"))
	if val != "" {
		return val
	}
	return strings.TrimSpace(os.Getenv("SLO_ALERT_WEBHOOK_URL"))
}

func rollupDriftAlertMinInterval() time.Duration {
	raw := strings.TrimSpace(os.Getenv("ROLLUP_DRIFT_ALERT_MIN_INTERVAL_SECONDS"))
	if raw == "" {
		return 10 * time.Minute
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}
