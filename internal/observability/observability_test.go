package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/propflow/propflow-backend/internal/platform/logger"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/v1/projects", "200", 10*time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.ObserveAggregateOperation("Invoices.IssueContractorInvoice", "success", time.Millisecond)
	m.IncAggregateConflict("Payments.DecidePaymentRequest")
	m.IncAggregateRetry("Orders.ConvertLeadToRFQ")
	m.ObserveJobRun("billing_sweep", "success", time.Second)
	m.IncEmailSend("rfq_invite", "sent")
	m.ObservePDFRender("pm_invoice", "success", 50*time.Millisecond)
	m.IncRollupDrift("milestone")
	m.StartPostgresCollector(nil, nil, nil)
}

func TestExtractMissingKeys(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "required form",
			input: `assist response invalid: required missing keys: [subject body]`,
			want:  []string{"subject", "body"},
		},
		{
			name:  "alt form with quotes and commas",
			input: `lead import failed, missing keys: ["contact_email", "source"]`,
			want:  []string{"contact_email", "source"},
		},
		{
			name:  "no keys",
			input: "amount must not be negative",
			want:  nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractMissingKeys(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("extractMissingKeys(%q) = %v, want %v", tc.input, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("extractMissingKeys(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestRollingSumEvictsOldest(t *testing.T) {
	r := newRollingSum(3)
	r.add(1)
	r.add(2)
	r.add(3)
	if r.total != 6 {
		t.Fatalf("total = %v, want 6", r.total)
	}
	r.add(4)
	if r.total != 9 {
		t.Fatalf("total after eviction = %v, want 9", r.total)
	}
}

func TestFormatWindowLabel(t *testing.T) {
	cases := []struct {
		window time.Duration
		want   string
	}{
		{720 * time.Hour, "30d"},
		{36 * time.Hour, "36h"},
		{30 * time.Minute, "30m"},
	}
	for _, tc := range cases {
		if got := formatWindowLabel(tc.window); got != tc.want {
			t.Errorf("formatWindowLabel(%v) = %q, want %q", tc.window, got, tc.want)
		}
	}
}

func TestFailureStatusClassification(t *testing.T) {
	if !isServerErrorStatus("503") {
		t.Errorf("503 should count as a server error")
	}
	if isServerErrorStatus("404") {
		t.Errorf("404 should not count as a server error")
	}
	if !isFailureStatus("FAILED") {
		t.Errorf("FAILED should count as a job failure")
	}
	if isFailureStatus("success") {
		t.Errorf("success should not count as a job failure")
	}
	if !isSystemFailureStatus("internal") {
		t.Errorf("internal aggregate outcomes spend error budget")
	}
	if isSystemFailureStatus("conflict") {
		t.Errorf("conflict outcomes are business rejections, not failures")
	}
}

func TestReportRollupDriftPostsAlert(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode alert payload: %v", err)
		}
		mu.Lock()
		payloads = append(payloads, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("ROLLUP_DRIFT_ALERTS_ENABLED", "true")
	t.Setenv("ROLLUP_DRIFT_ALERT_WEBHOOK_URL", srv.URL)
	t.Setenv("ROLLUP_DRIFT_ALERT_MIN_INTERVAL_SECONDS", "600")
	driftAlerts.mu.Lock()
	driftAlerts.last = map[string]time.Time{}
	driftAlerts.mu.Unlock()

	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	drifts := []RollupDriftMetric{
		{Entity: "milestone", EntityID: "m1", Field: "actual_cost", Stored: 100, Computed: 185, Drift: 85},
		{Entity: "project", EntityID: "p1", Field: "budget_spent", Stored: 100, Computed: 185, Drift: 85},
	}
	ctx := context.Background()

	ReportRollupDrift(ctx, log, nil, nil)
	ReportRollupDrift(ctx, log, drifts, map[string]any{"projects_checked": 1})
	ReportRollupDrift(ctx, log, drifts, map[string]any{"projects_checked": 1})

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 1 {
		t.Fatalf("alert posts = %d, want 1 (empty input skipped, repeat deduped)", len(payloads))
	}
	metrics, ok := payloads[0]["metrics"].([]any)
	if !ok || len(metrics) != 2 {
		t.Fatalf("alert metrics = %v, want both drifted entities", payloads[0]["metrics"])
	}
}
