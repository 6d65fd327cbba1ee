package services

import (
	"errors"
	"net/http"
	"testing"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/platform/openai"
)

func newTestAssistService(t *testing.T) *assistService {
	t.Helper()
	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &assistService{log: log}
}

func TestMapProviderErrorCategories(t *testing.T) {
	s := newTestAssistService(t)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"quota", openai.NewHTTPError(402, `{"error":{"message":"quota"}}`), http.StatusPaymentRequired, "ai_quota_exceeded"},
		{"quota body on 429", openai.NewHTTPError(429, `insufficient_quota`), http.StatusPaymentRequired, "ai_quota_exceeded"},
		{"rate limited", openai.NewHTTPError(429, `rate_limit_exceeded`), http.StatusTooManyRequests, "ai_rate_limited"},
		{"bad key", openai.NewHTTPError(401, `invalid api key`), http.StatusBadGateway, "ai_auth_failed"},
		{"forbidden key", openai.NewHTTPError(403, `no access`), http.StatusBadGateway, "ai_auth_failed"},
		{"provider down", openai.NewHTTPError(502, `bad gateway`), http.StatusServiceUnavailable, "ai_unavailable"},
		{"schema rejection", openai.NewHTTPError(400, `invalid schema`), http.StatusBadGateway, "ai_failed"},
		{"network error", errors.New("connection reset"), http.StatusBadGateway, "ai_failed"},
	}

	for _, tc := range cases {
		err := s.mapProviderError(tc.err)
		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) {
			t.Errorf("%s: expected apierr, got %T", tc.name, err)
			continue
		}
		if apiErr.Status != tc.wantStatus || apiErr.Code != tc.wantCode {
			t.Errorf("%s: got %d/%s want %d/%s", tc.name, apiErr.Status, apiErr.Code, tc.wantStatus, tc.wantCode)
		}
	}
}

func TestMapProviderErrorHidesRawCause(t *testing.T) {
	s := newTestAssistService(t)
	raw := openai.NewHTTPError(401, `{"error":{"message":"Incorrect API key provided: sk-proj-abc123"}}`)

	mapped := s.mapProviderError(raw)
	if got := mapped.Error(); got == "" || got == raw.Error() {
		t.Fatalf("mapped error should replace the provider message, got %q", got)
	}
}

func TestNormalizeSeverityDefaultsToMedium(t *testing.T) {
	cases := map[string]string{
		"low":       types.RiskSeverityLow,
		" HIGH ":    types.RiskSeverityHigh,
		"Critical":  types.RiskSeverityCritical,
		"MEDIUM":    types.RiskSeverityMedium,
		"severe":    types.RiskSeverityMedium,
		"":          types.RiskSeverityMedium,
		"CRITICAL!": types.RiskSeverityMedium,
	}
	for in, want := range cases {
		if got := normalizeSeverity(in); got != want {
			t.Errorf("normalizeSeverity(%q): got %q want %q", in, got, want)
		}
	}
}

func TestClampScore(t *testing.T) {
	cases := map[float64]float64{-5: 0, 0: 0, 42.5: 42.5, 100: 100, 250: 100}
	for in, want := range cases {
		if got := clampScore(in); got != want {
			t.Errorf("clampScore(%v): got %v want %v", in, got, want)
		}
	}
}

func TestModelOutputFieldHelpers(t *testing.T) {
	obj := map[string]any{
		"subject": "  Roof repair quote ",
		"score":   float64(87),
		"ranking": []any{
			map[string]any{"artisan_id": "a", "score": 90.0, "reason": "best fit"},
			"not an object",
			map[string]any{"artisan_id": "b"},
		},
	}

	if got := stringField(obj, "subject"); got != "Roof repair quote" {
		t.Errorf("stringField: got %q", got)
	}
	if got := stringField(obj, "missing"); got != "" {
		t.Errorf("stringField missing key: got %q", got)
	}
	if got := floatField(obj, "score"); got != 87 {
		t.Errorf("floatField: got %v", got)
	}
	if got := floatField(obj, "subject"); got != 0 {
		t.Errorf("floatField non-number: got %v", got)
	}

	rows := arrayField(obj, "ranking")
	if len(rows) != 2 {
		t.Fatalf("arrayField should keep only objects: got %d", len(rows))
	}
	if stringField(rows[0], "artisan_id") != "a" || stringField(rows[1], "artisan_id") != "b" {
		t.Errorf("arrayField order lost: %#v", rows)
	}
	if arrayField(obj, "subject") != nil {
		t.Error("arrayField on non-array should be nil")
	}
	if arrayField(nil, "ranking") != nil {
		t.Error("arrayField on nil obj should be nil")
	}
}
