package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondAPIError(c, err, "op_failed")

	var env ErrorEnvelope
	if uerr := json.Unmarshal(rec.Body.Bytes(), &env); uerr != nil {
		t.Fatalf("unmarshal envelope: %v (body=%q)", uerr, rec.Body.String())
	}
	return rec, env
}

func TestRespondAPIErrorUsesTypedStatus(t *testing.T) {
	rec, env := respond(t, apierr.New(402, "ai_quota_exceeded", errors.New("the AI provider account is out of credit")))
	if rec.Code != 402 {
		t.Fatalf("status: got=%d want=402", rec.Code)
	}
	if env.Error.Code != "ai_quota_exceeded" {
		t.Errorf("code: got=%q", env.Error.Code)
	}
	if env.Error.Message != "the AI provider account is out of credit" {
		t.Errorf("message: got=%q", env.Error.Message)
	}
}

func TestRespondAPIErrorMapsAggregateCodes(t *testing.T) {
	cases := []struct {
		name       string
		code       aggregates.ErrorCode
		wantStatus int
	}{
		{"validation", aggregates.CodeValidation, http.StatusBadRequest},
		{"not found", aggregates.CodeNotFound, http.StatusNotFound},
		{"conflict", aggregates.CodeConflict, http.StatusConflict},
		{"invariant", aggregates.CodeInvariantViolation, http.StatusConflict},
		{"precondition", aggregates.CodePreconditionFailed, http.StatusPreconditionFailed},
		{"retryable", aggregates.CodeRetryable, http.StatusServiceUnavailable},
		{"internal", aggregates.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := respond(t, aggregates.NewError(tc.code, "invoices.Issue", "boom", nil))
			if rec.Code != tc.wantStatus {
				t.Errorf("status: got=%d want=%d", rec.Code, tc.wantStatus)
			}
			if env.Error.Code != string(tc.code) {
				t.Errorf("code: got=%q want=%q", env.Error.Code, tc.code)
			}
		})
	}
}

func TestRespondAPIErrorHidesUnknownCauses(t *testing.T) {
	rec, env := respond(t, errors.New("pq: connection refused host=10.0.0.3"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d want=500", rec.Code)
	}
	if env.Error.Code != "op_failed" {
		t.Errorf("code: got=%q want=op_failed", env.Error.Code)
	}
	if env.Error.Message != "internal error" {
		t.Errorf("raw cause leaked to client: %q", env.Error.Message)
	}
}

func TestRespondAPIErrorUnwrapsNestedTypedError(t *testing.T) {
	inner := apierr.New(404, "not_found", errors.New("project not found"))
	rec, env := respond(t, errorsJoin(inner))
	if rec.Code != 404 {
		t.Fatalf("status: got=%d want=404", rec.Code)
	}
	if env.Error.Code != "not_found" {
		t.Errorf("code: got=%q", env.Error.Code)
	}
}

// errorsJoin wraps so errors.As has to walk the chain.
func errorsJoin(err error) error {
	return errors.Join(errors.New("while handling request"), err)
}
