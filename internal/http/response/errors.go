package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
)

// RespondAPIError maps a service error onto the envelope. Typed errors
// (*apierr.Error, *aggregates.Error) carry their own status and code;
// anything else is treated as internal: the cause goes to gin's error
// list for the request logger, not to the client.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	var agg *aggregates.Error
	if errors.As(err, &agg) {
		RespondError(c, statusForAggregate(agg.Code), string(agg.Code), agg)
		return
	}

	if err != nil {
		_ = c.Error(err)
	}
	RespondError(c, http.StatusInternalServerError, fallbackCode, errors.New("internal error"))
}

func statusForAggregate(code aggregates.ErrorCode) int {
	switch code {
	case aggregates.CodeValidation:
		return http.StatusBadRequest
	case aggregates.CodeNotFound:
		return http.StatusNotFound
	case aggregates.CodeConflict, aggregates.CodeInvariantViolation:
		return http.StatusConflict
	case aggregates.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case aggregates.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
