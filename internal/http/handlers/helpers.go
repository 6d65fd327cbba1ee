package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
)

// queryLimit reads ?limit= and falls back to def when absent or
// unparseable. Services clamp the value again before querying.
func queryLimit(c *gin.Context, def int) int {
	limit := def
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return limit
}

// optionalUUIDQuery parses an optional UUID query param, responding 400
// itself on a malformed value. Absent means uuid.Nil (no filter).
func optionalUUIDQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}
