package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

// ErrUnauthorized is returned when no request data is present on the context.
var ErrUnauthorized = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid credentials"))

// requestData pulls the authenticated caller off the context.
func requestData(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil || rd.OrgID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return rd, nil
}

// requireRole rejects callers whose role is not in the allowed set.
func requireRole(rd *ctxutil.RequestData, roles ...string) error {
	for _, r := range roles {
		if rd.Role == r {
			return nil
		}
	}
	return apierr.New(http.StatusForbidden, "forbidden",
		fmt.Errorf("role %s may not perform this action", rd.Role))
}

func notFoundErr(entity string, id uuid.UUID) error {
	return apierr.New(http.StatusNotFound, "not_found", fmt.Errorf("%s not found: %s", entity, id))
}

func validationErr(msg string) error {
	return apierr.New(http.StatusBadRequest, "validation", errors.New(msg))
}

func conflictErr(msg string) error {
	return apierr.New(http.StatusConflict, "conflict", errors.New(msg))
}

// readCtx builds a non-transactional dbctx for read paths.
func readCtx(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctxutil.Default(ctx)}
}

// isAdmin and isPM are the two guard shorthands the write paths use most.
func isAdmin(rd *ctxutil.RequestData) bool { return rd.Role == types.RoleAdmin }

func isPMOrAdmin(rd *ctxutil.RequestData) bool {
	return rd.Role == types.RoleAdmin || rd.Role == types.RolePropertyManager
}

// compactRef derives a short uppercase reference from an id, matching the
// payslip reference shape.
func compactRef(prefix string, id uuid.UUID) string {
	compact := strings.ReplaceAll(id.String(), "-", "")
	return prefix + "-" + strings.ToUpper(compact[:10])
}
