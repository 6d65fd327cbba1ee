package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/users/me
func (uh *UserHandler) Me(c *gin.Context) {
	u, err := uh.userService.Me(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_me_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/users
func (uh *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := uh.userService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_user_failed")
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// GET /api/users?role=ARTISAN&limit=50
func (uh *UserHandler) List(c *gin.Context) {
	role := strings.TrimSpace(c.Query("role"))
	users, err := uh.userService.List(c.Request.Context(), role, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_users_failed")
		return
	}
	response.RespondOK(c, gin.H{"users": users})
}

// GET /api/users/:id
func (uh *UserHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	u, err := uh.userService.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err, "get_user_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PATCH /api/users/me
func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := uh.userService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "update_profile_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PATCH /api/users/:id/role
func (uh *UserHandler) UpdateRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := uh.userService.UpdateRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		response.RespondAPIError(c, err, "update_role_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PATCH /api/users/me/password
func (uh *UserHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := uh.userService.UpdatePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		response.RespondAPIError(c, err, "update_password_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/users/me/avatar (multipart/form-data, field "file")
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	raw, ok := readUploadFile(c)
	if !ok {
		return
	}
	u, err := uh.userService.UploadAvatar(c.Request.Context(), raw)
	if err != nil {
		response.RespondAPIError(c, err, "upload_avatar_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// DELETE /api/users/:id
func (uh *UserHandler) Deactivate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	if err := uh.userService.Deactivate(c.Request.Context(), userID); err != nil {
		response.RespondAPIError(c, err, "deactivate_user_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// readUploadFile pulls the multipart "file" field, capped at 10MB.
// It writes the error response itself when the upload is unusable.
func readUploadFile(c *gin.Context) ([]byte, bool) {
	const maxBytes = 10 << 20

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return nil, false
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return nil, false
	}
	if len(raw) > maxBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", nil)
		return nil, false
	}
	return raw, true
}
