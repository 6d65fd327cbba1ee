package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type ArtisanHandler struct {
	artisanService services.ArtisanService
}

func NewArtisanHandler(artisanService services.ArtisanService) *ArtisanHandler {
	return &ArtisanHandler{artisanService: artisanService}
}

// PUT /api/artisans
func (ah *ArtisanHandler) Upsert(c *gin.Context) {
	var req services.UpsertArtisanProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, err := ah.artisanService.Upsert(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "upsert_artisan_failed")
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// GET /api/artisans?specialty=PLUMBING&limit=50
func (ah *ArtisanHandler) List(c *gin.Context) {
	specialty := strings.TrimSpace(c.Query("specialty"))
	profiles, err := ah.artisanService.List(c.Request.Context(), specialty, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_artisans_failed")
		return
	}
	response.RespondOK(c, gin.H{"profiles": profiles})
}

// GET /api/artisans/:id
func (ah *ArtisanHandler) Get(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return
	}
	profile, err := ah.artisanService.Get(c.Request.Context(), profileID)
	if err != nil {
		response.RespondAPIError(c, err, "get_artisan_failed")
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// GET /api/users/:id/artisan-profile
func (ah *ArtisanHandler) GetByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	profile, err := ah.artisanService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err, "get_artisan_failed")
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// POST /api/artisans/:id/rate
func (ah *ArtisanHandler) Rate(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return
	}
	var req services.RateArtisanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, err := ah.artisanService.Rate(c.Request.Context(), profileID, req)
	if err != nil {
		response.RespondAPIError(c, err, "rate_artisan_failed")
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// DELETE /api/artisans/:id
func (ah *ArtisanHandler) Delete(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return
	}
	if err := ah.artisanService.Delete(c.Request.Context(), profileID); err != nil {
		response.RespondAPIError(c, err, "delete_artisan_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
