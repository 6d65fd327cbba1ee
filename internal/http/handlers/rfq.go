package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type RFQHandler struct {
	rfqService services.RFQService
}

func NewRFQHandler(rfqService services.RFQService) *RFQHandler {
	return &RFQHandler{rfqService: rfqService}
}

// POST /api/rfqs
func (rh *RFQHandler) Create(c *gin.Context) {
	var req services.CreateRFQInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rfq, err := rh.rfqService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_rfq_failed")
		return
	}
	response.RespondCreated(c, gin.H{"rfq": rfq})
}

// GET /api/rfqs?status=OPEN&limit=50
func (rh *RFQHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	rfqs, err := rh.rfqService.List(c.Request.Context(), status, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_rfqs_failed")
		return
	}
	response.RespondOK(c, gin.H{"rfqs": rfqs})
}

// GET /api/rfqs/:id
//
// Contractors see their own quotation only; the service trims the view.
func (rh *RFQHandler) Get(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	view, err := rh.rfqService.Get(c.Request.Context(), rfqID)
	if err != nil {
		response.RespondAPIError(c, err, "get_rfq_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/rfqs/:id/close
func (rh *RFQHandler) Close(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	rfq, err := rh.rfqService.Close(c.Request.Context(), rfqID)
	if err != nil {
		response.RespondAPIError(c, err, "close_rfq_failed")
		return
	}
	response.RespondOK(c, gin.H{"rfq": rfq})
}

// POST /api/rfqs/:id/send
func (rh *RFQHandler) SendToContractors(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	res, err := rh.rfqService.SendToContractors(c.Request.Context(), rfqID)
	if err != nil {
		response.RespondAPIError(c, err, "send_rfq_failed")
		return
	}
	response.RespondOK(c, res)
}
