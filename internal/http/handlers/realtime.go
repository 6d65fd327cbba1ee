package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/realtime"
)

// RealtimeHandler owns the SSE endpoints. Every stream is subscribed to
// the caller's personal channel (their user ID); extra channels are
// managed through subscribe/unsubscribe and apply to all of the user's
// open streams, so a user with two tabs sees the same events in both.
type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*realtime.SSEClient]bool
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]map[*realtime.SSEClient]bool),
	}
}

// GET /api/realtime/stream
func (rh *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "not_authenticated", nil)
		return
	}
	userID := rd.UserID

	client := rh.hub.NewSSEClient(userID)
	rh.mu.Lock()
	if rh.clients[userID] == nil {
		rh.clients[userID] = make(map[*realtime.SSEClient]bool)
	}
	rh.clients[userID][client] = true
	rh.mu.Unlock()

	rh.hub.AddChannel(client, userID.String())
	rh.log.Info("sse stream open", "user_id", userID.String(), "client_id", client.ID.String())

	rh.hub.ServeHTTP(c.Writer, c.Request, client)

	rh.mu.Lock()
	delete(rh.clients[userID], client)
	if len(rh.clients[userID]) == 0 {
		delete(rh.clients, userID)
	}
	rh.mu.Unlock()
	rh.hub.CloseClient(client)
	rh.log.Info("sse stream closed", "user_id", userID.String(), "client_id", client.ID.String())
}

// POST /api/realtime/subscribe
func (rh *RealtimeHandler) Subscribe(c *gin.Context) {
	rh.changeSubscription(c, rh.hub.AddChannel, "subscribed")
}

// POST /api/realtime/unsubscribe
func (rh *RealtimeHandler) Unsubscribe(c *gin.Context) {
	rh.changeSubscription(c, rh.hub.RemoveChannel, "unsubscribed")
}

func (rh *RealtimeHandler) changeSubscription(c *gin.Context, apply func(*realtime.SSEClient, string), action string) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "not_authenticated", nil)
		return
	}

	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_channel", err)
		return
	}
	// Personal channels are user IDs. Joining someone else's is never
	// allowed, regardless of role.
	if other, err := uuid.Parse(req.Channel); err == nil && other != rd.UserID {
		response.RespondError(c, http.StatusForbidden, "channel_forbidden", nil)
		return
	}

	rh.mu.RLock()
	active := make([]*realtime.SSEClient, 0, len(rh.clients[rd.UserID]))
	for client := range rh.clients[rd.UserID] {
		active = append(active, client)
	}
	rh.mu.RUnlock()
	if len(active) == 0 {
		response.RespondError(c, http.StatusConflict, "no_active_stream", nil)
		return
	}

	for _, client := range active {
		apply(client, req.Channel)
	}
	response.RespondOK(c, gin.H{"message": action, "channel": req.Channel})
}
