package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/realtime"
)

func newRealtimeHandler(t *testing.T) *RealtimeHandler {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewRealtimeHandler(log, realtime.NewSSEHub(log))
}

func subscribeRequest(userID uuid.UUID, channel string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/subscribe",
		strings.NewReader(`{"channel":"`+channel+`"}`))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req = req.WithContext(ctxutil.WithRequestData(req.Context(), &ctxutil.RequestData{
			UserID: userID,
			OrgID:  uuid.New(),
		}))
	}
	c.Request = req
	return c, rec
}

func TestSubscribeRequiresAuth(t *testing.T) {
	rh := newRealtimeHandler(t)
	c, rec := subscribeRequest(uuid.Nil, "orders")
	rh.Subscribe(c)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSubscribeRejectsForeignUserChannel(t *testing.T) {
	rh := newRealtimeHandler(t)
	me, other := uuid.New(), uuid.New()
	c, rec := subscribeRequest(me, other.String())
	rh.Subscribe(c)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSubscribeWithoutStreamConflicts(t *testing.T) {
	rh := newRealtimeHandler(t)
	c, rec := subscribeRequest(uuid.New(), "project-updates")
	rh.Subscribe(c)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSubscribeAppliesToAllActiveClients(t *testing.T) {
	rh := newRealtimeHandler(t)
	userID := uuid.New()

	// Register two streams by hand, the way Stream does before serving.
	c1 := rh.hub.NewSSEClient(userID)
	c2 := rh.hub.NewSSEClient(userID)
	rh.clients[userID] = map[*realtime.SSEClient]bool{c1: true, c2: true}

	c, rec := subscribeRequest(userID, "project-updates")
	rh.Subscribe(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	for i, client := range []*realtime.SSEClient{c1, c2} {
		if !client.Channels["project-updates"] {
			t.Errorf("client %d not subscribed", i+1)
		}
	}

	c, rec = subscribeRequest(userID, userID.String())
	rh.Subscribe(c)
	if rec.Code != http.StatusOK {
		t.Errorf("own channel subscribe: status = %d, want 200", rec.Code)
	}
}

func TestUnsubscribeRemovesChannel(t *testing.T) {
	rh := newRealtimeHandler(t)
	userID := uuid.New()
	client := rh.hub.NewSSEClient(userID)
	rh.clients[userID] = map[*realtime.SSEClient]bool{client: true}
	rh.hub.AddChannel(client, "orders")

	c, rec := subscribeRequest(userID, "orders")
	rh.Unsubscribe(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if client.Channels["orders"] {
		t.Error("channel still present after unsubscribe")
	}
}
