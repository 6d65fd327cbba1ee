package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubResilienceReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventChatMessage, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventConversationUpdated, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventChatMessage {
		t.Fatalf("first event: want=%s got=%s", SSEEventChatMessage, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventConversationUpdated {
		t.Fatalf("second event: want=%s got=%s", SSEEventConversationUpdated, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventNotificationCreated, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventNotificationCreated {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventNotificationCreated, gotReconnect.Event)
	}
}

func TestSSEHubBroadcastScopedToChannel(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))

	userA := uuid.New()
	userB := uuid.New()
	clientA := hub.NewSSEClient(userA)
	clientB := hub.NewSSEClient(userB)
	hub.AddChannel(clientA, userA.String())
	hub.AddChannel(clientB, userB.String())

	hub.Broadcast(SSEMessage{Channel: userA.String(), Event: SSEEventPaymentDecision, Data: map[string]any{"status": "APPROVED"}})

	got := recvMessage(t, clientA.Outbound, time.Second)
	if got.Event != SSEEventPaymentDecision {
		t.Fatalf("clientA event: want=%s got=%s", SSEEventPaymentDecision, got.Event)
	}
	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("clientB should not receive another user's event, got=%s", msg.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHubDuplicateDeliveryExpectation(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	dup := SSEMessage{Channel: channel, Event: SSEEventInvoiceDecision, Data: map[string]any{"status": "PM_APPROVED"}}
	hub.Broadcast(dup)
	hub.Broadcast(dup)

	gotOne := recvMessage(t, client.Outbound, time.Second)
	gotTwo := recvMessage(t, client.Outbound, time.Second)
	if gotOne.Event != SSEEventInvoiceDecision || gotTwo.Event != SSEEventInvoiceDecision {
		t.Fatalf("expected duplicate decision events to be delivered, got=%s and %s", gotOne.Event, gotTwo.Event)
	}
}
