package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/realtime"
)

type captureEmitter struct {
	messages []realtime.SSEMessage
}

func (e *captureEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.messages = append(e.messages, msg)
}

func TestNotifierTargetsUserChannel(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)
	userID := uuid.New()

	order := &types.WorkOrder{ID: uuid.New(), OrderNumber: "WO-0003"}
	n.OrderAssigned(userID, order)

	if len(emitter.messages) != 1 {
		t.Fatalf("emitted %d messages, want 1", len(emitter.messages))
	}
	msg := emitter.messages[0]
	if msg.Channel != userID.String() {
		t.Errorf("channel: got %q want %q", msg.Channel, userID.String())
	}
	if msg.Event != realtime.SSEEventOrderAssigned {
		t.Errorf("event: got %q", msg.Event)
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		t.Fatalf("data shape: %T", msg.Data)
	}
	if data["order_number"] != "WO-0003" {
		t.Errorf("order_number: %v", data["order_number"])
	}
}

func TestNotifierInvoiceDecisionOmitsEmptyReason(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)
	userID := uuid.New()
	invoiceID := uuid.New()

	n.InvoiceDecision(userID, invoiceID, types.PMInvoiceStatusPMApproved, "")
	n.InvoiceDecision(userID, invoiceID, types.PMInvoiceStatusPMRejected, "missing receipts")

	if len(emitter.messages) != 2 {
		t.Fatalf("emitted %d messages, want 2", len(emitter.messages))
	}
	approved := emitter.messages[0].Data.(map[string]any)
	if _, present := approved["reject_reason"]; present {
		t.Error("approved decision should not carry a reject_reason")
	}
	rejected := emitter.messages[1].Data.(map[string]any)
	if rejected["reject_reason"] != "missing receipts" {
		t.Errorf("reject_reason: %v", rejected["reject_reason"])
	}
}

func TestNotifierDropsNilTargets(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)

	n.NotificationCreated(uuid.Nil, &types.Notification{})
	n.PaymentDecision(uuid.Nil, &types.PaymentRequest{})
	n.ReportReady(uuid.Nil, &types.ReportDocument{})

	if len(emitter.messages) != 0 {
		t.Fatalf("nil user ids should be dropped, emitted %d", len(emitter.messages))
	}
}

func TestNotifierSurvivesNilPayloads(t *testing.T) {
	emitter := &captureEmitter{}
	n := NewNotifier(emitter)
	userID := uuid.New()

	n.OrderAssigned(userID, nil)
	n.PaymentDecision(userID, nil)

	if len(emitter.messages) != 2 {
		t.Fatalf("emitted %d messages, want 2", len(emitter.messages))
	}
	orderData := emitter.messages[0].Data.(map[string]any)
	if orderData["order_id"] != uuid.Nil {
		t.Errorf("nil order should produce the zero id, got %v", orderData["order_id"])
	}
	paymentData := emitter.messages[1].Data.(map[string]any)
	if paymentData["status"] != "" {
		t.Errorf("nil request should produce an empty status, got %v", paymentData["status"])
	}
}
