package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/realtime"
)

// Notifier pushes per-user SSE events for the platform's domain moments.
// Every method is a no-op on a nil receiver, nil emitter, or nil user so
// callers never guard the fan-out.
type Notifier interface {
	NotificationCreated(userID uuid.UUID, n *types.Notification)
	OrderAssigned(userID uuid.UUID, order *types.WorkOrder)
	InvoiceDecision(userID uuid.UUID, invoiceID uuid.UUID, status, rejectReason string)
	PaymentDecision(userID uuid.UUID, request *types.PaymentRequest)
	ReportReady(userID uuid.UUID, doc *types.ReportDocument)
}

type notifier struct {
	emit SSEEmitter
}

func NewNotifier(emit SSEEmitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) NotificationCreated(userID uuid.UUID, notif *types.Notification) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventNotificationCreated,
		Data:    map[string]any{"notification": notif},
	})
}

func (n *notifier) OrderAssigned(userID uuid.UUID, order *types.WorkOrder) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventOrderAssigned,
		Data: map[string]any{
			"order_id":     safeOrderID(order),
			"order_number": safeOrderNumber(order),
			"order":        order,
		},
	})
}

func (n *notifier) InvoiceDecision(userID uuid.UUID, invoiceID uuid.UUID, status, rejectReason string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	data := map[string]any{
		"invoice_id": invoiceID,
		"status":     status,
	}
	if rejectReason != "" {
		data["reject_reason"] = rejectReason
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventInvoiceDecision,
		Data:    data,
	})
}

func (n *notifier) PaymentDecision(userID uuid.UUID, request *types.PaymentRequest) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventPaymentDecision,
		Data: map[string]any{
			"request_id": safeRequestID(request),
			"status":     safeRequestStatus(request),
			"request":    request,
		},
	})
}

func (n *notifier) ReportReady(userID uuid.UUID, doc *types.ReportDocument) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventReportReady,
		Data:    map[string]any{"document": doc},
	})
}

func safeOrderID(order *types.WorkOrder) uuid.UUID {
	if order == nil {
		return uuid.Nil
	}
	return order.ID
}

func safeOrderNumber(order *types.WorkOrder) string {
	if order == nil {
		return ""
	}
	return order.OrderNumber
}

func safeRequestID(request *types.PaymentRequest) uuid.UUID {
	if request == nil {
		return uuid.Nil
	}
	return request.ID
}

func safeRequestStatus(request *types.PaymentRequest) string {
	if request == nil {
		return ""
	}
	return request.Status
}
