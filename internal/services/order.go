package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreateOrderInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ContractorID *uuid.UUID `json:"contractor_id,omitempty"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type ConvertRFQInput struct {
	QuotationID uuid.UUID  `json:"quotation_id"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// OrderService manages work orders: conversion from accepted quotations,
// direct creation, and the status ladder. Assignment side effects
// (notification, email, realtime event) never roll back the write.
type OrderService interface {
	ConvertRFQ(ctx context.Context, rfqID uuid.UUID, in ConvertRFQInput) (*types.WorkOrder, error)
	Create(ctx context.Context, in CreateOrderInput) (*types.WorkOrder, error)
	Get(ctx context.Context, orderID uuid.UUID) (*types.WorkOrder, error)
	List(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.WorkOrder, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, toStatus string) (*types.WorkOrder, error)
}

type OrderServiceDeps struct {
	DB            *gorm.DB
	WorkOrders    repos.WorkOrderRepo
	Users         repos.UserRepo
	Orders        domainagg.OrdersAggregate
	Email         EmailService
	Notifications NotificationService
	Events        Notifier
}

type orderService struct {
	log  *logger.Logger
	deps OrderServiceDeps
}

func NewOrderService(log *logger.Logger, deps OrderServiceDeps) OrderService {
	return &orderService{log: log.With("service", "OrderService"), deps: deps}
}

// ConvertRFQ turns an accepted quotation into a work order. The
// aggregate owns the locks and the order numbering.
func (s *orderService) ConvertRFQ(ctx context.Context, rfqID uuid.UUID, in ConvertRFQInput) (*types.WorkOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Orders.ConvertRFQToOrder(ctx, domainagg.ConvertRFQInput{
		OrgID:       rd.OrgID,
		RFQID:       rfqID,
		QuotationID: in.QuotationID,
		ActorID:     rd.UserID,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, rd.OrgID, res.OrderID)
	if err != nil {
		return nil, err
	}
	s.announceAssignment(ctx, rd.OrgID, order)
	s.log.Info("RFQ converted to order", "rfq_id", rfqID, "order_id", order.ID, "order_number", order.OrderNumber)
	return order, nil
}

// Create raises a work order directly, without the RFQ pipeline. Used
// for repeat engagements where quoting would be ceremony.
func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (*types.WorkOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErr("title is required")
	}
	if in.Amount < 0 {
		return nil, validationErr("amount cannot be negative")
	}
	if in.ContractorID != nil {
		users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{*in.ContractorID})
		if err != nil {
			return nil, err
		}
		if len(users) == 0 || users[0].OrgID != rd.OrgID {
			return nil, notFoundErr("contractor", *in.ContractorID)
		}
		if users[0].Role != types.RoleContractor {
			return nil, validationErr("orders can only be assigned to CONTRACTOR users")
		}
	}

	order := &types.WorkOrder{
		OrgID:        rd.OrgID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PMID:         rd.UserID,
		ContractorID: in.ContractorID,
		Amount:       roundMoney(in.Amount),
		Currency:     normalizeCurrency(in.Currency),
		Status:       types.OrderStatusPending,
		StartDate:    in.StartDate,
		DueDate:      in.DueDate,
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		count, err := s.deps.WorkOrders.CountByOrg(dbc, rd.OrgID)
		if err != nil {
			return err
		}
		order.OrderNumber = fmt.Sprintf("WO-%04d", count+1)
		_, err = s.deps.WorkOrders.Create(dbc, []*types.WorkOrder{order})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.announceAssignment(ctx, rd.OrgID, order)
	s.log.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*types.WorkOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, rd.OrgID, orderID)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RoleContractor && (order.ContractorID == nil || *order.ContractorID != rd.UserID) {
		return nil, notFoundErr("order", orderID)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.WorkOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validOrderStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown order status: %s", status))
	}
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	return s.deps.WorkOrders.ListByOrg(readCtx(ctx), rd.OrgID, status, contractorID, limit)
}

// UpdateStatus walks the order ladder. Contractors move their own orders
// forward; cancellation and closing stay with the PM side.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, toStatus string) (*types.WorkOrder, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if !validOrderStatus(toStatus) {
		return nil, validationErr(fmt.Sprintf("unknown order status: %s", toStatus))
	}
	switch toStatus {
	case types.OrderStatusCancelled, types.OrderStatusClosed:
		if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
			return nil, err
		}
	}

	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		order, err := s.deps.WorkOrders.LockByID(dbc, orderID)
		if err != nil {
			return err
		}
		if order == nil || order.OrgID != rd.OrgID {
			return notFoundErr("order", orderID)
		}
		if rd.Role == types.RoleContractor && (order.ContractorID == nil || *order.ContractorID != rd.UserID) {
			return notFoundErr("order", orderID)
		}
		if !types.OrderTransitionAllowed(order.Status, toStatus) {
			return conflictErr(fmt.Sprintf("order cannot move from %s to %s", order.Status, toStatus))
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":     toStatus,
			"updated_at": now,
		}
		if toStatus == types.OrderStatusCompleted {
			updates["completed_at"] = now
		}
		return s.deps.WorkOrders.UpdateFields(dbc, orderID, updates)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated", "order_id", orderID, "to", toStatus, "by", rd.UserID)
	return s.load(ctx, rd.OrgID, orderID)
}

// announceAssignment notifies the assigned contractor over every channel
// we have. Best effort; the order row is already committed.
func (s *orderService) announceAssignment(ctx context.Context, orgID uuid.UUID, order *types.WorkOrder) {
	if order == nil || order.ContractorID == nil {
		return
	}
	contractorID := *order.ContractorID
	if s.deps.Notifications != nil {
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:      orgID,
			UserID:     contractorID,
			Kind:       types.NotificationKindOrderAssigned,
			Title:      "Work order assigned",
			Body:       fmt.Sprintf("%s (%s) has been assigned to you.", order.Title, order.OrderNumber),
			EntityKind: "work_order",
			EntityID:   &order.ID,
		})
	}
	if s.deps.Events != nil {
		s.deps.Events.OrderAssigned(contractorID, order)
	}
	if s.deps.Email != nil {
		users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{contractorID})
		if err != nil || len(users) == 0 {
			s.log.Warn("could not load contractor for assignment email", "contractor_id", contractorID, "error", err)
			return
		}
		if err := s.deps.Email.SendOrderNotification(ctx, users[0], order); err != nil {
			s.log.Warn("assignment email failed (ignored)", "order_id", order.ID, "error", err)
		}
	}
}

func (s *orderService) load(ctx context.Context, orgID, orderID uuid.UUID) (*types.WorkOrder, error) {
	rows, err := s.deps.WorkOrders.GetByIDs(readCtx(ctx), []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("order", orderID)
	}
	return rows[0], nil
}

func validOrderStatus(status string) bool {
	switch status {
	case types.OrderStatusPending, types.OrderStatusAccepted, types.OrderStatusInProgress,
		types.OrderStatusCompleted, types.OrderStatusClosed, types.OrderStatusCancelled:
		return true
	}
	return false
}
