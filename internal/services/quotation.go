package services

import (
	"context"
	"fmt"
	"math"
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

type QuotationItemInput struct {
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
}

type CreateQuotationInput struct {
	RFQID      uuid.UUID            `json:"rfq_id"`
	Currency   string               `json:"currency"`
	TaxRate    float64              `json:"tax_rate"`
	ValidUntil *time.Time           `json:"valid_until,omitempty"`
	Items      []QuotationItemInput `json:"items"`
}

type UpdateQuotationInput struct {
	Currency   string               `json:"currency"`
	TaxRate    float64              `json:"tax_rate"`
	ValidUntil *time.Time           `json:"valid_until,omitempty"`
	Items      []QuotationItemInput `json:"items"`
}

// QuotationService owns the contractor side of quoting. Monetary totals
// are always recomputed from the line items on the server; client-sent
// totals are ignored.
type QuotationService interface {
	Create(ctx context.Context, in CreateQuotationInput) (*types.Quotation, error)
	Get(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error)
	List(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.Quotation, error)
	Update(ctx context.Context, quotationID uuid.UUID, in UpdateQuotationInput) (*types.Quotation, error)
	Submit(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error)
	Withdraw(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error)
	Accept(ctx context.Context, quotationID uuid.UUID) (*domainagg.AcceptQuotationResult, error)
}

type QuotationServiceDeps struct {
	DB            *gorm.DB
	Quotations    repos.QuotationRepo
	Items         repos.QuotationItemRepo
	RFQs          repos.RFQRepo
	Orders        domainagg.OrdersAggregate
	Notifications NotificationService
}

type quotationService struct {
	log  *logger.Logger
	deps QuotationServiceDeps
}

func NewQuotationService(log *logger.Logger, deps QuotationServiceDeps) QuotationService {
	return &quotationService{log: log.With("service", "QuotationService"), deps: deps}
}

func (s *quotationService) Create(ctx context.Context, in CreateQuotationInput) (*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleContractor); err != nil {
		return nil, err
	}
	if in.RFQID == uuid.Nil {
		return nil, validationErr("rfq_id is required")
	}
	items, subtotal, err := buildQuotationItems(in.Items)
	if err != nil {
		return nil, err
	}
	if in.TaxRate < 0 || in.TaxRate > 1 {
		return nil, validationErr("tax_rate must be between 0 and 1")
	}

	quotation := &types.Quotation{
		OrgID:        rd.OrgID,
		RFQID:        in.RFQID,
		ContractorID: rd.UserID,
		QuoteNumber:  compactRef("QT", uuid.New()),
		Currency:     normalizeCurrency(in.Currency),
		Subtotal:     subtotal,
		Tax:          roundMoney(subtotal * in.TaxRate),
		Total:        roundMoney(subtotal + subtotal*in.TaxRate),
		Status:       types.QuotationStatusDraft,
		ValidUntil:   in.ValidUntil,
	}

	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		rfqs, err := s.deps.RFQs.GetByIDs(dbc, []uuid.UUID{in.RFQID})
		if err != nil {
			return err
		}
		if len(rfqs) == 0 || rfqs[0].OrgID != rd.OrgID {
			return notFoundErr("RFQ", in.RFQID)
		}
		if rfqs[0].Status != types.RFQStatusOpen && rfqs[0].Status != types.RFQStatusQuoted {
			return conflictErr(fmt.Sprintf("RFQ in status %s does not accept quotations", rfqs[0].Status))
		}
		if _, err := s.deps.Quotations.Create(dbc, []*types.Quotation{quotation}); err != nil {
			return err
		}
		for _, item := range items {
			item.QuotationID = quotation.ID
		}
		created, err := s.deps.Items.Create(dbc, items)
		if err != nil {
			return err
		}
		quotation.Items = derefItems(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("quotation drafted", "quotation_id", quotation.ID, "rfq_id", in.RFQID, "total", quotation.Total)
	return quotation, nil
}

func (s *quotationService) Get(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	quotation, err := s.load(ctx, rd, quotationID)
	if err != nil {
		return nil, err
	}
	items, err := s.deps.Items.ListByQuotationIDs(readCtx(ctx), []uuid.UUID{quotationID})
	if err != nil {
		return nil, err
	}
	quotation.Items = derefItems(items)
	return quotation, nil
}

func (s *quotationService) List(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validQuotationStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown quotation status: %s", status))
	}
	// Contractors list their own quotations regardless of the filter.
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	return s.deps.Quotations.ListByOrg(readCtx(ctx), rd.OrgID, status, contractorID, limit)
}

// Update replaces the draft's line items and repricing fields. Only the
// owning contractor may edit, and only while the quotation is a draft.
func (s *quotationService) Update(ctx context.Context, quotationID uuid.UUID, in UpdateQuotationInput) (*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleContractor); err != nil {
		return nil, err
	}
	items, subtotal, err := buildQuotationItems(in.Items)
	if err != nil {
		return nil, err
	}
	if in.TaxRate < 0 || in.TaxRate > 1 {
		return nil, validationErr("tax_rate must be between 0 and 1")
	}

	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		quotation, err := s.deps.Quotations.LockByID(dbc, quotationID)
		if err != nil {
			return err
		}
		if quotation == nil || quotation.OrgID != rd.OrgID || quotation.ContractorID != rd.UserID {
			return notFoundErr("quotation", quotationID)
		}
		if quotation.Status != types.QuotationStatusDraft {
			return conflictErr(fmt.Sprintf("quotation in status %s cannot be edited", quotation.Status))
		}
		if err := s.deps.Items.DeleteByQuotationIDs(dbc, []uuid.UUID{quotationID}); err != nil {
			return err
		}
		for _, item := range items {
			item.QuotationID = quotationID
		}
		if _, err := s.deps.Items.Create(dbc, items); err != nil {
			return err
		}
		return s.deps.Quotations.UpdateFields(dbc, quotationID, map[string]interface{}{
			"currency":    normalizeCurrency(in.Currency),
			"subtotal":    subtotal,
			"tax":         roundMoney(subtotal * in.TaxRate),
			"total":       roundMoney(subtotal + subtotal*in.TaxRate),
			"valid_until": in.ValidUntil,
			"updated_at":  time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, quotationID)
}

// Submit moves a draft into review and marks the RFQ as quoted.
func (s *quotationService) Submit(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleContractor); err != nil {
		return nil, err
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		quotation, err := s.deps.Quotations.LockByID(dbc, quotationID)
		if err != nil {
			return err
		}
		if quotation == nil || quotation.OrgID != rd.OrgID || quotation.ContractorID != rd.UserID {
			return notFoundErr("quotation", quotationID)
		}
		if quotation.Status != types.QuotationStatusDraft {
			return conflictErr(fmt.Sprintf("quotation in status %s cannot be submitted", quotation.Status))
		}
		rfq, err := s.deps.RFQs.LockByID(dbc, quotation.RFQID)
		if err != nil {
			return err
		}
		if rfq == nil {
			return notFoundErr("RFQ", quotation.RFQID)
		}
		if rfq.Status != types.RFQStatusOpen && rfq.Status != types.RFQStatusQuoted {
			return conflictErr(fmt.Sprintf("RFQ in status %s does not accept quotations", rfq.Status))
		}
		now := time.Now().UTC()
		if err := s.deps.Quotations.UpdateFields(dbc, quotationID, map[string]interface{}{
			"status":     types.QuotationStatusSubmitted,
			"updated_at": now,
		}); err != nil {
			return err
		}
		if rfq.Status == types.RFQStatusOpen {
			return s.deps.RFQs.UpdateFields(dbc, rfq.ID, map[string]interface{}{
				"status":     types.RFQStatusQuoted,
				"updated_at": now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("quotation submitted", "quotation_id", quotationID, "by", rd.UserID)
	return s.Get(ctx, quotationID)
}

// Withdraw pulls a quotation out of the running. Accepted quotations are
// final.
func (s *quotationService) Withdraw(ctx context.Context, quotationID uuid.UUID) (*types.Quotation, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleContractor); err != nil {
		return nil, err
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		quotation, err := s.deps.Quotations.LockByID(dbc, quotationID)
		if err != nil {
			return err
		}
		if quotation == nil || quotation.OrgID != rd.OrgID || quotation.ContractorID != rd.UserID {
			return notFoundErr("quotation", quotationID)
		}
		if quotation.Status != types.QuotationStatusDraft && quotation.Status != types.QuotationStatusSubmitted {
			return conflictErr(fmt.Sprintf("quotation in status %s cannot be withdrawn", quotation.Status))
		}
		return s.deps.Quotations.UpdateFields(dbc, quotationID, map[string]interface{}{
			"status":     types.QuotationStatusWithdrawn,
			"updated_at": time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, quotationID)
}

// Accept picks the winning quotation. The aggregate rejects submitted
// siblings atomically; losing contractors are notified afterwards.
func (s *quotationService) Accept(ctx context.Context, quotationID uuid.UUID) (*domainagg.AcceptQuotationResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Orders.AcceptQuotation(ctx, domainagg.AcceptQuotationInput{
		OrgID:       rd.OrgID,
		QuotationID: quotationID,
		ActorID:     rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.notifyDecision(ctx, rd.OrgID, res.RFQID, quotationID)
	s.log.Info("quotation accepted", "quotation_id", quotationID,
		"rfq_id", res.RFQID, "rejected_siblings", res.RejectedSiblings)
	return &res, nil
}

// notifyDecision tells every contractor on the RFQ how their quotation
// ended up. Best effort after the accept commits.
func (s *quotationService) notifyDecision(ctx context.Context, orgID, rfqID, acceptedID uuid.UUID) {
	if s.deps.Notifications == nil {
		return
	}
	quotations, err := s.deps.Quotations.ListByRFQ(readCtx(ctx), rfqID)
	if err != nil {
		s.log.Warn("could not load quotations for decision notices", "rfq_id", rfqID, "error", err)
		return
	}
	for _, q := range quotations {
		var title string
		switch {
		case q.ID == acceptedID:
			title = "Your quotation was accepted"
		case q.Status == types.QuotationStatusRejected:
			title = "Your quotation was not selected"
		default:
			continue
		}
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:      orgID,
			UserID:     q.ContractorID,
			Kind:       types.NotificationKindQuotationMoved,
			Title:      title,
			Body:       fmt.Sprintf("Quotation %s has moved to %s.", q.QuoteNumber, q.Status),
			EntityKind: "quotation",
			EntityID:   &q.ID,
		})
	}
}

func (s *quotationService) load(ctx context.Context, rd *ctxutil.RequestData, quotationID uuid.UUID) (*types.Quotation, error) {
	rows, err := s.deps.Quotations.GetByIDs(readCtx(ctx), []uuid.UUID{quotationID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != rd.OrgID {
		return nil, notFoundErr("quotation", quotationID)
	}
	if rd.Role == types.RoleContractor && rows[0].ContractorID != rd.UserID {
		return nil, notFoundErr("quotation", quotationID)
	}
	return rows[0], nil
}

// buildQuotationItems validates and prices the lines. Amounts and the
// subtotal are derived here, never taken from the client.
func buildQuotationItems(in []QuotationItemInput) ([]*types.QuotationItem, float64, error) {
	if len(in) == 0 {
		return nil, 0, validationErr("at least one line item is required")
	}
	items := make([]*types.QuotationItem, 0, len(in))
	var subtotal float64
	for i, line := range in {
		if strings.TrimSpace(line.Description) == "" {
			return nil, 0, validationErr(fmt.Sprintf("item %d: description is required", i+1))
		}
		if line.Quantity <= 0 {
			return nil, 0, validationErr(fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
		if line.UnitCost < 0 {
			return nil, 0, validationErr(fmt.Sprintf("item %d: unit_cost cannot be negative", i+1))
		}
		amount := roundMoney(line.Quantity * line.UnitCost)
		subtotal += amount
		items = append(items, &types.QuotationItem{
			Description: strings.TrimSpace(line.Description),
			Unit:        strings.TrimSpace(line.Unit),
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
			Amount:      amount,
			Position:    i,
		})
	}
	return items, roundMoney(subtotal), nil
}

func derefItems(items []*types.QuotationItem) []types.QuotationItem {
	out := make([]types.QuotationItem, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "USD"
	}
	return currency
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func validQuotationStatus(status string) bool {
	switch status {
	case types.QuotationStatusDraft, types.QuotationStatusSubmitted, types.QuotationStatusAccepted,
		types.QuotationStatusRejected, types.QuotationStatusWithdrawn:
		return true
	}
	return false
}
