package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type InvoiceLineIn struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
}

type IssueContractorInvoiceInput struct {
	ContractorID uuid.UUID       `json:"contractor_id"`
	ProjectID    *uuid.UUID      `json:"project_id,omitempty"`
	WorkOrderID  *uuid.UUID      `json:"work_order_id,omitempty"`
	Currency     string          `json:"currency"`
	TaxRate      float64         `json:"tax_rate"`
	Lines        []InvoiceLineIn `json:"lines"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
}

type IssuePMInvoiceInput struct {
	ProjectID    uuid.UUID       `json:"project_id"`
	PMID         uuid.UUID       `json:"pm_id"`
	ContractorID uuid.UUID       `json:"contractor_id"`
	Currency     string          `json:"currency"`
	TaxRate      float64         `json:"tax_rate"`
	Lines        []InvoiceLineIn `json:"lines"`
}

type DecidePMInvoiceInput struct {
	Approve      bool   `json:"approve"`
	RejectReason string `json:"reject_reason"`
}

// InvoiceService fronts the invoices aggregate and adds the read side
// plus decision notifications. The aggregate owns numbering and every
// status transition.
type InvoiceService interface {
	IssueContractorInvoice(ctx context.Context, in IssueContractorInvoiceInput) (*types.ContractorInvoice, error)
	IssuePMInvoice(ctx context.Context, in IssuePMInvoiceInput) (*types.PropertyManagerInvoice, error)

	GetContractorInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.ContractorInvoice, error)
	GetPMInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error)
	ListContractorInvoices(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.ContractorInvoice, error)
	ListPMInvoices(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error)
	ListPendingApproval(ctx context.Context, limit int) ([]*types.PropertyManagerInvoice, error)

	TransitionContractorInvoice(ctx context.Context, invoiceID uuid.UUID, toStatus string) (*types.ContractorInvoice, error)
	SendPMInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error)
	DecidePMInvoice(ctx context.Context, invoiceID uuid.UUID, in DecidePMInvoiceInput) (*types.PropertyManagerInvoice, error)
	MarkPMInvoicePaid(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error)
}

type InvoiceServiceDeps struct {
	ContractorInvoices repos.ContractorInvoiceRepo
	PMInvoices         repos.PMInvoiceRepo
	Users              repos.UserRepo
	Aggregate          domainagg.InvoicesAggregate
	Email              EmailService
	Notifications      NotificationService
	Events             Notifier
}

type invoiceService struct {
	log  *logger.Logger
	deps InvoiceServiceDeps
}

func NewInvoiceService(log *logger.Logger, deps InvoiceServiceDeps) InvoiceService {
	return &invoiceService{log: log.With("service", "InvoiceService"), deps: deps}
}

func (s *invoiceService) IssueContractorInvoice(ctx context.Context, in IssueContractorInvoiceInput) (*types.ContractorInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	contractorID := in.ContractorID
	// Contractors invoice as themselves; the field is not theirs to set.
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	res, err := s.deps.Aggregate.IssueContractorInvoice(ctx, domainagg.IssueContractorInvoiceInput{
		OrgID:        rd.OrgID,
		ActorID:      rd.UserID,
		ContractorID: contractorID,
		ProjectID:    in.ProjectID,
		WorkOrderID:  in.WorkOrderID,
		Currency:     normalizeCurrency(in.Currency),
		TaxRate:      in.TaxRate,
		Lines:        toAggregateLines(in.Lines),
		DueDate:      in.DueDate,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("contractor invoice issued", "invoice_id", res.InvoiceID,
		"invoice_number", res.InvoiceNumber, "total", res.Total)
	return s.loadContractor(ctx, rd.OrgID, res.InvoiceID)
}

func (s *invoiceService) IssuePMInvoice(ctx context.Context, in IssuePMInvoiceInput) (*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager, types.RoleContractor); err != nil {
		return nil, err
	}
	contractorID := in.ContractorID
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	res, err := s.deps.Aggregate.IssuePMInvoice(ctx, domainagg.IssuePMInvoiceInput{
		OrgID:        rd.OrgID,
		ActorID:      rd.UserID,
		ProjectID:    in.ProjectID,
		PMID:         in.PMID,
		ContractorID: contractorID,
		Currency:     normalizeCurrency(in.Currency),
		TaxRate:      in.TaxRate,
		Lines:        toAggregateLines(in.Lines),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("PM invoice issued", "invoice_id", res.InvoiceID,
		"invoice_number", res.InvoiceNumber, "total", res.Total)
	return s.loadPM(ctx, rd.OrgID, res.InvoiceID)
}

func (s *invoiceService) GetContractorInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.ContractorInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.loadContractor(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RoleContractor && inv.ContractorID != rd.UserID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	return inv, nil
}

func (s *invoiceService) GetPMInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.loadPM(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RoleContractor && inv.ContractorID != rd.UserID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	return inv, nil
}

func (s *invoiceService) ListContractorInvoices(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.ContractorInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validContractorInvoiceStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown invoice status: %s", status))
	}
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	return s.deps.ContractorInvoices.ListByOrg(readCtx(ctx), rd.OrgID, status, contractorID, limit)
}

func (s *invoiceService) ListPMInvoices(ctx context.Context, status string, contractorID uuid.UUID, limit int) ([]*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !validPMInvoiceStatus(status) {
		return nil, validationErr(fmt.Sprintf("unknown invoice status: %s", status))
	}
	if rd.Role == types.RoleContractor {
		contractorID = rd.UserID
	}
	return s.deps.PMInvoices.ListByOrg(readCtx(ctx), rd.OrgID, status, contractorID, limit)
}

// ListPendingApproval is the PM's approval inbox: SENT_TO_PM invoices
// addressed to the caller.
func (s *invoiceService) ListPendingApproval(ctx context.Context, limit int) ([]*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	return s.deps.PMInvoices.ListPendingApproval(readCtx(ctx), rd.UserID, limit)
}

func (s *invoiceService) TransitionContractorInvoice(ctx context.Context, invoiceID uuid.UUID, toStatus string) (*types.ContractorInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.TransitionContractorInvoice(ctx, domainagg.ContractorInvoiceTransitionInput{
		OrgID:     rd.OrgID,
		InvoiceID: invoiceID,
		ActorID:   rd.UserID,
		ToStatus:  toStatus,
	})
	if err != nil {
		return nil, err
	}
	inv, err := s.loadContractor(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if res.Status == types.ContractorInvoiceStatusPaid {
		s.announceDecision(ctx, rd.OrgID, inv.ContractorID, invoiceID, inv.InvoiceNumber, res.Status, "")
	}
	s.log.Info("contractor invoice moved", "invoice_id", invoiceID, "to", res.Status)
	return inv, nil
}

func (s *invoiceService) SendPMInvoice(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.SendPMInvoice(ctx, domainagg.PMInvoiceTransitionInput{
		OrgID:     rd.OrgID,
		InvoiceID: invoiceID,
		ActorID:   rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	inv, err := s.loadPM(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	// The addressed PM gets an approval request in their inbox.
	if s.deps.Notifications != nil {
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:      rd.OrgID,
			UserID:     inv.PMID,
			Kind:       types.NotificationKindInvoiceDecision,
			Title:      "Invoice awaiting your approval",
			Body:       fmt.Sprintf("Invoice %s needs a decision.", inv.InvoiceNumber),
			EntityKind: "pm_invoice",
			EntityID:   &inv.ID,
		})
	}
	s.log.Info("PM invoice sent", "invoice_id", invoiceID, "to", res.Status)
	return inv, nil
}

// DecidePMInvoice records the PM's verdict. Only the addressed PM or an
// admin may decide.
func (s *invoiceService) DecidePMInvoice(ctx context.Context, invoiceID uuid.UUID, in DecidePMInvoiceInput) (*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	current, err := s.loadPM(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if rd.Role == types.RolePropertyManager && current.PMID != rd.UserID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	if !in.Approve && in.RejectReason == "" {
		return nil, validationErr("reject_reason is required when rejecting")
	}

	res, err := s.deps.Aggregate.DecidePMInvoice(ctx, domainagg.DecidePMInvoiceInput{
		OrgID:        rd.OrgID,
		InvoiceID:    invoiceID,
		ActorID:      rd.UserID,
		Approve:      in.Approve,
		RejectReason: in.RejectReason,
	})
	if err != nil {
		return nil, err
	}
	inv, err := s.loadPM(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	s.announceDecision(ctx, rd.OrgID, inv.ContractorID, invoiceID, inv.InvoiceNumber, res.Status, inv.RejectReason)
	s.log.Info("PM invoice decided", "invoice_id", invoiceID, "status", res.Status, "by", rd.UserID)
	return inv, nil
}

func (s *invoiceService) MarkPMInvoicePaid(ctx context.Context, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	res, err := s.deps.Aggregate.MarkPMInvoicePaid(ctx, domainagg.PMInvoiceTransitionInput{
		OrgID:     rd.OrgID,
		InvoiceID: invoiceID,
		ActorID:   rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	inv, err := s.loadPM(ctx, rd.OrgID, invoiceID)
	if err != nil {
		return nil, err
	}
	s.announceDecision(ctx, rd.OrgID, inv.ContractorID, invoiceID, inv.InvoiceNumber, res.Status, "")
	s.log.Info("PM invoice paid", "invoice_id", invoiceID)
	return inv, nil
}

// announceDecision tells the contractor how their invoice moved:
// notification row, realtime event, and email, all best effort.
func (s *invoiceService) announceDecision(ctx context.Context, orgID, contractorID, invoiceID uuid.UUID, invoiceNumber, status, rejectReason string) {
	if s.deps.Notifications != nil {
		body := fmt.Sprintf("Invoice %s is now %s.", invoiceNumber, status)
		if rejectReason != "" {
			body = fmt.Sprintf("Invoice %s was rejected: %s", invoiceNumber, rejectReason)
		}
		s.deps.Notifications.Notify(ctx, NotifyInput{
			OrgID:      orgID,
			UserID:     contractorID,
			Kind:       types.NotificationKindInvoiceDecision,
			Title:      "Invoice update",
			Body:       body,
			EntityKind: "invoice",
			EntityID:   &invoiceID,
		})
	}
	if s.deps.Events != nil {
		s.deps.Events.InvoiceDecision(contractorID, invoiceID, status, rejectReason)
	}
	if s.deps.Email != nil {
		users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{contractorID})
		if err != nil || len(users) == 0 {
			s.log.Warn("could not load contractor for invoice email", "contractor_id", contractorID, "error", err)
			return
		}
		if err := s.deps.Email.SendInvoiceDecision(ctx, users[0], invoiceNumber, status, rejectReason); err != nil {
			s.log.Warn("invoice decision email failed (ignored)", "invoice_id", invoiceID, "error", err)
		}
	}
}

func (s *invoiceService) loadContractor(ctx context.Context, orgID, invoiceID uuid.UUID) (*types.ContractorInvoice, error) {
	rows, err := s.deps.ContractorInvoices.GetByIDs(readCtx(ctx), []uuid.UUID{invoiceID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	return rows[0], nil
}

func (s *invoiceService) loadPM(ctx context.Context, orgID, invoiceID uuid.UUID) (*types.PropertyManagerInvoice, error) {
	rows, err := s.deps.PMInvoices.GetByIDs(readCtx(ctx), []uuid.UUID{invoiceID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	return rows[0], nil
}

func toAggregateLines(in []InvoiceLineIn) []domainagg.InvoiceLineInput {
	out := make([]domainagg.InvoiceLineInput, 0, len(in))
	for _, line := range in {
		out = append(out, domainagg.InvoiceLineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
		})
	}
	return out
}

func validContractorInvoiceStatus(status string) bool {
	switch status {
	case types.ContractorInvoiceStatusDraft, types.ContractorInvoiceStatusSent,
		types.ContractorInvoiceStatusPaid, types.ContractorInvoiceStatusVoid:
		return true
	}
	return false
}

func validPMInvoiceStatus(status string) bool {
	switch status {
	case types.PMInvoiceStatusDraft, types.PMInvoiceStatusSentToPM, types.PMInvoiceStatusPMApproved,
		types.PMInvoiceStatusPMRejected, types.PMInvoiceStatusPaid:
		return true
	}
	return false
}
