package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	domainagg "github.com/propflow/propflow-backend/internal/domain/aggregates"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
)

type OrdersAggregateDeps struct {
	Base BaseDeps

	Leads      repos.LeadRepo
	RFQs       repos.RFQRepo
	Quotations repos.QuotationRepo
	WorkOrders repos.WorkOrderRepo
}

type ordersAggregate struct {
	deps OrdersAggregateDeps
}

func NewOrdersAggregate(deps OrdersAggregateDeps) domainagg.OrdersAggregate {
	deps.Base = deps.Base.withDefaults()
	return &ordersAggregate{deps: deps}
}

func (a *ordersAggregate) Contract() domainagg.Contract {
	return domainagg.OrdersAggregateContract
}

func (a *ordersAggregate) ConvertLeadToRFQ(ctx context.Context, in domainagg.ConvertLeadInput) (domainagg.ConvertLeadResult, error) {
	const op = "Orders.ConvertLeadToRFQ"
	var out domainagg.ConvertLeadResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.LeadID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing lead_id", nil)
	}
	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing rfq title", nil)
	}
	if a.deps.Leads == nil || a.deps.RFQs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "orders aggregate repos not configured", nil)
	}

	convertedAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		lead, err := a.deps.Leads.LockByID(dbc, in.LeadID)
		if err != nil {
			return err
		}
		if lead == nil || lead.ID == uuid.Nil || lead.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("lead not found: %s", in.LeadID.String()), nil)
		}
		if lead.ConvertedRFQID != nil || lead.Status == types.LeadStatusConverted {
			return ConflictError("lead already converted")
		}
		if err := RequireStatusAllowed(lead.Status,
			types.LeadStatusNew, types.LeadStatusContacted, types.LeadStatusQualified); err != nil {
			return err
		}

		rfq := &types.RFQ{
			ID:              uuid.New(),
			OrgID:           in.OrgID,
			Title:           strings.TrimSpace(in.Title),
			Description:     lead.Notes,
			PropertyAddress: lead.PropertyAddress,
			Category:        strings.TrimSpace(in.Category),
			Deadline:        in.Deadline,
			Status:          types.RFQStatusOpen,
			RaisedBy:        in.ActorID,
		}
		if _, err := a.deps.RFQs.Create(dbc, []*types.RFQ{rfq}); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Lead{}.TableName(), lead.ID,
			[]string{types.LeadStatusNew, types.LeadStatusContacted, types.LeadStatusQualified},
			map[string]any{
				"status":           types.LeadStatusConverted,
				"converted_rfq_id": rfq.ID,
				"updated_at":       convertedAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "lead already converted"); err != nil {
			return err
		}

		out = domainagg.ConvertLeadResult{
			LeadID:      lead.ID,
			RFQID:       rfq.ID,
			ConvertedAt: convertedAt,
		}
		return nil
	})
	return out, err
}

func (a *ordersAggregate) AcceptQuotation(ctx context.Context, in domainagg.AcceptQuotationInput) (domainagg.AcceptQuotationResult, error) {
	const op = "Orders.AcceptQuotation"
	var out domainagg.AcceptQuotationResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.QuotationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing quotation_id", nil)
	}
	if a.deps.Quotations == nil || a.deps.RFQs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "orders aggregate repos not configured", nil)
	}

	acceptedAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		q, err := a.deps.Quotations.LockByID(dbc, in.QuotationID)
		if err != nil {
			return err
		}
		if q == nil || q.ID == uuid.Nil || q.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("quotation not found: %s", in.QuotationID.String()), nil)
		}
		if err := RequireStatusAllowed(q.Status, types.QuotationStatusSubmitted); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Quotation{}.TableName(), q.ID,
			[]string{types.QuotationStatusSubmitted},
			map[string]any{
				"status":     types.QuotationStatusAccepted,
				"updated_at": acceptedAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "quotation no longer submitted"); err != nil {
			return err
		}

		rejected, err := a.deps.Quotations.RejectSubmittedSiblings(dbc, q.RFQID, q.ID, acceptedAt)
		if err != nil {
			return err
		}

		out = domainagg.AcceptQuotationResult{
			QuotationID:      q.ID,
			RFQID:            q.RFQID,
			RejectedSiblings: int(rejected),
			AcceptedAt:       acceptedAt,
		}
		return nil
	})
	return out, err
}

func (a *ordersAggregate) ConvertRFQToOrder(ctx context.Context, in domainagg.ConvertRFQInput) (domainagg.ConvertRFQResult, error) {
	const op = "Orders.ConvertRFQToOrder"
	var out domainagg.ConvertRFQResult

	if in.OrgID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing org_id", nil)
	}
	if in.RFQID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing rfq_id", nil)
	}
	if in.QuotationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing quotation_id", nil)
	}
	if a.deps.RFQs == nil || a.deps.Quotations == nil || a.deps.WorkOrders == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "orders aggregate repos not configured", nil)
	}

	convertedAt := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rfq, err := a.deps.RFQs.LockByID(dbc, in.RFQID)
		if err != nil {
			return err
		}
		if rfq == nil || rfq.ID == uuid.Nil || rfq.OrgID != in.OrgID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("rfq not found: %s", in.RFQID.String()), nil)
		}
		if rfq.ConvertedOrderID != nil || rfq.Status == types.RFQStatusConverted {
			return ConflictError("rfq already converted")
		}
		if err := RequireStatusAllowed(rfq.Status, types.RFQStatusOpen, types.RFQStatusQuoted); err != nil {
			return err
		}

		qs, err := a.deps.Quotations.GetByIDs(dbc, []uuid.UUID{in.QuotationID})
		if err != nil {
			return err
		}
		if len(qs) == 0 || qs[0].RFQID != rfq.ID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("quotation not found: %s", in.QuotationID.String()), nil)
		}
		q := qs[0]
		if q.Status != types.QuotationStatusAccepted {
			return InvariantError("quotation must be accepted before conversion")
		}

		seq, err := a.deps.WorkOrders.CountByOrg(dbc, in.OrgID)
		if err != nil {
			return err
		}
		orderNumber := fmt.Sprintf("WO-%04d", seq+1)

		order := &types.WorkOrder{
			ID:           uuid.New(),
			OrgID:        in.OrgID,
			OrderNumber:  orderNumber,
			RFQID:        &rfq.ID,
			QuotationID:  &q.ID,
			Title:        rfq.Title,
			Description:  rfq.Description,
			PMID:         rfq.RaisedBy,
			ContractorID: &q.ContractorID,
			Amount:       q.Total,
			Currency:     q.Currency,
			Status:       types.OrderStatusPending,
			StartDate:    in.StartDate,
			DueDate:      in.DueDate,
		}
		if _, err := a.deps.WorkOrders.Create(dbc, []*types.WorkOrder{order}); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.RFQ{}.TableName(), rfq.ID,
			[]string{types.RFQStatusOpen, types.RFQStatusQuoted},
			map[string]any{
				"status":             types.RFQStatusConverted,
				"converted_order_id": order.ID,
				"updated_at":         convertedAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "rfq already converted"); err != nil {
			return err
		}

		out = domainagg.ConvertRFQResult{
			RFQID:       rfq.ID,
			OrderID:     order.ID,
			OrderNumber: orderNumber,
			ConvertedAt: convertedAt,
		}
		return nil
	})
	return out, err
}
