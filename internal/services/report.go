package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/pdf"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/gcp"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

const documentDownloadExpiry = time.Hour

// WeeklyDigestResult summarizes one digest run.
type WeeklyDigestResult struct {
	ProjectsReported int `json:"projects_reported"`
	EmailsSent       int `json:"emails_sent"`
}

// ReportService renders exportable PDF documents, records them in the
// document ledger, and runs the weekly project digest.
type ReportService interface {
	GenerateProjectReport(ctx context.Context, projectID uuid.UUID) (*types.ReportDocument, error)
	GenerateRFQPDF(ctx context.Context, rfqID uuid.UUID) (*types.ReportDocument, error)
	GenerateContractorInvoicePDF(ctx context.Context, invoiceID uuid.UUID) (*types.ReportDocument, error)
	GeneratePMInvoicePDF(ctx context.Context, invoiceID uuid.UUID) (*types.ReportDocument, error)
	ListDocuments(ctx context.Context, kind string, limit int) ([]*types.ReportDocument, error)
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*types.ReportDocument, error)
	DownloadURL(ctx context.Context, documentID uuid.UUID) (string, error)
	RunWeeklyDigest(ctx context.Context) (*WeeklyDigestResult, error)
}

type ReportServiceDeps struct {
	DB                 *gorm.DB
	Documents          repos.ReportDocumentRepo
	Projects           repos.ProjectRepo
	Milestones         repos.MilestoneRepo
	WeeklyUpdates      repos.WeeklyUpdateRepo
	Risks              repos.RiskRepo
	RFQs               repos.RFQRepo
	Quotations         repos.QuotationRepo
	WorkOrders         repos.WorkOrderRepo
	ContractorInvoices repos.ContractorInvoiceRepo
	PMInvoices         repos.PMInvoiceRepo
	Users              repos.UserRepo
	Orgs               repos.OrganizationRepo
	Rollups            RollupService
	Bucket             gcp.BucketService
	Email              EmailService
	Notifications      NotificationService
	Events             Notifier
}

type reportService struct {
	log  *logger.Logger
	deps ReportServiceDeps
}

func NewReportService(log *logger.Logger, deps ReportServiceDeps) ReportService {
	return &reportService{log: log.With("service", "ReportService"), deps: deps}
}

func (s *reportService) GenerateProjectReport(ctx context.Context, projectID uuid.UUID) (*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", projectID)
	}
	project := projects[0]

	fin, err := s.deps.Rollups.Compute(ctx, project)
	if err != nil {
		return nil, err
	}
	raw, err := pdf.RenderProjectReport(s.buildProjectReport(ctx, project, fin))
	if err != nil {
		return nil, err
	}
	doc, err := s.store(ctx, storeInput{
		orgID:       rd.OrgID,
		kind:        types.DocumentKindProjectReport,
		entityID:    project.ID,
		title:       "Project Report: " + project.Name,
		keyPrefix:   "project_report",
		generatedBy: rd.UserID,
		payload:     raw,
	})
	if err != nil {
		return nil, err
	}

	s.deps.Events.ReportReady(rd.UserID, doc)
	s.deps.Notifications.Notify(ctx, NotifyInput{
		OrgID:      rd.OrgID,
		UserID:     project.PMID,
		Kind:       types.NotificationKindReportReady,
		Title:      "Project report ready",
		Body:       fmt.Sprintf("The report for %s has been generated.", project.Name),
		EntityKind: "report_document",
		EntityID:   &doc.ID,
	})
	s.emailProjectSummary(ctx, project, fin)
	return doc, nil
}

func (s *reportService) GenerateRFQPDF(ctx context.Context, rfqID uuid.UUID) (*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	rfqs, err := s.deps.RFQs.GetByIDs(readCtx(ctx), []uuid.UUID{rfqID})
	if err != nil {
		return nil, err
	}
	if len(rfqs) == 0 || rfqs[0].OrgID != rd.OrgID {
		return nil, notFoundErr("rfq", rfqID)
	}
	rfq := rfqs[0]

	doc := pdf.RFQDocument{
		OrgName:         s.orgName(ctx, rd.OrgID),
		Title:           rfq.Title,
		Status:          rfq.Status,
		Category:        rfq.Category,
		PropertyAddress: rfq.PropertyAddress,
		Description:     rfq.Description,
		Deadline:        rfq.Deadline,
		RaisedBy:        s.userName(ctx, rfq.RaisedBy),
		CreatedAt:       rfq.CreatedAt,
	}
	quotations, err := s.deps.Quotations.ListByRFQ(readCtx(ctx), rfq.ID)
	if err != nil {
		return nil, err
	}
	for _, q := range quotations {
		doc.Quotations = append(doc.Quotations, pdf.RFQQuotationRow{
			Contractor:  s.userName(ctx, q.ContractorID),
			QuoteNumber: q.QuoteNumber,
			Status:      q.Status,
			ValidUntil:  q.ValidUntil,
			Currency:    q.Currency,
			Total:       q.Total,
		})
	}
	raw, err := pdf.RenderRFQ(doc)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, storeInput{
		orgID:       rd.OrgID,
		kind:        types.DocumentKindRFQ,
		entityID:    rfq.ID,
		title:       "RFQ: " + rfq.Title,
		keyPrefix:   "rfq",
		generatedBy: rd.UserID,
		payload:     raw,
	})
}

func (s *reportService) GenerateContractorInvoicePDF(ctx context.Context, invoiceID uuid.UUID) (*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.deps.ContractorInvoices.GetByIDs(readCtx(ctx), []uuid.UUID{invoiceID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != rd.OrgID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	inv := rows[0]
	if rd.Role == types.RoleContractor && inv.ContractorID != rd.UserID {
		return nil, notFoundErr("invoice", invoiceID)
	}

	doc := pdf.InvoiceDocument{
		OrgName:  s.orgName(ctx, rd.OrgID),
		Heading:  "Contractor Invoice",
		Number:   inv.InvoiceNumber,
		Status:   inv.Status,
		IssuedAt: &inv.CreatedAt,
		DueAt:    inv.DueDate,
		PaidAt:   inv.PaidAt,
		From:     s.partyBlock(ctx, "From", inv.ContractorID),
		BillTo:   pdf.PartyBlock{Label: "Bill to", Name: s.orgName(ctx, rd.OrgID)},
		Currency: inv.Currency,
		Subtotal: inv.Amount,
		Tax:      inv.Tax,
		Total:    inv.Total,
	}
	if inv.ProjectID != nil {
		doc.ProjectName = s.projectName(ctx, *inv.ProjectID)
	}
	if inv.WorkOrderID != nil {
		doc.OrderNumber = s.orderNumber(ctx, *inv.WorkOrderID)
	}
	doc.Lines = invoiceLineRows(types.DecodeInvoiceLines(inv.Lines))

	raw, err := pdf.RenderInvoice(doc)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, storeInput{
		orgID:       rd.OrgID,
		kind:        types.DocumentKindInvoice,
		entityID:    inv.ID,
		title:       "Invoice " + inv.InvoiceNumber,
		keyPrefix:   "invoice",
		generatedBy: rd.UserID,
		payload:     raw,
	})
}

func (s *reportService) GeneratePMInvoicePDF(ctx context.Context, invoiceID uuid.UUID) (*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.deps.PMInvoices.GetByIDs(readCtx(ctx), []uuid.UUID{invoiceID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != rd.OrgID {
		return nil, notFoundErr("invoice", invoiceID)
	}
	inv := rows[0]
	if rd.Role == types.RoleContractor && inv.ContractorID != rd.UserID {
		return nil, notFoundErr("invoice", invoiceID)
	}

	doc := pdf.InvoiceDocument{
		OrgName:      s.orgName(ctx, rd.OrgID),
		Heading:      "Property Manager Invoice",
		Number:       inv.InvoiceNumber,
		Status:       inv.Status,
		IssuedAt:     &inv.CreatedAt,
		PaidAt:       inv.PaidAt,
		From:         s.partyBlock(ctx, "From", inv.ContractorID),
		BillTo:       s.partyBlock(ctx, "Bill to", inv.PMID),
		ProjectName:  s.projectName(ctx, inv.ProjectID),
		Currency:     inv.Currency,
		Subtotal:     inv.Amount,
		Tax:          inv.Tax,
		Total:        inv.Total,
		RejectReason: inv.RejectReason,
	}
	doc.Lines = invoiceLineRows(types.DecodeInvoiceLines(inv.Lines))

	raw, err := pdf.RenderInvoice(doc)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, storeInput{
		orgID:       rd.OrgID,
		kind:        types.DocumentKindInvoice,
		entityID:    inv.ID,
		title:       "Invoice " + inv.InvoiceNumber,
		keyPrefix:   "invoice",
		generatedBy: rd.UserID,
		payload:     raw,
	})
}

func (s *reportService) ListDocuments(ctx context.Context, kind string, limit int) ([]*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if kind != "" && !validDocumentKind(kind) {
		return nil, validationErr("unknown document kind: " + kind)
	}
	return s.deps.Documents.ListByOrg(readCtx(ctx), rd.OrgID, kind, limit)
}

func (s *reportService) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*types.ReportDocument, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.deps.Documents.ListByEntity(readCtx(ctx), entityID)
	if err != nil {
		return nil, err
	}
	mine := docs[:0]
	for _, d := range docs {
		if d.OrgID == rd.OrgID {
			mine = append(mine, d)
		}
	}
	return mine, nil
}

func (s *reportService) DownloadURL(ctx context.Context, documentID uuid.UUID) (string, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return "", err
	}
	docs, err := s.deps.Documents.GetByIDs(readCtx(ctx), []uuid.UUID{documentID})
	if err != nil {
		return "", err
	}
	if len(docs) == 0 || docs[0].OrgID != rd.OrgID {
		return "", notFoundErr("document", documentID)
	}
	url, err := s.deps.Bucket.GetSignedDownloadURL(ctx, gcp.BucketCategoryDocument, docs[0].BucketKey, documentDownloadExpiry)
	if err != nil {
		return "", err
	}
	observability.Current().IncSignedURL(string(gcp.BucketCategoryDocument), "download")
	return url, nil
}

// RunWeeklyDigest emails every active project's PM a financial summary.
// It is invoked by the scheduler and by the admin digest endpoint; a
// single project failing never stops the run.
func (s *reportService) RunWeeklyDigest(ctx context.Context) (*WeeklyDigestResult, error) {
	result := &WeeklyDigestResult{}
	projects, err := s.deps.Projects.ListForAudit(readCtx(ctx), 0)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if project.Status != types.ProjectStatusActive {
			continue
		}
		result.ProjectsReported++
		fin, err := s.deps.Rollups.Compute(ctx, project)
		if err != nil {
			s.log.Warn("digest rollup failed (skipped)", "project_id", project.ID, "error", err)
			continue
		}
		if s.emailProjectSummary(ctx, project, fin) {
			result.EmailsSent++
		}
	}
	s.log.Info("weekly digest finished",
		"projects", result.ProjectsReported, "emails", result.EmailsSent)
	return result, nil
}

// emailProjectSummary sends the rollup summary to the project's PM.
// Best-effort: a false return means the mail was skipped or failed.
func (s *reportService) emailProjectSummary(ctx context.Context, project *types.Project, fin *ProjectFinancials) bool {
	pms, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{project.PMID})
	if err != nil || len(pms) == 0 {
		s.log.Warn("report email: PM lookup failed (ignored)", "project_id", project.ID, "error", err)
		return false
	}
	data := ProjectReportEmailData{
		ProjectName: project.Name,
		Currency:    project.Currency,
		BudgetTotal: fin.BudgetTotal,
		ActualSpend: fin.ActualCostSum,
		Variance:    fin.BudgetVariance,
		HealthScore: fin.HealthScore,
		HealthLabel: fin.HealthLabel,
	}
	for _, m := range fin.Milestones {
		data.Milestones = append(data.Milestones, ProjectReportEmailMilestone{
			Name:     m.Name,
			Status:   m.Status,
			Budgeted: m.BudgetedCost,
			Actual:   m.ActualCost,
		})
	}
	if err := s.deps.Email.SendProjectReport(ctx, pms[0], data); err != nil {
		s.log.Warn("report email failed (ignored)", "project_id", project.ID, "error", err)
		return false
	}
	return true
}

func (s *reportService) buildProjectReport(ctx context.Context, project *types.Project, fin *ProjectFinancials) pdf.ProjectReportDocument {
	doc := pdf.ProjectReportDocument{
		OrgName:        s.orgName(ctx, project.OrgID),
		ProjectName:    project.Name,
		Status:         project.Status,
		Currency:       project.Currency,
		StartDate:      project.StartDate,
		EndDate:        project.EndDate,
		Description:    project.Description,
		ContractValue:  fin.ContractValue,
		BudgetTotal:    fin.BudgetTotal,
		ActualSpend:    fin.ActualCostSum,
		Variance:       fin.BudgetVariance,
		UtilizationPct: fin.BudgetUtilization * 100,
		ProfitMargin:   fin.ProfitMargin * 100,
		HealthScore:    fin.HealthScore,
		HealthLabel:    fin.HealthLabel,
	}
	milestoneNames := make(map[uuid.UUID]string, len(fin.Milestones))
	for _, m := range fin.Milestones {
		milestoneNames[m.MilestoneID] = m.Name
		doc.Milestones = append(doc.Milestones, pdf.MilestoneRow{
			Name:         m.Name,
			Status:       m.Status,
			BudgetedCost: m.BudgetedCost,
			ActualCost:   m.ActualCost,
			DueDate:      m.DueDate,
		})
	}
	if updates, err := s.deps.WeeklyUpdates.ListByProject(readCtx(ctx), project.ID, 0); err == nil {
		for _, u := range updates {
			doc.WeeklyUpdates = append(doc.WeeklyUpdates, pdf.WeeklyUpdateRow{
				Milestone:        milestoneNames[u.MilestoneID],
				WeekStart:        u.WeekStart,
				LabourCost:       u.LabourCost,
				MaterialCost:     u.MaterialCost,
				OtherCost:        u.OtherCost,
				TotalExpenditure: u.TotalExpenditure,
			})
		}
	}
	if risks, err := s.deps.Risks.ListByProject(readCtx(ctx), project.ID, ""); err == nil {
		for _, r := range risks {
			if r.Status == types.RiskStatusClosed {
				continue
			}
			doc.Risks = append(doc.Risks, pdf.RiskRow{
				Title:    r.Title,
				Severity: r.Severity,
				Status:   r.Status,
			})
		}
	}
	return doc
}

type storeInput struct {
	orgID       uuid.UUID
	kind        string
	entityID    uuid.UUID
	title       string
	keyPrefix   string
	generatedBy uuid.UUID
	payload     []byte
}

// store uploads the rendered PDF and records its ledger row in one
// transaction; the upload happens first so a failed insert never leaves
// a dangling row.
func (s *reportService) store(ctx context.Context, in storeInput) (*types.ReportDocument, error) {
	key := fmt.Sprintf("%s/%s/%s.pdf", in.keyPrefix, in.orgID, uuid.New().String()[:8])
	var created *types.ReportDocument
	err := s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		if err := s.deps.Bucket.UploadFile(dbc, gcp.BucketCategoryDocument, key, bytes.NewReader(in.payload)); err != nil {
			return err
		}
		rows, err := s.deps.Documents.Create(dbc, []*types.ReportDocument{{
			OrgID:       in.orgID,
			Kind:        in.kind,
			EntityID:    in.entityID,
			Title:       in.title,
			BucketKey:   key,
			URL:         s.deps.Bucket.GetPublicURL(gcp.BucketCategoryDocument, key),
			SizeBytes:   int64(len(in.payload)),
			ContentType: "application/pdf",
			GeneratedBy: in.generatedBy,
		}})
		if err != nil {
			return err
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *reportService) orgName(ctx context.Context, orgID uuid.UUID) string {
	orgs, err := s.deps.Orgs.GetByIDs(readCtx(ctx), []uuid.UUID{orgID})
	if err != nil || len(orgs) == 0 {
		return ""
	}
	return orgs[0].Name
}

func (s *reportService) userName(ctx context.Context, userID uuid.UUID) string {
	users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{userID})
	if err != nil || len(users) == 0 {
		return ""
	}
	return strings.TrimSpace(users[0].FirstName + " " + users[0].LastName)
}

func (s *reportService) projectName(ctx context.Context, projectID uuid.UUID) string {
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil || len(projects) == 0 {
		return ""
	}
	return projects[0].Name
}

func (s *reportService) orderNumber(ctx context.Context, orderID uuid.UUID) string {
	orders, err := s.deps.WorkOrders.GetByIDs(readCtx(ctx), []uuid.UUID{orderID})
	if err != nil || len(orders) == 0 {
		return ""
	}
	return orders[0].OrderNumber
}

func (s *reportService) partyBlock(ctx context.Context, label string, userID uuid.UUID) pdf.PartyBlock {
	users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{userID})
	if err != nil || len(users) == 0 {
		return pdf.PartyBlock{Label: label}
	}
	u := users[0]
	return pdf.PartyBlock{
		Label: label,
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email: u.Email,
		Phone: u.Phone,
	}
}

func invoiceLineRows(lines []types.InvoiceLine) []pdf.InvoiceLineRow {
	out := make([]pdf.InvoiceLineRow, 0, len(lines))
	for _, l := range lines {
		out = append(out, pdf.InvoiceLineRow{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			Amount:      l.Amount,
		})
	}
	return out
}

func validDocumentKind(kind string) bool {
	switch kind {
	case types.DocumentKindRFQ, types.DocumentKindProjectReport, types.DocumentKindInvoice:
		return true
	}
	return false
}
