package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/platform/sendgrid"
)

// ProjectReportEmailData carries the rendered rollup rows for the weekly
// project report mail.
type ProjectReportEmailData struct {
	ProjectName string
	Currency    string
	BudgetTotal float64
	ActualSpend float64
	Variance    float64
	HealthScore float64
	HealthLabel string
	Milestones  []ProjectReportEmailMilestone
}

type ProjectReportEmailMilestone struct {
	Name     string
	Status   string
	Budgeted float64
	Actual   float64
}

// EmailService assembles and sends the platform's transactional mails.
// Every send is best-effort: failures are logged with context and the
// error is returned for the caller to ignore.
type EmailService interface {
	SendTestEmail(ctx context.Context, to string) error
	SendOrderNotification(ctx context.Context, to *types.User, order *types.WorkOrder) error
	SendRFQBroadcast(ctx context.Context, recipients []*types.User, rfq *types.RFQ) error
	SendInvoiceDecision(ctx context.Context, to *types.User, invoiceNumber, status, rejectReason string) error
	SendPaymentDecision(ctx context.Context, to *types.User, request *types.PaymentRequest) error
	SendProjectReport(ctx context.Context, to *types.User, data ProjectReportEmailData) error
}

type emailService struct {
	log    *logger.Logger
	client sendgrid.Client
}

func NewEmailService(log *logger.Logger, client sendgrid.Client) EmailService {
	return &emailService{
		log:    log.With("service", "EmailService"),
		client: client,
	}
}

func (s *emailService) SendTestEmail(ctx context.Context, to string) error {
	body := emailShell("Propflow test email",
		"<p>This is a deliverability test from your Propflow instance. If you can read this, outbound email works.</p>")
	return s.send(ctx, "test", []sendgrid.EmailAddress{{Email: to}}, "Propflow test email", body)
}

func (s *emailService) SendOrderNotification(ctx context.Context, to *types.User, order *types.WorkOrder) error {
	if to == nil || order == nil {
		return nil
	}
	rows := [][2]string{
		{"Order", order.OrderNumber},
		{"Title", order.Title},
		{"Amount", fmt.Sprintf("%s %.2f", order.Currency, order.Amount)},
		{"Status", order.Status},
	}
	if order.DueDate != nil {
		rows = append(rows, [2]string{"Due", order.DueDate.Format("02 Jan 2006")})
	}
	body := emailShell(
		fmt.Sprintf("Work order %s assigned to you", html.EscapeString(order.OrderNumber)),
		fmt.Sprintf("<p>Hi %s,</p><p>A work order has been assigned to you.</p>%s",
			html.EscapeString(to.FirstName), kvTable(rows)))
	subject := fmt.Sprintf("Work order %s assigned", order.OrderNumber)
	return s.send(ctx, "order_assigned", []sendgrid.EmailAddress{userAddress(to)}, subject, body)
}

func (s *emailService) SendRFQBroadcast(ctx context.Context, recipients []*types.User, rfq *types.RFQ) error {
	if rfq == nil || len(recipients) == 0 {
		return nil
	}
	rows := [][2]string{
		{"Title", rfq.Title},
		{"Category", rfq.Category},
		{"Property", rfq.PropertyAddress},
	}
	if rfq.Deadline != nil {
		rows = append(rows, [2]string{"Quote by", rfq.Deadline.Format("02 Jan 2006")})
	}
	detail := ""
	if strings.TrimSpace(rfq.Description) != "" {
		detail = fmt.Sprintf("<p>%s</p>", html.EscapeString(rfq.Description))
	}
	body := emailShell(
		"New request for quotation",
		fmt.Sprintf("<p>A property manager is requesting quotes for the work below.</p>%s%s<p>Sign in to Propflow to submit your quotation.</p>",
			kvTable(rows), detail))
	subject := fmt.Sprintf("RFQ: %s", rfq.Title)

	to := make([]sendgrid.EmailAddress, 0, len(recipients))
	for _, u := range recipients {
		if u == nil || strings.TrimSpace(u.Email) == "" {
			continue
		}
		to = append(to, userAddress(u))
	}
	if len(to) == 0 {
		return nil
	}
	return s.send(ctx, "rfq_broadcast", to, subject, body)
}

func (s *emailService) SendInvoiceDecision(ctx context.Context, to *types.User, invoiceNumber, status, rejectReason string) error {
	if to == nil {
		return nil
	}
	var intro string
	switch status {
	case types.PMInvoiceStatusPMApproved:
		intro = fmt.Sprintf("<p>Good news: invoice <strong>%s</strong> was approved.</p>", html.EscapeString(invoiceNumber))
	case types.PMInvoiceStatusPMRejected:
		intro = fmt.Sprintf("<p>Invoice <strong>%s</strong> was rejected.</p>", html.EscapeString(invoiceNumber))
		if strings.TrimSpace(rejectReason) != "" {
			intro += fmt.Sprintf("<p>Reason: %s</p>", html.EscapeString(rejectReason))
		}
	case types.PMInvoiceStatusPaid:
		intro = fmt.Sprintf("<p>Invoice <strong>%s</strong> has been marked paid.</p>", html.EscapeString(invoiceNumber))
	default:
		intro = fmt.Sprintf("<p>Invoice <strong>%s</strong> moved to %s.</p>",
			html.EscapeString(invoiceNumber), html.EscapeString(status))
	}
	body := emailShell("Invoice update", fmt.Sprintf("<p>Hi %s,</p>%s", html.EscapeString(to.FirstName), intro))
	subject := fmt.Sprintf("Invoice %s: %s", invoiceNumber, statusLabelForEmail(status))
	return s.send(ctx, "invoice_decision", []sendgrid.EmailAddress{userAddress(to)}, subject, body)
}

func (s *emailService) SendPaymentDecision(ctx context.Context, to *types.User, request *types.PaymentRequest) error {
	if to == nil || request == nil {
		return nil
	}
	var intro string
	switch request.Status {
	case types.PaymentStatusApproved:
		intro = "<p>Your payment request was approved and is queued for payment.</p>"
	case types.PaymentStatusRejected:
		intro = "<p>Your payment request was rejected.</p>"
		if strings.TrimSpace(request.RejectReason) != "" {
			intro += fmt.Sprintf("<p>Reason: %s</p>", html.EscapeString(request.RejectReason))
		}
	case types.PaymentStatusPaid:
		intro = "<p>Your payment request has been paid. Your payslip is available in Propflow.</p>"
	default:
		intro = fmt.Sprintf("<p>Your payment request moved to %s.</p>", html.EscapeString(request.Status))
	}
	rows := [][2]string{
		{"Amount", fmt.Sprintf("%s %.2f", request.Currency, request.Amount)},
		{"Status", request.Status},
	}
	body := emailShell("Payment request update",
		fmt.Sprintf("<p>Hi %s,</p>%s%s", html.EscapeString(to.FirstName), intro, kvTable(rows)))
	subject := fmt.Sprintf("Payment request %s", statusLabelForEmail(request.Status))
	return s.send(ctx, "payment_decision", []sendgrid.EmailAddress{userAddress(to)}, subject, body)
}

func (s *emailService) SendProjectReport(ctx context.Context, to *types.User, data ProjectReportEmailData) error {
	if to == nil {
		return nil
	}
	currency := data.Currency
	if currency == "" {
		currency = "USD"
	}
	summary := kvTable([][2]string{
		{"Budget", fmt.Sprintf("%s %.2f", currency, data.BudgetTotal)},
		{"Actual spend", fmt.Sprintf("%s %.2f", currency, data.ActualSpend)},
		{"Variance", fmt.Sprintf("%s %.2f", currency, data.Variance)},
		{"Health", fmt.Sprintf("%.0f/100 (%s)", data.HealthScore, data.HealthLabel)},
	})

	var milestones strings.Builder
	if len(data.Milestones) > 0 {
		milestones.WriteString(`<table cellpadding="6" cellspacing="0" style="border-collapse:collapse;width:100%;margin-top:12px"><tr>`)
		for _, h := range []string{"Milestone", "Status", "Budgeted", "Actual"} {
			fmt.Fprintf(&milestones, `<th align="left" style="border-bottom:2px solid #ddd;font-size:12px;text-transform:uppercase;color:#666">%s</th>`, h)
		}
		milestones.WriteString("</tr>")
		for _, m := range data.Milestones {
			fmt.Fprintf(&milestones,
				`<tr><td style="border-bottom:1px solid #eee">%s</td><td style="border-bottom:1px solid #eee">%s</td><td style="border-bottom:1px solid #eee">%.2f</td><td style="border-bottom:1px solid #eee">%.2f</td></tr>`,
				html.EscapeString(m.Name), html.EscapeString(m.Status), m.Budgeted, m.Actual)
		}
		milestones.WriteString("</table>")
	}

	body := emailShell(
		fmt.Sprintf("Weekly report: %s", html.EscapeString(data.ProjectName)),
		fmt.Sprintf("<p>Hi %s,</p><p>Here is this week's financial summary for <strong>%s</strong>.</p>%s%s<p>The full PDF report is attached to the project in Propflow.</p>",
			html.EscapeString(to.FirstName), html.EscapeString(data.ProjectName), summary, milestones.String()))
	subject := fmt.Sprintf("Weekly project report: %s", data.ProjectName)
	return s.send(ctx, "project_report", []sendgrid.EmailAddress{userAddress(to)}, subject, body)
}

func (s *emailService) send(ctx context.Context, kind string, to []sendgrid.EmailAddress, subject, htmlBody string) error {
	if s.client == nil {
		s.log.Warn("email client not configured, dropping send", "kind", kind)
		return nil
	}
	_, err := s.client.Send(ctx, sendgrid.SendEmailRequest{
		To:         to,
		Subject:    subject,
		HTML:       htmlBody,
		Categories: []string{"propflow", kind},
	})
	status := "ok"
	if err != nil {
		status = "error"
		s.log.Warn("email send failed", "kind", kind, "error", err)
	}
	observability.Current().IncEmailSend(kind, status)
	return err
}

func userAddress(u *types.User) sendgrid.EmailAddress {
	return sendgrid.EmailAddress{
		Email: u.Email,
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

// emailShell wraps body HTML in the shared minimal layout.
func emailShell(title, bodyHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body style="margin:0;padding:0;background:#f5f6f8;font-family:Helvetica,Arial,sans-serif;color:#1f2933">
<div style="max-width:560px;margin:24px auto;background:#ffffff;border-radius:8px;padding:28px">
<h2 style="margin:0 0 16px;font-size:18px">%s</h2>
%s
<p style="margin-top:28px;font-size:12px;color:#8492a6">Sent by Propflow &middot; %d</p>
</div></body></html>`, title, bodyHTML, time.Now().Year())
}

func kvTable(rows [][2]string) string {
	var b strings.Builder
	b.WriteString(`<table cellpadding="6" cellspacing="0" style="border-collapse:collapse;margin-top:8px">`)
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		fmt.Fprintf(&b,
			`<tr><td style="color:#666;font-size:13px;padding-right:18px">%s</td><td style="font-size:13px">%s</td></tr>`,
			html.EscapeString(row[0]), html.EscapeString(row[1]))
	}
	b.WriteString("</table>")
	return b.String()
}

func statusLabelForEmail(status string) string {
	parts := strings.Split(strings.ToLower(status), "_")
	for i, p := range parts {
		if p == "pm" {
			parts[i] = "PM"
			continue
		}
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
