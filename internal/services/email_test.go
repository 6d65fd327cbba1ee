package services

import (
	"context"
	"strings"
	"testing"

	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/platform/sendgrid"
)

type captureMailClient struct {
	sent []sendgrid.SendEmailRequest
	err  error
}

func (c *captureMailClient) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	c.sent = append(c.sent, req)
	if c.err != nil {
		return nil, c.err
	}
	return &sendgrid.SendEmailResult{}, nil
}

func newTestEmailService(t *testing.T) (*emailService, *captureMailClient) {
	t.Helper()
	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	client := &captureMailClient{}
	return &emailService{log: log, client: client}, client
}

func TestSendOrderNotificationEscapesAndTags(t *testing.T) {
	s, client := newTestEmailService(t)
	to := &types.User{Email: "fixer@example.com", FirstName: "Ada", LastName: "O'Neil"}
	order := &types.WorkOrder{
		OrderNumber: "WO-0042",
		Title:       "Fix <script>alert(1)</script> gate",
		Currency:    "USD",
		Amount:      1250,
		Status:      types.OrderStatusPending,
	}

	if err := s.SendOrderNotification(context.Background(), to, order); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(client.sent))
	}

	req := client.sent[0]
	if req.To[0].Email != "fixer@example.com" || req.To[0].Name != "Ada O'Neil" {
		t.Errorf("recipient: %+v", req.To[0])
	}
	if req.Subject != "Work order WO-0042 assigned" {
		t.Errorf("subject: %q", req.Subject)
	}
	if strings.Contains(req.HTML, "<script>") {
		t.Error("order title was not escaped")
	}
	if !strings.Contains(req.HTML, "WO-0042") || !strings.Contains(req.HTML, "USD 1250.00") {
		t.Errorf("body missing order facts: %s", req.HTML)
	}
	if len(req.Categories) != 2 || req.Categories[1] != "order_assigned" {
		t.Errorf("categories: %v", req.Categories)
	}
}

func TestSendRFQBroadcastSkipsBlankRecipients(t *testing.T) {
	s, client := newTestEmailService(t)
	rfq := &types.RFQ{Title: "Repaint lobby", Category: "painting"}
	recipients := []*types.User{
		{Email: "one@example.com", FirstName: "One"},
		nil,
		{Email: "  ", FirstName: "Blank"},
		{Email: "two@example.com", FirstName: "Two"},
	}

	if err := s.SendRFQBroadcast(context.Background(), recipients, rfq); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(client.sent))
	}
	if got := len(client.sent[0].To); got != 2 {
		t.Fatalf("recipients: got %d want 2", got)
	}
}

func TestSendRFQBroadcastNoUsableRecipients(t *testing.T) {
	s, client := newTestEmailService(t)
	rfq := &types.RFQ{Title: "Repaint lobby"}

	if err := s.SendRFQBroadcast(context.Background(), []*types.User{nil, {Email: ""}}, rfq); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(client.sent) != 0 {
		t.Fatal("should not call the client with an empty recipient list")
	}
}

func TestSendInvoiceDecisionIncludesRejectReason(t *testing.T) {
	s, client := newTestEmailService(t)
	to := &types.User{Email: "builder@example.com", FirstName: "Kofi"}

	err := s.SendInvoiceDecision(context.Background(), to, "INV-0007",
		types.PMInvoiceStatusPMRejected, "Milestone 2 incomplete")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	req := client.sent[0]
	if !strings.Contains(req.HTML, "rejected") || !strings.Contains(req.HTML, "Milestone 2 incomplete") {
		t.Errorf("body missing rejection context: %s", req.HTML)
	}
	if req.Subject != "Invoice INV-0007: PM Rejected" {
		t.Errorf("subject: %q", req.Subject)
	}
}

func TestSendPaymentDecisionPaidMentionsPayslip(t *testing.T) {
	s, client := newTestEmailService(t)
	to := &types.User{Email: "artisan@example.com", FirstName: "Bisi"}
	request := &types.PaymentRequest{Status: types.PaymentStatusPaid, Currency: "NGN", Amount: 84000}

	if err := s.SendPaymentDecision(context.Background(), to, request); err != nil {
		t.Fatalf("send: %v", err)
	}
	if html := client.sent[0].HTML; !strings.Contains(html, "payslip") {
		t.Errorf("paid mail should mention the payslip: %s", html)
	}
}

func TestSendProjectReportRendersMilestoneTable(t *testing.T) {
	s, client := newTestEmailService(t)
	to := &types.User{Email: "pm@example.com", FirstName: "Jo"}
	data := ProjectReportEmailData{
		ProjectName: "Unit 4 refurbishment",
		Currency:    "USD",
		BudgetTotal: 50000,
		ActualSpend: 31500,
		Variance:    18500,
		HealthScore: 82,
		HealthLabel: "Healthy",
		Milestones: []ProjectReportEmailMilestone{
			{Name: "Demolition", Status: types.MilestoneStatusCompleted, Budgeted: 8000, Actual: 7600},
			{Name: "Electrical", Status: types.MilestoneStatusInProgress, Budgeted: 12000, Actual: 9100},
		},
	}

	if err := s.SendProjectReport(context.Background(), to, data); err != nil {
		t.Fatalf("send: %v", err)
	}

	html := client.sent[0].HTML
	for _, want := range []string{"Unit 4 refurbishment", "Demolition", "Electrical", "82/100 (Healthy)"} {
		if !strings.Contains(html, want) {
			t.Errorf("report body missing %q", want)
		}
	}
	if client.sent[0].Subject != "Weekly project report: Unit 4 refurbishment" {
		t.Errorf("subject: %q", client.sent[0].Subject)
	}
}

func TestSendWithoutClientIsANoop(t *testing.T) {
	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s := &emailService{log: log}

	if err := s.SendTestEmail(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unconfigured send should be dropped silently, got %v", err)
	}
}

func TestStatusLabelForEmail(t *testing.T) {
	cases := map[string]string{
		"PM_APPROVED": "PM Approved",
		"PM_REJECTED": "PM Rejected",
		"PAID":        "Paid",
		"SENT_TO_PM":  "Sent To PM",
	}
	for in, want := range cases {
		if got := statusLabelForEmail(in); got != want {
			t.Errorf("statusLabelForEmail(%q): got %q want %q", in, got, want)
		}
	}
}
