package pdf

import (
	"bytes"
	"testing"
	"time"
)

func datePtr(t time.Time) *time.Time { return &t }

func assertPDF(t *testing.T, out []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
	if len(out) < 1024 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestRenderRFQ(t *testing.T) {
	deadline := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	out, err := RenderRFQ(RFQDocument{
		OrgName:         "Harbor Property Group",
		Title:           "Roof repair, Block C",
		Status:          "QUOTED",
		Category:        "roofing",
		PropertyAddress: "12 Marina Way, Lagos",
		Description:     "Replace damaged roofing sheets on Block C and reseal all flashings. Access via service stairwell only.",
		Deadline:        &deadline,
		RaisedBy:        "Dana Okafor",
		CreatedAt:       time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
		Quotations: []RFQQuotationRow{
			{Contractor: "Apex Builders Ltd", QuoteNumber: "Q-2025-0042", Status: "SUBMITTED", ValidUntil: datePtr(deadline.AddDate(0, 1, 0)), Currency: "USD", Total: 18250.00},
			{Contractor: "Summit Roofing", QuoteNumber: "Q-2025-0043", Status: "SUBMITTED", Currency: "USD", Total: 16900.50},
		},
	})
	assertPDF(t, out, err)
}

func TestRenderRFQWithoutQuotations(t *testing.T) {
	out, err := RenderRFQ(RFQDocument{
		OrgName:   "Harbor Property Group",
		Title:     "Generator servicing",
		Status:    "OPEN",
		CreatedAt: time.Now().UTC(),
	})
	assertPDF(t, out, err)
}

func TestRenderProjectReport(t *testing.T) {
	out, err := RenderProjectReport(ProjectReportDocument{
		OrgName:        "Harbor Property Group",
		ProjectName:    "Block C Renovation",
		Status:         "IN_PROGRESS",
		Currency:       "USD",
		StartDate:      datePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		ContractValue:  250000,
		BudgetTotal:    200000,
		ActualSpend:    84350.75,
		Variance:       115649.25,
		UtilizationPct: 42.2,
		ProfitMargin:   20.0,
		HealthScore:    78.5,
		HealthLabel:    "On track",
		Milestones: []MilestoneRow{
			{Name: "Demolition", Status: "COMPLETED", BudgetedCost: 30000, ActualCost: 28750, DueDate: datePtr(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC))},
			{Name: "Structural works", Status: "IN_PROGRESS", BudgetedCost: 90000, ActualCost: 55600.75},
		},
		WeeklyUpdates: []WeeklyUpdateRow{
			{Milestone: "Structural works", WeekStart: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), LabourCost: 100, MaterialCost: 50, OtherCost: 0, TotalExpenditure: 150},
			{Milestone: "Structural works", WeekStart: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), LabourCost: 4200, MaterialCost: 9100, OtherCost: 300, TotalExpenditure: 13600},
		},
		Risks: []RiskRow{
			{Title: "Steel delivery lead time above 3 weeks", Severity: "HIGH", Status: "OPEN"},
		},
	})
	assertPDF(t, out, err)
}

func TestRenderInvoice(t *testing.T) {
	issued := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 30)
	out, err := RenderInvoice(InvoiceDocument{
		OrgName:     "Harbor Property Group",
		Heading:     "Property Manager Invoice",
		Number:      "INV-2025-00107",
		Status:      "SENT_TO_PM",
		IssuedAt:    &issued,
		DueAt:       &due,
		From:        PartyBlock{Label: "From", Name: "Apex Builders Ltd", Email: "billing@apexbuilders.example"},
		BillTo:      PartyBlock{Label: "Bill to", Name: "Harbor Property Group", Email: "accounts@harborpg.example", Phone: "+1 555 0138"},
		ProjectName: "Block C Renovation",
		OrderNumber: "WO-2025-0019",
		Currency:    "USD",
		Lines: []InvoiceLineRow{
			{Description: "Structural steel supply and installation", Quantity: 1, UnitCost: 42000, Amount: 42000},
			{Description: "Site labour (June)", Quantity: 160, UnitCost: 35, Amount: 5600},
		},
		Subtotal: 47600,
		Tax:      3570,
		Total:    51170,
	})
	assertPDF(t, out, err)
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:          "0.00",
		150:        "150.00",
		1234.5:     "1,234.50",
		1234567.89: "1,234,567.89",
		-9876.4:    "-9,876.40",
	}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Errorf("formatAmount(%v): got %q want %q", in, got, want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		"PM_APPROVED": "PM Approved",
		"SENT_TO_PM":  "Sent To PM",
		"IN_PROGRESS": "In Progress",
		"open":        "Open",
		"":            "-",
	}
	for in, want := range cases {
		if got := statusLabel(in); got != want {
			t.Errorf("statusLabel(%q): got %q want %q", in, got, want)
		}
	}
}

func TestMoneyDefaultsCurrency(t *testing.T) {
	if got := money("", 12.3); got != "USD 12.30" {
		t.Fatalf("got %q", got)
	}
	if got := money("EUR", 1200); got != "EUR 1,200.00" {
		t.Fatalf("got %q", got)
	}
}
