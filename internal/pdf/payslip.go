package pdf

import (
	"time"
)

// PayslipDocument is the data behind a payslip export.
type PayslipDocument struct {
	OrgName string

	Reference   string
	ArtisanName string
	Specialty   string
	ProjectName string

	PeriodStart time.Time
	PeriodEnd   time.Time
	PaidAt      *time.Time

	Currency      string
	Gross         float64
	DeductionRate float64 // fraction, e.g. 0.05
	Deductions    float64
	Net           float64

	Description string
}

// RenderPayslip renders the payslip document.
func RenderPayslip(d PayslipDocument) ([]byte, error) {
	start := time.Now()
	out, err := renderPayslip(d)
	observeRender("payslip", start, err)
	return out, err
}

func renderPayslip(d PayslipDocument) ([]byte, error) {
	pdf := newDoc("Payslip "+d.Reference, d.OrgName)

	docTitle(pdf, "Payslip", "Payslip "+d.Reference)

	kvRow(pdf, "Artisan", d.ArtisanName)
	kvRow(pdf, "Specialty", d.Specialty)
	kvRow(pdf, "Project", d.ProjectName)
	kvRow(pdf, "Period", fmtDateValue(d.PeriodStart)+" to "+fmtDateValue(d.PeriodEnd))
	kvRow(pdf, "Paid", fmtDate(d.PaidAt))

	if d.Description != "" {
		sectionTitle(pdf, "Work covered")
		paragraph(pdf, d.Description)
	}

	sectionTitle(pdf, "Breakdown")
	cols := []tableColumn{
		{header: "Item", width: 120, align: "L"},
		{header: "Amount", width: 60, align: "R"},
	}
	tableHeaderRow(pdf, cols)
	tableRow(pdf, cols, []string{"Gross pay", money(d.Currency, d.Gross)}, false)
	deductionLabel := "Deductions"
	if d.DeductionRate > 0 {
		deductionLabel = "Deductions (" + percent(d.DeductionRate*100) + ")"
	}
	tableRow(pdf, cols, []string{deductionLabel, "-" + money(d.Currency, d.Deductions)}, true)

	pdf.Ln(4)
	totalRow(pdf, "Net pay", money(d.Currency, d.Net), true)

	return render(pdf)
}
