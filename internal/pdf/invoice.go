package pdf

import (
	"time"

	"github.com/go-pdf/fpdf"
)

// InvoiceDocument is the data behind an invoice export. It serves both
// contractor and property-manager invoices; Heading carries the distinction.
type InvoiceDocument struct {
	OrgName string
	Heading string // "Contractor Invoice" or "Property Manager Invoice"

	Number   string
	Status   string
	IssuedAt *time.Time
	DueAt    *time.Time
	PaidAt   *time.Time

	From   PartyBlock
	BillTo PartyBlock

	ProjectName string
	OrderNumber string

	Currency string
	Lines    []InvoiceLineRow
	Subtotal float64
	Tax      float64
	Total    float64

	RejectReason string
}

// PartyBlock names one side of the invoice.
type PartyBlock struct {
	Label string // "From", "Bill to"
	Name  string
	Email string
	Phone string
}

// InvoiceLineRow is one line item.
type InvoiceLineRow struct {
	Description string
	Quantity    float64
	UnitCost    float64
	Amount      float64
}

// RenderInvoice renders the invoice document.
func RenderInvoice(d InvoiceDocument) ([]byte, error) {
	start := time.Now()
	out, err := renderInvoice(d)
	observeRender("invoice", start, err)
	return out, err
}

func renderInvoice(d InvoiceDocument) ([]byte, error) {
	heading := d.Heading
	if heading == "" {
		heading = "Invoice"
	}
	pdf := newDoc(heading+" "+d.Number, d.OrgName)

	docTitle(pdf, heading, "Invoice "+d.Number)

	kvRow(pdf, "Status", statusLabel(d.Status))
	kvRow(pdf, "Issued", fmtDate(d.IssuedAt))
	kvRow(pdf, "Due", fmtDate(d.DueAt))
	kvRow(pdf, "Paid", fmtDate(d.PaidAt))
	kvRow(pdf, "Project", d.ProjectName)
	kvRow(pdf, "Work order", d.OrderNumber)
	if d.RejectReason != "" {
		kvRow(pdf, "Rejection reason", d.RejectReason)
	}

	renderParty(pdf, d.From)
	renderParty(pdf, d.BillTo)

	sectionTitle(pdf, "Line items")
	if len(d.Lines) == 0 {
		emptyState(pdf, "No line items.")
	} else {
		cols := []tableColumn{
			{header: "Description", width: 84, align: "L"},
			{header: "Qty", width: 20, align: "R"},
			{header: "Unit cost", width: 36, align: "R"},
			{header: "Amount", width: 40, align: "R"},
		}
		tableHeaderRow(pdf, cols)
		for i, line := range d.Lines {
			tableRow(pdf, cols, []string{
				line.Description,
				formatAmount(line.Quantity),
				money(d.Currency, line.UnitCost),
				money(d.Currency, line.Amount),
			}, i%2 == 1)
		}
	}

	pdf.Ln(4)
	totalRow(pdf, "Subtotal", money(d.Currency, d.Subtotal), false)
	totalRow(pdf, "Tax", money(d.Currency, d.Tax), false)
	totalRow(pdf, "Total due", money(d.Currency, d.Total), true)

	return render(pdf)
}

func renderParty(pdf *fpdf.Fpdf, p PartyBlock) {
	if p.Name == "" {
		return
	}
	label := p.Label
	if label == "" {
		label = "Party"
	}
	sectionTitle(pdf, label)
	pdf.SetFont("Helvetica", "B", 9.5)
	setInk(pdf)
	pdf.CellFormat(contentWidth, 5.5, p.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	setMuted(pdf)
	if p.Email != "" {
		pdf.CellFormat(contentWidth, 5, p.Email, "", 1, "L", false, 0, "")
	}
	if p.Phone != "" {
		pdf.CellFormat(contentWidth, 5, p.Phone, "", 1, "L", false, 0, "")
	}
}

func totalRow(pdf *fpdf.Fpdf, label string, value string, strong bool) {
	if strong {
		pdf.SetFont("Helvetica", "B", 10.5)
		setInk(pdf)
	} else {
		pdf.SetFont("Helvetica", "", 9.5)
		setMuted(pdf)
	}
	pdf.CellFormat(contentWidth-40, 6, label, "", 0, "R", false, 0, "")
	if strong {
		setInk(pdf)
	}
	pdf.CellFormat(40, 6, value, "", 1, "R", false, 0, "")
}
