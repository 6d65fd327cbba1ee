package pdf

import "time"

// RFQDocument is the data behind an RFQ summary export.
type RFQDocument struct {
	OrgName         string
	Title           string
	Status          string
	Category        string
	PropertyAddress string
	Description     string
	Deadline        *time.Time
	RaisedBy        string
	CreatedAt       time.Time
	Quotations      []RFQQuotationRow
}

// RFQQuotationRow is one received quotation on the RFQ.
type RFQQuotationRow struct {
	Contractor  string
	QuoteNumber string
	Status      string
	ValidUntil  *time.Time
	Currency    string
	Total       float64
}

// RenderRFQ renders the RFQ summary document.
func RenderRFQ(d RFQDocument) ([]byte, error) {
	start := time.Now()
	out, err := renderRFQ(d)
	observeRender("rfq", start, err)
	return out, err
}

func renderRFQ(d RFQDocument) ([]byte, error) {
	pdf := newDoc("RFQ: "+d.Title, d.OrgName)

	docTitle(pdf, "Request for Quotation", d.Title)

	kvRow(pdf, "Status", statusLabel(d.Status))
	kvRow(pdf, "Category", d.Category)
	kvRow(pdf, "Property", d.PropertyAddress)
	kvRow(pdf, "Quotation deadline", fmtDate(d.Deadline))
	kvRow(pdf, "Raised by", d.RaisedBy)
	kvRow(pdf, "Created", fmtDateValue(d.CreatedAt))

	if d.Description != "" {
		sectionTitle(pdf, "Scope of work")
		paragraph(pdf, d.Description)
	}

	sectionTitle(pdf, "Quotations received")
	if len(d.Quotations) == 0 {
		emptyState(pdf, "No quotations have been submitted yet.")
		return render(pdf)
	}

	cols := []tableColumn{
		{header: "Contractor", width: 52, align: "L"},
		{header: "Quote #", width: 30, align: "L"},
		{header: "Status", width: 28, align: "L"},
		{header: "Valid until", width: 28, align: "L"},
		{header: "Total", width: 42, align: "R"},
	}
	tableHeaderRow(pdf, cols)
	for i, q := range d.Quotations {
		tableRow(pdf, cols, []string{
			q.Contractor,
			q.QuoteNumber,
			statusLabel(q.Status),
			fmtDate(q.ValidUntil),
			money(q.Currency, q.Total),
		}, i%2 == 1)
	}

	return render(pdf)
}
