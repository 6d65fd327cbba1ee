// Package pdf renders the printable documents: RFQ summaries, project
// reports and invoices. Builders take plain data structs so callers own all
// querying; nothing here touches the database.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/propflow/propflow-backend/internal/observability"
)

const (
	pageMargin   = 15.0
	contentWidth = 180.0 // A4 portrait minus margins
	footerSpace  = 20.0
)

func setInk(pdf *fpdf.Fpdf)    { pdf.SetTextColor(33, 37, 41) }
func setMuted(pdf *fpdf.Fpdf)  { pdf.SetTextColor(108, 117, 125) }
func setAccent(pdf *fpdf.Fpdf) { pdf.SetTextColor(13, 110, 253) }

// newDoc builds an A4 portrait page with the product header band and a
// generated-at footer. orgName lands on the right of the header band.
func newDoc(title string, orgName string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Propflow", true)
	pdf.SetCreator("Propflow", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerSpace)
	pdf.AliasNbPages("")

	generatedAt := time.Now().UTC()

	pdf.SetHeaderFuncMode(func() {
		pdf.SetFont("Helvetica", "B", 11)
		setAccent(pdf)
		pdf.CellFormat(contentWidth/2, 6, "Propflow", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		setMuted(pdf)
		pdf.CellFormat(contentWidth/2, 6, orgName, "", 1, "R", false, 0, "")
		pdf.SetDrawColor(222, 226, 230)
		pdf.SetLineWidth(0.3)
		y := pdf.GetY() + 1
		pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
		pdf.SetY(y + 4)
	}, true)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		setMuted(pdf)
		pdf.CellFormat(contentWidth/2, 5, "Generated "+generatedAt.Format("02 Jan 2006 15:04 UTC"), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	return pdf
}

func docTitle(pdf *fpdf.Fpdf, kicker string, title string) {
	if kicker != "" {
		pdf.SetFont("Helvetica", "B", 8.5)
		setMuted(pdf)
		pdf.CellFormat(contentWidth, 5, strings.ToUpper(kicker), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 17)
	setInk(pdf)
	pdf.MultiCell(contentWidth, 8, title, "", "L", false)
	pdf.Ln(2)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 9)
	setAccent(pdf)
	pdf.CellFormat(contentWidth, 5.5, strings.ToUpper(title), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(222, 226, 230)
	pdf.SetLineWidth(0.2)
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
	pdf.Ln(2)
}

func kvRow(pdf *fpdf.Fpdf, label string, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	pdf.SetFont("Helvetica", "", 9)
	setMuted(pdf)
	pdf.CellFormat(45, 5.5, label, "", 0, "L", false, 0, "")
	setInk(pdf)
	pdf.MultiCell(contentWidth-45, 5.5, value, "", "L", false)
}

func paragraph(pdf *fpdf.Fpdf, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	pdf.SetFont("Helvetica", "", 9.5)
	setInk(pdf)
	pdf.MultiCell(contentWidth, 5, text, "", "L", false)
}

func emptyState(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 9)
	setMuted(pdf)
	pdf.CellFormat(contentWidth, 6, text, "", 1, "L", false, 0, "")
}

type tableColumn struct {
	header string
	width  float64
	align  string
}

func tableHeaderRow(pdf *fpdf.Fpdf, cols []tableColumn) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(241, 243, 245)
	setMuted(pdf)
	for i, col := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 6.5, strings.ToUpper(col.header), "", ln, col.align, true, 0, "")
	}
}

func tableRow(pdf *fpdf.Fpdf, cols []tableColumn, cells []string, zebra bool) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(249, 250, 251)
	setInk(pdf)
	for i, col := range cols {
		txt := ""
		if i < len(cells) {
			txt = cells[i]
		}
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 6, truncateToWidth(pdf, txt, col.width-2), "", ln, col.align, zebra, 0, "")
	}
}

// truncateToWidth ellipsizes cell text that would overflow its column.
func truncateToWidth(pdf *fpdf.Fpdf, s string, width float64) string {
	s = strings.TrimSpace(s)
	if s == "" || pdf.GetStringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + ellipsis
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ellipsis
}

func money(currency string, v float64) string {
	cur := strings.TrimSpace(currency)
	if cur == "" {
		cur = "USD"
	}
	return cur + " " + formatAmount(v)
}

// formatAmount renders 1234567.5 as 1,234,567.50.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func fmtDateValue(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// statusLabel turns PM_APPROVED into "Pm Approved" style labels for print.
func statusLabel(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return "-"
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, p := range parts {
		if p == "pm" || p == "rfq" {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func observeRender(document string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.ObservePDFRender(document, status, time.Since(start))
	}
}
