package pdf

import "time"

// ProjectReportDocument is the data behind a project report export. The
// financial block mirrors the rollup service output; rows come in already
// aggregated.
type ProjectReportDocument struct {
	OrgName string

	ProjectName string
	Status      string
	Currency    string
	StartDate   *time.Time
	EndDate     *time.Time
	Description string

	ContractValue  float64
	BudgetTotal    float64
	ActualSpend    float64
	Variance       float64
	UtilizationPct float64
	ProfitMargin   float64
	HealthScore    float64
	HealthLabel    string

	Milestones    []MilestoneRow
	WeeklyUpdates []WeeklyUpdateRow
	Risks         []RiskRow
}

// MilestoneRow is one milestone line in the report.
type MilestoneRow struct {
	Name         string
	Status       string
	BudgetedCost float64
	ActualCost   float64
	DueDate      *time.Time
}

// WeeklyUpdateRow is one weekly spend line in the report.
type WeeklyUpdateRow struct {
	Milestone        string
	WeekStart        time.Time
	LabourCost       float64
	MaterialCost     float64
	OtherCost        float64
	TotalExpenditure float64
}

// RiskRow is one open project risk in the report.
type RiskRow struct {
	Title    string
	Severity string
	Status   string
}

// RenderProjectReport renders the full project report document.
func RenderProjectReport(d ProjectReportDocument) ([]byte, error) {
	start := time.Now()
	out, err := renderProjectReport(d)
	observeRender("project_report", start, err)
	return out, err
}

func renderProjectReport(d ProjectReportDocument) ([]byte, error) {
	pdf := newDoc("Project Report: "+d.ProjectName, d.OrgName)

	docTitle(pdf, "Project Report", d.ProjectName)

	kvRow(pdf, "Status", statusLabel(d.Status))
	kvRow(pdf, "Start date", fmtDate(d.StartDate))
	kvRow(pdf, "End date", fmtDate(d.EndDate))
	if d.Description != "" {
		kvRow(pdf, "Summary", d.Description)
	}

	sectionTitle(pdf, "Financials")
	kvRow(pdf, "Contract value", money(d.Currency, d.ContractValue))
	kvRow(pdf, "Budget total", money(d.Currency, d.BudgetTotal))
	kvRow(pdf, "Actual spend", money(d.Currency, d.ActualSpend))
	kvRow(pdf, "Variance", money(d.Currency, d.Variance))
	kvRow(pdf, "Budget utilization", percent(d.UtilizationPct))
	kvRow(pdf, "Profit margin", percent(d.ProfitMargin))
	if d.HealthLabel != "" {
		kvRow(pdf, "Health", d.HealthLabel+" ("+percent(d.HealthScore)+")")
	}

	sectionTitle(pdf, "Milestones")
	if len(d.Milestones) == 0 {
		emptyState(pdf, "No milestones defined.")
	} else {
		cols := []tableColumn{
			{header: "Milestone", width: 56, align: "L"},
			{header: "Status", width: 26, align: "L"},
			{header: "Budget", width: 34, align: "R"},
			{header: "Actual", width: 34, align: "R"},
			{header: "Due", width: 30, align: "L"},
		}
		tableHeaderRow(pdf, cols)
		for i, m := range d.Milestones {
			tableRow(pdf, cols, []string{
				m.Name,
				statusLabel(m.Status),
				money(d.Currency, m.BudgetedCost),
				money(d.Currency, m.ActualCost),
				fmtDate(m.DueDate),
			}, i%2 == 1)
		}
	}

	sectionTitle(pdf, "Weekly expenditure")
	if len(d.WeeklyUpdates) == 0 {
		emptyState(pdf, "No weekly budget updates recorded.")
	} else {
		cols := []tableColumn{
			{header: "Week", width: 26, align: "L"},
			{header: "Milestone", width: 50, align: "L"},
			{header: "Labour", width: 26, align: "R"},
			{header: "Material", width: 26, align: "R"},
			{header: "Other", width: 22, align: "R"},
			{header: "Total", width: 30, align: "R"},
		}
		tableHeaderRow(pdf, cols)
		for i, w := range d.WeeklyUpdates {
			tableRow(pdf, cols, []string{
				w.WeekStart.Format("02 Jan"),
				w.Milestone,
				formatAmount(w.LabourCost),
				formatAmount(w.MaterialCost),
				formatAmount(w.OtherCost),
				formatAmount(w.TotalExpenditure),
			}, i%2 == 1)
		}
	}

	if len(d.Risks) > 0 {
		sectionTitle(pdf, "Open risks")
		cols := []tableColumn{
			{header: "Risk", width: 104, align: "L"},
			{header: "Severity", width: 38, align: "L"},
			{header: "Status", width: 38, align: "L"},
		}
		tableHeaderRow(pdf, cols)
		for i, r := range d.Risks {
			tableRow(pdf, cols, []string{
				r.Title,
				statusLabel(r.Severity),
				statusLabel(r.Status),
			}, i%2 == 1)
		}
	}

	return render(pdf)
}
