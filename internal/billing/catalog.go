package billing

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/envutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// Plan is one subscription tier. Plans live in the YAML catalog and are
// referenced from subscription rows by code; they are never stored in the
// database.
type Plan struct {
	Code         string   `yaml:"code" json:"code"`
	Name         string   `yaml:"name" json:"name"`
	MonthlyPrice float64  `yaml:"monthly_price" json:"monthly_price"`
	MaxSeats     int      `yaml:"max_seats" json:"max_seats"`
	TrialDays    int      `yaml:"trial_days" json:"trial_days"`
	Default      bool     `yaml:"default" json:"default"`
	Features     []string `yaml:"features" json:"features"`
}

// Catalog is the parsed plan catalog. Lookup is case-insensitive on plan
// code; listing preserves file order.
type Catalog struct {
	Currency string `yaml:"currency" json:"currency"`
	PlanList []Plan `yaml:"plans" json:"plans"`

	byCode map[string]int
}

// LoadCatalogFromEnv loads the catalog from BILLING_PLANS_PATH
// (default configs/plans.yaml).
func LoadCatalogFromEnv(ctx context.Context, log *logger.Logger) (*Catalog, error) {
	path := envutil.String("BILLING_PLANS_PATH", "configs/plans.yaml")
	return LoadCatalog(ctx, log, path)
}

// LoadCatalog reads, parses and validates the plan catalog at path.
// Validation failures are reported to the data-quality pipeline before the
// error is returned, so a bad catalog shows up in telemetry even when boot
// aborts.
func LoadCatalog(ctx context.Context, log *logger.Logger, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		observability.ReportDataQualityErrors(ctx, log, "billing_catalog", []string{err.Error()}, map[string]any{"path": path})
		return nil, err
	}
	if issues := cat.validate(); len(issues) > 0 {
		observability.ReportDataQualityErrors(ctx, log, "billing_catalog", issues, map[string]any{"path": path})
		return nil, fmt.Errorf("plan catalog invalid:\n  %s", strings.Join(issues, "\n  "))
	}
	if log != nil {
		log.Info("Plan catalog loaded", "path", path, "plans", len(cat.PlanList), "currency", cat.Currency)
	}
	return cat, nil
}

// ParseCatalog parses catalog YAML and builds the lookup index. It does not
// validate; LoadCatalog does.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	if strings.TrimSpace(cat.Currency) == "" {
		cat.Currency = "USD"
	}
	cat.byCode = make(map[string]int, len(cat.PlanList))
	for i := range cat.PlanList {
		cat.PlanList[i].Code = strings.TrimSpace(cat.PlanList[i].Code)
		code := normalizePlanCode(cat.PlanList[i].Code)
		if code == "" {
			continue
		}
		if _, dup := cat.byCode[code]; dup {
			continue
		}
		cat.byCode[code] = i
	}
	return &cat, nil
}

func normalizePlanCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (c *Catalog) validate() []string {
	var issues []string
	if len(c.PlanList) == 0 {
		return []string{"catalog has no plans"}
	}

	seen := map[string]bool{}
	defaults := 0
	for i, p := range c.PlanList {
		label := p.Code
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		code := normalizePlanCode(p.Code)
		switch {
		case code == "":
			issues = append(issues, fmt.Sprintf("plan %s: code required", label))
		case seen[code]:
			issues = append(issues, fmt.Sprintf("plan %s: duplicate code", label))
		default:
			seen[code] = true
		}
		if strings.TrimSpace(p.Name) == "" {
			issues = append(issues, fmt.Sprintf("plan %s: name required", label))
		}
		if p.MonthlyPrice < 0 {
			issues = append(issues, fmt.Sprintf("plan %s: monthly_price must be >= 0", label))
		}
		if p.MaxSeats < 1 {
			issues = append(issues, fmt.Sprintf("plan %s: max_seats must be >= 1", label))
		}
		if p.TrialDays < 0 {
			issues = append(issues, fmt.Sprintf("plan %s: trial_days must be >= 0", label))
		}
		if p.Default {
			defaults++
		}
	}
	if defaults > 1 {
		issues = append(issues, "catalog marks more than one plan as default")
	}
	return issues
}

// Plan returns the plan for code. Lookup is case-insensitive.
func (c *Catalog) Plan(code string) (Plan, bool) {
	if c == nil || c.byCode == nil {
		return Plan{}, false
	}
	i, ok := c.byCode[normalizePlanCode(code)]
	if !ok {
		return Plan{}, false
	}
	return c.PlanList[i], true
}

// Plans returns the plans in file order.
func (c *Catalog) Plans() []Plan {
	if c == nil {
		return nil
	}
	out := make([]Plan, len(c.PlanList))
	copy(out, c.PlanList)
	return out
}

// DefaultPlan returns the plan marked default, falling back to the first
// plan when none is marked.
func (c *Catalog) DefaultPlan() Plan {
	if c == nil || len(c.PlanList) == 0 {
		return Plan{}
	}
	for _, p := range c.PlanList {
		if p.Default {
			return p
		}
	}
	return c.PlanList[0]
}

// CheapestUpgradeFor returns the lowest-priced plan that fits the given seat
// count, used to suggest an upgrade when seat enforcement rejects a new user.
func (c *Catalog) CheapestUpgradeFor(seats int) (Plan, bool) {
	if c == nil || len(c.PlanList) == 0 {
		return Plan{}, false
	}
	candidates := make([]Plan, 0, len(c.PlanList))
	for _, p := range c.PlanList {
		if p.MaxSeats >= seats {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Plan{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MonthlyPrice != candidates[j].MonthlyPrice {
			return candidates[i].MonthlyPrice < candidates[j].MonthlyPrice
		}
		return candidates[i].MaxSeats < candidates[j].MaxSeats
	})
	return candidates[0], true
}
