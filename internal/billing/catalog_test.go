package billing

import (
	"strings"
	"testing"
)

const testCatalogYAML = `
currency: USD
plans:
  - code: starter
    name: Starter
    monthly_price: 0
    max_seats: 3
    trial_days: 14
    default: true
    features: ["Leads & RFQs"]
  - code: professional
    name: Professional
    monthly_price: 49
    max_seats: 15
  - code: business
    name: Business
    monthly_price: 199
    max_seats: 100
`

func mustParse(t *testing.T, yml string) *Catalog {
	t.Helper()
	cat, err := ParseCatalog([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cat
}

func TestCatalogLookupIsCaseInsensitive(t *testing.T) {
	cat := mustParse(t, testCatalogYAML)

	p, ok := cat.Plan("PROFESSIONAL")
	if !ok {
		t.Fatal("expected plan lookup to succeed")
	}
	if p.Name != "Professional" || p.MaxSeats != 15 {
		t.Fatalf("wrong plan: %+v", p)
	}

	if _, ok := cat.Plan("enterprise"); ok {
		t.Fatal("unknown code must not resolve")
	}
}

func TestCatalogDefaultPlan(t *testing.T) {
	cat := mustParse(t, testCatalogYAML)
	if got := cat.DefaultPlan().Code; got != "starter" {
		t.Fatalf("default plan: got %q", got)
	}

	noDefault := mustParse(t, strings.ReplaceAll(testCatalogYAML, "default: true", "default: false"))
	if got := noDefault.DefaultPlan().Code; got != "starter" {
		t.Fatalf("fallback default should be first plan, got %q", got)
	}
}

func TestCatalogValidate(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{"empty", "plans: []", "no plans"},
		{"missing code", "plans:\n  - name: X\n    max_seats: 1", "code required"},
		{"duplicate code", "plans:\n  - {code: a, name: A, max_seats: 1}\n  - {code: A, name: A2, max_seats: 1}", "duplicate code"},
		{"bad seats", "plans:\n  - {code: a, name: A, max_seats: 0}", "max_seats"},
		{"negative price", "plans:\n  - {code: a, name: A, max_seats: 1, monthly_price: -1}", "monthly_price"},
		{"two defaults", "plans:\n  - {code: a, name: A, max_seats: 1, default: true}\n  - {code: b, name: B, max_seats: 1, default: true}", "more than one plan as default"},
	}

	for _, tc := range cases {
		cat := mustParse(t, tc.yml)
		issues := cat.validate()
		found := false
		for _, is := range issues {
			if strings.Contains(is, tc.want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: expected issue containing %q, got %v", tc.name, tc.want, issues)
		}
	}

	if issues := mustParse(t, testCatalogYAML).validate(); len(issues) != 0 {
		t.Fatalf("valid catalog reported issues: %v", issues)
	}
}

func TestCheapestUpgradeFor(t *testing.T) {
	cat := mustParse(t, testCatalogYAML)

	p, ok := cat.CheapestUpgradeFor(4)
	if !ok || p.Code != "professional" {
		t.Fatalf("4 seats should suggest professional, got %+v ok=%v", p, ok)
	}

	p, ok = cat.CheapestUpgradeFor(2)
	if !ok || p.Code != "starter" {
		t.Fatalf("2 seats should keep starter (cheapest fit), got %+v ok=%v", p, ok)
	}

	if _, ok := cat.CheapestUpgradeFor(1000); ok {
		t.Fatal("no plan fits 1000 seats")
	}
}

func TestCatalogCurrencyDefault(t *testing.T) {
	cat := mustParse(t, "plans:\n  - {code: a, name: A, max_seats: 1}")
	if cat.Currency != "USD" {
		t.Fatalf("currency default: got %q", cat.Currency)
	}
}
