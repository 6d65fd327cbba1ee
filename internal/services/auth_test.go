package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Property Group":        "acme-property-group",
		"  Jo's Maintenance & Sons ": "jo-s-maintenance-sons",
		"ALLCAPS":                    "allcaps",
		"unit--42":                   "unit-42",
		"---":                        "",
		"":                           "",
		"Ωmega Facilities":           "mega-facilities",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q): got %q want %q", in, got, want)
		}
	}
}

func TestNewOpaqueTokenShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok := newOpaqueToken()
		if len(tok) != 64 {
			t.Fatalf("token length: got %d want 64", len(tok))
		}
		if strings.Contains(tok, "-") {
			t.Fatalf("token should have no separators: %q", tok)
		}
		if seen[tok] {
			t.Fatal("token collision across 50 draws")
		}
		seen[tok] = true
	}
}

func TestCompactRef(t *testing.T) {
	refA := compactRef("QT", uuid.MustParse("8f14e45f-ceea-467f-a0f9-b1a2b3c4d5e6"))
	if refA != "QT-8F14E45FCE" {
		t.Errorf("compactRef: got %q", refA)
	}
	refB := compactRef("PAY", uuid.New())
	if !strings.HasPrefix(refB, "PAY-") || len(refB) != len("PAY-")+10 {
		t.Errorf("compactRef shape: got %q", refB)
	}
}
