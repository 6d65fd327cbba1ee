package services

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/propflow/propflow-backend/internal/platform/apierr"
)

func TestBuildQuotationItemsTotalsAndPositions(t *testing.T) {
	items, subtotal, err := buildQuotationItems([]QuotationItemInput{
		{Description: "  Roof sheets ", Unit: "m2", Quantity: 12.5, UnitCost: 89.99},
		{Description: "Labour", Unit: "day", Quantity: 3, UnitCost: 450},
		{Description: "Fasteners", Quantity: 200, UnitCost: 0.037},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: got %d want 3", len(items))
	}

	// Per-line amounts round to cents before the subtotal accumulates.
	if items[0].Amount != 1124.88 {
		t.Errorf("line 0 amount: got %.4f want 1124.88", items[0].Amount)
	}
	if items[2].Amount != 7.4 {
		t.Errorf("line 2 amount: got %.4f want 7.40", items[2].Amount)
	}
	if want := 1124.88 + 1350 + 7.4; math.Abs(subtotal-want) > 1e-9 {
		t.Errorf("subtotal: got %.4f want %.4f", subtotal, want)
	}

	if items[0].Description != "Roof sheets" {
		t.Errorf("description not trimmed: %q", items[0].Description)
	}
	for i, item := range items {
		if item.Position != i {
			t.Errorf("item %d position: got %d", i, item.Position)
		}
	}
}

func TestBuildQuotationItemsRejectsBadLines(t *testing.T) {
	cases := []struct {
		name    string
		in      []QuotationItemInput
		wantMsg string
	}{
		{"empty list", nil, "at least one line item"},
		{"blank description", []QuotationItemInput{{Description: "  ", Quantity: 1, UnitCost: 5}}, "item 1: description"},
		{"zero quantity", []QuotationItemInput{{Description: "Paint", Quantity: 0, UnitCost: 5}}, "item 1: quantity"},
		{"negative unit cost", []QuotationItemInput{
			{Description: "Paint", Quantity: 1, UnitCost: 5},
			{Description: "Brushes", Quantity: 2, UnitCost: -1},
		}, "item 2: unit_cost"},
	}

	for _, tc := range cases {
		_, _, err := buildQuotationItems(tc.in)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) || apiErr.Code != "validation" {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("%s: message %q missing %q", tc.name, err.Error(), tc.wantMsg)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]string{
		"":      "USD",
		"  ":    "USD",
		"usd":   "USD",
		" eur ": "EUR",
		"NGN":   "NGN",
	}
	for in, want := range cases {
		if got := normalizeCurrency(in); got != want {
			t.Errorf("normalizeCurrency(%q): got %q want %q", in, got, want)
		}
	}
}

func TestRoundMoney(t *testing.T) {
	cases := map[float64]float64{
		0:        0,
		1.005:    1.0, // float64 puts 1.005 just under the half-cent
		1.016:    1.02,
		-2.675:   -2.67,
		99.99999: 100,
	}
	for in, want := range cases {
		if got := roundMoney(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("roundMoney(%v): got %v want %v", in, got, want)
		}
	}
}
