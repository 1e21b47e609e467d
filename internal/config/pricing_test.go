package config

import (
	"math"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestLookupAt_UsesEffectiveDate(t *testing.T) {
	pt := NewPriceTable(nil)
	pt.Set("test-model", ModelPricing{InputPerMTok: 1.0}, mustDate(t, "2025-01-01"))
	pt.Set("test-model", ModelPricing{InputPerMTok: 2.0}, mustDate(t, "2025-07-01"))

	apr, ok := pt.LookupAt("test-model", mustDate(t, "2025-04-15"))
	if !ok {
		t.Fatal("LookupAt returned !ok for historical model")
	}
	if apr.InputPerMTok != 1.0 {
		t.Fatalf("April InputPerMTok = %.2f, want 1.0", apr.InputPerMTok)
	}

	aug, ok := pt.LookupAt("test-model", mustDate(t, "2025-08-15"))
	if !ok {
		t.Fatal("LookupAt returned !ok in later window")
	}
	if aug.InputPerMTok != 2.0 {
		t.Fatalf("August InputPerMTok = %.2f, want 2.0", aug.InputPerMTok)
	}
}

func TestLookupAt_UsesLatestWhenTimeZero(t *testing.T) {
	pt := NewPriceTable(nil)
	pt.Set("test-model", ModelPricing{InputPerMTok: 3.0}, mustDate(t, "2025-09-01"))
	pt.Set("test-model", ModelPricing{InputPerMTok: 1.0}, mustDate(t, "2025-01-01"))

	p, ok := pt.LookupAt("test-model", time.Time{})
	if !ok {
		t.Fatal("LookupAt returned !ok")
	}
	if p.InputPerMTok != 3.0 {
		t.Fatalf("zero-time InputPerMTok = %.2f, want 3.0", p.InputPerMTok)
	}
}

func TestLookupAt_BeforeFirstVersionUsesEarliest(t *testing.T) {
	pt := NewPriceTable(nil)
	pt.Set("m", ModelPricing{OutputPerMTok: 5}, mustDate(t, "2025-03-01"))

	p, ok := pt.LookupAt("m", mustDate(t, "2024-01-01"))
	if !ok || p.OutputPerMTok != 5 {
		t.Fatalf("LookupAt = %+v, %v; want OutputPerMTok 5, true", p, ok)
	}
}

func TestSet_ReplacesSameDate(t *testing.T) {
	pt := DefaultPriceTable()
	pt.Set(FastModel, ModelPricing{InputPerMTok: 9, OutputPerMTok: 9}, time.Time{})

	p, _ := pt.Lookup(FastModel)
	if p.InputPerMTok != 9 {
		t.Errorf("InputPerMTok = %v, want 9", p.InputPerMTok)
	}
	if got := len(pt.versions[FastModel]); got != 1 {
		t.Errorf("versions = %d, want 1", got)
	}
}

func TestNormalizeModelName(t *testing.T) {
	pt := DefaultPriceTable()
	tests := []struct {
		input string
		want  string
	}{
		{"claude-3-5-haiku-20241022", "claude-3-5-haiku"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4"},
		{"claude-sonnet-4", "claude-sonnet-4"},
		{"gpt-4o-2024", "gpt-4o-2024"},
		{"unknown-model-20250101", "unknown-model-20250101"},
	}

	for _, tt := range tests {
		got := pt.NormalizeModelName(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeModelName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLookup_UnknownAndEmpty(t *testing.T) {
	pt := DefaultPriceTable()
	if _, ok := pt.Lookup(""); ok {
		t.Error("Lookup(\"\") returned ok")
	}
	if _, ok := pt.Lookup("gpt-4o"); ok {
		t.Error("Lookup(gpt-4o) returned ok")
	}

	var nilTable *PriceTable
	if _, ok := nilTable.Lookup(FastModel); ok {
		t.Error("nil table Lookup returned ok")
	}
}

func TestCalculateCost(t *testing.T) {
	pt := DefaultPriceTable()
	at := mustDate(t, "2025-06-01")

	// 1000 input + 2000 output on the fast tier.
	got := pt.CalculateCost("claude-3-5-haiku-20241022", at, 1000, 2000)
	want := 0.0088
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CalculateCost fast = %v, want %v", got, want)
	}

	got = pt.CalculateCost(CapableModel, at, 1_000_000, 1_000_000)
	if math.Abs(got-18.0) > 1e-9 {
		t.Errorf("CalculateCost capable = %v, want 18", got)
	}

	if got := pt.CalculateCost("mystery", at, 500, 500); got != 0 {
		t.Errorf("CalculateCost unknown = %v, want 0", got)
	}
}

func TestModels(t *testing.T) {
	got := DefaultPriceTable().Models()
	if len(got) != 2 || got[0] != FastModel || got[1] != CapableModel {
		t.Errorf("Models() = %v, want [%s %s]", got, FastModel, CapableModel)
	}
}
