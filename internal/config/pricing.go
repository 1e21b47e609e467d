package config

import (
	"sort"
	"strings"
	"time"
)

// ModelPricing holds per-million-token prices for a model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Default model tiers.
const (
	FastModel    = "claude-3-5-haiku"
	CapableModel = "claude-sonnet-4"
)

// DefaultPricing maps model base names to their pricing.
var DefaultPricing = map[string]ModelPricing{
	FastModel:    {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	CapableModel: {InputPerMTok: 3.00, OutputPerMTok: 15.00},
}

type modelPricingVersion struct {
	EffectiveFrom time.Time
	Pricing       ModelPricing
}

// PriceTable resolves model identifiers to effective-dated pricing.
// The zero value is an empty table; use NewPriceTable or DefaultPriceTable.
type PriceTable struct {
	// versions must stay sorted by EffectiveFrom ascending per model.
	versions map[string][]modelPricingVersion
}

// NewPriceTable returns a table seeded with base (no effective date).
func NewPriceTable(base map[string]ModelPricing) *PriceTable {
	pt := &PriceTable{versions: make(map[string][]modelPricingVersion, len(base))}
	for name, p := range base {
		pt.versions[name] = []modelPricingVersion{{Pricing: p}}
	}
	return pt
}

// DefaultPriceTable returns a table holding DefaultPricing.
func DefaultPriceTable() *PriceTable {
	return NewPriceTable(DefaultPricing)
}

// Set registers pricing for model starting at effectiveFrom. A zero
// effectiveFrom replaces the undated base entry.
func (pt *PriceTable) Set(model string, p ModelPricing, effectiveFrom time.Time) {
	if pt.versions == nil {
		pt.versions = make(map[string][]modelPricingVersion)
	}
	versions := pt.versions[model]
	replaced := false
	for i, v := range versions {
		if v.EffectiveFrom.Equal(effectiveFrom) {
			versions[i].Pricing = p
			replaced = true
			break
		}
	}
	if !replaced {
		versions = append(versions, modelPricingVersion{EffectiveFrom: effectiveFrom, Pricing: p})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].EffectiveFrom.Before(versions[j].EffectiveFrom)
	})
	pt.versions[model] = versions
}

// Models returns the known model names, sorted.
func (pt *PriceTable) Models() []string {
	names := make([]string, 0, len(pt.versions))
	for name := range pt.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (pt *PriceTable) has(model string) bool {
	_, ok := pt.versions[model]
	return ok
}

// NormalizeModelName strips date suffixes from model identifiers.
// e.g., "claude-3-5-haiku-20241022" -> "claude-3-5-haiku"
func (pt *PriceTable) NormalizeModelName(raw string) string {
	if pt.has(raw) {
		return raw
	}

	// Strip last segment if it looks like a date (all digits)
	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if pt.has(candidate) {
				return candidate
			}
		}
	}

	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Lookup returns the latest pricing for a model, normalizing the name first.
// Returns zero pricing and false if the model is unknown.
func (pt *PriceTable) Lookup(model string) (ModelPricing, bool) {
	return pt.LookupAt(model, time.Time{})
}

// LookupAt returns the pricing for a model at the given timestamp.
// If at is zero, the latest known pricing entry is used.
func (pt *PriceTable) LookupAt(model string, at time.Time) (ModelPricing, bool) {
	if pt == nil || model == "" {
		return ModelPricing{}, false
	}
	versions, ok := pt.versions[pt.NormalizeModelName(model)]
	if !ok || len(versions) == 0 {
		return ModelPricing{}, false
	}

	if at.IsZero() {
		return versions[len(versions)-1].Pricing, true
	}

	at = at.UTC()
	selected := versions[0].Pricing
	for _, v := range versions {
		if v.EffectiveFrom.IsZero() || !at.Before(v.EffectiveFrom.UTC()) {
			selected = v.Pricing
			continue
		}
		break
	}
	return selected, true
}

// CalculateCost computes the cost in USD for one message at a point in time.
// Unknown models cost 0.
func (pt *PriceTable) CalculateCost(model string, at time.Time, inputTokens, outputTokens int64) float64 {
	pricing, ok := pt.LookupAt(model, at)
	if !ok {
		return 0
	}
	cost := float64(inputTokens) * pricing.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * pricing.OutputPerMTok / 1_000_000
	return cost
}
