package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

var perMTok = decimal.NewFromInt(1_000_000)

// CostOptions narrows and buckets a cost calculation.
type CostOptions struct {
	// Since and Until bound CreatedAt to [Since, Until). Zero means open.
	Since time.Time
	Until time.Time
	// Location is used for ByDate keys. Nil means UTC.
	Location *time.Location
}

// CalculateCosts prices assistant messages and splits the spend by model
// and by date. Pricing is resolved at each message's timestamp.
//
// Non-assistant messages, messages with an unknown model, and messages
// with both token counts missing are skipped and counted in
// SkippedMessages. A single missing count is taken as 0.
func CalculateCosts(msgs []model.ChatMessage, prices *config.PriceTable, opts CostOptions) model.CostBreakdown {
	filtered := FilterByTime(msgs, opts.Since, opts.Until)

	total := decimal.Zero
	byModel := make(map[string]decimal.Decimal)
	byDate := make(map[string]decimal.Decimal)
	students := make(map[string]struct{})

	var out model.CostBreakdown
	for _, m := range filtered {
		if m.Role != model.RoleAssistant || (m.InputTokens == nil && m.OutputTokens == nil) {
			out.SkippedMessages++
			continue
		}
		pricing, ok := prices.LookupAt(m.Model, m.CreatedAt)
		if !ok {
			out.SkippedMessages++
			continue
		}

		cost := messageCost(pricing, deref(m.InputTokens), deref(m.OutputTokens))
		name := prices.NormalizeModelName(m.Model)
		day := DateKey(m.CreatedAt, opts.Location)

		total = total.Add(cost)
		byModel[name] = byModel[name].Add(cost)
		byDate[day] = byDate[day].Add(cost)
		students[m.StudentID] = struct{}{}
		out.PricedMessages++
	}

	out.Total = total.InexactFloat64()
	out.ByModel = toFloats(byModel)
	out.ByDate = toFloats(byDate)
	out.Students = len(students)
	if out.PricedMessages > 0 {
		out.PerMessage = total.Div(decimal.NewFromInt(int64(out.PricedMessages))).InexactFloat64()
	}
	if out.Students > 0 {
		out.PerStudent = total.Div(decimal.NewFromInt(int64(out.Students))).InexactFloat64()
	}
	return out
}

func messageCost(p config.ModelPricing, in, out int64) decimal.Decimal {
	c := decimal.NewFromInt(in).Mul(decimal.NewFromFloat(p.InputPerMTok))
	c = c.Add(decimal.NewFromInt(out).Mul(decimal.NewFromFloat(p.OutputPerMTok)))
	return c.Div(perMTok)
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func toFloats(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	return out
}

// ModelCost is one row of a per-model cost table.
type ModelCost struct {
	Model        string  `json:"model"`
	Cost         float64 `json:"cost"`
	SharePercent float64 `json:"share_percent"`
}

// ModelCosts returns the per-model split sorted by cost descending.
func ModelCosts(b model.CostBreakdown) []ModelCost {
	rows := make([]ModelCost, 0, len(b.ByModel))
	for name, cost := range b.ByModel {
		row := ModelCost{Model: name, Cost: cost}
		if b.Total > 0 {
			row.SharePercent = cost / b.Total * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Cost != rows[j].Cost {
			return rows[i].Cost > rows[j].Cost
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}

// DateCost is one day of spend.
type DateCost struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// DateCosts returns the per-date split, most recent first.
func DateCosts(b model.CostBreakdown) []DateCost {
	rows := make([]DateCost, 0, len(b.ByDate))
	for day, cost := range b.ByDate {
		rows = append(rows, DateCost{Date: day, Cost: cost})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date > rows[j].Date
	})
	return rows
}
