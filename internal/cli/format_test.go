package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/cpulse/internal/model"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.0088, "$0.0088"},
		{0.5, "$0.50"},
		{12.34, "$12.3"},
		{123.4, "$123"},
		{12345.6, "$12,346"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{125 * time.Second, "2m"},
		{time.Hour + 2*time.Minute + 5*time.Second, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTrend(t *testing.T) {
	tests := []struct {
		in   model.Trend
		want string
	}{
		{model.Trend{Direction: model.DirectionUp, Percentage: 50}, "↑ +50%"},
		{model.Trend{Direction: model.DirectionDown, Percentage: -25}, "↓ -25%"},
		{model.Trend{Direction: model.DirectionStable}, "→ 0%"},
		{model.Trend{Direction: model.DirectionUp, Percentage: 2400}, "↑ >999%"},
		{model.Trend{Direction: model.DirectionDown, Percentage: -5000}, "↓ <-999%"},
		{model.Trend{Direction: model.DirectionUp, Percentage: 999}, "↑ +999%"},
	}
	for _, tt := range tests {
		if got := FormatTrend(tt.in); got != tt.want {
			t.Errorf("FormatTrend(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatResponseTime(t *testing.T) {
	assert.Equal(t, "n/a", FormatResponseTime(0, 0))
	assert.Equal(t, "850ms", FormatResponseTime(850, 3))
	assert.Equal(t, "2.5s", FormatResponseTime(2500, 1))
}

func TestFormatScoreAndPercent(t *testing.T) {
	assert.Equal(t, "63/100", FormatScore(model.EngagementScore{Total: 63}))
	assert.Equal(t, "66.7%", FormatPercent(200.0/3))
	assert.Equal(t, "never", FormatAgo(time.Time{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "How do…", Truncate("How do I start?", 7))
	assert.Equal(t, "café", Truncate("café", 4))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Costs",
		Headers: []string{"Model", "Cost"},
		Rows: [][]string{
			{"claude-3-5-haiku", "$0.0088"},
			{"---"},
			{"Total", "$0.0088"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "  Costs", lines[0])
	assert.Equal(t, "│ claude-3-5-haiku │ $0.0088 │", lines[4])
	assert.Equal(t, "│ Total            │ $0.0088 │", lines[6])

	width := lipgloss.Width(lines[1])
	for _, l := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(l), "line %q", l)
	}
}

func TestRenderSparklineAndBar(t *testing.T) {
	assert.Equal(t, "▁▄█", RenderSparkline([]float64{0, 0.5, 1}))
	assert.Equal(t, "", RenderSparkline(nil))
	assert.Equal(t, "██░░", RenderBar(15, 30, 4))
	assert.Equal(t, "", RenderBar(1, 0, 4))
}
