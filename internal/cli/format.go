// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/cpulse/internal/model"
)

// maxTrendDisplay caps how large a trend percentage is shown.
const maxTrendDisplay = 999.0

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCost formats a USD cost value. Sub-cent amounts keep four decimals
// since per-message AI spend is usually below a cent.
func FormatCost(cost float64) string {
	switch {
	case cost >= 1000:
		return "$" + FormatNumber(int64(math.Round(cost)))
	case cost >= 100:
		return fmt.Sprintf("$%.0f", cost)
	case cost >= 10:
		return fmt.Sprintf("$%.1f", cost)
	case cost > 0 && cost < 0.01:
		return fmt.Sprintf("$%.4f", cost)
	default:
		return fmt.Sprintf("$%.2f", cost)
	}
}

// FormatDuration formats a duration for tables.
// e.g., 1h2m5s -> "1h 2m", 125s -> "2m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatMinutes formats a fractional minute count, e.g. 12.5 -> "12.5m".
func FormatMinutes(m float64) string {
	if m < 1 {
		return fmt.Sprintf("%.0fs", m*60)
	}
	return fmt.Sprintf("%.1fm", m)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDelta formats a cost delta with sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCost(delta)
	}
	return "-" + FormatCost(-delta)
}

// FormatTrend renders a trend as an arrow and a signed percentage, capped
// at ±999% for display.
func FormatTrend(t model.Trend) string {
	pct := math.Max(-maxTrendDisplay, math.Min(maxTrendDisplay, t.Percentage))
	capped := math.Abs(t.Percentage) > maxTrendDisplay

	var arrow string
	switch t.Direction {
	case model.DirectionUp:
		arrow = "↑"
	case model.DirectionDown:
		arrow = "↓"
	default:
		return "→ 0%"
	}

	if capped {
		if pct > 0 {
			return fmt.Sprintf("%s >%.0f%%", arrow, maxTrendDisplay)
		}
		return fmt.Sprintf("%s <-%.0f%%", arrow, maxTrendDisplay)
	}
	return fmt.Sprintf("%s %+.0f%%", arrow, pct)
}

// FormatScore formats an engagement score as "63/100".
func FormatScore(s model.EngagementScore) string {
	return fmt.Sprintf("%d/100", s.Total)
}

// FormatResponseTime formats an average response time, or "n/a" when no
// sample carried one.
func FormatResponseTime(avgMs float64, samples int) string {
	if samples == 0 {
		return "n/a"
	}
	if avgMs >= 1000 {
		return fmt.Sprintf("%.1fs", avgMs/1000)
	}
	return fmt.Sprintf("%.0fms", avgMs)
}

// FormatAgo formats a timestamp relative to now, e.g. "3 hours ago".
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Truncate shortens s to at most n runes, adding an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
