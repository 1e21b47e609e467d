package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line unicode sparkline on the card surface.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// axis is the y scale of a bar chart: ceiling split into equal intervals
// of rowsPer rows each.
type axis struct {
	step      float64
	ceiling   float64
	intervals int
	rowsPer   int
}

func newAxis(peak float64, height int) axis {
	if peak <= 0 {
		peak = 1
	}
	step := tickStep(peak)
	maxIntervals := max(2, height/2)
	for math.Ceil(peak/step) > float64(maxIntervals) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(1, int(math.Round(ceiling/step)))
	return axis{
		step:      step,
		ceiling:   ceiling,
		intervals: intervals,
		rowsPer:   max(2, height/intervals),
	}
}

func (a axis) rows() int { return a.rowsPer * a.intervals }

// label returns the tick label for row, or "" between ticks.
func (a axis) label(row int) string {
	if row%a.rowsPer != 0 {
		return ""
	}
	return chartLabel(a.step * float64(row/a.rowsPer))
}

// BarChart renders daily values as vertical bars with a labeled y axis.
// Charts too small for bars fall back to a sparkline. When there are more
// values than columns the series is sampled evenly.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	ax := newAxis(peak, height)

	labelW := max(4, len(chartLabel(ax.ceiling))+1)
	plotW := max(5, width-labelW-1)

	n := len(values)
	barW := plotW
	if n > 1 {
		barW = (plotW - (n - 1)) / n
	}
	if barW < 2 && n > 1 {
		values, labels = sample(values, labels, max(2, (plotW+1)/3))
		n = len(values)
		barW = 2
	}
	barW = min(barW, 6)
	gap := 0
	if n > 1 {
		gap = 1
	}
	axisLen := n*barW + (n-1)*gap

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	partial := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	rows := ax.rows()
	for row := rows; row >= 1; row-- {
		top := ax.ceiling * float64(row) / float64(rows)
		bottom := ax.ceiling * float64(row-1) / float64(rows)

		barColor := t.Accent
		if float64(row)/float64(rows) > 0.8 {
			barColor = t.AccentBright
		} else if float64(row)/float64(rows) > 0.5 {
			barColor = color
		}
		barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", labelW, ax.label(row))))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := min(max(int((v-bottom)/(top-bottom)*8), 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(partial[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", labelW, "0") + strings.Repeat("─", axisLen)))
	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(axisStyle.Render(xLabels(labels, barW+gap, axisLen)))
	}
	return b.String()
}

// xLabels places labels under their bars, skipping any that would collide
// with the previous one. The last label is always shown when it fits.
func xLabels(labels []string, pitch, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	lastEnd := -1
	put := func(i int) {
		lbl := labels[i]
		pos := min(i*pitch, max(0, axisLen-len(lbl)))
		if pos <= lastEnd {
			return
		}
		end := min(pos+len(lbl), axisLen)
		copy(buf[pos:end], lbl[:end-pos])
		lastEnd = end
	}
	step := max(1, len(labels)*8/(axisLen+1))
	for i := 0; i < len(labels)-1; i += step {
		put(i)
	}
	put(len(labels) - 1)
	return strings.TrimRight(string(buf), " ")
}

func sample(values []float64, labels []string, n int) ([]float64, []string) {
	out := make([]float64, n)
	var outLabels []string
	if len(labels) == len(values) {
		outLabels = make([]string, n)
	}
	for i := range out {
		src := i * (len(values) - 1) / (n - 1)
		out[i] = values[src]
		if outLabels != nil {
			outLabels[i] = labels[src]
		}
	}
	return out, outLabels
}

// tickStep picks a 1/2/5 interval giving roughly five ticks.
func tickStep(peak float64) float64 {
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func chartLabel(v float64) string {
	scaled := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e6:
		return scaled(1e6, "M")
	case v >= 1e3:
		return scaled(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
