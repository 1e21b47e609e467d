package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(80, 3)
	assert.Equal(t, []int{27, 27, 26}, widths)
	assert.Nil(t, LayoutRow(80, 0))
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	require.Less(t, shortLines, tallLines)

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	require.Len(t, lines, tallLines)

	for i := shortLines; i < len(lines); i++ {
		assert.Contains(t, lines[i], "\x1b[", "padding line %d must carry background styling", i)
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Students", Value: "12", Trend: model.Trend{Direction: model.DirectionUp, Percentage: 20}, UpIsGood: true},
		{Label: "Cost", Value: "$1.20", Trend: model.Trend{Direction: model.DirectionUp, Percentage: 5}},
		{Label: "Score", Value: "71", NoTrend: true},
	}, 90)

	for i, line := range strings.Split(row, "\n") {
		assert.Equal(t, 90, lipgloss.Width(line), "line %d", i)
	}
	assert.Contains(t, row, "Students")
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	theme.SetActive("flexoki-dark")
	for active := range Tabs {
		want := 0
		for i := range Tabs {
			want += TabVisualWidth(i, active)
		}
		want += (len(Tabs) - 1) * TabSeparatorWidth
		assert.Equal(t, want, lipgloss.Width(RenderTabBar(active, 0)), "active=%d", active)
	}
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('1'))
	assert.Equal(t, 5, TabIdxByKey('6'))
	assert.Equal(t, -1, TabIdxByKey('x'))
}

func TestBarChartHeightAndFallback(t *testing.T) {
	theme.SetActive("flexoki-dark")

	values := []float64{3, 9, 4, 0, 12}
	labels := []string{"06-01", "06-02", "06-03", "06-04", "06-05"}
	chart := BarChart(values, labels, theme.Active.Blue, 60, 8)
	lines := strings.Split(chart, "\n")
	assert.Contains(t, lines[len(lines)-1], "06-05", "last label shown")
	assert.Contains(t, chart, "└")

	spark := BarChart(values, labels, theme.Active.Blue, 10, 8)
	assert.NotContains(t, spark, "\n")
	assert.Equal(t, len(values), lipgloss.Width(spark))
}

func TestAxisTicks(t *testing.T) {
	ax := newAxis(12, 8)
	assert.InDelta(t, 4.0, ax.step, 1e-9)
	assert.InDelta(t, 12.0, ax.ceiling, 1e-9)
	assert.Equal(t, 6, ax.rows())
	assert.Equal(t, "12", ax.label(ax.rows()))
	assert.Equal(t, "4", ax.label(2))
	assert.Equal(t, "", ax.label(1))
}

func TestChartLabel(t *testing.T) {
	assert.Equal(t, "2k", chartLabel(2000))
	assert.Equal(t, "1.5k", chartLabel(1500))
	assert.Equal(t, "3M", chartLabel(3e6))
	assert.Equal(t, "0.50", chartLabel(0.5))
}

func TestScoreBar(t *testing.T) {
	theme.SetActive("flexoki-dark")
	bar := ScoreBar("Video", 24, 30, 8, 20)
	assert.Contains(t, bar, "24/30")
	assert.Contains(t, bar, "Video")
	assert.Contains(t, ScoreBar("Login", 0, 0, 8, 20), " 0/0")
}
