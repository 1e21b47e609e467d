// Package tui provides the interactive Bubble Tea dashboard for cpulse.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
	"github.com/theirongolddev/cpulse/internal/store"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// Options configures the dashboard.
type Options struct {
	DBPath string
	// ImportDir, when set, is imported into the store before each load.
	ImportDir string
	CreatorID string
	Days      int
	Location  *time.Location
	Config    config.Config
	// ConfigPath is where settings edits are saved.
	ConfigPath string
	// NeedSetup shows the first-run form once data has loaded.
	NeedSetup bool
}

// viewData is everything the tabs render for one creator and window.
type viewData struct {
	creator  string
	creators []string
	window   pipeline.Window
	dash     model.Dashboard
	sessions []model.Session // newest first
	clusters []model.QuestionCluster
	models   []pipeline.ModelCost
	costDays []pipeline.DateCost
	imported *pipeline.ImportResult
}

// progressMsg reports import progress.
type progressMsg struct {
	current int
	total   int
}

// dataLoadedMsg is sent when a load or refresh finishes.
type dataLoadedMsg struct {
	data     *viewData
	err      error
	loadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	cfg  config.Config

	// Data
	data     *viewData
	loaded   bool
	loadErr  error
	loadTime time.Duration
	loadedAt time.Time

	refreshing bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Filter state
	days    int
	creator string

	// Per-tab state
	sessState sessionsState
	questions questionsState
	engage    engagementState
	settings  settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	// Loading, with progress streamed from the loader goroutine
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead   = 10 // approximate header + status bar height for half-page calc
	minContentHeight = 5
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabCosts
	tabSessions
	tabQuestions
	tabEngagement
	tabSettings
)

// NewApp creates the root model.
func NewApp(opts Options) App {
	theme.SetActive(opts.Config.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	days := opts.Days
	if days <= 0 {
		days = opts.Config.General.DefaultDays
	}

	return App{
		opts:      opts,
		cfg:       opts.Config,
		days:      days,
		creator:   opts.CreatorID,
		needSetup: opts.NeedSetup,
		setupVals: SetupValuesFrom(opts.Config),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.loadRequest(), a.loadSub),
		a.spinner.Tick,
	)
}

// loadRequest captures what the next load should fetch.
func (a App) loadRequest() loadRequest {
	return loadRequest{opts: a.opts, cfg: a.cfg, days: a.days, creator: a.creator}
}

// setData installs freshly loaded data and clamps per-tab cursors.
func (a *App) setData(d *viewData) {
	a.data = d
	a.creator = d.creator
	a.sessState.clamp(len(d.sessions))
	a.questions.clamp(len(a.filteredClusters()))
	a.engage.clamp(len(d.dash.Students))
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		return a.updateKey(msg)

	case progressMsg:
		a.progress = msg.current
		a.progressMax = msg.total
		return a, waitForLoadMsg(a.loadSub)

	case dataLoadedMsg:
		a.loaded = true
		a.refreshing = false
		a.loadErr = msg.err
		a.loadTime = msg.loadTime
		a.loadedAt = time.Now()
		if msg.data != nil {
			a.setData(msg.data)
		}

		if a.needSetup {
			a.needSetup = false
			var creators []string
			if a.data != nil {
				creators = a.data.creators
			}
			a.setupForm = NewSetupForm(creators, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabQuestions && a.questions.searching {
		return a.updateQuestionsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "g":
		a.moveCursor(-1 << 20)
		return a, nil
	case "G":
		a.moveCursor(1 << 20)
		return a, nil
	}

	switch a.activeTab {
	case tabSessions:
		if m, cmd, ok := a.updateSessionsKey(key); ok {
			return m, cmd
		}
	case tabQuestions:
		if m, cmd, ok := a.updateQuestionsKey(key); ok {
			return m, cmd
		}
	case tabSettings:
		if key == "enter" {
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		return a.reload()
	case "w":
		a.days = nextWindow(a.days)
		return a.reload()
	case "C":
		if a.data != nil && len(a.data.creators) > 1 {
			a.creator = nextCreator(a.data.creators, a.creator)
			return a.reload()
		}
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

// moveCursor moves the list cursor of the active tab by delta.
func (a *App) moveCursor(delta int) {
	if a.data == nil {
		return
	}
	switch a.activeTab {
	case tabSessions:
		a.sessState.move(delta, len(a.data.sessions))
	case tabQuestions:
		a.questions.move(delta, len(a.filteredClusters()))
	case tabEngagement:
		a.engage.move(delta, len(a.data.dash.Students))
	case tabSettings:
		a.settings.cursor = min(max(a.settings.cursor+delta, 0), settingsFieldCount-1)
	}
}

// reload refetches data in the background. The current view stays up.
func (a App) reload() (tea.Model, tea.Cmd) {
	if a.refreshing {
		return a, nil
	}
	a.refreshing = true
	return a, tea.Batch(refreshDataCmd(a.loadRequest()), a.spinner.Tick)
}

// windowChoices are the day counts "w" cycles through.
var windowChoices = []int{7, 30, 90}

func nextWindow(days int) int {
	for _, d := range windowChoices {
		if d > days {
			return d
		}
	}
	return windowChoices[0]
}

func nextCreator(creators []string, current string) string {
	for i, c := range creators {
		if c == current {
			return creators[(i+1)%len(creators)]
		}
	}
	return creators[0]
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.cfg = a.setupVals.Apply(a.cfg)
		a.settings.saveErr = config.SaveTo(a.opts.ConfigPath, a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.days = a.cfg.General.DefaultDays
		if a.cfg.General.Creator != "" {
			a.creator = a.cfg.General.Creator
		}
		return a.reload()
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cpulse needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cpulse"))
	b.WriteString(subtitleStyle.Render(" · Creator Analytics"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := min(max(a.width-30, 20), 40)
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Importing exports\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
		b.WriteString(subtitleStyle.Render(" files"))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Loading chats..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type keyBinding struct{ key, desc string }

var (
	navBindings = []keyBinding{
		{"1-6", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"j k g G", "Navigate lists"},
		{"J K", "Scroll detail pane"},
		{"^d ^u", "Half-page scroll"},
	}
	actionBindings = []keyBinding{
		{"/", "Search questions"},
		{"Enter", "Expand / Edit"},
		{"Esc", "Back / Cancel"},
		{"w", "Cycle window (7/30/90d)"},
		{"C", "Next creator"},
		{"r", "Refresh data"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
)

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, name string, binds []keyBinding) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", navBindings)
	b.WriteString("\n")
	section(&b, "Actions", actionBindings)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, h := a.width, a.height
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	var creator, window string
	if a.data != nil && a.data.creator != "" {
		creator = a.data.creator
		window = fmt.Sprintf("%dd %s", a.days, a.data.window.Label())
	}
	dataAge := "loading"
	if !a.refreshing {
		dataAge = cli.FormatAgo(a.loadedAt)
	}
	statusBar := components.RenderStatusBar(w, creator, window, dataAge)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", a.loadErr.Error(), cw)
	case a.data == nil || a.data.creator == "":
		content = a.renderEmpty(cw)
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabCosts:
			content = a.renderCostsTab(cw)
		case tabSessions:
			content = a.renderSessionsTab(cw, contentH)
		case tabQuestions:
			content = a.renderQuestionsTab(cw, contentH)
		case tabEngagement:
			content = a.renderEngagementTab(cw, contentH)
		}
	}
	if a.activeTab == tabSettings {
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderEmpty(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := muted.Render("No chat data in the store yet.") + "\n\n" +
		muted.Render("Import exports with `cpulse import <dir>`") + "\n" +
		muted.Render("or start the dashboard with `cpulse tui --import <dir>`.")
	return components.ContentCard("Nothing to show", body, cw)
}

// tabAtX maps a click on the tab bar to a tab index, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		tabW := components.TabVisualWidth(i, a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + components.TabSeparatorWidth
	}
	return -1
}

// loadRequest is an immutable snapshot of what to load.
type loadRequest struct {
	opts    Options
	cfg     config.Config
	days    int
	creator string
}

// loadDataCmd starts the initial load. Progress messages are sent on sub
// without blocking; the final dataLoadedMsg always arrives.
func loadDataCmd(req loadRequest, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			progressFn := func(current, total int) {
				select {
				case sub <- progressMsg{current: current, total: total}:
				default:
				}
			}
			data, err := loadData(context.Background(), req, progressFn)
			sub <- dataLoadedMsg{data: data, err: err, loadTime: time.Since(start)}
		}()
		return <-sub
	}
}

func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads without progress reporting.
func refreshDataCmd(req loadRequest) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		data, err := loadData(context.Background(), req, nil)
		return dataLoadedMsg{data: data, err: err, loadTime: time.Since(start)}
	}
}

// loadData imports pending exports when configured, then assembles the
// dashboard for one creator. An empty store yields data with no creator.
func loadData(ctx context.Context, req loadRequest, progressFn pipeline.ProgressFunc) (*viewData, error) {
	st, err := store.Open(req.opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	data := &viewData{}
	if req.opts.ImportDir != "" {
		if data.imported, err = pipeline.Import(ctx, req.opts.ImportDir, st, false, progressFn); err != nil {
			return nil, fmt.Errorf("importing %s: %w", req.opts.ImportDir, err)
		}
	}

	if data.creators, err = st.Creators(ctx); err != nil {
		return nil, fmt.Errorf("listing creators: %w", err)
	}
	data.creator = pickCreator(req.creator, req.cfg.General.Creator, data.creators)
	if data.creator == "" {
		return data, nil
	}

	settings := pipeline.SettingsFrom(req.cfg)
	data.window = pipeline.LastDays(req.days, time.Now(), req.opts.Location)

	if data.dash, err = pipeline.LoadDashboard(ctx, st, data.creator, data.window, settings); err != nil {
		return nil, err
	}
	msgs, err := pipeline.LoadWindow(ctx, st, data.creator, "", data.window)
	if err != nil {
		return nil, err
	}
	if data.sessions, err = pipeline.SegmentAll(msgs, settings.Thresholds.SessionGap); err != nil {
		return nil, err
	}
	sort.SliceStable(data.sessions, func(i, j int) bool {
		return data.sessions[i].StartTime.After(data.sessions[j].StartTime)
	})

	data.clusters = pipeline.SortClustersByCount(
		pipeline.ClusterQuestions(pipeline.ExtractQuestions(msgs), settings.ClusterOptions()))
	data.models = pipeline.ModelCosts(data.dash.Costs)
	data.costDays = pipeline.DateCosts(data.dash.Costs)
	return data, nil
}

// pickCreator prefers the requested creator, then the configured one, then
// the first in the store. Unknown names are kept so the view shows an
// empty dashboard rather than someone else's.
func pickCreator(requested, configured string, available []string) string {
	switch {
	case requested != "":
		return requested
	case configured != "":
		return configured
	case len(available) > 0:
		return available[0]
	}
	return ""
}

// chartDateLabels turns YYYY-MM-DD keys into short axis labels: the month
// name where it changes, the day number otherwise.
func chartDateLabels(days []model.DailyActivity) []string {
	labels := make([]string, len(days))
	prevMonth := ""
	for i, d := range days {
		dt, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			labels[i] = d.Date
			continue
		}
		month := dt.Format("Jan")
		if i == 0 || month != prevMonth {
			labels[i] = month
		} else {
			labels[i] = dt.Format("2")
		}
		prevMonth = month
	}
	return labels
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads every line to w with the background color
// so no unstyled cells show through.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
