package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/store"
)

const dateLayout = "2006-01-02"

// Window is a reporting range of whole days, [From, To), in Location.
type Window struct {
	From     time.Time
	To       time.Time
	Location *time.Location
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return int(w.To.Sub(w.From).Round(time.Hour).Hours() / 24)
}

// Label renders the window as "YYYY-MM-DD..YYYY-MM-DD" (inclusive end).
func (w Window) Label() string {
	return DateKey(w.From, w.Location) + ".." + DateKey(w.To.Add(-time.Nanosecond), w.Location)
}

// LastDays returns the window of the last n days ending with today in loc.
// n < 1 is treated as 1.
func LastDays(n int, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	n = max(n, 1)
	y, m, d := now.In(loc).Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return Window{From: end.AddDate(0, 0, -n), To: end, Location: loc}
}

// ParseWindow builds a window from inclusive YYYY-MM-DD bounds in loc.
// An empty to means today; an empty from means defaultDays before to.
func ParseWindow(from, to string, defaultDays int, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	w := LastDays(defaultDays, now, loc)

	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return Window{}, fmt.Errorf("parsing to %q: use YYYY-MM-DD", to)
		}
		w.From = t.AddDate(0, 0, -max(defaultDays, 1)+1)
		w.To = t.AddDate(0, 0, 1)
	}
	if from != "" {
		f, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return Window{}, fmt.Errorf("parsing from %q: use YYYY-MM-DD", from)
		}
		w.From = f
	}
	if !w.To.After(w.From) {
		return Window{}, fmt.Errorf("from %s is after to %s: %w", from, to, ErrInvalidWindow)
	}
	return w, nil
}

// Settings are the tunables a query runs with, taken from the config.
type Settings struct {
	Thresholds config.Thresholds
	Weights    config.EngagementWeights
	Prices     *config.PriceTable
	Aliases    map[string]string
}

// SettingsFrom extracts query settings from cfg.
func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		Thresholds: cfg.ThresholdValues(),
		Weights:    cfg.Engagement,
		Prices:     cfg.PriceTable(),
		Aliases:    cfg.Clustering.AliasTable(),
	}
}

// ClusterOptions returns the clustering options for these settings.
func (s Settings) ClusterOptions() ClusterOptions {
	return ClusterOptions{Threshold: s.Thresholds.Similarity, Aliases: s.Aliases}
}

// LoadWindow returns one creator's messages within w, optionally narrowed
// to a single student.
func LoadWindow(ctx context.Context, st *store.Store, creatorID, studentID string, w Window) ([]model.ChatMessage, error) {
	msgs, err := st.LoadMessages(ctx, store.Filter{
		CreatorID: creatorID,
		StudentID: studentID,
		Since:     w.From,
		Until:     w.To,
	})
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	return msgs, nil
}

// LoadDashboard reads the window and the previous window of equal length
// from st and assembles the creator dashboard.
func LoadDashboard(ctx context.Context, st *store.Store, creatorID string, w Window, s Settings) (model.Dashboard, error) {
	prevFrom, _ := PreviousPeriod(w.From, w.To)
	msgs, err := LoadWindow(ctx, st, creatorID, "", Window{From: prevFrom, To: w.To})
	if err != nil {
		return model.Dashboard{}, err
	}
	progress, err := st.LoadProgress(ctx, creatorID)
	if err != nil {
		return model.Dashboard{}, fmt.Errorf("loading progress: %w", err)
	}

	return BuildDashboard(DashboardInput{
		CreatorID:  creatorID,
		From:       w.From,
		To:         w.To,
		Messages:   msgs,
		Progress:   progress,
		Thresholds: s.Thresholds,
		Weights:    s.Weights,
		Prices:     s.Prices,
		Aliases:    s.Aliases,
		Location:   w.Location,
	})
}

// StripMessages drops the per-session message slices for compact output.
func StripMessages(sessions []model.Session) []model.Session {
	out := make([]model.Session, len(sessions))
	for i, s := range sessions {
		s.Messages = nil
		out[i] = s
	}
	return out
}
