package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

// ErrInvalidWindow is returned when a dashboard window is empty or reversed.
var ErrInvalidWindow = errors.New("window end must be after start")

// DefaultTopQuestions is how many clusters a dashboard keeps.
const DefaultTopQuestions = 10

// DashboardInput is everything BuildDashboard needs. Messages should cover
// both the window [From, To) and the previous window of equal length;
// anything outside the two is ignored.
type DashboardInput struct {
	CreatorID string
	From      time.Time
	To        time.Time

	Messages []model.ChatMessage
	Progress []model.StudentProgress

	Thresholds config.Thresholds
	Weights    config.EngagementWeights
	Prices     *config.PriceTable
	Aliases    map[string]string
	// Location buckets dates. Nil means UTC.
	Location *time.Location
	// TopQuestions <= 0 means DefaultTopQuestions.
	TopQuestions int
}

// periodData is one window's segmented view.
type periodData struct {
	msgs     []model.ChatMessage
	groups   []StudentMessages
	sessions [][]model.Session // per group
	all      []model.Session
	costs    model.CostBreakdown
}

// BuildDashboard assembles the creator dashboard for in.From..in.To with
// trends against the previous window. Students are segmented concurrently.
func BuildDashboard(in DashboardInput) (model.Dashboard, error) {
	if !in.To.After(in.From) {
		return model.Dashboard{}, fmt.Errorf("dashboard %s..%s: %w",
			in.From.Format(time.RFC3339), in.To.Format(time.RFC3339), ErrInvalidWindow)
	}
	prevFrom, prevTo := PreviousPeriod(in.From, in.To)
	msgs := FilterByCreator(in.Messages, in.CreatorID)

	cur, err := buildPeriod(FilterByTime(msgs, in.From, in.To), in)
	if err != nil {
		return model.Dashboard{}, err
	}
	prev, err := buildPeriod(FilterByTime(msgs, prevFrom, prevTo), in)
	if err != nil {
		return model.Dashboard{}, err
	}

	d := model.Dashboard{
		CreatorID: in.CreatorID,
		From:      in.From,
		To:        in.To,
		Current:   AggregateOverview(cur.msgs, cur.all, cur.costs.Total),
		Previous:  AggregateOverview(prev.msgs, prev.all, prev.costs.Total),
		Costs:     cur.costs,
		Daily:     AggregateDays(cur.msgs, cur.all, cur.costs, in.From, in.To, in.Location),
	}

	if d.Trends, err = overviewTrends(d.Current, d.Previous); err != nil {
		return model.Dashboard{}, err
	}

	d.Students = studentEngagement(cur, in.Progress, in.CreatorID, in.Weights)
	inputs := make([]model.EngagementInput, len(d.Students))
	for i, s := range d.Students {
		inputs[i] = s.Input
	}
	d.Engagement = ScoreEngagement(AggregateEngagementInputs(inputs), in.Weights)

	top := in.TopQuestions
	if top <= 0 {
		top = DefaultTopQuestions
	}
	clusters := SortClustersByCount(ClusterQuestions(ExtractQuestions(cur.msgs), ClusterOptions{
		Threshold: in.Thresholds.Similarity,
		Aliases:   in.Aliases,
	}))
	if len(clusters) > top {
		clusters = clusters[:top]
	}
	d.TopQuestions = clusters

	return d, nil
}

func buildPeriod(msgs []model.ChatMessage, in DashboardInput) (periodData, error) {
	p := periodData{
		msgs:   msgs,
		groups: GroupByStudent(msgs),
		costs:  CalculateCosts(msgs, in.Prices, CostOptions{Location: in.Location}),
	}
	p.sessions = make([][]model.Session, len(p.groups))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range p.groups {
		g.Go(func() error {
			s, err := SegmentSessions(p.groups[i].Messages, in.Thresholds.SessionGap)
			if err != nil {
				return err
			}
			p.sessions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return periodData{}, fmt.Errorf("segmenting sessions: %w", err)
	}

	for _, s := range p.sessions {
		p.all = append(p.all, s...)
	}
	return p, nil
}

func overviewTrends(cur, prev model.OverviewStats) (model.OverviewTrends, error) {
	var t model.OverviewTrends
	pairs := []struct {
		dst         *model.Trend
		current, pv float64
	}{
		{&t.Students, float64(cur.Students), float64(prev.Students)},
		{&t.Messages, float64(cur.Messages), float64(prev.Messages)},
		{&t.Questions, float64(cur.Questions), float64(prev.Questions)},
		{&t.Sessions, float64(cur.Sessions), float64(prev.Sessions)},
		{&t.CompletionRate, cur.CompletionRate, prev.CompletionRate},
		{&t.AvgSessionMinutes, cur.AvgSessionMinutes, prev.AvgSessionMinutes},
		{&t.Cost, cur.Cost, prev.Cost},
	}
	for _, p := range pairs {
		tr, err := CalculateTrend(p.current, p.pv)
		if err != nil {
			return t, err
		}
		*p.dst = tr
	}
	return t, nil
}

// studentEngagement scores every student seen in the window or in the
// progress rows. Highest score first, then student ID.
func studentEngagement(p periodData, progress []model.StudentProgress, creatorID string, w config.EngagementWeights) []model.StudentEngagement {
	rows := make(map[string]*model.StudentEngagement)
	get := func(id string) *model.StudentEngagement {
		r, ok := rows[id]
		if !ok {
			r = &model.StudentEngagement{StudentID: id}
			rows[id] = r
		}
		return r
	}

	for i, g := range p.groups {
		r := get(g.StudentID)
		r.Messages = len(g.Messages)
		r.Sessions = len(p.sessions[i])
		r.Input.LoginFrequency = float64(len(p.sessions[i]))
		for _, m := range g.Messages {
			if m.Role == model.RoleStudent {
				r.Input.ChatInteractions++
			}
		}
		if n := len(g.Messages); n > 0 {
			r.LastActive = g.Messages[n-1].CreatedAt
		}
	}
	for _, pr := range progress {
		if creatorID != "" && pr.CreatorID != creatorID {
			continue
		}
		r := get(pr.StudentID)
		r.Input.VideoCompletionRate = pr.VideoCompletionRate
		r.Input.CourseProgress = pr.CourseProgress
	}

	out := make([]model.StudentEngagement, 0, len(rows))
	for _, r := range rows {
		r.Score = ScoreEngagement(r.Input, w)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score.Total != out[j].Score.Total {
			return out[i].Score.Total > out[j].Score.Total
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}
