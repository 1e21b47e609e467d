// Package pipeline turns raw tutor rows into dashboard metrics: sessions,
// question clusters, costs, engagement scores, and trends.
package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/cpulse/internal/model"
)

// DateKey formats t as YYYY-MM-DD in loc. Nil loc means UTC.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// PreviousPeriod returns the window of equal length ending at since.
func PreviousPeriod(since, until time.Time) (time.Time, time.Time) {
	return since.Add(-until.Sub(since)), since
}

// FilterByTime returns messages whose CreatedAt falls within [since, until).
// Zero bounds are open. The input slice is returned as-is when both are zero.
func FilterByTime(msgs []model.ChatMessage, since, until time.Time) []model.ChatMessage {
	if since.IsZero() && until.IsZero() {
		return msgs
	}

	var result []model.ChatMessage
	for _, m := range msgs {
		if !since.IsZero() && m.CreatedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !m.CreatedAt.Before(until) {
			continue
		}
		result = append(result, m)
	}
	return result
}

// FilterByCreator returns messages belonging to creatorID. Empty matches all.
func FilterByCreator(msgs []model.ChatMessage, creatorID string) []model.ChatMessage {
	if creatorID == "" {
		return msgs
	}
	var result []model.ChatMessage
	for _, m := range msgs {
		if m.CreatorID == creatorID {
			result = append(result, m)
		}
	}
	return result
}

// StudentMessages is one student's slice of a batch.
type StudentMessages struct {
	StudentID string
	Messages  []model.ChatMessage
}

// GroupByStudent splits msgs per student in first-appearance order. Each
// group is stably sorted by CreatedAt.
func GroupByStudent(msgs []model.ChatMessage) []StudentMessages {
	idx := make(map[string]int)
	var groups []StudentMessages
	for _, m := range msgs {
		i, ok := idx[m.StudentID]
		if !ok {
			i = len(groups)
			idx[m.StudentID] = i
			groups = append(groups, StudentMessages{StudentID: m.StudentID})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	for _, g := range groups {
		sort.SliceStable(g.Messages, func(a, b int) bool {
			return g.Messages[a].CreatedAt.Before(g.Messages[b].CreatedAt)
		})
	}
	return groups
}

// AggregateOverview computes headline numbers for one period from its
// messages, their sessions, and the period's cost.
func AggregateOverview(msgs []model.ChatMessage, sessions []model.Session, cost float64) model.OverviewStats {
	stats := model.OverviewStats{
		Messages: len(msgs),
		Sessions: len(sessions),
		Cost:     cost,
	}

	students := make(map[string]struct{})
	for _, m := range msgs {
		students[m.StudentID] = struct{}{}
		if m.Role == model.RoleStudent {
			stats.Questions++
		}
	}
	stats.Students = len(students)

	if len(sessions) > 0 {
		var completed int
		var total time.Duration
		for _, s := range sessions {
			if s.Completed {
				completed++
			}
			total += s.Duration
		}
		stats.CompletionRate = float64(completed) / float64(len(sessions)) * 100
		stats.AvgSessionMinutes = total.Minutes() / float64(len(sessions))
	}
	return stats
}

// AggregateDays computes per-day activity in loc. Every day in
// [since, until) is present so charts show gaps as zeros. Sessions count
// on the day they start. Oldest first.
func AggregateDays(msgs []model.ChatMessage, sessions []model.Session, costs model.CostBreakdown, since, until time.Time, loc *time.Location) []model.DailyActivity {
	if loc == nil {
		loc = time.UTC
	}

	dayMap := make(map[string]*model.DailyActivity)
	get := func(key string) *model.DailyActivity {
		d, ok := dayMap[key]
		if !ok {
			d = &model.DailyActivity{Date: key}
			dayMap[key] = d
		}
		return d
	}

	for _, m := range msgs {
		get(DateKey(m.CreatedAt, loc)).Messages++
	}
	for _, s := range sessions {
		get(DateKey(s.StartTime, loc)).Sessions++
	}
	for day, cost := range costs.ByDate {
		get(day).Cost += cost
	}

	if !since.IsZero() && until.After(since) {
		s := since.In(loc)
		day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
		for day.Before(until) {
			get(day.Format("2006-01-02"))
			day = day.AddDate(0, 0, 1)
		}
	}

	days := make([]model.DailyActivity, 0, len(dayMap))
	for _, d := range dayMap {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}
