package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

// ErrMixedStudents is returned when SegmentSessions receives messages from
// more than one student.
var ErrMixedStudents = errors.New("messages belong to more than one student")

// SegmentSessions splits one student's time-ordered messages into sessions.
// A new session starts when the gap to the previous message is strictly
// greater than gap. gap <= 0 means config.DefaultSessionGap. The input is
// not re-sorted.
func SegmentSessions(msgs []model.ChatMessage, gap time.Duration) ([]model.Session, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	if gap <= 0 {
		gap = config.DefaultSessionGap
	}

	student := msgs[0].StudentID
	for _, m := range msgs[1:] {
		if m.StudentID != student {
			return nil, fmt.Errorf("segmenting sessions (%q and %q): %w", student, m.StudentID, ErrMixedStudents)
		}
	}

	var sessions []model.Session
	start := 0
	for i := 1; i <= len(msgs); i++ {
		if i < len(msgs) && msgs[i].CreatedAt.Sub(msgs[i-1].CreatedAt) <= gap {
			continue
		}
		sessions = append(sessions, newSession(msgs[start:i]))
		start = i
	}
	return sessions, nil
}

func newSession(run []model.ChatMessage) model.Session {
	msgs := make([]model.ChatMessage, len(run))
	copy(msgs, run)
	first, last := msgs[0], msgs[len(msgs)-1]
	return model.Session{
		StudentID:    first.StudentID,
		Messages:     msgs,
		StartTime:    first.CreatedAt,
		EndTime:      last.CreatedAt,
		Duration:     last.CreatedAt.Sub(first.CreatedAt),
		MessageCount: len(msgs),
		Completed:    last.Role == model.RoleAssistant,
	}
}

// SegmentAll segments a batch that may hold several students in any order.
// Sessions are returned grouped by student in first-appearance order.
func SegmentAll(msgs []model.ChatMessage, gap time.Duration) ([]model.Session, error) {
	var all []model.Session
	for _, g := range GroupByStudent(msgs) {
		sessions, err := SegmentSessions(g.Messages, gap)
		if err != nil {
			return nil, err
		}
		all = append(all, sessions...)
	}
	return all, nil
}
