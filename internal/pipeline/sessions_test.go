package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cpulse/internal/model"
)

// at returns 2025-06-01 h:m UTC.
func at(h, m int) time.Time {
	return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC)
}

func chat(student string, role model.Role, ts time.Time) model.ChatMessage {
	return model.ChatMessage{
		ID:        student + "-" + ts.Format("150405"),
		StudentID: student,
		CreatorID: "c1",
		Role:      role,
		CreatedAt: ts,
	}
}

func TestSegmentSessions_GapSplits(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s1", model.RoleStudent, at(10, 0)),
		chat("s1", model.RoleAssistant, at(10, 15)),
		chat("s1", model.RoleStudent, at(10, 50)),
	}

	sessions, err := SegmentSessions(msgs, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	first := sessions[0]
	assert.Equal(t, 2, first.MessageCount)
	assert.Equal(t, at(10, 0), first.StartTime)
	assert.Equal(t, at(10, 15), first.EndTime)
	assert.Equal(t, 15*time.Minute, first.Duration)
	assert.True(t, first.Completed)

	second := sessions[1]
	assert.Equal(t, 1, second.MessageCount)
	assert.Zero(t, second.Duration)
	assert.False(t, second.Completed)
}

func TestSegmentSessions_ExactGapStaysTogether(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s1", model.RoleStudent, at(10, 0)),
		chat("s1", model.RoleAssistant, at(10, 30)),
		chat("s1", model.RoleStudent, at(11, 0)),
	}
	sessions, err := SegmentSessions(msgs, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSegmentSessions_DefaultGap(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s1", model.RoleStudent, at(10, 0)),
		chat("s1", model.RoleStudent, at(10, 31)),
	}
	sessions, err := SegmentSessions(msgs, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSegmentSessions_ConcatenationAndGapProperties(t *testing.T) {
	var msgs []model.ChatMessage
	ts := at(8, 0)
	steps := []time.Duration{0, 5, 31, 2, 2, 60, 30, 0, 45, 1}
	for i, step := range steps {
		ts = ts.Add(step * time.Minute)
		role := model.RoleStudent
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, chat("s1", role, ts))
	}
	gap := 30 * time.Minute

	sessions, err := SegmentSessions(msgs, gap)
	require.NoError(t, err)

	var flat []model.ChatMessage
	for i, s := range sessions {
		flat = append(flat, s.Messages...)
		assert.Equal(t, len(s.Messages), s.MessageCount)
		for j := 1; j < len(s.Messages); j++ {
			assert.LessOrEqual(t, s.Messages[j].CreatedAt.Sub(s.Messages[j-1].CreatedAt), gap)
		}
		if i > 0 {
			assert.Greater(t, s.StartTime.Sub(sessions[i-1].EndTime), gap)
		}
	}
	if diff := cmp.Diff(msgs, flat); diff != "" {
		t.Errorf("concatenated sessions differ from input (-want +got):\n%s", diff)
	}
	assert.Len(t, sessions, 4)
}

func TestSegmentSessions_EmptyAndSingle(t *testing.T) {
	sessions, err := SegmentSessions(nil, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	sessions, err = SegmentSessions([]model.ChatMessage{chat("s1", model.RoleAssistant, at(9, 0))}, time.Minute)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Zero(t, sessions[0].Duration)
	assert.True(t, sessions[0].Completed)
}

func TestSegmentSessions_IdenticalTimestamps(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s1", model.RoleStudent, at(9, 0)),
		chat("s1", model.RoleAssistant, at(9, 0)),
	}
	sessions, err := SegmentSessions(msgs, time.Minute)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].MessageCount)
}

func TestSegmentSessions_MixedStudents(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s1", model.RoleStudent, at(9, 0)),
		chat("s2", model.RoleStudent, at(9, 1)),
	}
	sessions, err := SegmentSessions(msgs, time.Minute)
	assert.Nil(t, sessions)
	assert.True(t, errors.Is(err, ErrMixedStudents))
}

func TestSegmentSessions_DoesNotAliasInput(t *testing.T) {
	msgs := []model.ChatMessage{chat("s1", model.RoleStudent, at(9, 0))}
	sessions, err := SegmentSessions(msgs, time.Minute)
	require.NoError(t, err)
	sessions[0].Messages[0].Content = "changed"
	assert.Empty(t, msgs[0].Content)
}

func TestSegmentAll(t *testing.T) {
	msgs := []model.ChatMessage{
		chat("s2", model.RoleStudent, at(11, 0)),
		chat("s1", model.RoleStudent, at(10, 0)),
		chat("s2", model.RoleAssistant, at(9, 0)),
		chat("s1", model.RoleAssistant, at(12, 0)),
	}
	sessions, err := SegmentAll(msgs, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	assert.Equal(t, "s2", sessions[0].StudentID)
	assert.Equal(t, at(9, 0), sessions[0].StartTime)
	assert.Equal(t, "s2", sessions[1].StudentID)
	assert.Equal(t, "s1", sessions[2].StudentID)
}
