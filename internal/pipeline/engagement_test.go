package pipeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

func TestScoreEngagement(t *testing.T) {
	w := config.DefaultEngagementWeights()
	tests := []struct {
		name string
		in   model.EngagementInput
		want model.EngagementScore
	}{
		{
			name: "full marks",
			in:   model.EngagementInput{VideoCompletionRate: 100, ChatInteractions: 20, LoginFrequency: 8, CourseProgress: 100},
			want: model.EngagementScore{Total: 100, Breakdown: model.EngagementBreakdown{Video: 30, Chat: 25, Progress: 25, Login: 20}},
		},
		{
			name: "half",
			in:   model.EngagementInput{VideoCompletionRate: 50, ChatInteractions: 10, LoginFrequency: 4, CourseProgress: 50},
			want: model.EngagementScore{Total: 51, Breakdown: model.EngagementBreakdown{Video: 15, Chat: 13, Progress: 13, Login: 10}},
		},
		{
			name: "zero",
			in:   model.EngagementInput{},
			want: model.EngagementScore{},
		},
		{
			name: "out of range clamps",
			in:   model.EngagementInput{VideoCompletionRate: 150, ChatInteractions: 40, LoginFrequency: -3, CourseProgress: math.NaN()},
			want: model.EngagementScore{Total: 55, Breakdown: model.EngagementBreakdown{Video: 30, Chat: 25}},
		},
		{
			name: "infinite counts cap",
			in:   model.EngagementInput{ChatInteractions: math.Inf(1), LoginFrequency: math.Inf(-1)},
			want: model.EngagementScore{Total: 25, Breakdown: model.EngagementBreakdown{Chat: 25}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreEngagement(tt.in, w))
		})
	}
}

func TestScoreEngagement_ZeroWeightsUseDefaults(t *testing.T) {
	in := model.EngagementInput{VideoCompletionRate: 100}
	assert.Equal(t, 30, ScoreEngagement(in, config.EngagementWeights{}).Total)
}

func TestScoreEngagement_CustomWeights(t *testing.T) {
	w := config.EngagementWeights{VideoCap: 40, ChatCap: 20, ProgressCap: 30, LoginCap: 10, ChatTarget: 10, LoginTarget: 2}
	in := model.EngagementInput{VideoCompletionRate: 100, ChatInteractions: 5, LoginFrequency: 2}
	got := ScoreEngagement(in, w)
	assert.Equal(t, model.EngagementBreakdown{Video: 40, Chat: 10, Login: 10}, got.Breakdown)
	assert.Equal(t, 60, got.Total)
}

func TestScoreEngagement_InvalidCapsFallBackToDefaults(t *testing.T) {
	full := model.EngagementInput{VideoCompletionRate: 100, ChatInteractions: 20, LoginFrequency: 8, CourseProgress: 100}
	for _, w := range []config.EngagementWeights{
		{VideoCap: 60, ChatCap: 25, ProgressCap: 25, LoginCap: 20, ChatTarget: 20, LoginTarget: 8},
		{VideoCap: 130, ChatCap: -10, ProgressCap: -10, LoginCap: -10, ChatTarget: 20, LoginTarget: 8},
		{VideoCap: 30, ChatCap: 25, ProgressCap: 25, LoginCap: 20},
	} {
		got := ScoreEngagement(full, w)
		assert.LessOrEqual(t, got.Total, 100, "caps %+v", w)
		assert.Equal(t, model.EngagementBreakdown{Video: 30, Chat: 25, Progress: 25, Login: 20}, got.Breakdown, "caps %+v", w)
	}
}

func TestScoreEngagement_BoundsAndSum(t *testing.T) {
	w := config.DefaultEngagementWeights()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		in := model.EngagementInput{
			VideoCompletionRate: r.Float64()*300 - 100,
			ChatInteractions:    r.Float64()*60 - 10,
			LoginFrequency:      r.Float64()*30 - 5,
			CourseProgress:      r.Float64()*300 - 100,
		}
		s := ScoreEngagement(in, w)
		b := s.Breakdown
		if s.Total < 0 || s.Total > 100 {
			t.Fatalf("Total = %d out of range for %+v", s.Total, in)
		}
		if b.Video+b.Chat+b.Progress+b.Login != s.Total {
			t.Fatalf("breakdown %+v does not sum to %d", b, s.Total)
		}
		if b.Video > 30 || b.Chat > 25 || b.Progress > 25 || b.Login > 20 ||
			b.Video < 0 || b.Chat < 0 || b.Progress < 0 || b.Login < 0 {
			t.Fatalf("breakdown %+v exceeds caps", b)
		}
	}
}

func TestAggregateEngagementInputs(t *testing.T) {
	got := AggregateEngagementInputs([]model.EngagementInput{
		{VideoCompletionRate: 100, ChatInteractions: 10, LoginFrequency: 2, CourseProgress: 50},
		{VideoCompletionRate: 50, ChatInteractions: math.NaN(), LoginFrequency: 4, CourseProgress: 0},
	})
	assert.Equal(t, model.EngagementInput{VideoCompletionRate: 75, ChatInteractions: 5, LoginFrequency: 3, CourseProgress: 25}, got)
	assert.Equal(t, model.EngagementInput{}, AggregateEngagementInputs(nil))
}
