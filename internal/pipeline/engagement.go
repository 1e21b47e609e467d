package pipeline

import (
	"math"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

// ScoreEngagement combines a student's raw metrics into a 0-100 score.
// Each metric is normalized to [0,1] (NaN counts as 0), multiplied by its
// cap, and rounded on its own; Total is the exact sum of the four parts.
// Weights that fail Validate, the zero value included, are replaced by
// config.DefaultEngagementWeights so Total stays within [0, 100].
func ScoreEngagement(in model.EngagementInput, w config.EngagementWeights) model.EngagementScore {
	if w.Validate() != nil {
		w = config.DefaultEngagementWeights()
	}

	b := model.EngagementBreakdown{
		Video:    subScore(ratio(in.VideoCompletionRate, 100), w.VideoCap),
		Chat:     subScore(ratio(in.ChatInteractions, w.ChatTarget), w.ChatCap),
		Progress: subScore(ratio(in.CourseProgress, 100), w.ProgressCap),
		Login:    subScore(ratio(in.LoginFrequency, w.LoginTarget), w.LoginCap),
	}
	return model.EngagementScore{
		Total:     b.Video + b.Chat + b.Progress + b.Login,
		Breakdown: b,
	}
}

func ratio(v, full float64) float64 {
	if math.IsNaN(v) || full <= 0 {
		return 0
	}
	r := v / full
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

func subScore(norm float64, limit int) int {
	if limit <= 0 {
		return 0
	}
	s := int(math.Round(norm * float64(limit)))
	return max(0, min(s, limit))
}

// AggregateEngagementInputs averages each raw metric across students. NaN
// values are treated as 0.
func AggregateEngagementInputs(ins []model.EngagementInput) model.EngagementInput {
	if len(ins) == 0 {
		return model.EngagementInput{}
	}
	var sum model.EngagementInput
	for _, in := range ins {
		sum.VideoCompletionRate += finite(in.VideoCompletionRate)
		sum.ChatInteractions += finite(in.ChatInteractions)
		sum.LoginFrequency += finite(in.LoginFrequency)
		sum.CourseProgress += finite(in.CourseProgress)
	}
	n := float64(len(ins))
	return model.EngagementInput{
		VideoCompletionRate: sum.VideoCompletionRate / n,
		ChatInteractions:    sum.ChatInteractions / n,
		LoginFrequency:      sum.LoginFrequency / n,
		CourseProgress:      sum.CourseProgress / n,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
