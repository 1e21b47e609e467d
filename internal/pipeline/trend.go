package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/theirongolddev/cpulse/internal/model"
)

// ErrNegativePrevious is returned when a trend's baseline is negative.
var ErrNegativePrevious = errors.New("previous value must not be negative")

// ErrNonFinite is returned when either trend value is NaN or infinite.
var ErrNonFinite = errors.New("trend values must be finite")

// CalculateTrend compares current against previous. With a zero baseline
// any positive current is reported as +100% and any negative current as
// -100%. The percentage is not capped.
func CalculateTrend(current, previous float64) (model.Trend, error) {
	if !isFinite(current) || !isFinite(previous) {
		return model.Trend{}, fmt.Errorf("trend from %v to %v: %w", previous, current, ErrNonFinite)
	}
	if previous < 0 {
		return model.Trend{}, fmt.Errorf("trend from %v: %w", previous, ErrNegativePrevious)
	}

	t := model.Trend{Current: current, Previous: previous}
	switch {
	case previous == 0 && current > 0:
		t.Percentage = 100
	case previous == 0 && current < 0:
		t.Percentage = -100
	case previous == 0:
		t.Percentage = 0
	default:
		t.Percentage = (current - previous) / previous * 100
	}

	switch {
	case current > previous:
		t.Direction = model.DirectionUp
	case current < previous:
		t.Direction = model.DirectionDown
	default:
		t.Direction = model.DirectionStable
	}
	return t, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
