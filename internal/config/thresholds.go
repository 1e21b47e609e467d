package config

import (
	"errors"
	"fmt"
	"time"
)

// Engine defaults.
const (
	// DefaultSessionGap is the inactivity gap that closes a chat session.
	// A gap strictly greater than this starts a new session.
	DefaultSessionGap = 30 * time.Minute

	// DefaultSimilarityThreshold is the minimum normalized edit-distance
	// similarity for two questions to share a cluster.
	DefaultSimilarityThreshold = 0.70
)

// Thresholds are the segmentation and clustering cutoffs handed to the
// engine.
type Thresholds struct {
	SessionGap time.Duration
	Similarity float64
}

// DefaultThresholds returns the 30-minute / 70% defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SessionGap: DefaultSessionGap,
		Similarity: DefaultSimilarityThreshold,
	}
}

// EngagementWeights holds the point caps of the four engagement
// sub-scores and the raw values treated as full marks for the two
// count-based metrics.
type EngagementWeights struct {
	VideoCap    int `toml:"video_cap"`
	ChatCap     int `toml:"chat_cap"`
	ProgressCap int `toml:"progress_cap"`
	LoginCap    int `toml:"login_cap"`

	// ChatTarget is the number of chat interactions in the window that
	// earns the full chat cap.
	ChatTarget float64 `toml:"chat_target"`
	// LoginTarget is the number of sessions in the window that earns the
	// full login cap.
	LoginTarget float64 `toml:"login_target"`
}

// DefaultEngagementWeights returns caps 30/25/25/20.
func DefaultEngagementWeights() EngagementWeights {
	return EngagementWeights{
		VideoCap:    30,
		ChatCap:     25,
		ProgressCap: 25,
		LoginCap:    20,
		ChatTarget:  20,
		LoginTarget: 8,
	}
}

// MaxTotal returns the sum of the caps.
func (w EngagementWeights) MaxTotal() int {
	return w.VideoCap + w.ChatCap + w.ProgressCap + w.LoginCap
}

// Validate rejects negative caps, caps that don't sum to 100, and
// non-positive targets.
func (w EngagementWeights) Validate() error {
	var errs []error
	for name, c := range map[string]int{
		"video_cap":    w.VideoCap,
		"chat_cap":     w.ChatCap,
		"progress_cap": w.ProgressCap,
		"login_cap":    w.LoginCap,
	} {
		if c < 0 {
			errs = append(errs, fmt.Errorf("engagement.%s must not be negative, got %d", name, c))
		}
	}
	if total := w.MaxTotal(); total != 100 {
		errs = append(errs, fmt.Errorf("engagement caps must sum to 100, got %d", total))
	}
	if w.ChatTarget <= 0 {
		errs = append(errs, errors.New("engagement.chat_target must be positive"))
	}
	if w.LoginTarget <= 0 {
		errs = append(errs, errors.New("engagement.login_target must be positive"))
	}
	return errors.Join(errs...)
}

// DefaultAliases returns the phrase rewrites applied to normalized
// questions. Keys and values are whole-word, already-normalized phrases.
func DefaultAliases() map[string]string {
	return map[string]string{
		"how do i":     "how to",
		"how can i":    "how to",
		"how should i": "how to",
		"get started":  "start",
		"begin":        "start",
	}
}
