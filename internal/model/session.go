package model

import "time"

// Session is a run of one student's messages with no gap larger than the
// session threshold.
type Session struct {
	StudentID    string        `json:"student_id"`
	Messages     []ChatMessage `json:"messages,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration_ns"`
	MessageCount int           `json:"message_count"`
	// Completed is true when the tutor had the last word.
	Completed bool `json:"completed"`
}

// DurationMinutes returns the session length in minutes.
func (s Session) DurationMinutes() float64 {
	return s.Duration.Minutes()
}
