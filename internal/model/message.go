// Package model defines domain types for cpulse: raw tutor rows and the
// metrics derived from them.
package model

import "time"

// Role identifies who sent a chat message.
type Role string

const (
	RoleStudent   Role = "student"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAssistant
}

// ChatMessage is one raw message between a student and the AI tutor.
// Token counts and response time are nil when the row doesn't carry them.
type ChatMessage struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CreatorID string    `json:"creator_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	InputTokens  *int64 `json:"input_tokens,omitempty"`
	OutputTokens *int64 `json:"output_tokens,omitempty"`
	// Model is empty when the row doesn't say which model answered.
	Model string `json:"model,omitempty"`

	ResponseTimeMs    *int64   `json:"response_time_ms,omitempty"`
	HasVideoCitations bool     `json:"has_video_citations,omitempty"`
	VideoIDs          []string `json:"video_ids,omitempty"`
}

// StudentProgress is the latest course progress recorded for a student.
type StudentProgress struct {
	StudentID           string    `json:"student_id"`
	CreatorID           string    `json:"creator_id"`
	VideoCompletionRate float64   `json:"video_completion_rate"`
	CourseProgress      float64   `json:"course_progress"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Int64 returns a pointer to v, for optional fields.
func Int64(v int64) *int64 {
	return &v
}
