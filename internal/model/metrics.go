package model

import "time"

// CostBreakdown holds AI spend for a batch of messages in USD.
type CostBreakdown struct {
	Total float64 `json:"total"`
	// ByModel is keyed by normalized model name.
	ByModel map[string]float64 `json:"by_model"`
	// ByDate is keyed by YYYY-MM-DD in the requested location.
	ByDate     map[string]float64 `json:"by_date"`
	PerMessage float64            `json:"per_message"`
	PerStudent float64            `json:"per_student"`

	PricedMessages  int `json:"priced_messages"`
	SkippedMessages int `json:"skipped_messages"`
	Students        int `json:"students"`
}

// EngagementInput holds one student's raw engagement metrics for a window.
type EngagementInput struct {
	// VideoCompletionRate is 0-100.
	VideoCompletionRate float64 `json:"video_completion_rate"`
	ChatInteractions    float64 `json:"chat_interactions"`
	// LoginFrequency is the number of sessions in the window.
	LoginFrequency float64 `json:"login_frequency"`
	// CourseProgress is 0-100.
	CourseProgress float64 `json:"course_progress"`
}

// EngagementBreakdown holds the four sub-scores.
type EngagementBreakdown struct {
	Video    int `json:"video"`
	Chat     int `json:"chat"`
	Progress int `json:"progress"`
	Login    int `json:"login"`
}

// EngagementScore is a 0-100 composite. Total always equals the sum of
// the breakdown.
type EngagementScore struct {
	Total     int                 `json:"total"`
	Breakdown EngagementBreakdown `json:"breakdown"`
}

// Direction is the sign of a period-over-period change.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Trend compares a metric between two periods.
type Trend struct {
	Direction  Direction `json:"direction"`
	Percentage float64   `json:"percentage"`
	Current    float64   `json:"current"`
	Previous   float64   `json:"previous"`
}

// OverviewStats holds the headline numbers for one period.
type OverviewStats struct {
	Students          int     `json:"students"`
	Messages          int     `json:"messages"`
	Questions         int     `json:"questions"`
	Sessions          int     `json:"sessions"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	Cost              float64 `json:"cost"`
}

// OverviewTrends holds a Trend for each OverviewStats field.
type OverviewTrends struct {
	Students          Trend `json:"students"`
	Messages          Trend `json:"messages"`
	Questions         Trend `json:"questions"`
	Sessions          Trend `json:"sessions"`
	CompletionRate    Trend `json:"completion_rate"`
	AvgSessionMinutes Trend `json:"avg_session_minutes"`
	Cost              Trend `json:"cost"`
}

// DailyActivity holds per-day counts for charts.
type DailyActivity struct {
	Date     string  `json:"date"`
	Messages int     `json:"messages"`
	Sessions int     `json:"sessions"`
	Cost     float64 `json:"cost"`
}

// StudentEngagement is one row of the per-student engagement table.
type StudentEngagement struct {
	StudentID  string          `json:"student_id"`
	Input      EngagementInput `json:"input"`
	Score      EngagementScore `json:"score"`
	Sessions   int             `json:"sessions"`
	Messages   int             `json:"messages"`
	LastActive time.Time       `json:"last_active"`
}

// Dashboard is everything the creator dashboard shows for one window.
type Dashboard struct {
	CreatorID string    `json:"creator_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`

	Current  OverviewStats  `json:"current"`
	Previous OverviewStats  `json:"previous"`
	Trends   OverviewTrends `json:"trends"`

	Costs        CostBreakdown       `json:"costs"`
	Engagement   EngagementScore     `json:"engagement"`
	Students     []StudentEngagement `json:"students"`
	TopQuestions []QuestionCluster   `json:"top_questions"`
	Daily        []DailyActivity     `json:"daily"`
}
