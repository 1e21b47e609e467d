package pipeline

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
)

// syntheticBatch builds n messages across students with random gaps.
func syntheticBatch(n, students int) []model.ChatMessage {
	r := rand.New(rand.NewSource(1))
	topics := []string{"How do I start?", "What is React?", "How to install node", "Where are the slides", "How to begin?"}
	msgs := make([]model.ChatMessage, 0, n)
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts = ts.Add(time.Duration(r.Intn(40)) * time.Minute)
		m := model.ChatMessage{
			ID:        fmt.Sprintf("m%d", i),
			StudentID: fmt.Sprintf("s%d", r.Intn(students)),
			CreatorID: "c1",
			Role:      model.RoleStudent,
			Content:   topics[r.Intn(len(topics))],
			CreatedAt: ts,
		}
		if i%2 == 1 {
			m.Role = model.RoleAssistant
			m.Model = config.FastModel
			m.InputTokens = model.Int64(int64(r.Intn(2000)))
			m.OutputTokens = model.Int64(int64(r.Intn(2000)))
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func BenchmarkSegmentAll(b *testing.B) {
	msgs := syntheticBatch(20_000, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SegmentAll(msgs, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClusterQuestions(b *testing.B) {
	qs := ExtractQuestions(syntheticBatch(5_000, 50))
	opts := DefaultClusterOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ClusterQuestions(qs, opts)
	}
}

func BenchmarkCalculateCosts(b *testing.B) {
	msgs := syntheticBatch(50_000, 500)
	prices := config.DefaultPriceTable()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = CalculateCosts(msgs, prices, CostOptions{})
	}
}

func BenchmarkBuildDashboard(b *testing.B) {
	msgs := syntheticBatch(20_000, 200)
	in := DashboardInput{
		CreatorID:  "c1",
		From:       msgs[len(msgs)/2].CreatedAt,
		To:         msgs[len(msgs)-1].CreatedAt.Add(time.Minute),
		Messages:   msgs,
		Thresholds: config.DefaultThresholds(),
		Weights:    config.DefaultEngagementWeights(),
		Prices:     config.DefaultPriceTable(),
		Aliases:    config.DefaultAliases(),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildDashboard(in); err != nil {
			b.Fatal(err)
		}
	}
}
