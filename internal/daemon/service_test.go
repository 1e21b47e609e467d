package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
	"github.com/theirongolddev/cpulse/internal/store"
)

var day = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if cfg.Settings.General.DefaultDays == 0 {
		cfg.Settings = config.DefaultConfig()
	}
	return New(cfg, st)
}

func seed(t *testing.T, s *Service) {
	t.Helper()
	msgs := []model.ChatMessage{
		{ID: "m1", StudentID: "s1", CreatorID: "c1", Role: model.RoleStudent, Content: "How do I start?", CreatedAt: day},
		{
			ID: "m2", StudentID: "s1", CreatorID: "c1", Role: model.RoleAssistant, Content: "Lesson 1",
			CreatedAt:    day.Add(time.Minute),
			Model:        config.FastModel,
			InputTokens:  model.Int64(1000),
			OutputTokens: model.Int64(2000),
		},
		{ID: "m3", StudentID: "s2", CreatorID: "c1", Role: model.RoleStudent, Content: "How to begin?", CreatedAt: day.Add(2 * time.Hour)},
		{ID: "m4", StudentID: "s9", CreatorID: "c2", Role: model.RoleStudent, Content: "elsewhere", CreatedAt: day},
	}
	require.NoError(t, s.st.InsertMessages(context.Background(), msgs))
	require.NoError(t, s.st.UpsertProgress(context.Background(), []model.StudentProgress{
		{StudentID: "s1", CreatorID: "c1", VideoCompletionRate: 100, CourseProgress: 100, UpdatedAt: day},
	}))
}

func get(t *testing.T, s *Service, url string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

const june1 = "from=2025-06-01&to=2025-06-01"

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Messages: 10, Creators: 1}
	curr := Snapshot{Messages: 14, Creators: 2}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, Delta{Messages: 4, Creators: 1}, delta)
	assert.False(t, delta.isZero())
	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, Config{EventsBuffer: 2})

	for range 3 {
		s.publishEvent(Event{Type: EventRequest})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPublishEventIDsFollowBufferOrder(t *testing.T) {
	s := newTestService(t, Config{EventsBuffer: 1000})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if i%2 == 0 {
					s.publishRequest("/v1/status", http.StatusOK)
				} else {
					s.applySettings(config.DefaultConfig())
				}
			}
		}()
	}
	wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 400)
	for i, ev := range s.events {
		assert.Equal(t, int64(i+1), ev.ID, "event %d out of order", i)
	}
}

func TestHandleCosts(t *testing.T) {
	s := newTestService(t, Config{})
	seed(t, s)

	var resp costsResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/costs?"+june1, &resp))
	assert.Equal(t, "c1", resp.CreatorID)
	assert.Equal(t, "2025-06-01", resp.From)
	assert.Equal(t, "2025-06-01", resp.To)
	assert.InDelta(t, 0.0088, resp.Total, 1e-12)
	require.Len(t, resp.Models, 1)
	assert.Equal(t, config.FastModel, resp.Models[0].Model)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2025-06-01", resp.Days[0].Date)
}

func TestHandleSessionsAndQuestions(t *testing.T) {
	s := newTestService(t, Config{})
	seed(t, s)

	var sessions sessionsResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/sessions?"+june1, &sessions))
	assert.Equal(t, 2, sessions.Count)
	assert.InDelta(t, 50.0, sessions.CompletionRate, 1e-9)
	for _, sess := range sessions.Sessions {
		assert.Empty(t, sess.Messages)
	}

	var one sessionsResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/sessions?student=s2&"+june1, &one))
	require.Equal(t, 1, one.Count)
	assert.Equal(t, "s2", one.Sessions[0].StudentID)

	var questions questionsResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/questions?"+june1, &questions))
	assert.Equal(t, 2, questions.Questions)
	require.Len(t, questions.Clusters, 1)
	assert.Equal(t, 2, questions.Clusters[0].Count)
}

func TestHandleEngagementAndOverview(t *testing.T) {
	s := newTestService(t, Config{})
	seed(t, s)

	var eng engagementResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/engagement?"+june1, &eng))
	require.Len(t, eng.Students, 2)
	assert.Equal(t, "s1", eng.Students[0].StudentID)

	var solo engagementResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/engagement?student=s1&"+june1, &solo))
	require.Len(t, solo.Students, 1)
	assert.Equal(t, solo.Students[0].Score, solo.Engagement)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/v1/creators/c1/engagement?student=nobody&"+june1, nil))

	var d model.Dashboard
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/overview?"+june1, &d))
	assert.Equal(t, 2, d.Current.Students)
	assert.Equal(t, model.DirectionUp, d.Trends.Students.Direction)
}

func TestHandleTrend(t *testing.T) {
	s := newTestService(t, Config{})

	var tr model.Trend
	require.Equal(t, http.StatusOK, get(t, s, "/v1/trend?current=150&previous=100", &tr))
	assert.Equal(t, model.DirectionUp, tr.Direction)
	assert.InDelta(t, 50.0, tr.Percentage, 1e-9)

	require.Equal(t, http.StatusOK, get(t, s, "/v1/trend?current=2500&previous=100", &tr))
	assert.InDelta(t, 2400.0, tr.Percentage, 1e-9)
}

func TestBadParams(t *testing.T) {
	s := newTestService(t, Config{})
	seed(t, s)

	for _, url := range []string{
		"/v1/trend?current=10&previous=-1",
		"/v1/trend?current=abc&previous=1",
		"/v1/trend?current=NaN&previous=1",
		"/v1/trend?previous=1",
		"/v1/creators/c1/costs?timezone=Mars/Phobos",
		"/v1/creators/c1/costs?from=2025-06-05&to=2025-06-01",
		"/v1/creators/c1/sessions?from=06/01/2025",
		"/v1/creators/c1/questions?limit=-2&" + june1,
	} {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, s, url, nil))
		})
	}
}

func TestRequestEventsPublished(t *testing.T) {
	s := newTestService(t, Config{})
	require.Equal(t, http.StatusOK, get(t, s, "/v1/trend?current=1&previous=1", nil))
	require.Equal(t, http.StatusBadRequest, get(t, s, "/v1/trend?current=1&previous=-1", nil))

	var events []Event
	require.Equal(t, http.StatusOK, get(t, s, "/v1/events", &events))
	require.Len(t, events, 2)
	assert.Equal(t, EventRequest, events[0].Type)
	assert.Equal(t, "/v1/trend", events[0].Path)
	assert.Equal(t, http.StatusOK, events[0].Status)
	assert.Equal(t, http.StatusBadRequest, events[1].Status)
}

func TestApplySettings(t *testing.T) {
	s := newTestService(t, Config{})
	seed(t, s)

	cfg := config.DefaultConfig()
	cfg.Thresholds.Similarity = 0.99
	cfg.Clustering.NoAliases = true
	s.applySettings(cfg)

	assert.InDelta(t, 0.99, s.Settings().Thresholds.Similarity, 1e-12)
	assert.Equal(t, 1, s.snapshotStatus().Reloads)

	// Without aliases the two openers no longer cluster together.
	var questions questionsResponse
	require.Equal(t, http.StatusOK, get(t, s, "/v1/creators/c1/questions?"+june1, &questions))
	assert.Len(t, questions.Clusters, 2)

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.NotEmpty(t, s.events)
	assert.Equal(t, EventConfigReloaded, s.events[0].Type)
}

func TestPollOnceImportsAndDiffs(t *testing.T) {
	dir := t.TempDir()
	write := func(name, line string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(line+"\n"), 0o600))
	}
	write("a.jsonl", `{"id":"m1","student_id":"s1","creator_id":"c1","role":"student","content":"hi","created_at":"2025-06-01T10:00:00Z"}`)

	s := newTestService(t, Config{ImportDir: dir})
	ctx := context.Background()

	s.pollOnce(ctx)
	st := s.snapshotStatus()
	assert.Equal(t, 1, st.Summary.Messages)
	assert.Equal(t, 1, st.Summary.Creators)
	assert.Empty(t, st.LastError)

	s.pollOnce(ctx)
	assert.Equal(t, 1, s.snapshotStatus().EventCount, "unchanged poll publishes nothing")

	write("b.jsonl", `{"id":"m2","student_id":"s2","creator_id":"c2","role":"student","content":"hey","created_at":"2025-06-01T11:00:00Z"}`)
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2)
	assert.Equal(t, EventSnapshot, s.events[0].Type)
	assert.Equal(t, EventDataDelta, s.events[1].Type)
	assert.Equal(t, &Delta{Messages: 1, Creators: 1}, s.events[1].Delta)
	assert.EqualValues(t, 3, s.pollCount)
}

func TestWindowResponseLabels(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	win, err := pipeline.ParseWindow("2025-06-01", "2025-06-03", 30, day, loc)
	require.NoError(t, err)

	r := newWindowResponse("c1", win)
	assert.Equal(t, "2025-06-01", r.From)
	assert.Equal(t, "2025-06-03", r.To)
	assert.Equal(t, "EST", r.Timezone)
}
