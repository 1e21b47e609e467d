package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleQueryError maps an analytics error to a response. Context errors
// are left to the timeout handler, which owns the response by then.
func handleQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return
	case errors.Is(err, pipeline.ErrInvalidWindow),
		errors.Is(err, pipeline.ErrNegativePrevious),
		errors.Is(err, pipeline.ErrNonFinite):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("cpulse daemon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// statusRecorder captures the status code for request events.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// api wraps an analytics handler with the request timeout and publishes a
// request event once it completes.
func (s *Service) api(h http.HandlerFunc) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.publishRequest(r.URL.Path, rec.status)
	})
	return http.TimeoutHandler(inner, s.cfg.RequestTimeout, `{"error":"request timed out"}`)
}

// windowResponse echoes the resolved window.
type windowResponse struct {
	CreatorID string `json:"creator_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Timezone  string `json:"timezone"`
}

func newWindowResponse(creator string, w pipeline.Window) windowResponse {
	return windowResponse{
		CreatorID: creator,
		From:      pipeline.DateKey(w.From, w.Location),
		To:        pipeline.DateKey(w.To.Add(-time.Nanosecond), w.Location),
		Timezone:  w.Location.String(),
	}
}

// parseWindow reads from, to, and timezone. It writes a 400 and returns
// false on bad input.
func (s *Service) parseWindow(w http.ResponseWriter, r *http.Request) (pipeline.Window, bool) {
	q := r.URL.Query()
	tz := q.Get("timezone")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timezone: "+tz)
		return pipeline.Window{}, false
	}

	win, err := pipeline.ParseWindow(q.Get("from"), q.Get("to"),
		s.Settings().General.DefaultDays, time.Now(), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return pipeline.Window{}, false
	}
	return win, true
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	snap := s.snapshotStatus().Summary
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: &snap})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) handleCreators(w http.ResponseWriter, r *http.Request) {
	ids, err := s.st.Creators(r.Context())
	if err != nil {
		handleQueryError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"creators": ids})
}

type sessionsResponse struct {
	windowResponse
	StudentID         string          `json:"student_id,omitempty"`
	Count             int             `json:"count"`
	CompletionRate    float64         `json:"completion_rate"`
	AvgSessionMinutes float64         `json:"avg_session_minutes"`
	Sessions          []model.Session `json:"sessions"`
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	win, ok := s.parseWindow(w, r)
	if !ok {
		return
	}
	creator, student := r.PathValue("creator"), r.URL.Query().Get("student")
	settings := pipeline.SettingsFrom(s.Settings())

	msgs, err := pipeline.LoadWindow(r.Context(), s.st, creator, student, win)
	if err != nil {
		handleQueryError(w, err)
		return
	}
	sessions, err := pipeline.SegmentAll(msgs, settings.Thresholds.SessionGap)
	if err != nil {
		handleQueryError(w, err)
		return
	}
	ov := pipeline.AggregateOverview(msgs, sessions, 0)

	writeJSON(w, http.StatusOK, sessionsResponse{
		windowResponse:    newWindowResponse(creator, win),
		StudentID:         student,
		Count:             len(sessions),
		CompletionRate:    ov.CompletionRate,
		AvgSessionMinutes: ov.AvgSessionMinutes,
		Sessions:          pipeline.StripMessages(sessions),
	})
}

type questionsResponse struct {
	windowResponse
	Questions int                     `json:"questions"`
	Clusters  []model.QuestionCluster `json:"clusters"`
}

func (s *Service) handleQuestions(w http.ResponseWriter, r *http.Request) {
	win, ok := s.parseWindow(w, r)
	if !ok {
		return
	}
	limit := pipeline.DefaultTopQuestions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	creator := r.PathValue("creator")
	settings := pipeline.SettingsFrom(s.Settings())

	msgs, err := pipeline.LoadWindow(r.Context(), s.st, creator, "", win)
	if err != nil {
		handleQueryError(w, err)
		return
	}
	questions := pipeline.ExtractQuestions(msgs)
	clusters := pipeline.SortClustersByCount(pipeline.ClusterQuestions(questions, settings.ClusterOptions()))
	if limit > 0 && len(clusters) > limit {
		clusters = clusters[:limit]
	}
	if clusters == nil {
		clusters = []model.QuestionCluster{}
	}

	writeJSON(w, http.StatusOK, questionsResponse{
		windowResponse: newWindowResponse(creator, win),
		Questions:      len(questions),
		Clusters:       clusters,
	})
}

type costsResponse struct {
	windowResponse
	model.CostBreakdown
	Models []pipeline.ModelCost `json:"models"`
	Days   []pipeline.DateCost  `json:"days"`
}

func (s *Service) handleCosts(w http.ResponseWriter, r *http.Request) {
	win, ok := s.parseWindow(w, r)
	if !ok {
		return
	}
	creator := r.PathValue("creator")
	settings := pipeline.SettingsFrom(s.Settings())

	msgs, err := pipeline.LoadWindow(r.Context(), s.st, creator, "", win)
	if err != nil {
		handleQueryError(w, err)
		return
	}
	costs := pipeline.CalculateCosts(msgs, settings.Prices, pipeline.CostOptions{Location: win.Location})

	writeJSON(w, http.StatusOK, costsResponse{
		windowResponse: newWindowResponse(creator, win),
		CostBreakdown:  costs,
		Models:         pipeline.ModelCosts(costs),
		Days:           pipeline.DateCosts(costs),
	})
}

type engagementResponse struct {
	windowResponse
	Engagement model.EngagementScore     `json:"engagement"`
	Students   []model.StudentEngagement `json:"students"`
}

func (s *Service) handleEngagement(w http.ResponseWriter, r *http.Request) {
	win, ok := s.parseWindow(w, r)
	if !ok {
		return
	}
	creator, student := r.PathValue("creator"), r.URL.Query().Get("student")

	d, err := pipeline.LoadDashboard(r.Context(), s.st, creator, win, pipeline.SettingsFrom(s.Settings()))
	if err != nil {
		handleQueryError(w, err)
		return
	}

	resp := engagementResponse{
		windowResponse: newWindowResponse(creator, win),
		Engagement:     d.Engagement,
		Students:       d.Students,
	}
	if student != "" {
		resp.Students = nil
		for _, row := range d.Students {
			if row.StudentID == student {
				resp.Students = []model.StudentEngagement{row}
				resp.Engagement = row.Score
			}
		}
		if resp.Students == nil {
			writeError(w, http.StatusNotFound, "no activity for student "+student)
			return
		}
	}
	if resp.Students == nil {
		resp.Students = []model.StudentEngagement{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleOverview(w http.ResponseWriter, r *http.Request) {
	win, ok := s.parseWindow(w, r)
	if !ok {
		return
	}
	creator := r.PathValue("creator")

	d, err := pipeline.LoadDashboard(r.Context(), s.st, creator, win, pipeline.SettingsFrom(s.Settings()))
	if err != nil {
		handleQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Service) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, err := strconv.ParseFloat(q.Get("current"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "current must be a number")
		return
	}
	previous, err := strconv.ParseFloat(q.Get("previous"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "previous must be a number")
		return
	}

	t, err := pipeline.CalculateTrend(current, previous)
	if err != nil {
		handleQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
