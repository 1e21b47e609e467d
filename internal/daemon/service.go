// Package daemon provides the long-running analytics service: an HTTP API
// over the store plus an event stream of data and config changes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/pipeline"
	"github.com/theirongolddev/cpulse/internal/store"
)

// Event types.
const (
	EventSnapshot       = "snapshot"
	EventDataDelta      = "data_delta"
	EventConfigReloaded = "config_reloaded"
	EventRequest        = "request"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr string
	// ConfigPath is watched for changes; empty disables hot reload.
	ConfigPath string
	// ImportDir is re-imported on every poll; empty disables it.
	ImportDir      string
	Interval       time.Duration
	EventsBuffer   int
	RequestTimeout time.Duration
	// Settings is the initial configuration.
	Settings config.Config
}

// Snapshot is a compact store state for status/event payloads.
type Snapshot struct {
	At       time.Time `json:"at"`
	Messages int       `json:"messages"`
	Creators int       `json:"creators"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Messages int `json:"messages"`
	Creators int `json:"creators"`
}

func (d Delta) isZero() bool {
	return d.Messages == 0 && d.Creators == 0
}

// Event is emitted when the store changes, the config reloads, or an API
// request completes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	Delta     *Delta    `json:"delta,omitempty"`
	// Path and Status describe request events.
	Path   string `json:"path,omitempty"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ConfigPath      string    `json:"config_path,omitempty"`
	ImportDir       string    `json:"import_dir,omitempty"`
	Reloads         int       `json:"reloads"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	st  *store.Store

	mu          sync.RWMutex
	settings    config.Config
	reloads     int
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service serving st with the provided config.
func New(cfg Config, st *store.Store) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		st:        st,
		settings:  cfg.Settings,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API. Analytics routes run under the request
// timeout; the event stream does not.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	mux.Handle("GET /v1/creators", s.api(s.handleCreators))
	mux.Handle("GET /v1/creators/{creator}/overview", s.api(s.handleOverview))
	mux.Handle("GET /v1/creators/{creator}/sessions", s.api(s.handleSessions))
	mux.Handle("GET /v1/creators/{creator}/questions", s.api(s.handleQuestions))
	mux.Handle("GET /v1/creators/{creator}/costs", s.api(s.handleCosts))
	mux.Handle("GET /v1/creators/{creator}/engagement", s.api(s.handleEngagement))
	mux.Handle("GET /v1/trend", s.api(s.handleTrend))
	return mux
}

// Run starts HTTP endpoints, config watching, and polling until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.cfg.ConfigPath != "" {
		go func() {
			if err := config.Watch(ctx, s.cfg.ConfigPath, s.applySettings); err != nil {
				log.Printf("cpulse daemon: config watch disabled: %v", err)
			}
		}()
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Settings returns the current configuration.
func (s *Service) Settings() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// applySettings swaps in a reloaded configuration. Thresholds, weights,
// aliases, and prices take effect on the next request.
func (s *Service) applySettings(cfg config.Config) {
	s.mu.Lock()
	s.settings = cfg
	s.reloads++
	ev := Event{
		Type:      EventConfigReloaded,
		Timestamp: time.Now(),
		Detail: fmt.Sprintf("session_gap=%vm similarity=%.2f",
			cfg.Thresholds.SessionGapMinutes, cfg.Thresholds.Similarity),
	}
	s.mu.Unlock()

	log.Printf("cpulse daemon: config reloaded (%s)", ev.Detail)
	s.publishEvent(ev)
}

func (s *Service) pollOnce(ctx context.Context) {
	snap, err := s.takeSnapshot(ctx)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("cpulse daemon poll error: %v", err)
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		ev = Event{Type: EventSnapshot, Timestamp: now, Snapshot: &snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		ev = Event{Type: EventDataDelta, Timestamp: now, Snapshot: &snap, Delta: &delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) takeSnapshot(ctx context.Context) (Snapshot, error) {
	if s.cfg.ImportDir != "" {
		res, err := pipeline.Import(ctx, s.cfg.ImportDir, s.st, false, nil)
		if err != nil {
			return Snapshot{}, fmt.Errorf("importing %s: %w", s.cfg.ImportDir, err)
		}
		if res.Reparsed > 0 {
			log.Printf("cpulse daemon: imported %d changed files (%d messages)", res.Reparsed, len(res.Messages))
		}
	}

	count, err := s.st.MessageCount(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	creators, err := s.st.Creators(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{At: time.Now(), Messages: count, Creators: len(creators)}, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Messages: curr.Messages - prev.Messages,
		Creators: curr.Creators - prev.Creators,
	}
}

// publishEvent numbers ev and appends it to the ring buffer in one
// critical section, so buffer order always matches id order.
func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// publishRequest records a completed API request.
func (s *Service) publishRequest(path string, status int) {
	s.publishEvent(Event{Type: EventRequest, Timestamp: time.Now(), Path: path, Status: status})
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ConfigPath:      s.cfg.ConfigPath,
		ImportDir:       s.cfg.ImportDir,
		Reloads:         s.reloads,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
