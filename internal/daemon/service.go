// Package daemon provides the long-running background usage monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/ccpace/internal/notify"
	"github.com/theirongolddev/ccpace/internal/pacing"
	"github.com/theirongolddev/ccpace/internal/store"
	"github.com/theirongolddev/ccpace/internal/usage"
)

// SnapshotStore persists readings. *store.DB satisfies it.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, rec store.SnapshotRecord) (int64, error)
}

// Alerter delivers pacing alerts. *notify.Notifier satisfies it.
type Alerter interface {
	Notify(ctx context.Context, a notify.Alert)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Source       usage.TextSource
	Store        SnapshotStore // optional
	Notifier     Alerter       // optional
	SourceName   string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Now          func() time.Time
	Logger       *slog.Logger
}

// Window is one usage window's state in a reading.
type Window struct {
	UsedPercent *int   `json:"used_percent"`
	Reset       string `json:"reset,omitempty"`
	Pacing      string `json:"pacing,omitempty"`
	Status      string `json:"status,omitempty"`

	status pacing.Status
	known  bool
}

// Reading is a compact usage state for status/event payloads.
type Reading struct {
	At        time.Time `json:"at"`
	Session   Window    `json:"session"`
	AllModels Window    `json:"all_models"`
	Sonnet    Window    `json:"sonnet"`
	Error     string    `json:"error,omitempty"`
}

// Delta captures percent-point changes between polls. A window absent from
// either reading contributes zero.
type Delta struct {
	Session   int `json:"session"`
	AllModels int `json:"all_models"`
	Sonnet    int `json:"sonnet"`
}

func (d Delta) isZero() bool {
	return d.Session == 0 && d.AllModels == 0 && d.Sonnet == 0
}

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventUsageDelta = "usage_delta"
	EventPaceAlert  = "pace_alert"
)

// Event is emitted whenever the usage reading updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Reading   Reading   `json:"reading"`
	Delta     Delta     `json:"delta"`
	Window    string    `json:"window,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Source          string    `json:"source,omitempty"`
	Current         Reading   `json:"current"`
	MenuTitle       string    `json:"menu_title"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasReading  bool
	reading     Reading
	lastUsage   usage.Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
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
	s.log.Info("daemon started", "addr", s.cfg.Addr, "interval", s.cfg.Interval, "source", s.cfg.SourceName)

	// Seed initial reading so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("daemon stopping")
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

func (s *Service) pollOnce(ctx context.Context) {
	snap, err := s.cfg.Source.Fetch(ctx, false)
	now := s.cfg.Now()
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = now
	}

	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("daemon poll failed", "err", err)
		return
	}
	if !snap.HasData() {
		s.mu.Lock()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Debug("no usage data available", "source", s.cfg.SourceName)
		return
	}

	reading := readingFromSnapshot(snap, now)
	s.persist(ctx, snap, reading)

	var (
		events []Event
		alerts []notify.Alert
	)

	s.mu.Lock()
	prev := s.reading
	prevExists := s.hasReading

	s.hasReading = true
	s.reading = reading
	s.lastUsage = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		events = append(events, s.newEventLocked(EventSnapshot, now, reading, Delta{}, ""))
	} else if delta := diffReadings(prev, reading); !delta.isZero() {
		events = append(events, s.newEventLocked(EventUsageDelta, now, reading, delta, ""))
	}

	for _, w := range []struct {
		name       string
		prev, curr Window
	}{
		{"Session", prev.Session, reading.Session},
		{"All Models", prev.AllModels, reading.AllModels},
	} {
		if !enteredFarBehind(w.prev, w.curr, prevExists) {
			continue
		}
		events = append(events, s.newEventLocked(EventPaceAlert, now, reading, Delta{}, w.name))
		alerts = append(alerts, notify.Alert{
			Window: w.name,
			Status: "Far behind",
			Label:  w.curr.Pacing,
			Used:   derefInt(w.curr.UsedPercent),
			At:     now,
		})
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.publishEvent(ev)
	}
	for _, a := range alerts {
		s.log.Info("pace alert", "window", a.Window, "pacing", a.Label)
		if s.cfg.Notifier != nil {
			s.cfg.Notifier.Notify(ctx, a)
		}
	}
}

func (s *Service) persist(ctx context.Context, snap usage.Snapshot, r Reading) {
	if s.cfg.Store == nil {
		return
	}
	rec := store.SnapshotRecord{
		Snapshot:      snap,
		SessionPacing: r.Session.Pacing,
		WeeklyPacing:  r.AllModels.Pacing,
	}
	if _, err := s.cfg.Store.InsertSnapshot(ctx, rec); err != nil {
		s.log.Warn("storing snapshot failed", "err", err)
	}
}

func (s *Service) newEventLocked(typ string, at time.Time, r Reading, d Delta, window string) Event {
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: at,
		Reading:   r,
		Delta:     d,
		Window:    window,
	}
}

// enteredFarBehind reports a transition into the far-behind band. The first
// reading counts as a transition.
func enteredFarBehind(prev, curr Window, prevExists bool) bool {
	if !curr.known || curr.status != pacing.StatusFarBehind {
		return false
	}
	return !prevExists || !prev.known || prev.status != pacing.StatusFarBehind
}

func readingFromSnapshot(snap usage.Snapshot, now time.Time) Reading {
	d := usage.BuildDetail(snap, now)
	return Reading{
		At:        now,
		Session:   window(snap.Session.UsedPercent, snap.Session.ResetIn, snap.SessionPacing(), d.Session),
		AllModels: window(snap.AllModels.UsedPercent, snap.AllModels.ResetsAt, snap.AllModels.Pacing(now), d.AllModels),
		Sonnet:    window(snap.Sonnet.UsedPercent, snap.Sonnet.ResetsAt, snap.Sonnet.Pacing(now), d.Sonnet),
		Error:     snap.Err,
	}
}

func window(used *int, reset, label string, t pacing.Timeline) Window {
	w := Window{UsedPercent: used, Reset: reset, Pacing: label}
	if !t.NoData {
		w.status = t.Status
		w.known = true
		w.Status = t.Status.String()
	}
	return w
}

func diffReadings(prev, curr Reading) Delta {
	return Delta{
		Session:   diffPercent(prev.Session.UsedPercent, curr.Session.UsedPercent),
		AllModels: diffPercent(prev.AllModels.UsedPercent, curr.AllModels.UsedPercent),
		Sonnet:    diffPercent(prev.Sonnet.UsedPercent, curr.Sonnet.UsedPercent),
	}
}

func diffPercent(prev, curr *int) int {
	if prev == nil || curr == nil {
		return 0
	}
	return *curr - *prev
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
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

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Source:          s.cfg.SourceName,
		Current:         s.reading,
		MenuTitle:       usage.MenuTitle(s.lastUsage, false),
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
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

	// Send current reading immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Reading:   s.snapshotStatus().Current,
	}
	writeSSE(w, current)
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
