// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
)

const (
	// AutoSaveDelay is the quiet period after the last toggle before saving
	AutoSaveDelay = 2 * time.Second
	// DefaultDays is the window loaded when none is given
	DefaultDays = 14

	autoSaveTimeout = 30 * time.Second
)

// Session holds one user's selection being edited and the snapshot it was
// last synced against.
type Session struct {
	iniciales string
	rec       *Reconciler
	delay     time.Duration
	onSave    func(models.SaveResponse, error)

	mu        sync.Mutex
	days      []string
	selection models.Selection
	original  models.Selection
	source    string
	timer     *time.Timer

	// serializes Flush so original is only rewritten by one save
	flushMu sync.Mutex
}

// Load replaces the session state with a fresh snapshot for days.
// Pending changes are saved first. No save runs while the window is
// being replaced.
func (s *Session) Load(ctx context.Context, days []string) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if len(s.Pending()) > 0 {
		if _, err := s.flushLocked(ctx); err != nil {
			return err
		}
	}

	snap, source := s.rec.Snapshot(ctx, s.iniciales, days)
	for _, d := range days {
		for _, meal := range models.Meals {
			if _, ok := snap[d][meal]; !ok {
				snap.Set(d, meal, "")
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = append([]string(nil), days...)
	s.original = snap
	s.selection = snap.Clone()
	s.source = source
	return nil
}

// Toggle changes one cell and (re)starts the auto-save timer
func (s *Session) Toggle(date, meal, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection == nil {
		s.selection = models.Selection{}
		s.original = models.Selection{}
	}
	value, err := Toggle(s.selection, date, meal, code)
	if err != nil {
		return "", err
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.autoSave)
	return value, nil
}

func (s *Session) autoSave() {
	ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
	defer cancel()

	res, err := s.Flush(ctx)
	if err != nil {
		slog.Error("auto-save failed", "iniciales", s.iniciales, "error", err)
	}
	if s.onSave != nil {
		s.onSave(res, err)
	}
}

// Flush saves now, cancelling any scheduled auto-save
func (s *Session) Flush(ctx context.Context) (models.SaveResponse, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	return s.flushLocked(ctx)
}

// flushLocked saves a copy of the state; flushMu must be held. Only the
// cells the save synced are copied back into original, so toggles made
// meanwhile stay pending.
func (s *Session) flushLocked(ctx context.Context) (models.SaveResponse, error) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	selection := s.selection.Clone()
	base := s.original.Clone()
	s.mu.Unlock()

	synced := base.Clone()
	res, err := s.rec.Save(ctx, s.iniciales, selection, synced)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	if s.original == nil {
		s.original = models.Selection{}
	}
	for _, c := range Diff(base, synced) {
		s.original.Set(c.Fecha, c.Comida, synced.Get(c.Fecha, c.Comida))
	}
	s.mu.Unlock()
	return res, nil
}

// Pending lists the cells not yet synced to the sheet
func (s *Session) Pending() []models.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Diff(s.original, s.selection)
}

// View returns the session state for display
func (s *Session) View() models.SelectionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := Diff(s.original, s.selection)
	if pending == nil {
		pending = []models.Cell{}
	}
	return models.SelectionResponse{
		Iniciales: s.iniciales,
		Selection: s.selection.Clone(),
		Pending:   pending,
		Source:    s.source,
	}
}

// Sessions keeps one Session per user
type Sessions struct {
	rec    *Reconciler
	delay  time.Duration
	onSave func(iniciales string, res models.SaveResponse, err error)
	today  func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

type SessionsOption func(*Sessions)

// WithDelay overrides AutoSaveDelay
func WithDelay(d time.Duration) SessionsOption {
	return func(s *Sessions) { s.delay = d }
}

// WithSaveHook is called after every auto-save
func WithSaveHook(fn func(iniciales string, res models.SaveResponse, err error)) SessionsOption {
	return func(s *Sessions) { s.onSave = fn }
}

// WithToday replaces the current date used for default windows
func WithToday(fn func() string) SessionsOption {
	return func(s *Sessions) { s.today = fn }
}

func NewSessions(rec *Reconciler, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		rec:      rec,
		delay:    AutoSaveDelay,
		today:    func() string { return dates.Today(time.Local) },
		sessions: map[string]*Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconciler returns the reconciler shared by every session
func (ss *Sessions) Reconciler() *Reconciler {
	return ss.rec
}

// Window returns count dates starting at from; from defaults to today and
// count to DefaultDays.
func (ss *Sessions) Window(from string, count int) ([]string, error) {
	if from == "" {
		from = ss.today()
	}
	if count <= 0 {
		count = DefaultDays
	}
	return dates.Range(from, count)
}

// Open returns the user's session loaded for days, creating it if needed
func (ss *Sessions) Open(ctx context.Context, iniciales string, days []string) (*Session, error) {
	sess := ss.session(iniciales)
	if err := sess.Load(ctx, days); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the user's session, loading the default window the first
// time.
func (ss *Sessions) Get(ctx context.Context, iniciales string) (*Session, error) {
	sess := ss.session(iniciales)

	sess.mu.Lock()
	loaded := sess.selection != nil
	sess.mu.Unlock()
	if loaded {
		return sess, nil
	}

	days, err := ss.Window("", 0)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx, days); err != nil {
		return nil, err
	}
	return sess, nil
}

func (ss *Sessions) session(iniciales string) *Session {
	key := strings.ToUpper(strings.TrimSpace(iniciales))

	ss.mu.Lock()
	defer ss.mu.Unlock()

	if sess, ok := ss.sessions[key]; ok {
		return sess
	}
	sess := &Session{iniciales: key, rec: ss.rec, delay: ss.delay}
	if ss.onSave != nil {
		sess.onSave = func(res models.SaveResponse, err error) { ss.onSave(key, res, err) }
	}
	ss.sessions[key] = sess
	return sess
}

// FlushAll saves every session with pending changes
func (ss *Sessions) FlushAll(ctx context.Context) {
	ss.mu.Lock()
	list := make([]*Session, 0, len(ss.sessions))
	for _, sess := range ss.sessions {
		list = append(list, sess)
	}
	ss.mu.Unlock()

	for _, sess := range list {
		if len(sess.Pending()) == 0 {
			continue
		}
		if _, err := sess.Flush(ctx); err != nil {
			slog.Error("flush failed", "iniciales", sess.iniciales, "error", err)
		}
	}
}
