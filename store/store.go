// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
)

// Storage keys and limits
const (
	StorageKey      = "comidas_inscripciones"
	BackupPrefix    = "comidas_backup_"
	CurrentVersion  = 3
	AutoBackupEvery = 10
	MaxBackups      = 5
)

var (
	ErrInvalidRecord  = errors.New("invalid inscripcion")
	ErrBackupNotFound = errors.New("backup not found")
)

// KeyValue is the persistence the store sits on; db.KV implements it
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store keeps the whole envelope in memory and writes it back on every
// mutation.
type Store struct {
	kv KeyValue

	mu        sync.Mutex
	env       models.Envelope
	saveCount int

	now      func() time.Time
	newID    func() string
	userType func(initials string) string
}

type Option func(*Store)

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithUserType sets how tipoUsuario is derived when a record has none
func WithUserType(fn func(initials string) string) Option {
	return func(s *Store) { s.userType = fn }
}

// New loads the envelope from kv, migrating or reinitializing it as needed
func New(ctx context.Context, kv KeyValue, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
		userType: func(string) string { return models.UserTypeResidente },
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return err
	}

	if !ok {
		s.env = s.emptyEnvelope()
		slog.Info("local store initialized")
		return s.persist(ctx, s.env)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		slog.Warn("stored data is corrupted, reinitializing", "error", err)
		s.env = s.emptyEnvelope()
		return s.persist(ctx, s.env)
	}

	from := env.Version
	env, err = s.migrate(env)
	if err != nil {
		return err
	}
	s.env = env
	if from != env.Version {
		slog.Info("local store migrated", "from", from, "to", env.Version)
		return s.persist(ctx, s.env)
	}
	return nil
}

func (s *Store) emptyEnvelope() models.Envelope {
	now := s.now()
	return models.Envelope{
		Inscripciones: []models.Inscripcion{},
		LastUpdate:    now,
		Version:       CurrentVersion,
		Metadata:      models.Metadata{Created: now},
	}
}

// decodeEnvelope accepts the current envelope or the legacy bare array
func decodeEnvelope(raw string) (models.Envelope, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var recs []models.Inscripcion
		if err := json.Unmarshal([]byte(trimmed), &recs); err != nil {
			return models.Envelope{}, err
		}
		return models.Envelope{Inscripciones: recs, Version: 1}, nil
	}

	var env models.Envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return models.Envelope{}, err
	}
	if env.Version == 0 {
		env.Version = 1
	}
	if env.Inscripciones == nil {
		env.Inscripciones = []models.Inscripcion{}
	}
	return env, nil
}

// persist writes env and, on success, makes it the in-memory state.
// Callers hold s.mu (or are in New).
func (s *Store) persist(ctx context.Context, env models.Envelope) error {
	env.Metadata.TotalInscripciones = len(env.Inscripciones)
	env.LastUpdate = s.now()

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return err
	}

	s.env = env
	return nil
}

// Validate normalizes rec in place and checks the required fields
func Validate(rec *models.Inscripcion) error {
	if err := validateStored(rec); err != nil {
		return err
	}
	if rec.Opcion == "" {
		return fmt.Errorf("%w: opcion is required", ErrInvalidRecord)
	}
	return nil
}

// validateStored is Validate without the opcion check: a stored record
// whose option was switched off keeps an empty opcion.
func validateStored(rec *models.Inscripcion) error {
	rec.Fecha = strings.TrimSpace(rec.Fecha)
	rec.Iniciales = strings.ToUpper(strings.TrimSpace(rec.Iniciales))
	rec.Opcion = strings.ToUpper(strings.TrimSpace(rec.Opcion))
	if meal := models.NormalizeMeal(rec.Comida); meal != "" {
		rec.Comida = meal
	}

	if !dates.IsISO(rec.Fecha) {
		return fmt.Errorf("%w: fecha %q is not YYYY-MM-DD", ErrInvalidRecord, rec.Fecha)
	}
	if !models.IsValidMeal(rec.Comida) {
		return fmt.Errorf("%w: comida %q must be Almuerzo or Cena", ErrInvalidRecord, rec.Comida)
	}
	if rec.Iniciales == "" {
		return fmt.Errorf("%w: iniciales is required", ErrInvalidRecord)
	}
	return nil
}

// Save validates rec and upserts it by (fecha, comida, iniciales)
func (s *Store) Save(ctx context.Context, rec models.Inscripcion) error {
	if err := Validate(&rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env := s.env
	env.Inscripciones = s.upsert(cloneRecords(s.env.Inscripciones), rec)
	if err := s.persist(ctx, env); err != nil {
		slog.Error("failed to save inscripcion", "fecha", rec.Fecha, "comida", rec.Comida, "iniciales", rec.Iniciales, "error", err)
		return err
	}

	s.afterSave(ctx, 1)
	return nil
}

// SaveMany upserts a batch with a single write. Nothing is stored if any
// record is invalid.
func (s *Store) SaveMany(ctx context.Context, recs []models.Inscripcion) error {
	if len(recs) == 0 {
		return nil
	}
	valid := make([]models.Inscripcion, len(recs))
	for i, rec := range recs {
		if err := Validate(&rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		valid[i] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env := s.env
	list := cloneRecords(s.env.Inscripciones)
	for _, rec := range valid {
		list = s.upsert(list, rec)
	}
	env.Inscripciones = list
	if err := s.persist(ctx, env); err != nil {
		return err
	}

	s.afterSave(ctx, len(valid))
	return nil
}

// Unset empties the option of an existing record. The record itself stays;
// only ClearAll removes records. It reports whether a record was found.
func (s *Store) Unset(ctx context.Context, fecha, comida, iniciales string) (bool, error) {
	target := models.Inscripcion{Fecha: fecha, Comida: comida, Iniciales: iniciales}
	if err := validateStored(&target); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := cloneRecords(s.env.Inscripciones)
	found := false
	for i := range list {
		if list[i].Key() == target.Key() {
			if list[i].Opcion == "" {
				return true, nil
			}
			list[i].Opcion = ""
			list[i].UpdatedAt = s.now()
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	env := s.env
	env.Inscripciones = list
	if err := s.persist(ctx, env); err != nil {
		return false, err
	}
	s.afterSave(ctx, 1)
	return true, nil
}

// upsert overwrites the record sharing rec's natural key, keeping its id
// and createdAt, or appends rec.
func (s *Store) upsert(list []models.Inscripcion, rec models.Inscripcion) []models.Inscripcion {
	now := s.now()
	if rec.TipoUsuario == "" {
		rec.TipoUsuario = s.userType(rec.Iniciales)
	}
	rec.UpdatedAt = now

	key := rec.Key()
	for i := range list {
		if list[i].Key() == key {
			rec.ID = list[i].ID
			rec.CreatedAt = list[i].CreatedAt
			list[i] = rec
			return list
		}
	}

	if rec.ID == "" {
		rec.ID = s.newID()
	}
	rec.CreatedAt = now
	return append(list, rec)
}

// afterSave counts successful saves and backs up every AutoBackupEvery-th
func (s *Store) afterSave(ctx context.Context, n int) {
	before := s.saveCount
	s.saveCount += n
	if s.saveCount/AutoBackupEvery > before/AutoBackupEvery {
		if _, err := s.backupLocked(ctx); err != nil {
			slog.Warn("automatic backup failed", "error", err)
		}
	}
}

func cloneRecords(in []models.Inscripcion) []models.Inscripcion {
	out := make([]models.Inscripcion, len(in))
	copy(out, in)
	return out
}

// Envelope returns a copy of the current envelope
func (s *Store) Envelope() models.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := s.env
	env.Inscripciones = cloneRecords(s.env.Inscripciones)
	return env
}

// ClearAll empties the store after backing it up; returns the backup key
func (s *Store) ClearAll(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.backupLocked(ctx)
	if err != nil {
		return "", err
	}

	env := s.env
	env.Inscripciones = []models.Inscripcion{}
	env.Metadata.ImportedFrom = ""
	if err := s.persist(ctx, env); err != nil {
		return "", err
	}

	slog.Info("local store cleared", "backup", key)
	return key, nil
}
