// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// ExportVersion tags files written by Export
const ExportVersion = "2.0"

// Backup stores a copy of the envelope and returns its key
func (s *Store) Backup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backupLocked(ctx)
}

func (s *Store) backupLocked(ctx context.Context) (string, error) {
	now := s.now()

	existing, err := s.kv.Keys(ctx, BackupPrefix)
	if err != nil {
		return "", err
	}
	key := nextBackupKey(now, existing)

	payload, err := json.Marshal(s.env)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := s.kv.Set(ctx, key, string(payload)); err != nil {
		return "", err
	}

	env := s.env
	env.Metadata.LastBackup = &now
	if err := s.persist(ctx, env); err != nil {
		return "", err
	}

	s.pruneBackups(ctx, append(existing, key))
	slog.Info("backup created", "key", key, "records", len(s.env.Inscripciones))
	return key, nil
}

// nextBackupKey returns BackupPrefix plus now in unix milliseconds, moved
// past the newest existing key so keys stay unique and ordered.
func nextBackupKey(now time.Time, existing []string) string {
	ms := now.UnixMilli()
	for _, k := range existing {
		n, err := strconv.ParseInt(strings.TrimPrefix(k, BackupPrefix), 10, 64)
		if err == nil && n >= ms {
			ms = n + 1
		}
	}
	return BackupPrefix + strconv.FormatInt(ms, 10)
}

// pruneBackups keeps the MaxBackups most recent keys
func (s *Store) pruneBackups(ctx context.Context, keys []string) {
	if len(keys) <= MaxBackups {
		return
	}
	sort.Strings(keys)
	for _, k := range keys[:len(keys)-MaxBackups] {
		if err := s.kv.Delete(ctx, k); err != nil {
			slog.Warn("failed to prune backup", "key", k, "error", err)
		}
	}
}

// ListBackups returns backup keys, newest first
func (s *Store) ListBackups(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, BackupPrefix)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// RestoreBackup replaces the current envelope with a stored backup
func (s *Store) RestoreBackup(ctx context.Context, key string) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, key)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return fmt.Errorf("backup %s is corrupted: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err = s.migrate(env)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, env); err != nil {
		return err
	}

	slog.Info("backup restored", "key", key, "records", len(env.Inscripciones))
	return nil
}

// Export writes the envelope as an indented JSON download
func (s *Store) Export(w io.Writer) error {
	file := models.ExportFile{
		Envelope:      s.Envelope(),
		ExportDate:    s.now(),
		ExportVersion: ExportVersion,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Import replaces the stored records with those of an exported file.
// Every record is validated before anything is written, and the current
// data is backed up first. source is recorded as metadata.importedFrom.
func (s *Store) Import(ctx context.Context, r io.Reader, source string) (backupKey string, imported int, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read import: %w", err)
	}

	incoming, err := decodeEnvelope(string(raw))
	if err != nil {
		return "", 0, fmt.Errorf("%w: import file is not valid JSON: %v", ErrInvalidRecord, err)
	}

	seen := make(map[string]bool, len(incoming.Inscripciones))
	for i := range incoming.Inscripciones {
		rec := &incoming.Inscripciones[i]
		if err := validateStored(rec); err != nil {
			return "", 0, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[rec.Key()] {
			return "", 0, fmt.Errorf("record %d: %w: duplicate %s", i, ErrInvalidRecord, rec.Key())
		}
		seen[rec.Key()] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backupKey, err = s.backupLocked(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("backup before import failed: %w", err)
	}

	// Files from older versions still need ids and tipoUsuario
	if incoming.Version < CurrentVersion {
		incoming, err = s.migrate(incoming)
		if err != nil {
			return "", 0, err
		}
	}

	env := s.env
	env.Inscripciones = incoming.Inscripciones
	env.Version = CurrentVersion
	env.Metadata.ImportedFrom = source
	if err := s.persist(ctx, env); err != nil {
		return "", 0, err
	}

	slog.Info("data imported", "source", source, "records", len(env.Inscripciones), "backup", backupKey)
	return backupKey, len(env.Inscripciones), nil
}
