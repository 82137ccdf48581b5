// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"fmt"
	"log/slog"

	"github.com/gastongadea/limos-arboleda/models"
)

// migration upgrades an envelope from version from to from+1
type migration struct {
	from  int
	name  string
	apply func(s *Store, env *models.Envelope)
}

// migrations run in order; each step's from is the previous step's from+1
var migrations = []migration{
	{from: 1, name: "assign ids and timestamps", apply: migrateIDs},
	{from: 2, name: "normalize fields and drop duplicates", apply: migrateNormalize},
}

func (s *Store) migrate(env models.Envelope) (models.Envelope, error) {
	if env.Version > CurrentVersion {
		return env, fmt.Errorf("stored version %d is newer than supported version %d", env.Version, CurrentVersion)
	}

	for _, m := range migrations {
		if env.Version != m.from {
			continue
		}
		m.apply(s, &env)
		env.Version = m.from + 1
		slog.Debug("migration applied", "name", m.name, "version", env.Version)
	}

	if env.Metadata.Created.IsZero() {
		env.Metadata.Created = s.now()
	}
	env.Metadata.TotalInscripciones = len(env.Inscripciones)
	return env, nil
}

// v1 records came without ids or timestamps
func migrateIDs(s *Store, env *models.Envelope) {
	now := s.now()
	for i := range env.Inscripciones {
		r := &env.Inscripciones[i]
		if r.ID == "" {
			r.ID = s.newID()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
	}
}

// v2 stored free-form meal names and lowercase initials, and could hold
// duplicates of one natural key. The last occurrence wins.
func migrateNormalize(s *Store, env *models.Envelope) {
	index := map[string]int{}
	out := make([]models.Inscripcion, 0, len(env.Inscripciones))
	for _, r := range env.Inscripciones {
		if err := validateStored(&r); err != nil {
			slog.Warn("dropping invalid record during migration", "id", r.ID, "error", err)
			continue
		}
		if r.TipoUsuario == "" {
			r.TipoUsuario = s.userType(r.Iniciales)
		}
		if i, ok := index[r.Key()]; ok {
			out[i] = r
			continue
		}
		index[r.Key()] = len(out)
		out = append(out, r)
	}
	env.Inscripciones = out
}
