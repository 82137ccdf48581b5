// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"strings"

	"github.com/gastongadea/limos-arboleda/models"
)

// All filters below scan the full in-memory list; the data set is a few
// hundred records.

// GetAll returns every stored record
func (s *Store) GetAll() []models.Inscripcion {
	return s.filter(func(models.Inscripcion) bool { return true })
}

// GetByDate returns the records for one ISO date
func (s *Store) GetByDate(fecha string) []models.Inscripcion {
	return s.filter(func(r models.Inscripcion) bool { return r.Fecha == fecha })
}

// GetByUser returns one user's records, matching initials case-insensitively
func (s *Store) GetByUser(iniciales string) []models.Inscripcion {
	iniciales = strings.ToUpper(strings.TrimSpace(iniciales))
	return s.filter(func(r models.Inscripcion) bool { return r.Iniciales == iniciales })
}

// GetByDateRange returns records with from <= fecha <= to
func (s *Store) GetByDateRange(from, to string) []models.Inscripcion {
	return s.filter(func(r models.Inscripcion) bool {
		return r.Fecha >= from && r.Fecha <= to
	})
}

// GetByDateAndMeal returns the records for one date and meal
func (s *Store) GetByDateAndMeal(fecha, comida string) []models.Inscripcion {
	return s.filter(func(r models.Inscripcion) bool {
		return r.Fecha == fecha && r.Comida == comida
	})
}

// Find returns the record with the given natural key
func (s *Store) Find(fecha, comida, iniciales string) (models.Inscripcion, bool) {
	key := models.Inscripcion{Fecha: fecha, Comida: comida, Iniciales: iniciales}.Key()
	found := s.filter(func(r models.Inscripcion) bool { return r.Key() == key })
	if len(found) == 0 {
		return models.Inscripcion{}, false
	}
	return found[0], true
}

// UserSelection rebuilds a user's selection for the given dates from the
// stored records.
func (s *Store) UserSelection(iniciales string, days []string) models.Selection {
	sel := make(models.Selection, len(days))
	want := make(map[string]bool, len(days))
	for _, d := range days {
		want[d] = true
		for _, meal := range models.Meals {
			sel.Set(d, meal, "")
		}
	}
	for _, r := range s.GetByUser(iniciales) {
		if want[r.Fecha] {
			sel.Set(r.Fecha, r.Comida, r.Opcion)
		}
	}
	return sel
}

func (s *Store) filter(keep func(models.Inscripcion) bool) []models.Inscripcion {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Inscripcion{}
	for _, r := range s.env.Inscripciones {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Stats summarizes the stored records. Records with an empty option are
// not counted.
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.Stats{
		ByMeal:     map[string]int{},
		ByOption:   map[string]int{},
		ByUser:     map[string]int{},
		LastUpdate: s.env.LastUpdate,
		LastBackup: s.env.Metadata.LastBackup,
		Version:    s.env.Version,
	}
	for _, r := range s.env.Inscripciones {
		if r.Opcion == "" {
			continue
		}
		st.Total++
		st.ByMeal[r.Comida]++
		st.ByOption[r.Opcion]++
		st.ByUser[r.Iniciales]++
		if st.FirstDate == "" || r.Fecha < st.FirstDate {
			st.FirstDate = r.Fecha
		}
		if r.Fecha > st.LastDate {
			st.LastDate = r.Fecha
		}
	}
	return st
}
