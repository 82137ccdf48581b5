// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
)

// Save result messages
const (
	MsgSaved       = "Guardado correctamente"
	MsgSavedErrors = "Guardado con algunos errores"
	MsgLocalOnly   = "Guardado localmente"
)

var ErrInvalidSelection = errors.New("invalid selection")

// LocalStore is the part of store.Store the reconciler writes to
type LocalStore interface {
	SaveMany(ctx context.Context, recs []models.Inscripcion) error
	Unset(ctx context.Context, fecha, comida, iniciales string) (bool, error)
	UserSelection(iniciales string, days []string) models.Selection
}

// Remote is the part of sheets.Client the reconciler pushes to
type Remote interface {
	Configured() bool
	SaveInscripcion(ctx context.Context, rec models.Inscripcion) error
	UserSelection(ctx context.Context, initials string, days []string) (models.Selection, error)
}

// Reconciler writes a user's selection to the local store and forwards
// the changed cells to the sheet.
type Reconciler struct {
	local  LocalStore
	remote Remote

	// one save at a time across all sessions
	mu sync.Mutex
}

func New(local LocalStore, remote Remote) *Reconciler {
	return &Reconciler{local: local, remote: remote}
}

// Diff returns the cells whose code differs between original and
// selection, ordered by date then meal.
func Diff(original, selection models.Selection) []models.Cell {
	seen := map[models.Cell]bool{}
	var out []models.Cell
	visit := func(s models.Selection) {
		for date, day := range s {
			for meal := range day {
				c := models.Cell{Fecha: date, Comida: meal}
				if seen[c] {
					continue
				}
				seen[c] = true
				if original.Get(date, meal) != selection.Get(date, meal) {
					out = append(out, c)
				}
			}
		}
	}
	visit(original)
	visit(selection)

	sortCells(out)
	return out
}

func sortCells(cells []models.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Fecha != cells[j].Fecha {
			return cells[i].Fecha < cells[j].Fecha
		}
		return mealOrder(cells[i].Comida) < mealOrder(cells[j].Comida)
	})
}

func mealOrder(meal string) int {
	for i, m := range models.Meals {
		if m == meal {
			return i
		}
	}
	return len(models.Meals)
}

// Toggle sets (date, meal) to code, or clears it when code is already
// selected. It returns the new value.
func Toggle(sel models.Selection, date, meal, code string) (string, error) {
	if !dates.IsISO(date) {
		return "", fmt.Errorf("%w: fecha %q", ErrInvalidSelection, date)
	}
	m := models.NormalizeMeal(meal)
	if m == "" {
		return "", fmt.Errorf("%w: comida %q", ErrInvalidSelection, meal)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" && !models.IsKnownOption(code) {
		return "", fmt.Errorf("%w: opcion %q", ErrInvalidSelection, code)
	}

	if sel.Get(date, m) == code {
		code = ""
	}
	sel.Set(date, m, code)
	return code, nil
}

// Save persists user's selection. Locally every cell that is set, or was
// set in original, is written whether or not it changed. Only cells that
// differ from original go to the sheet, one at a time; each success
// updates that cell of original in place. Remote failures are collected
// per cell and never undo earlier cells. A local failure aborts the save.
func (r *Reconciler) Save(ctx context.Context, user string, selection, original models.Selection) (models.SaveResponse, error) {
	user = strings.ToUpper(strings.TrimSpace(user))
	if user == "" {
		return models.SaveResponse{}, fmt.Errorf("%w: iniciales is required", ErrInvalidSelection)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved, err := r.saveLocal(ctx, user, selection, original)
	if err != nil {
		return models.SaveResponse{}, err
	}

	res := models.SaveResponse{Saved: saved}
	if r.remote == nil || !r.remote.Configured() {
		res.Local = true
		res.Message = MsgLocalOnly
		return res, nil
	}

	for _, c := range Diff(original, selection) {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, models.CellError{Fecha: c.Fecha, Comida: c.Comida, Message: err.Error()})
			continue
		}
		code := selection.Get(c.Fecha, c.Comida)
		rec := models.Inscripcion{Fecha: c.Fecha, Comida: c.Comida, Iniciales: user, Opcion: code}
		if err := r.remote.SaveInscripcion(ctx, rec); err != nil {
			slog.Warn("remote save failed", "iniciales", user, "fecha", c.Fecha, "comida", c.Comida, "error", err)
			res.Errors = append(res.Errors, models.CellError{Fecha: c.Fecha, Comida: c.Comida, Message: err.Error()})
			continue
		}
		original.Set(c.Fecha, c.Comida, code)
		res.Synced++
	}

	res.Message = MsgSaved
	if len(res.Errors) > 0 {
		res.Message = MsgSavedErrors
	}
	slog.Info("selection saved", "iniciales", user, "saved", res.Saved, "synced", res.Synced, "errors", len(res.Errors))
	return res, nil
}

// SaveOne writes one record locally and then to the sheet, holding the
// same lock as Save. An empty Opcion clears the cell. A sheet failure is
// reported in the response, not as an error.
func (r *Reconciler) SaveOne(ctx context.Context, rec models.Inscripcion) (models.SaveResponse, error) {
	rec.Iniciales = strings.ToUpper(strings.TrimSpace(rec.Iniciales))
	if rec.Iniciales == "" {
		return models.SaveResponse{}, fmt.Errorf("%w: iniciales is required", ErrInvalidSelection)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Opcion == "" {
		if _, err := r.local.Unset(ctx, rec.Fecha, rec.Comida, rec.Iniciales); err != nil {
			return models.SaveResponse{}, err
		}
	} else if err := r.local.SaveMany(ctx, []models.Inscripcion{rec}); err != nil {
		return models.SaveResponse{}, err
	}

	res := models.SaveResponse{Saved: 1}
	if r.remote == nil || !r.remote.Configured() {
		res.Local = true
		res.Message = MsgLocalOnly
		return res, nil
	}

	if err := r.remote.SaveInscripcion(ctx, rec); err != nil {
		slog.Warn("remote save failed", "iniciales", rec.Iniciales, "fecha", rec.Fecha, "comida", rec.Comida, "error", err)
		res.Message = MsgSavedErrors
		res.Errors = []models.CellError{{Fecha: rec.Fecha, Comida: rec.Comida, Message: err.Error()}}
		return res, nil
	}
	res.Synced = 1
	res.Message = MsgSaved
	return res, nil
}

func (r *Reconciler) saveLocal(ctx context.Context, user string, selection, original models.Selection) (int, error) {
	var (
		recs    []models.Inscripcion
		cleared []models.Cell
	)
	for _, date := range selection.Dates() {
		for meal, code := range selection[date] {
			switch {
			case code != "":
				recs = append(recs, models.Inscripcion{Fecha: date, Comida: meal, Iniciales: user, Opcion: code})
			case original.Get(date, meal) != "":
				cleared = append(cleared, models.Cell{Fecha: date, Comida: meal})
			}
		}
	}

	if err := r.local.SaveMany(ctx, recs); err != nil {
		return 0, err
	}
	for _, c := range cleared {
		if _, err := r.local.Unset(ctx, c.Fecha, c.Comida, user); err != nil {
			return len(recs), err
		}
	}
	return len(recs) + len(cleared), nil
}

// Snapshot returns the user's current state for days: the sheet's column
// when the remote is configured and readable, otherwise the local store.
// source is "remote" or "local".
func (r *Reconciler) Snapshot(ctx context.Context, user string, days []string) (sel models.Selection, source string) {
	if r.remote != nil && r.remote.Configured() {
		sel, err := r.remote.UserSelection(ctx, user, days)
		if err == nil {
			return sel, SourceRemote
		}
		slog.Warn("remote selection unavailable, using local store", "iniciales", user, "error", err)
	}
	return r.local.UserSelection(user, days), SourceLocal
}

// Snapshot sources
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)
