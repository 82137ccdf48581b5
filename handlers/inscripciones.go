// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/reconcile"
	"github.com/gastongadea/limos-arboleda/report"
	"github.com/gastongadea/limos-arboleda/store"
)

type ReservationHandler struct {
	store *store.Store
	rec   *reconcile.Reconciler
	cfg   cliparse.Config
	loc   *time.Location
}

func NewReservationHandler(st *store.Store, rec *reconcile.Reconciler, cfg cliparse.Config) *ReservationHandler {
	return &ReservationHandler{store: st, rec: rec, cfg: cfg, loc: time.Local}
}

// List handles GET /inscripciones?fecha=&iniciales=&comida=&desde=&hasta=
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fecha := q.Get("fecha")
	desde, hasta := q.Get("desde"), q.Get("hasta")

	for _, d := range []string{fecha, desde, hasta} {
		if d != "" && !dates.IsISO(d) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	var recs []models.Inscripcion
	switch {
	case q.Get("iniciales") != "":
		recs = h.store.GetByUser(q.Get("iniciales"))
	case fecha != "":
		recs = h.store.GetByDate(fecha)
	case desde != "" || hasta != "":
		if hasta == "" {
			hasta = "9999-12-31"
		}
		recs = h.store.GetByDateRange(desde, hasta)
	default:
		recs = h.store.GetAll()
	}

	comida := models.NormalizeMeal(q.Get("comida"))
	out := make([]models.Inscripcion, 0, len(recs))
	for _, rec := range recs {
		if fecha != "" && rec.Fecha != fecha {
			continue
		}
		if desde != "" && rec.Fecha < desde {
			continue
		}
		if hasta != "" && rec.Fecha > hasta {
			continue
		}
		if comida != "" && rec.Comida != comida {
			continue
		}
		out = append(out, rec)
	}
	report.SortRecords(out)

	middleware.JSONResponse(w, http.StatusOK, out)
}

// Save handles POST /inscripciones. The record is stored locally and then
// written to the sheet when it is configured; a remote failure is
// reported but keeps the local record.
func (h *ReservationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveInscripcionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	rec := models.Inscripcion{
		Fecha:     req.Fecha,
		Comida:    req.Comida,
		Iniciales: req.Iniciales,
		Opcion:    req.Opcion,
	}
	if err := store.Validate(&rec); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.rec.SaveOne(r.Context(), rec)
	if err != nil {
		writeError(w, err, "failed to save inscripcion")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// Today handles GET /inscripciones/today?fecha=
func (h *ReservationHandler) Today(w http.ResponseWriter, r *http.Request) {
	fecha := r.URL.Query().Get("fecha")
	if fecha == "" {
		fecha = dates.Today(h.loc)
	}

	resp, err := report.Today(h.store.GetByDate(fecha), fecha)
	if err != nil {
		writeError(w, err, "failed to build today's list")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ClearAll handles DELETE /inscripciones (admin)
func (h *ReservationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	key, err := h.store.ClearAll(r.Context())
	if err != nil {
		writeError(w, err, "failed to clear inscripciones")
		return
	}

	slog.Info("inscripciones cleared", "backup", key)
	middleware.JSONResponse(w, http.StatusOK, models.BackupResponse{Key: key})
}
