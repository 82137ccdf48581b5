// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/reconcile"
)

// maxDays bounds the selection window a client can ask for
const maxDays = 62

// SessionHandler exposes per-user selection sessions
type SessionHandler struct {
	sessions *reconcile.Sessions
}

func NewSessionHandler(sessions *reconcile.Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func initials(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.PathValue("iniciales")))
}

// GetSelection handles GET /users/{iniciales}/selection?desde=&dias=.
// It (re)loads the session, saving pending changes first.
func (h *SessionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	user := initials(r)
	if user == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "iniciales is required")
		return
	}

	count := 0
	if raw := r.URL.Query().Get("dias"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxDays {
			middleware.ErrorResponse(w, http.StatusBadRequest, "dias must be between 1 and "+strconv.Itoa(maxDays))
			return
		}
		count = n
	}

	days, err := h.sessions.Window(r.URL.Query().Get("desde"), count)
	if err != nil {
		writeError(w, err, "invalid window")
		return
	}

	sess, err := h.sessions.Open(r.Context(), user, days)
	if err != nil {
		writeError(w, err, "failed to load selection")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess.View())
}

// Toggle handles POST /users/{iniciales}/selection/toggle. The change is
// auto-saved after a quiet period.
func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user := initials(r)
	if user == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "iniciales is required")
		return
	}
	var req models.ToggleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.sessions.Get(r.Context(), user)
	if err != nil {
		writeError(w, err, "failed to load selection")
		return
	}
	if _, err := sess.Toggle(req.Fecha, req.Comida, req.Opcion); err != nil {
		writeError(w, err, "toggle failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess.View())
}

// Save handles POST /users/{iniciales}/selection/save
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := initials(r)
	if user == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "iniciales is required")
		return
	}
	sess, err := h.sessions.Get(r.Context(), user)
	if err != nil {
		writeError(w, err, "failed to load selection")
		return
	}

	res, err := sess.Flush(r.Context())
	if err != nil {
		writeError(w, err, "save failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
