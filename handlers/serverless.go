// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/sheets"
	"github.com/gastongadea/limos-arboleda/transport"
)

// ServerlessHandler is the credential-holding proxy: clients send
// read/write/testConnection without knowing the API key or script URL.
type ServerlessHandler struct {
	sheets *sheets.Client
}

func NewServerlessHandler(sh *sheets.Client) *ServerlessHandler {
	return &ServerlessHandler{sheets: sh}
}

// Handle handles POST /api/sheets
func (h *ServerlessHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.ServerlessRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !h.sheets.Configured() {
		writeError(w, sheets.ErrNotConfigured, "serverless proxy not configured")
		return
	}

	switch req.Action {
	case models.ServerlessRead:
		values, err := h.sheets.Values(r.Context(), false)
		if err != nil {
			writeError(w, err, "serverless read failed")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.GridResponse{Values: values})

	case models.ServerlessWrite, models.ServerlessTestConnection:
		var data models.ScriptRequest
		if req.Data != nil {
			data = *req.Data
		}
		if req.Action == models.ServerlessTestConnection {
			data.Action = models.ActionTestConnection
		}
		if data.Action == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "data.action is required")
			return
		}
		h.write(w, r, data)

	default:
		middleware.JSONResponse(w, http.StatusBadRequest, models.ScriptResponse{Error: "Acción no válida: " + req.Action})
	}
}

// write relays logical script failures as {success:false} with 200 so the
// caller sees the script's own message.
func (h *ServerlessHandler) write(w http.ResponseWriter, r *http.Request, data models.ScriptRequest) {
	resp, err := h.sheets.Write(r.Context(), data)
	if err != nil {
		var se *transport.ScriptError
		if errors.As(err, &se) {
			middleware.JSONResponse(w, http.StatusOK, models.ScriptResponse{Error: se.Message, Details: se.Details})
			return
		}
		slog.Warn("serverless write failed", "action", data.Action, "error", err)
		writeError(w, err, "serverless write failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
