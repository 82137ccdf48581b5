// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/sheets"
)

type ConfigHandler struct {
	cfg    cliparse.Config
	sheets *sheets.Client
}

func NewConfigHandler(cfg cliparse.Config, sh *sheets.Client) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, sheets: sh}
}

// Status handles GET /config/status, the data behind the
// "not configured" banner.
func (h *ConfigHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.ConfigStatusResponse{
		Configured: h.sheets.Configured(),
		Transport:  h.sheets.TransportName(),
		Missing:    h.cfg.MissingSheetSettings(),
		SheetName:  h.cfg.SheetName,
	})
}

// TestConnection handles POST /config/test-connection
func (h *ConfigHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	res, err := h.sheets.TestConnection(r.Context())
	if err != nil {
		middleware.JSONResponse(w, statusFor(err), res)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
