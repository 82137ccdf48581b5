// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gastongadea/limos-arboleda/auth"
	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/transport"
)

// scriptHosts are the hosts an Apps Script deployment is served from
var scriptHosts = []string{"script.google.com", "script.googleusercontent.com"}

// ProxyHandler is the local development proxy: it forwards a script
// request to the Apps Script URL and relays status and body unchanged.
type ProxyHandler struct {
	client *http.Client
	cfg    cliparse.Config
}

func NewProxyHandler(client *http.Client, cfg cliparse.Config) *ProxyHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProxyHandler{client: client, cfg: cfg}
}

// allowed accepts the configured script URL or an https Apps Script host
func (h *ProxyHandler) allowed(target string) bool {
	if target == "" {
		return false
	}
	if h.cfg.ScriptURL != "" && target == h.cfg.ScriptURL {
		return true
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "https" {
		return false
	}
	for _, host := range scriptHosts {
		if strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return false
}

// Relay handles POST /proxy/google-apps-script
func (h *ProxyHandler) Relay(w http.ResponseWriter, r *http.Request) {
	var req models.ProxyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.URL == "" {
		req.URL = h.cfg.ScriptURL
	}
	if !h.allowed(req.URL) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "url must be the configured Apps Script URL")
		return
	}
	if req.Data.Action == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "data.action is required")
		return
	}

	status, body, err := transport.Forward(r.Context(), h.client, req.URL, req.Data, 0)
	if err != nil {
		slog.Warn("proxy forward failed", "action", req.Data.Action, "client", auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt), "error", err)
		middleware.JSONResponse(w, http.StatusBadGateway, models.ScriptResponse{Error: "Error en el proxy", Details: err.Error()})
		return
	}

	slog.Info("proxy forwarded", "action", req.Data.Action, "status", status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// Test handles GET /proxy/test
func (h *ProxyHandler) Test(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"message":    "Proxy funcionando",
		"script_url": h.cfg.ScriptURL != "",
	})
}
