// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/handlers"
	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/reconcile"
	"github.com/gastongadea/limos-arboleda/sheets"
	"github.com/gastongadea/limos-arboleda/store"
)

func NewRouter(st *store.Store, sh *sheets.Client, sessions *reconcile.Sessions, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	reservationHandler := handlers.NewReservationHandler(st, sessions.Reconciler(), cfg)
	statsHandler := handlers.NewStatsHandler(st)
	sessionHandler := handlers.NewSessionHandler(sessions)
	configHandler := handlers.NewConfigHandler(cfg, sh)
	serverlessHandler := handlers.NewServerlessHandler(sh)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKeySalt, h))
	}

	registerHealth(mux)

	// Configuration banner
	mux.HandleFunc("GET /config/status", middleware.WithLogging(configHandler.Status))
	mux.HandleFunc("POST /config/test-connection", middleware.WithLogging(configHandler.TestConnection))

	// Reservations
	mux.HandleFunc("GET /inscripciones", middleware.WithLogging(reservationHandler.List))
	mux.HandleFunc("POST /inscripciones", middleware.WithLogging(reservationHandler.Save))
	mux.HandleFunc("GET /inscripciones/today", middleware.WithLogging(reservationHandler.Today))
	mux.HandleFunc("DELETE /inscripciones", admin(reservationHandler.ClearAll))

	// Statistics, export/import and backups
	mux.HandleFunc("GET /stats", middleware.WithLogging(statsHandler.Stats))
	mux.HandleFunc("GET /export", middleware.WithLogging(statsHandler.Export))
	mux.HandleFunc("POST /import", admin(statsHandler.Import))
	mux.HandleFunc("POST /backup", middleware.WithLogging(statsHandler.Backup))
	mux.HandleFunc("GET /backups", middleware.WithLogging(statsHandler.ListBackups))
	mux.HandleFunc("POST /backups/{key}/restore", admin(statsHandler.RestoreBackup))

	// Per-user selection sessions
	mux.HandleFunc("GET /users/{iniciales}/selection", middleware.WithLogging(sessionHandler.GetSelection))
	mux.HandleFunc("POST /users/{iniciales}/selection/toggle", middleware.WithLogging(sessionHandler.Toggle))
	mux.HandleFunc("POST /users/{iniciales}/selection/save", middleware.WithLogging(sessionHandler.Save))

	// Proxies
	registerProxy(mux, cfg)
	mux.HandleFunc("POST /api/sheets", middleware.WithLogging(serverlessHandler.Handle))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("comidas API v1"))
	})

	return mux
}

// NewProxyRouter serves only the local development proxy
func NewProxyRouter(cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealth(mux)
	registerProxy(mux, cfg)
	return mux
}

func registerHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func registerProxy(mux *http.ServeMux, cfg cliparse.Config) {
	proxyHandler := handlers.NewProxyHandler(nil, cfg)
	mux.HandleFunc("POST /proxy/google-apps-script", middleware.WithLogging(proxyHandler.Relay))
	mux.HandleFunc("GET /proxy/test", middleware.WithLogging(proxyHandler.Test))
}
