// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/reconcile"
	"github.com/gastongadea/limos-arboleda/router"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		sessions := reconcile.NewSessions(
			reconcile.New(a.store, a.sheets),
			reconcile.WithSaveHook(func(iniciales string, res models.SaveResponse, err error) {
				if err != nil {
					slog.Error("auto-save failed", "iniciales", iniciales, "error", err)
					return
				}
				slog.Info("auto-save", "iniciales", iniciales, "saved", res.Saved, "synced", res.Synced, "errors", len(res.Errors))
			}),
		)

		mux := router.NewRouter(a.store, a.sheets, sessions, a.cfg)
		err := listen(ctx, a.cfg.Port, mux)

		// Pending selections are written before exit
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sessions.FlushAll(flushCtx)
		return err
	}),
}

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run only the local Apps Script proxy (use -p 3001 for the default proxy URL)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cfg.ScriptURL == "" {
			slog.Warn("no Apps Script URL configured; requests must name one")
		}
		return listen(cmd.Context(), cfg.Port, router.NewProxyRouter(cfg))
	},
}

// listen serves mux with CORS until SIGINT/SIGTERM, then shuts down
// gracefully.
func listen(ctx context.Context, port int, mux *http.ServeMux) error {
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}()

	slog.Info("Listening", "port", port)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed")
	return nil
}
