// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/reconcile"
	"github.com/gastongadea/limos-arboleda/sheets"
	"github.com/gastongadea/limos-arboleda/store"
	"github.com/gastongadea/limos-arboleda/transport"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		readErr   *sheets.ReadError
		scriptErr *transport.ScriptError
		statusErr *transport.StatusError
	)
	switch {
	case errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, reconcile.ErrInvalidSelection),
		errors.Is(err, dates.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, sheets.ErrUserNotFound), errors.Is(err, store.ErrBackupNotFound):
		return http.StatusNotFound
	case errors.Is(err, sheets.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &readErr), errors.As(err, &scriptErr), errors.As(err, &statusErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures and writes the mapped status
func writeError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	}
	middleware.ErrorResponse(w, status, err.Error())
}
