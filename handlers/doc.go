// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Comidas API.

# Handler Types

Each handler is a struct holding its dependencies:

  - ReservationHandler: list, save and clear inscripciones, today's list
  - SessionHandler: per-user selection grid with toggle and save
  - StatsHandler: statistics, export, import and backups
  - ConfigHandler: sheet configuration status and connection test
  - ProxyHandler: local development relay to the Apps Script endpoint
  - ServerlessHandler: read/write proxy used by the serverless transport

Handlers are created via constructor functions:

	reservations := handlers.NewReservationHandler(st, rec, cfg)

# Saving

A single save goes through Reconciler.SaveOne, so it is serialized with
selection saves: the local store first, then the sheet. A sheet failure
does not undo the local write; it is reported in the response:

	POST /inscripciones → Save (201, SaveResponse)

Selection saves go through reconcile.Sessions, which pushes only the
cells that changed since the last load:

	GET  /users/{iniciales}/selection        → GetSelection
	POST /users/{iniciales}/selection/toggle → Toggle
	POST /users/{iniciales}/selection/save   → Save

# Errors

Domain errors map to status codes in statusFor: invalid input is 400,
a missing user column or backup is 404, an unconfigured sheet is 503 and
remote failures are 502 (504 on timeout).

Destructive operations (clear, import, restore) require the X-Admin-Key
header; the router wraps them with middleware.RequireAdmin.
*/
package handlers
