// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the comidas command: the meal sign-up API for
Arboleda and the tools around it.

Residents mark, per date and meal (Almuerzo, Cena), one option code.
Choices are kept in a local store and mirrored into a shared Google
Sheet, one column per user and one row per (date, meal).

# Starting the Server

Configuration comes from flags, the environment, a .env file or the
<meta> tags of the static page:

	GOOGLE_SHEETS_API_KEY=... GOOGLE_SHEETS_ID=... comidas serve

Or with flags:

	comidas serve -p 3000 -d comidas.db --sheet-id ... --script-url ...

Without sheet settings everything still works against the local store.

# Commands

  - serve: JSON API with per-user selection sessions
  - proxy: the local Apps Script relay only
  - set, unset, list, today, stats: work with inscripciones
  - export, import, backup, backups, restore, clear: data management
  - test-connection: check sheet read and write access
  - admin-key: print the X-Admin-Key for destructive API calls

# Configuration

  - DATABASE_URL (-d), DATABASE_TYPE (-t): sqlite file or postgres URL
  - ADMIN_KEY_SALT (--admin-salt): secret for the admin key HMAC
  - GOOGLE_SHEETS_API_KEY, GOOGLE_SHEETS_ID, GOOGLE_SHEETS_NAME
  - GOOGLE_APPS_SCRIPT_URL (--script-url)
  - SHEETS_TRANSPORT: direct, direct-get, proxy, serverless or auto
  - USER_TYPES: initials to user type, e.g. MEP:sacerdote

# Architecture

  - handlers: HTTP request handlers
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, admin key, JSON helpers
  - reconcile: selection diffing, saving and debounced sessions
  - sheets: cached sheet reads, row and column lookup, cell writes
  - transport: Apps Script write paths (direct, proxy, serverless)
  - store: versioned local store with backups, import and export
  - report: today's list and xlsx export
  - dates, models, auth, db, cliparse: supporting packages
*/
package main
