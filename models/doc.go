// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Inscripcion: one user's option for one date and meal
  - Envelope: the persisted collection plus metadata and version
  - ExportFile: an Envelope with export date and version
  - Selection: date -> meal -> option code for one user
  - Cell: one (date, meal) field of a Selection

# Request Types

  - SaveInscripcionRequest: fecha, comida, iniciales, opcion
  - ToggleRequest: fecha, comida, opcion
  - ProxyRequest: url, data (ScriptRequest)
  - ServerlessRequest: action (read, write, testConnection), data

# Wire Types

ScriptRequest and ScriptResponse are the Apps Script payloads:

	{"action": "updateCell", "sheetId": "...", "data": {"range": "D12", "value": "S"}}
	{"success": true, "data": ...} or {"error": "...", "details": "..."}

# Response Types

  - SaveResponse: message, saved, synced, per-cell errors, local_only
  - SelectionResponse: a user's grid with pending cells and its source
  - TodayResponse: one day's list per meal with counts and diners
  - Stats, GridResponse, ConfigStatusResponse, ConnectionResponse
  - ImportResponse, BackupResponse, ErrorResponse

# Constants

Meals:

	MealAlmuerzo = "Almuerzo"
	MealCena     = "Cena"

Option codes:

	S  Sí
	N  No
	V  Vianda
	T  Tarde
	R  Régimen
	RT Régimen tarde
*/
package models
