// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"sort"
	"strings"
	"time"
)

// Meal type constants
const (
	MealAlmuerzo = "Almuerzo"
	MealCena     = "Cena"
)

// Meals lists meal types in display order
var Meals = []string{MealAlmuerzo, MealCena}

// Option codes
const (
	OptionSi           = "S"
	OptionNo           = "N"
	OptionVianda       = "V"
	OptionTarde        = "T"
	OptionRegimen      = "R"
	OptionRegimenTarde = "RT"
)

// OptionLabels maps every known option code to its display label
var OptionLabels = map[string]string{
	OptionSi:           "Sí",
	OptionNo:           "No",
	OptionVianda:       "Vianda",
	OptionTarde:        "Tarde",
	OptionRegimen:      "Régimen",
	OptionRegimenTarde: "Régimen tarde",
}

// User type constants
const (
	UserTypeResidente = "residente"
)

// IsValidMeal reports whether meal is Almuerzo or Cena
func IsValidMeal(meal string) bool {
	return meal == MealAlmuerzo || meal == MealCena
}

// IsKnownOption reports whether code is one of the option codes above
func IsKnownOption(code string) bool {
	_, ok := OptionLabels[code]
	return ok
}

// MealCode returns the one-letter code used in the sheet's Comida column
func MealCode(meal string) string {
	if meal == "" {
		return ""
	}
	return strings.ToUpper(meal[:1])
}

// NormalizeMeal maps loose spellings ("almuerzo", "A", "CENA") to a meal
// constant. It returns "" when nothing matches.
func NormalizeMeal(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "ALMUERZO":
		return MealAlmuerzo
	case "C", "CENA":
		return MealCena
	}
	return ""
}

// Domain types

// Inscripcion is one user's meal choice for one date and meal type.
// JSON names match the files exported by the browser app.
type Inscripcion struct {
	ID          string    `json:"id"`
	Fecha       string    `json:"fecha"`
	Comida      string    `json:"comida"`
	Iniciales   string    `json:"iniciales"`
	Opcion      string    `json:"opcion"`
	TipoUsuario string    `json:"tipoUsuario"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key returns the natural key (fecha, comida, iniciales)
func (i Inscripcion) Key() string {
	return i.Fecha + "|" + i.Comida + "|" + strings.ToUpper(i.Iniciales)
}

// Metadata is kept alongside the stored records
type Metadata struct {
	TotalInscripciones int        `json:"totalInscripciones"`
	LastBackup         *time.Time `json:"lastBackup,omitempty"`
	Created            time.Time  `json:"created"`
	ImportedFrom       string     `json:"importedFrom,omitempty"`
}

// Envelope is the single value persisted by the local store
type Envelope struct {
	Inscripciones []Inscripcion `json:"inscripciones"`
	LastUpdate    time.Time     `json:"lastUpdate"`
	Version       int           `json:"version"`
	Metadata      Metadata      `json:"metadata"`
}

// ExportFile is the downloadable form of an Envelope
type ExportFile struct {
	Envelope
	ExportDate    time.Time `json:"exportDate"`
	ExportVersion string    `json:"exportVersion"`
}

// Selection maps ISO date -> meal -> option code for one user.
// An empty code means "unset".
type Selection map[string]map[string]string

// Get returns the code for (date, meal), "" if unset
func (s Selection) Get(date, meal string) string {
	if s == nil {
		return ""
	}
	return s[date][meal]
}

// Set stores code for (date, meal), creating the day entry if needed
func (s Selection) Set(date, meal, code string) {
	day, ok := s[date]
	if !ok {
		day = make(map[string]string, len(Meals))
		s[date] = day
	}
	day[meal] = code
}

// Clone returns a deep copy
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for date, day := range s {
		cp := make(map[string]string, len(day))
		for meal, code := range day {
			cp[meal] = code
		}
		out[date] = cp
	}
	return out
}

// Dates returns the selection's dates in ascending order
func (s Selection) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Cell identifies one (date, meal) field of a selection
type Cell struct {
	Fecha  string `json:"fecha"`
	Comida string `json:"comida"`
}

// Request types

type SaveInscripcionRequest struct {
	Fecha     string `json:"fecha"`
	Comida    string `json:"comida"`
	Iniciales string `json:"iniciales"`
	Opcion    string `json:"opcion"`
}

type ToggleRequest struct {
	Fecha  string `json:"fecha"`
	Comida string `json:"comida"`
	Opcion string `json:"opcion"`
}

// ProxyRequest is the body accepted by the local development proxy
type ProxyRequest struct {
	URL  string        `json:"url"`
	Data ScriptRequest `json:"data"`
}

// ServerlessRequest is the body accepted by the serverless proxy
type ServerlessRequest struct {
	Action string         `json:"action"`
	Data   *ScriptRequest `json:"data,omitempty"`
}

// Serverless proxy actions
const (
	ServerlessRead           = "read"
	ServerlessWrite          = "write"
	ServerlessTestConnection = "testConnection"
)

// Apps Script actions
const (
	ActionUpdateCell     = "updateCell"
	ActionCreateRow      = "createRow"
	ActionTestConnection = "testConnection"
)

// ScriptRequest is the payload understood by the Apps Script endpoint
type ScriptRequest struct {
	Action  string     `json:"action"`
	SheetID string     `json:"sheetId"`
	Data    ScriptData `json:"data"`
}

// ScriptData carries the fields of every Apps Script action; unused
// fields are omitted on the wire.
type ScriptData struct {
	Range     string   `json:"range,omitempty"`
	Value     *string  `json:"value,omitempty"`
	RowData   []string `json:"rowData,omitempty"`
	SheetName string   `json:"sheetName,omitempty"`
}

// ScriptResponse is the Apps Script reply: {success, data} or {error, details}
type ScriptResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
}

// Response types

type SaveResponse struct {
	Message string      `json:"message"`
	Saved   int         `json:"saved"`
	Synced  int         `json:"synced"`
	Errors  []CellError `json:"errors,omitempty"`
	Local   bool        `json:"local_only"`
}

// CellError names a (date, meal) cell whose remote write failed
type CellError struct {
	Fecha   string `json:"fecha"`
	Comida  string `json:"comida"`
	Message string `json:"message"`
}

type SelectionResponse struct {
	Iniciales string    `json:"iniciales"`
	Selection Selection `json:"selection"`
	Pending   []Cell    `json:"pending"`
	Source    string    `json:"source"`
}

type GridResponse struct {
	Values [][]string `json:"values"`
}

type ConfigStatusResponse struct {
	Configured bool     `json:"configured"`
	Transport  string   `json:"transport"`
	Missing    []string `json:"missing,omitempty"`
	SheetName  string   `json:"sheet_name,omitempty"`
}

type ConnectionResponse struct {
	Read    bool   `json:"read"`
	Write   bool   `json:"write"`
	Rows    int    `json:"rows"`
	Users   int    `json:"users"`
	Message string `json:"message,omitempty"`
}

type ImportResponse struct {
	Imported int    `json:"imported"`
	Backup   string `json:"backup"`
}

type BackupResponse struct {
	Key string `json:"key"`
}

// Stats summarizes the local store
type Stats struct {
	Total      int            `json:"total"`
	ByMeal     map[string]int `json:"by_meal"`
	ByOption   map[string]int `json:"by_option"`
	ByUser     map[string]int `json:"by_user"`
	FirstDate  string         `json:"first_date,omitempty"`
	LastDate   string         `json:"last_date,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
	LastBackup *time.Time     `json:"last_backup,omitempty"`
	Version    int            `json:"version"`
}

// TodayEntry is one line of a day's sign-up list
type TodayEntry struct {
	Iniciales   string `json:"iniciales"`
	Opcion      string `json:"opcion"`
	Label       string `json:"label"`
	TipoUsuario string `json:"tipoUsuario"`
}

// TodayResponse lists one day's sign-ups per meal plus option counts
type TodayResponse struct {
	Fecha  string                    `json:"fecha"`
	Dia    string                    `json:"dia"`
	Meals  map[string][]TodayEntry   `json:"meals"`
	Counts map[string]map[string]int `json:"counts"`
	Diners map[string]int            `json:"diners"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
