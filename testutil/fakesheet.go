// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// ScriptPath is where FakeSheet serves the Apps Script endpoint
const ScriptPath = "/macros/s/fake/exec"

// FakeSheet serves both the Sheets values API (GET /v4/...) and an Apps
// Script endpoint over one in-memory grid.
type FakeSheet struct {
	Server *httptest.Server

	mu        sync.Mutex
	grid      [][]string
	reads     int
	requests  []models.ScriptRequest
	failCells map[string]string
	readCode  int
	delay     time.Duration
}

// NewFakeSheet starts a fake with the given grid; it is closed with t
func NewFakeSheet(t *testing.T, grid [][]string) *FakeSheet {
	t.Helper()

	f := &FakeSheet{grid: copyGrid(grid), failCells: map[string]string{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// DefaultGrid has users MEP, JLG, ABC and rows for 10/1/25 and 11/1/25
func DefaultGrid() [][]string {
	return [][]string{
		{"", "Fecha", "Comida", "MEP", "JLG", "ABC"},
		{"Viernes", "10/1/25", "A", "", "S", ""},
		{"Viernes", "10/1/25", "C", "N", "", ""},
		{"Sábado", "11/01/2025", "A", "", "", ""},
		{"Sábado", "11/01/2025", "C", "", "", "T"},
	}
}

// APIEndpoint is the base URL for option.WithEndpoint
func (f *FakeSheet) APIEndpoint() string { return f.Server.URL + "/" }

// ScriptURL is the Apps Script URL
func (f *FakeSheet) ScriptURL() string { return f.Server.URL + ScriptPath }

// Grid returns a copy of the current grid
func (f *FakeSheet) Grid() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyGrid(f.grid)
}

// Reads counts API reads
func (f *FakeSheet) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Requests returns every script request received
func (f *FakeSheet) Requests() []models.ScriptRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ScriptRequest(nil), f.requests...)
}

// Updates returns only the updateCell requests
func (f *FakeSheet) Updates() []models.ScriptRequest {
	var out []models.ScriptRequest
	for _, r := range f.Requests() {
		if r.Action == models.ActionUpdateCell {
			out = append(out, r)
		}
	}
	return out
}

// FailCell makes updates of an A1 range answer with a script error
func (f *FakeSheet) FailCell(addr, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCells[addr] = message
}

// FailReads makes API reads answer with status code (0 restores)
func (f *FakeSheet) FailReads(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCode = code
}

// SetDelay slows every script reply
func (f *FakeSheet) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *FakeSheet) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		f.serveValues(w, r)
	case r.URL.Path == ScriptPath:
		f.serveScript(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeSheet) serveValues(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.reads++
	code := f.readCode
	grid := copyGrid(f.grid)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if code != 0 {
		w.WriteHeader(code)
		w.Write([]byte(`{"error":{"code":` + strconv.Itoa(code) + `,"message":"API key not valid"}}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"range":          "Inscripciones!A1:ZZ",
		"majorDimension": "ROWS",
		"values":         grid,
	})
}

func (f *FakeSheet) serveScript(w http.ResponseWriter, r *http.Request) {
	var req models.ScriptRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Action = q.Get("action")
		req.SheetID = q.Get("sheetId")
		json.Unmarshal([]byte(q.Get("data")), &req.Data)
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScript(w, models.ScriptResponse{Error: "JSON inválido", Details: err.Error()})
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	switch req.Action {
	case models.ActionUpdateCell:
		writeScript(w, f.updateCell(req.Data))
	case models.ActionCreateRow:
		f.mu.Lock()
		f.grid = append(f.grid, append([]string(nil), req.Data.RowData...))
		f.mu.Unlock()
		writeScript(w, models.ScriptResponse{Success: true})
	case models.ActionTestConnection:
		writeScript(w, models.ScriptResponse{Success: true, Data: "ok"})
	default:
		writeScript(w, models.ScriptResponse{Error: "Acción no reconocida: " + req.Action})
	}
}

func (f *FakeSheet) updateCell(data models.ScriptData) models.ScriptResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.failCells[data.Range]; ok {
		return models.ScriptResponse{Error: msg}
	}
	col, row, ok := parseA1(data.Range)
	if !ok || data.Value == nil {
		return models.ScriptResponse{Error: "rango inválido: " + data.Range}
	}
	for len(f.grid) <= row {
		f.grid = append(f.grid, []string{})
	}
	for len(f.grid[row]) <= col {
		f.grid[row] = append(f.grid[row], "")
	}
	f.grid[row][col] = *data.Value
	return models.ScriptResponse{Success: true, Data: data.Range}
}

// parseA1 turns "D12" into 0-based (3, 11)
func parseA1(addr string) (col, row int, ok bool) {
	i := 0
	for i < len(addr) && addr[i] >= 'A' && addr[i] <= 'Z' {
		col = col*26 + int(addr[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(addr) {
		return 0, 0, false
	}
	n, err := strconv.Atoi(addr[i:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return col - 1, n - 1, true
}

func writeScript(w http.ResponseWriter, resp models.ScriptResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func copyGrid(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
