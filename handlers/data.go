// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gastongadea/limos-arboleda/middleware"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/report"
	"github.com/gastongadea/limos-arboleda/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatsHandler serves statistics, export/import and backups
type StatsHandler struct {
	store *store.Store
}

func NewStatsHandler(st *store.Store) *StatsHandler {
	return &StatsHandler{store: st}
}

// Stats handles GET /stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.store.Stats())
}

// Export handles GET /export?format=json|xlsx
func (h *StatsHandler) Export(w http.ResponseWriter, r *http.Request) {
	var (
		buf         bytes.Buffer
		err         error
		contentType = "application/json"
		filename    = "comidas-export.json"
	)

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		err = h.store.Export(&buf)
	case "xlsx":
		err = report.WriteXLSX(&buf, h.store.GetAll())
		contentType = xlsxContentType
		filename = "comidas-export.xlsx"
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be json or xlsx")
		return
	}
	if err != nil {
		writeError(w, err, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Import handles POST /import?source= (admin). The body is an exported
// JSON file.
func (h *StatsHandler) Import(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	defer r.Body.Close()

	key, n, err := h.store.Import(r.Context(), http.MaxBytesReader(w, r.Body, 16*middleware.MaxBodyBytes), source)
	if err != nil {
		writeError(w, err, "import failed")
		return
	}

	slog.Info("import completed", "source", source, "records", n)
	middleware.JSONResponse(w, http.StatusOK, models.ImportResponse{Imported: n, Backup: key})
}

// Backup handles POST /backup
func (h *StatsHandler) Backup(w http.ResponseWriter, r *http.Request) {
	key, err := h.store.Backup(r.Context())
	if err != nil {
		writeError(w, err, "backup failed")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.BackupResponse{Key: key})
}

// ListBackups handles GET /backups
func (h *StatsHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListBackups(r.Context())
	if err != nil {
		writeError(w, err, "failed to list backups")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	middleware.JSONResponse(w, http.StatusOK, keys)
}

// RestoreBackup handles POST /backups/{key}/restore (admin)
func (h *StatsHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !strings.HasPrefix(key, store.BackupPrefix) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "not a backup key")
		return
	}
	if err := h.store.RestoreBackup(r.Context(), key); err != nil {
		writeError(w, err, "restore failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.BackupResponse{Key: key})
}
