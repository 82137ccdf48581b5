// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/transport"
)

// DefaultTTL is how long a fetched grid is reused
const DefaultTTL = 10 * time.Minute

const gridKey = "grid"

var (
	ErrNotConfigured = errors.New("google sheets not configured")
	ErrUserNotFound  = errors.New("user column not found")
)

// Options configures a Client
type Options struct {
	SheetID   string
	SheetName string
	Reader    Reader
	Writer    transport.Transport
	TTL       time.Duration
	// Missing names absent settings; a non-empty list disables every call
	Missing []string
}

// Client is the remote sheet service: cached reads, cell lookup, and
// single-cell writes through the configured transport.
type Client struct {
	sheetID   string
	sheetName string
	reader    Reader
	writer    transport.Transport
	missing   []string

	cache *cache.Cache
	group singleflight.Group
}

func NewClient(opts Options) *Client {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	missing := opts.Missing
	if opts.Reader == nil || opts.Writer == nil {
		missing = append(missing, "reader/writer")
	}
	return &Client{
		sheetID:   opts.SheetID,
		sheetName: opts.SheetName,
		reader:    opts.Reader,
		writer:    opts.Writer,
		missing:   missing,
		cache:     cache.New(ttl, 2*ttl),
	}
}

// FromConfig wires the reader and writer selected by cfg. With missing
// settings it still returns a Client, one that answers ErrNotConfigured.
func FromConfig(ctx context.Context, cfg cliparse.Config, httpClient *http.Client) (*Client, error) {
	missing := cfg.MissingSheetSettings()
	if len(missing) > 0 {
		slog.Warn("google sheets not configured, running in local-only mode", "missing", strings.Join(missing, ","))
		return &Client{missing: missing, cache: cache.New(DefaultTTL, 2*DefaultTTL)}, nil
	}

	writer, err := transport.FromConfig(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	var reader Reader
	if cfg.Transport == cliparse.TransportServerless {
		reader = writer.(*transport.Serverless)
	} else {
		// option.WithHTTPClient would drop the API key, so the reader keeps
		// the library's own client
		reader, err = NewAPIReader(ctx, cfg.SheetsAPIKey, cfg.SheetID, cfg.SheetName)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("google sheets configured", "transport", writer.Name(), "sheet", cfg.SheetName)
	return NewClient(Options{
		SheetID:   cfg.SheetID,
		SheetName: cfg.SheetName,
		Reader:    reader,
		Writer:    writer,
	}), nil
}

// Configured reports whether remote calls can be made
func (c *Client) Configured() bool {
	return len(c.missing) == 0
}

// TransportName names the write transport, "none" when unconfigured
func (c *Client) TransportName() string {
	if c.writer == nil {
		return "none"
	}
	return c.writer.Name()
}

func (c *Client) checkConfigured() error {
	if !c.Configured() {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(c.missing, ", "))
	}
	return nil
}

// GetSheetData returns the cached grid, fetching it when forceRefresh is
// set or the TTL expired. Concurrent misses share one read. The grid is
// shared; callers must not modify it.
func (c *Client) GetSheetData(ctx context.Context, forceRefresh bool) (Grid, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	if !forceRefresh {
		if cached, ok := c.cache.Get(gridKey); ok {
			return cached.(Grid), nil
		}
	}

	v, err, _ := c.group.Do(gridKey, func() (interface{}, error) {
		values, err := c.reader.ReadValues(ctx)
		if err != nil {
			return nil, err
		}
		grid := Grid(values)
		c.cache.Set(gridKey, grid, cache.DefaultExpiration)
		slog.Debug("sheet grid fetched", "rows", len(grid))
		return grid, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Grid), nil
}

// InvalidateCache drops the cached grid
func (c *Client) InvalidateCache() {
	c.cache.Delete(gridKey)
}

// CreateRowForDate appends a (date, meal) row with blank user cells.
// Nothing guards against two clients creating the same row at once.
func (c *Client) CreateRowForDate(ctx context.Context, date, meal string) error {
	grid, err := c.GetSheetData(ctx, false)
	if err != nil {
		return err
	}

	width := FirstUserCol
	if len(grid) > 0 {
		width = len(grid[0])
	}
	row, err := NewRow(date, meal, width)
	if err != nil {
		return err
	}

	_, err = c.writer.Call(ctx, models.ScriptRequest{
		Action:  models.ActionCreateRow,
		SheetID: c.sheetID,
		Data:    models.ScriptData{RowData: row, SheetName: c.sheetName},
	})
	c.InvalidateCache()
	if err != nil {
		return fmt.Errorf("failed to create row for %s %s: %w", date, meal, err)
	}

	slog.Info("sheet row created", "fecha", date, "comida", meal)
	return nil
}

// SaveInscripcion writes rec.Opcion into the (date, meal) row and the
// user's column, creating the row when missing. An empty Opcion clears
// the cell.
func (c *Client) SaveInscripcion(ctx context.Context, rec models.Inscripcion) error {
	grid, err := c.GetSheetData(ctx, false)
	if err != nil {
		return err
	}

	match, ok := FindRowByDateAndType(grid, rec.Fecha, rec.Comida)
	if !ok {
		if err := c.CreateRowForDate(ctx, rec.Fecha, rec.Comida); err != nil {
			return err
		}
		grid, err = c.GetSheetData(ctx, true)
		if err != nil {
			return err
		}
		match, ok = FindRowByDateAndType(grid, rec.Fecha, rec.Comida)
		if !ok {
			return fmt.Errorf("row for %s %s missing after creation", rec.Fecha, rec.Comida)
		}
	}

	col := FindUserColumn(grid, rec.Iniciales)
	if col < 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, rec.Iniciales)
	}

	addr := CellAddress(col, match.Index)
	value := rec.Opcion
	_, err = c.writer.Call(ctx, models.ScriptRequest{
		Action:  models.ActionUpdateCell,
		SheetID: c.sheetID,
		Data:    models.ScriptData{Range: addr, Value: &value, SheetName: c.sheetName},
	})
	c.InvalidateCache()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", addr, err)
	}

	slog.Info("sheet cell updated", "cell", addr, "fecha", rec.Fecha, "comida", rec.Comida, "iniciales", rec.Iniciales)
	return nil
}

// UserSelection reads one user's column for the given dates. Days without
// a row come back unset.
func (c *Client) UserSelection(ctx context.Context, initials string, days []string) (models.Selection, error) {
	grid, err := c.GetSheetData(ctx, false)
	if err != nil {
		return nil, err
	}

	col := FindUserColumn(grid, initials)
	if col < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, initials)
	}

	sel := make(models.Selection, len(days))
	for _, d := range days {
		for _, meal := range models.Meals {
			code := ""
			if match, ok := FindRowByDateAndType(grid, d, meal); ok {
				code = strings.ToUpper(grid.Cell(match.Index, col))
			}
			sel.Set(d, meal, code)
		}
	}
	return sel, nil
}

// Users lists the initials in the sheet header
func (c *Client) Users(ctx context.Context) ([]string, error) {
	grid, err := c.GetSheetData(ctx, false)
	if err != nil {
		return nil, err
	}
	return Users(grid), nil
}

// Values returns a fresh copy of the grid for callers that relay it
func (c *Client) Values(ctx context.Context, forceRefresh bool) ([][]string, error) {
	grid, err := c.GetSheetData(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// Write forwards an arbitrary script request, filling in the sheet id
func (c *Client) Write(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if req.SheetID == "" {
		req.SheetID = c.sheetID
	}
	resp, err := c.writer.Call(ctx, req)
	if req.Action != models.ActionTestConnection {
		c.InvalidateCache()
	}
	return resp, err
}

// TestConnection checks both the read API and the write endpoint
func (c *Client) TestConnection(ctx context.Context) (models.ConnectionResponse, error) {
	var out models.ConnectionResponse

	grid, err := c.GetSheetData(ctx, true)
	if err != nil {
		out.Message = err.Error()
		return out, err
	}
	out.Read = true
	out.Rows = len(grid)
	out.Users = len(Users(grid))

	if _, err := c.writer.Call(ctx, models.ScriptRequest{
		Action:  models.ActionTestConnection,
		SheetID: c.sheetID,
	}); err != nil {
		out.Message = err.Error()
		return out, err
	}
	out.Write = true
	out.Message = "Conexión exitosa"
	return out, nil
}
