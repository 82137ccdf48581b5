// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Reader returns the raw cell grid of the sheet
type Reader interface {
	ReadValues(ctx context.Context) ([][]string, error)
}

// ReadError is a non-2xx reply from the read API
type ReadError struct {
	Status int
	Body   string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("sheet read failed with status %d: %s", e.Status, e.Body)
}

// APIReader reads through the Sheets v4 values endpoint with an API key
type APIReader struct {
	svc       *sheetsapi.Service
	sheetID   string
	readRange string
}

// NewAPIReader builds a reader for sheetID. sheetName selects a worksheet;
// empty means the first one. Extra options (endpoint, HTTP client) are
// passed to the API client.
func NewAPIReader(ctx context.Context, apiKey, sheetID, sheetName string, opts ...option.ClientOption) (*APIReader, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &APIReader{svc: svc, sheetID: sheetID, readRange: ReadRange(sheetName)}, nil
}

// ReadRange is the A1 range covering every user column
func ReadRange(sheetName string) string {
	if sheetName == "" {
		return "A1:ZZ"
	}
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!A1:ZZ"
}

func (r *APIReader) ReadValues(ctx context.Context) ([][]string, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.sheetID, r.readRange).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			body := gerr.Body
			if body == "" {
				body = gerr.Message
			}
			return nil, &ReadError{Status: gerr.Code, Body: body}
		}
		return nil, fmt.Errorf("sheet read failed: %w", err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid, nil
}
