// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// DefaultTimeout bounds every call to the write endpoint
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read
const maxBody = 1 << 20

// Transport delivers one Apps Script request and returns its reply
type Transport interface {
	Name() string
	Call(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error)
}

// ScriptError is a logical failure reported by the script itself
type ScriptError struct {
	Message string
	Details string
}

func (e *ScriptError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("script error: %s (%s)", e.Message, e.Details)
	}
	return "script error: " + e.Message
}

// StatusError is a non-2xx HTTP reply
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// post sends body as JSON and returns status and raw reply
func post(ctx context.Context, client *http.Client, url string, body interface{}) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return do(client, req)
}

func do(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// DecodeResponse turns an HTTP reply from the script (directly or relayed
// by a proxy) into a ScriptResponse, or the matching error.
func DecodeResponse(status int, body []byte) (*models.ScriptResponse, error) {
	if status < 200 || status > 299 {
		return nil, &StatusError{Status: status, Body: strings.TrimSpace(string(body))}
	}

	var out models.ScriptResponse
	if err := json.Unmarshal(unwrapCallback(body), &out); err != nil {
		return nil, fmt.Errorf("invalid script response: %w", err)
	}
	if out.Error != "" {
		return nil, &ScriptError{Message: out.Error, Details: out.Details}
	}
	if !out.Success {
		return nil, &ScriptError{Message: "script reported failure"}
	}
	return &out, nil
}

// unwrapCallback strips a "name({...})" JSONP wrapper; deployments built
// for the browser still answer that way.
func unwrapCallback(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' {
		return trimmed
	}
	open := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if open <= 0 || end <= open {
		return trimmed
	}
	return trimmed[open+1 : end]
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// IsScriptError reports whether err carries a logical script failure
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}
