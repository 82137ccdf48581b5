// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// Serverless talks to the serverless proxy, which holds the credentials
// and can both read the grid and forward writes.
type Serverless struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func NewServerless(url string, client *http.Client) *Serverless {
	if client == nil {
		client = http.DefaultClient
	}
	return &Serverless{URL: url, Client: client}
}

func (s *Serverless) Name() string { return "serverless" }

// Call forwards req as a "write" action. The sheet id is filled in by
// the proxy when empty.
func (s *Serverless) Call(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	action := models.ServerlessWrite
	if req.Action == models.ActionTestConnection {
		action = models.ServerlessTestConnection
	}

	status, body, err := post(ctx, s.Client, s.URL, models.ServerlessRequest{
		Action: action,
		Data:   &req,
	})
	if err != nil {
		return nil, fmt.Errorf("serverless: %w", err)
	}
	return DecodeResponse(status, body)
}

// ReadValues fetches the sheet grid through the proxy's "read" action
func (s *Serverless) ReadValues(ctx context.Context) ([][]string, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	status, body, err := post(ctx, s.Client, s.URL, models.ServerlessRequest{Action: models.ServerlessRead})
	if err != nil {
		return nil, fmt.Errorf("serverless: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Status: status, Body: string(body)}
	}

	var grid models.GridResponse
	if err := json.Unmarshal(body, &grid); err != nil {
		return nil, fmt.Errorf("invalid grid response: %w", err)
	}
	return grid.Values, nil
}
