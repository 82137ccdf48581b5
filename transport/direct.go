// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// Direct calls the Apps Script web app itself. The script accepts a JSON
// POST or a GET carrying the same fields as query parameters.
type Direct struct {
	URL     string
	UseGET  bool
	Client  *http.Client
	Timeout time.Duration
}

func NewDirect(scriptURL string, client *http.Client) *Direct {
	if client == nil {
		client = http.DefaultClient
	}
	return &Direct{URL: scriptURL, Client: client}
}

func (d *Direct) Name() string {
	if d.UseGET {
		return "direct-get"
	}
	return "direct"
}

func (d *Direct) Call(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error) {
	ctx, cancel := withTimeout(ctx, d.Timeout)
	defer cancel()

	var (
		status int
		body   []byte
		err    error
	)
	if d.UseGET {
		status, body, err = d.get(ctx, req)
	} else {
		status, body, err = post(ctx, d.Client, d.URL, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	return DecodeResponse(status, body)
}

func (d *Direct) get(ctx context.Context, req models.ScriptRequest) (int, []byte, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode data: %w", err)
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid script URL: %w", err)
	}
	q := u.Query()
	q.Set("action", req.Action)
	q.Set("sheetId", req.SheetID)
	q.Set("data", string(data))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	return do(d.Client, httpReq)
}
