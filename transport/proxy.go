// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gastongadea/limos-arboleda/models"
)

// ProxyPath is where the local development proxy listens
const ProxyPath = "/proxy/google-apps-script"

// LocalProxy goes through the development proxy, which forwards the
// request to ScriptURL and relays the reply unchanged.
type LocalProxy struct {
	BaseURL   string
	ScriptURL string
	Client    *http.Client
	Timeout   time.Duration
}

func NewLocalProxy(baseURL, scriptURL string, client *http.Client) *LocalProxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &LocalProxy{BaseURL: strings.TrimRight(baseURL, "/"), ScriptURL: scriptURL, Client: client}
}

func (p *LocalProxy) Name() string { return "proxy" }

func (p *LocalProxy) Call(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	status, body, err := post(ctx, p.Client, p.BaseURL+ProxyPath, models.ProxyRequest{
		URL:  p.ScriptURL,
		Data: req,
	})
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}
	return DecodeResponse(status, body)
}

// Forward posts req to scriptURL and returns the raw reply, for proxies
// that relay status and body unchanged.
func Forward(ctx context.Context, client *http.Client, scriptURL string, req models.ScriptRequest, timeout time.Duration) (int, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	return post(ctx, client, scriptURL, req)
}
