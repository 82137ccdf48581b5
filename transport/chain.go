// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gastongadea/limos-arboleda/models"
)

// Chain tries each transport in order and returns the first success.
// A ScriptError stops the chain: the script was reached and said no.
type Chain struct {
	Transports []Transport
}

func NewChain(ts ...Transport) *Chain {
	return &Chain{Transports: ts}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.Transports))
	for i, t := range c.Transports {
		names[i] = t.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *Chain) Call(ctx context.Context, req models.ScriptRequest) (*models.ScriptResponse, error) {
	if len(c.Transports) == 0 {
		return nil, errors.New("no transport configured")
	}

	var errs []error
	for _, t := range c.Transports {
		resp, err := t.Call(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsScriptError(err) || ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("transport failed, trying next", "transport", t.Name(), "action", req.Action, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}
	return nil, errors.Join(errs...)
}
