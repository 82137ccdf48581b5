// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transport

import (
	"fmt"
	"net/http"

	"github.com/gastongadea/limos-arboleda/cliparse"
)

// FromConfig builds the write transport named by cfg.Transport
func FromConfig(cfg cliparse.Config, client *http.Client) (Transport, error) {
	switch cfg.Transport {
	case cliparse.TransportDirect, "":
		return NewDirect(cfg.ScriptURL, client), nil
	case cliparse.TransportDirectGET:
		d := NewDirect(cfg.ScriptURL, client)
		d.UseGET = true
		return d, nil
	case cliparse.TransportProxy:
		return NewLocalProxy(cfg.ProxyURL, cfg.ScriptURL, client), nil
	case cliparse.TransportServerless:
		return NewServerless(cfg.ServerlessURL, client), nil
	case cliparse.TransportAuto:
		return NewChain(
			NewLocalProxy(cfg.ProxyURL, cfg.ScriptURL, client),
			NewDirect(cfg.ScriptURL, client),
		), nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}
