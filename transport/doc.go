// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package transport delivers requests to the Google Apps Script endpoint
that writes to the sheet.

# Transports

  - Direct: POST JSON (or GET with query parameters) to the script URL
  - LocalProxy: POST {url, data} to the development proxy
  - Serverless: POST {action, data} to the serverless proxy, which also
    serves grid reads (ReadValues)
  - Chain: tries transports in order

FromConfig picks one from SHEETS_TRANSPORT; "auto" is the development
chain proxy → direct.

# Errors

A reply with {"error": ...} or success=false becomes *ScriptError and is
never retried by Chain. Non-2xx replies become *StatusError. Every call
is bounded by DefaultTimeout.
*/
package transport
