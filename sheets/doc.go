// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sheets is the remote sheet service.

The sheet is a grid: row 0 is the header ["", "Fecha", "Comida", user
initials...], every other row is one (date, meal) pair with one option
code per user column.

# Reading

A Reader returns the grid. APIReader uses the Sheets v4 values endpoint
with an API key; the serverless transport can read as well. Client caches
the grid for DefaultTTL and collapses concurrent misses into one read:

	grid, err := c.GetSheetData(ctx, false)

# Writing

Writes go through a transport.Transport as single-cell updateCell calls.
SaveInscripcion creates the (date, meal) row when it is missing; the
check-then-create is not atomic across clients.

Without an API key, sheet id or script URL every call returns
ErrNotConfigured before touching the network.
*/
package sheets
