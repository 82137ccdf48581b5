// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package reconcile keeps a user's meal selection in step with the local
store and the remote sheet.

# Saving

Reconciler.Save writes every set cell locally, then pushes only the cells
that differ from the last known remote state, one at a time:

	res, err := rec.Save(ctx, "MEP", selection, original)

A successful cell is copied into original, so a retry resends only what
failed. Remote failures are listed per cell in the response and never
undo the local write. Saves are serialized.

# Sessions

A Session holds one user's selection for a window of days. Toggle
changes one cell and restarts a debounce timer (AutoSaveDelay); when it
fires the session saves in the background. Flush saves immediately.

	sessions := reconcile.NewSessions(rec, reconcile.WithDelay(2*time.Second))
	sess, err := sessions.Get(ctx, "MEP")
	sess.Toggle("2025-01-10", "Almuerzo", "S")

Snapshot prefers the sheet and falls back to the local store when the
sheet cannot be read.
*/
package reconcile
