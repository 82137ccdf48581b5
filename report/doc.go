// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package report builds the kitchen's views of the stored reservations:
// a day's sign-up list ordered by option priority (S, T, RT, R, V, N) and
// an XLSX workbook export.
package report
