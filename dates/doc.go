// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package dates holds the date helpers shared by the store, the sheet
client and the reconciler.

Locally every date is an ISO string (YYYY-MM-DD). The sheet writes dates
as D/M/YY, and older rows use DD/MM/YYYY:

	iso, err := dates.ParseSheet("10/1/25") // "2025-01-10"
	cell, err := dates.ToSheet("2025-01-10") // "10/1/25"

Range and RangeBetween generate the days shown in a selection form.
*/
package dates
