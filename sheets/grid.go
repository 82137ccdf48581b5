// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sheets

import (
	"strconv"
	"strings"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
)

// Grid is a snapshot of the sheet: row 0 is the header
// [reserved, "Fecha", "Comida", user1, user2, ...], every other row is one
// (date, meal) pair.
type Grid [][]string

// Column layout of the sheet
const (
	ColDate      = 1
	ColMeal      = 2
	FirstUserCol = 3
)

// RowMatch is a located row; Index is 0-based within the grid
type RowMatch struct {
	Index int
	Row   []string
}

// FindRowByDateAndType returns the first row for (date, meal). Rows whose
// date doesn't parse are skipped. Duplicate rows are not detected; the
// first one wins.
func FindRowByDateAndType(grid Grid, date, meal string) (RowMatch, bool) {
	code := models.MealCode(meal)
	name := strings.ToUpper(meal)

	for i := 1; i < len(grid); i++ {
		row := grid[i]
		if len(row) <= ColMeal {
			continue
		}
		iso, err := dates.ParseSheet(row[ColDate])
		if err != nil || iso != date {
			continue
		}
		cell := strings.ToUpper(strings.TrimSpace(row[ColMeal]))
		if cell == code || cell == name {
			return RowMatch{Index: i, Row: row}, true
		}
	}
	return RowMatch{}, false
}

// FindUserColumn returns the header column holding initials, or -1
func FindUserColumn(grid Grid, initials string) int {
	if len(grid) == 0 {
		return -1
	}
	initials = strings.TrimSpace(initials)
	for j := FirstUserCol; j < len(grid[0]); j++ {
		if strings.EqualFold(strings.TrimSpace(grid[0][j]), initials) {
			return j
		}
	}
	return -1
}

// Users lists the initials found in the header
func Users(grid Grid) []string {
	if len(grid) == 0 {
		return nil
	}
	var out []string
	for j := FirstUserCol; j < len(grid[0]); j++ {
		if u := strings.TrimSpace(grid[0][j]); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ColumnLetter converts a 0-based column index into A1 letters
func ColumnLetter(idx int) string {
	if idx < 0 {
		return ""
	}
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// CellAddress returns the A1 address of a 0-based (column, row) pair
func CellAddress(col, row int) string {
	return ColumnLetter(col) + strconv.Itoa(row+1)
}

// Cell returns grid[row][col] or "" when the row is short
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// NewRow builds the cells of a missing (date, meal) row for a sheet whose
// header has width columns.
func NewRow(date, meal string, width int) ([]string, error) {
	day, err := dates.WeekdayName(date)
	if err != nil {
		return nil, err
	}
	cell, err := dates.ToSheet(date)
	if err != nil {
		return nil, err
	}
	if width < FirstUserCol {
		width = FirstUserCol
	}
	row := make([]string, width)
	row[0] = day
	row[ColDate] = cell
	row[ColMeal] = models.MealCode(meal)
	return row, nil
}
