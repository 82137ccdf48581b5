// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/sheets"
)

// Worksheet names of the exported workbook
const (
	SheetList = "Inscripciones"
	SheetGrid = "Grilla"
)

var listHeader = []interface{}{"Fecha", "Día", "Comida", "Iniciales", "Opción", "Tipo", "Actualizado"}

// SortRecords orders records by date, meal, then initials
func SortRecords(recs []models.Inscripcion) {
	mealIdx := func(m string) int {
		for i, meal := range models.Meals {
			if meal == m {
				return i
			}
		}
		return len(models.Meals)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Fecha != b.Fecha {
			return a.Fecha < b.Fecha
		}
		if a.Comida != b.Comida {
			return mealIdx(a.Comida) < mealIdx(b.Comida)
		}
		return a.Iniciales < b.Iniciales
	})
}

// BuildGrid lays recs out like the shared sheet: a header of users and one
// row per (date, meal).
func BuildGrid(recs []models.Inscripcion) ([][]string, error) {
	recs = append([]models.Inscripcion(nil), recs...)
	SortRecords(recs)

	userSet := map[string]bool{}
	for _, r := range recs {
		if r.Opcion != "" {
			userSet[r.Iniciales] = true
		}
	}
	users := make([]string, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Strings(users)

	header := append([]string{"", "Fecha", "Comida"}, users...)
	grid := [][]string{header}
	col := make(map[string]int, len(users))
	for i, u := range users {
		col[u] = sheets.FirstUserCol + i
	}

	rowOf := map[string]int{}
	for _, r := range recs {
		if r.Opcion == "" {
			continue
		}
		key := r.Fecha + "|" + r.Comida
		idx, ok := rowOf[key]
		if !ok {
			row, err := sheets.NewRow(r.Fecha, r.Comida, len(header))
			if err != nil {
				return nil, err
			}
			grid = append(grid, row)
			idx = len(grid) - 1
			rowOf[key] = idx
		}
		grid[idx][col[r.Iniciales]] = r.Opcion
	}
	return grid, nil
}

// WriteXLSX writes recs as a workbook with a flat list sheet and a grid
// sheet laid out like the shared spreadsheet.
func WriteXLSX(w io.Writer, recs []models.Inscripcion) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetList); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	list := append([]models.Inscripcion(nil), recs...)
	SortRecords(list)

	if err := f.SetSheetRow(SheetList, "A1", &listHeader); err != nil {
		return err
	}
	row := 2
	for _, r := range list {
		if r.Opcion == "" {
			continue
		}
		dia, _ := dates.WeekdayName(r.Fecha)
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{r.Fecha, dia, r.Comida, r.Iniciales, r.Opcion, r.TipoUsuario, r.UpdatedAt.Format("2006-01-02 15:04")}
		if err := f.SetSheetRow(SheetList, cell, &values); err != nil {
			return err
		}
		row++
	}
	if err := f.SetRowStyle(SheetList, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetList, "A", "G", 14); err != nil {
		return err
	}

	grid, err := BuildGrid(recs)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetGrid); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	for i, cells := range grid {
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetGrid, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetGrid, 1, 1, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
