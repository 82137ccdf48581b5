// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"sort"

	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
)

// priority orders the day's list; unknown codes go last
var priority = map[string]int{
	models.OptionSi:           0,
	models.OptionTarde:        1,
	models.OptionRegimenTarde: 2,
	models.OptionRegimen:      3,
	models.OptionVianda:       4,
	models.OptionNo:           5,
}

func rank(code string) int {
	if p, ok := priority[code]; ok {
		return p
	}
	return len(priority)
}

// SortEntries orders entries by option priority, then initials
func SortEntries(entries []models.TodayEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i].Opcion), rank(entries[j].Opcion)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Iniciales < entries[j].Iniciales
	})
}

// Today builds fecha's sign-up list from recs. Records of other dates
// and records without an option are ignored. Diners counts every entry
// except N.
func Today(recs []models.Inscripcion, fecha string) (models.TodayResponse, error) {
	dia, err := dates.WeekdayName(fecha)
	if err != nil {
		return models.TodayResponse{}, err
	}

	out := models.TodayResponse{
		Fecha:  fecha,
		Dia:    dia,
		Meals:  make(map[string][]models.TodayEntry, len(models.Meals)),
		Counts: make(map[string]map[string]int, len(models.Meals)),
		Diners: make(map[string]int, len(models.Meals)),
	}
	for _, meal := range models.Meals {
		out.Meals[meal] = []models.TodayEntry{}
		out.Counts[meal] = map[string]int{}
	}

	for _, r := range recs {
		if r.Fecha != fecha || r.Opcion == "" {
			continue
		}
		if _, ok := out.Meals[r.Comida]; !ok {
			continue
		}
		out.Meals[r.Comida] = append(out.Meals[r.Comida], models.TodayEntry{
			Iniciales:   r.Iniciales,
			Opcion:      r.Opcion,
			Label:       Label(r.Opcion),
			TipoUsuario: r.TipoUsuario,
		})
		out.Counts[r.Comida][r.Opcion]++
		if r.Opcion != models.OptionNo {
			out.Diners[r.Comida]++
		}
	}

	for _, meal := range models.Meals {
		SortEntries(out.Meals[meal])
	}
	return out, nil
}

// Label is the display name of code, or code itself when unknown
func Label(code string) string {
	if l, ok := models.OptionLabels[code]; ok {
		return l
	}
	return code
}
