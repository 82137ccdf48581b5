// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gastongadea/limos-arboleda/auth"
	"github.com/gastongadea/limos-arboleda/dates"
	"github.com/gastongadea/limos-arboleda/models"
	"github.com/gastongadea/limos-arboleda/reconcile"
	"github.com/gastongadea/limos-arboleda/report"
	"github.com/gastongadea/limos-arboleda/store"
)

var setCmd = &cobra.Command{
	Use:   "set <fecha> <comida> <iniciales> <opcion>",
	Short: "Save one inscripcion locally and in the sheet",
	Args:  cobra.ExactArgs(4),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		rec := models.Inscripcion{Fecha: args[0], Comida: args[1], Iniciales: args[2], Opcion: args[3]}
		if err := store.Validate(&rec); err != nil {
			return err
		}
		return a.saveOne(ctx, rec)
	}),
}

var unsetCmd = &cobra.Command{
	Use:   "unset <fecha> <comida> <iniciales>",
	Short: "Clear one inscripcion locally and in the sheet",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		rec := models.Inscripcion{Fecha: args[0], Comida: models.NormalizeMeal(args[1]), Iniciales: strings.ToUpper(args[2])}
		if !dates.IsISO(rec.Fecha) || rec.Comida == "" {
			return fmt.Errorf("%w: expected YYYY-MM-DD and Almuerzo or Cena", store.ErrInvalidRecord)
		}
		return a.saveOne(ctx, rec)
	}),
}

// saveOne writes rec through the reconciler and prints the outcome
func (a *app) saveOne(ctx context.Context, rec models.Inscripcion) error {
	res, err := reconcile.New(a.store, a.sheets).SaveOne(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	for _, e := range res.Errors {
		fmt.Printf("  %s %s: %s\n", e.Fecha, e.Comida, e.Message)
	}
	if len(res.Errors) > 0 {
		return errors.New("saved locally, sheet write failed")
	}
	return nil
}

var listFilter struct {
	fecha, iniciales, desde, hasta string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored inscripciones",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		var recs []models.Inscripcion
		switch {
		case listFilter.iniciales != "":
			recs = a.store.GetByUser(listFilter.iniciales)
		case listFilter.fecha != "":
			recs = a.store.GetByDate(listFilter.fecha)
		case listFilter.desde != "" || listFilter.hasta != "":
			hasta := listFilter.hasta
			if hasta == "" {
				hasta = "9999-12-31"
			}
			recs = a.store.GetByDateRange(listFilter.desde, hasta)
		default:
			recs = a.store.GetAll()
		}
		report.SortRecords(recs)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FECHA\tCOMIDA\tINICIALES\tOPCION\tTIPO")
		for _, r := range recs {
			if r.Opcion == "" {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Fecha, r.Comida, r.Iniciales, r.Opcion, r.TipoUsuario)
		}
		return tw.Flush()
	}),
}

var todayFecha string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Print one day's sign-up list per meal",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		fecha := todayFecha
		if fecha == "" {
			fecha = dates.Today(time.Local)
		}
		day, err := report.Today(a.store.GetByDate(fecha), fecha)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n", day.Dia, day.Fecha)
		for _, meal := range models.Meals {
			fmt.Printf("\n%s (%d comensales)\n", meal, day.Diners[meal])
			for _, e := range day.Meals[meal] {
				fmt.Printf("  %-6s %s\n", e.Iniciales, e.Label)
			}
		}
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the local store",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		st := a.store.Stats()
		fmt.Printf("Inscripciones: %s\n", humanize.Comma(int64(st.Total)))
		if st.FirstDate != "" {
			fmt.Printf("Fechas:        %s a %s\n", st.FirstDate, st.LastDate)
		}
		fmt.Printf("Actualizado:   %s\n", humanize.Time(st.LastUpdate))
		if st.LastBackup != nil {
			fmt.Printf("Último backup: %s\n", humanize.Time(*st.LastBackup))
		}
		printCounts("Por comida", st.ByMeal)
		printCounts("Por opción", st.ByOption)
		printCounts("Por usuario", st.ByUser)
		return nil
	}),
}

func printCounts(title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s\n", title)
	for _, k := range keys {
		fmt.Printf("  %-10s %s\n", k, humanize.Comma(int64(counts[k])))
	}
}

var exportOpts struct {
	format, out string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the local store as JSON or xlsx",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		var w io.Writer = os.Stdout
		if exportOpts.out != "" {
			f, err := os.Create(exportOpts.out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch exportOpts.format {
		case "json":
			return a.store.Export(w)
		case "xlsx":
			if exportOpts.out == "" {
				return errors.New("xlsx export needs --out")
			}
			return report.WriteXLSX(w, a.store.GetAll())
		}
		return fmt.Errorf("unknown format %q", exportOpts.format)
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the local store with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		key, n, err := a.store.Import(ctx, f, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %s records (previous data saved as %s)\n", humanize.Comma(int64(n)), key)
		return nil
	}),
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the local store",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		key, err := a.store.Backup(ctx)
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	}),
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List retained backups, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		keys, err := a.store.ListBackups(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Restore a backup over the local store",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return a.store.RestoreBackup(ctx, args[0])
	}),
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every local inscripcion (a backup is taken first)",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if !clearYes {
			return errors.New("refusing to clear without --yes")
		}
		key, err := a.store.ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared; backup %s\n", key)
		return nil
	}),
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check sheet read access and the write endpoint",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		res, err := a.sheets.TestConnection(ctx)
		fmt.Printf("read: %v  write: %v  rows: %d  users: %d\n", res.Read, res.Write, res.Rows, res.Users)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	}),
}

var adminKeyCmd = &cobra.Command{
	Use:   "admin-key",
	Short: "Print the X-Admin-Key value for destructive API calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		fmt.Println(auth.GenerateAdminKey(auth.AdminScope, cfg.AdminKeySalt))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter.fecha, "fecha", "", "Only this date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFilter.iniciales, "iniciales", "", "Only this user")
	listCmd.Flags().StringVar(&listFilter.desde, "desde", "", "From date (inclusive)")
	listCmd.Flags().StringVar(&listFilter.hasta, "hasta", "", "To date (inclusive)")

	todayCmd.Flags().StringVar(&todayFecha, "fecha", "", "Date to show (default today)")

	exportCmd.Flags().StringVar(&exportOpts.format, "format", "json", "json or xlsx")
	exportCmd.Flags().StringVarP(&exportOpts.out, "out", "o", "", "Output file (default stdout)")

	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deletion")
}
