// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gastongadea/limos-arboleda/cliparse"
	"github.com/gastongadea/limos-arboleda/db"
	"github.com/gastongadea/limos-arboleda/sheets"
	"github.com/gastongadea/limos-arboleda/store"
)

// flags is filled by the persistent flag set; resolveConfig completes it
var flags cliparse.Config

var rootCmd = &cobra.Command{
	Use:           "comidas",
	Short:         "Meal sign-ups for Arboleda, synced with Google Sheets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(cliparse.NewFlagSet(&flags))

	rootCmd.AddCommand(
		serveCmd,
		proxyCmd,
		setCmd,
		unsetCmd,
		listCmd,
		todayCmd,
		statsCmd,
		exportCmd,
		importCmd,
		backupCmd,
		backupsCmd,
		restoreCmd,
		clearCmd,
		testConnectionCmd,
		adminKeyCmd,
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func resolveConfig() (cliparse.Config, error) {
	cfg, err := cliparse.Resolve(flags)
	if err != nil {
		return cliparse.Config{}, fmt.Errorf("error parsing flags: %w", err)
	}
	return cfg, nil
}

// app holds what every data command needs
type app struct {
	cfg    cliparse.Config
	conn   *sql.DB
	store  *store.Store
	sheets *sheets.Client
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	slog.Debug("database schema ready", "type", cfg.DatabaseType)

	st, err := store.New(ctx, db.NewKV(conn, cfg.DatabaseType), store.WithUserType(cfg.UserType))
	if err != nil {
		conn.Close()
		return nil, err
	}

	sh, err := sheets.FromConfig(ctx, cfg, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &app{cfg: cfg, conn: conn, store: st, sheets: sh}, nil
}

func (a *app) Close() error {
	return a.conn.Close()
}

// withApp runs fn with an opened app and closes it afterwards
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, args)
	}
}
