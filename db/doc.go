// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and provides the key-value table used by
the local store.

# Drivers

SQLite (modernc.org/sqlite, pure Go) is the default; postgres goes
through lib/pq:

	conn, err := db.Open("sqlite", "comidas.db")
	conn, err := db.Open("postgres", "postgres://...")

# Schema Creation

CreateSchema initializes the kv_store table:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS.

# Key-Value Access

KV mirrors the browser localStorage API the reservation data used to
live in: Get, Set, Delete, plus Keys for listing backups.

	kv := db.NewKV(conn, "sqlite")
	err := kv.Set(ctx, "comidas_inscripciones", payload)
*/
package db
