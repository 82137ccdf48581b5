// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the local persistence service for reservations.

The whole data set is one JSON envelope kept under StorageKey in a
key-value table:

	{ "inscripciones": [...], "lastUpdate": ..., "version": 3,
	  "metadata": { "totalInscripciones": n, "lastBackup": ..., "created": ... } }

metadata.totalInscripciones always equals len(inscripciones) after a write.

# Records

Save validates and upserts one record by (fecha, comida, iniciales):

	err := s.Save(ctx, models.Inscripcion{Fecha: "2025-01-10", Comida: "Almuerzo", Iniciales: "MEP", Opcion: "S"})

Validation failures wrap ErrInvalidRecord. The GetBy* filters scan the
in-memory list.

# Backups

Every AutoBackupEvery-th successful save stores a copy under
BackupPrefix plus the unix time in milliseconds; only MaxBackups are kept. Import and ClearAll back up first.

# Versions

Stored envelopes older than CurrentVersion go through the ordered
migration list on load. Unreadable JSON reinitializes an empty envelope.
*/
package store
