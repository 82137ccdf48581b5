// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastongadea/limos-arboleda/db"
	"github.com/gastongadea/limos-arboleda/models"
)

// fakeClock advances one second per call so timestamps stay ordered
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func newKV(t *testing.T) *db.KV {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.CreateSchema(conn))

	return db.NewKV(conn, "sqlite")
}

func newStore(t *testing.T) (*Store, *db.KV) {
	t.Helper()

	kv := newKV(t)
	s, err := New(context.Background(), kv, WithClock(newClock().Now))
	require.NoError(t, err)
	return s, kv
}

func rec(fecha, comida, iniciales, opcion string) models.Inscripcion {
	return models.Inscripcion{Fecha: fecha, Comida: comida, Iniciales: iniciales, Opcion: opcion}
}

// failingKV fails every Set once armed
type failingKV struct {
	KeyValue
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.KeyValue.Set(ctx, key, value)
}

func TestSave_ThenGetByDate(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))

	got := s.GetByDate("2025-01-10")
	require.Len(t, got, 1)
	assert.Equal(t, "S", got[0].Opcion)
	assert.Equal(t, "MEP", got[0].Iniciales)
	assert.Equal(t, models.UserTypeResidente, got[0].TipoUsuario)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSave_UpsertByNaturalKey(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))
	first := s.GetAll()[0]

	// Lowercase initials still hit the same natural key
	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "mep", "N")))

	all := s.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "N", all[0].Opcion)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, first.CreatedAt, all[0].CreatedAt)
	assert.True(t, all[0].UpdatedAt.After(first.UpdatedAt))

	// A different meal is a different record
	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealCena, "MEP", "S")))
	assert.Len(t, s.GetAll(), 2)
	assert.Equal(t, 2, s.Envelope().Metadata.TotalInscripciones)
}

func TestSave_Validation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		rec  models.Inscripcion
	}{
		{"bad date format", rec("10/01/2025", models.MealAlmuerzo, "MEP", "S")},
		{"impossible date", rec("2025-02-30", models.MealAlmuerzo, "MEP", "S")},
		{"unknown meal", rec("2025-01-10", "Desayuno", "MEP", "S")},
		{"missing initials", rec("2025-01-10", models.MealCena, "  ", "S")},
		{"missing option", rec("2025-01-10", models.MealCena, "MEP", "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Save(ctx, tc.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
	assert.Empty(t, s.GetAll())
}

func TestSave_NormalizesMeal(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Save(context.Background(), rec("2025-01-10", "cena", "abc", "rt")))

	got, ok := s.Find("2025-01-10", models.MealCena, "ABC")
	require.True(t, ok)
	assert.Equal(t, "RT", got.Opcion)
}

func TestSave_PersistFailureKeepsState(t *testing.T) {
	kv := &failingKV{KeyValue: newKV(t)}
	s, err := New(context.Background(), kv)
	require.NoError(t, err)

	kv.fail = true
	err = s.Save(context.Background(), rec("2025-01-10", models.MealAlmuerzo, "MEP", "S"))
	require.Error(t, err)
	assert.Empty(t, s.GetAll())
}

func TestSave_UserType(t *testing.T) {
	kv := newKV(t)
	s, err := New(context.Background(), kv, WithUserType(func(i string) string {
		if i == "MEP" {
			return "sacerdote"
		}
		return "residente"
	}))
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), rec("2025-01-10", models.MealAlmuerzo, "mep", "S")))
	assert.Equal(t, "sacerdote", s.GetAll()[0].TipoUsuario)
}

func TestFilters(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMany(ctx, []models.Inscripcion{
		rec("2025-01-09", models.MealAlmuerzo, "MEP", "S"),
		rec("2025-01-10", models.MealAlmuerzo, "MEP", "N"),
		rec("2025-01-10", models.MealCena, "JLG", "T"),
		rec("2025-01-12", models.MealCena, "MEP", "V"),
	}))

	assert.Len(t, s.GetByDate("2025-01-10"), 2)
	assert.Len(t, s.GetByUser("mep"), 3)
	assert.Len(t, s.GetByDateRange("2025-01-10", "2025-01-12"), 3)
	assert.Len(t, s.GetByDateRange("2025-01-13", "2025-01-20"), 0)
	assert.Len(t, s.GetByDateAndMeal("2025-01-10", models.MealCena), 1)

	_, ok := s.Find("2025-01-11", models.MealCena, "MEP")
	assert.False(t, ok)

	sel := s.UserSelection("MEP", []string{"2025-01-10", "2025-01-11", "2025-01-12"})
	assert.Equal(t, "N", sel.Get("2025-01-10", models.MealAlmuerzo))
	assert.Equal(t, "", sel.Get("2025-01-11", models.MealAlmuerzo))
	assert.Equal(t, "V", sel.Get("2025-01-12", models.MealCena))
	// Dates outside the window are not included
	_, ok = sel["2025-01-09"]
	assert.False(t, ok)
}

func TestSaveMany_AllOrNothing(t *testing.T) {
	s, _ := newStore(t)

	err := s.SaveMany(context.Background(), []models.Inscripcion{
		rec("2025-01-10", models.MealAlmuerzo, "MEP", "S"),
		rec("bad", models.MealAlmuerzo, "MEP", "S"),
	})
	require.Error(t, err)
	assert.Empty(t, s.GetAll())
}

func TestCorruptedDataReinitializes(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, StorageKey, "{not json"))

	s, err := New(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, s.GetAll())

	raw, ok, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var env models.Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, CurrentVersion, env.Version)
}

func TestMigrationFromLegacyArray(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	legacy := `[
		{"fecha":"2025-01-10","comida":"almuerzo","iniciales":"mep","opcion":"s"},
		{"fecha":"2025-01-10","comida":"A","iniciales":"MEP","opcion":"N"},
		{"fecha":"not-a-date","comida":"Cena","iniciales":"X","opcion":"S"}
	]`
	require.NoError(t, kv.Set(ctx, StorageKey, legacy))

	s, err := New(ctx, kv, WithClock(newClock().Now))
	require.NoError(t, err)

	env := s.Envelope()
	assert.Equal(t, CurrentVersion, env.Version)
	require.Len(t, env.Inscripciones, 1)
	assert.Equal(t, "N", env.Inscripciones[0].Opcion)
	assert.Equal(t, models.MealAlmuerzo, env.Inscripciones[0].Comida)
	assert.NotEmpty(t, env.Inscripciones[0].ID)
	assert.Equal(t, 1, env.Metadata.TotalInscripciones)

	// The migrated envelope was written back
	raw, _, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(raw), "{"))
}

func TestMigrationRejectsNewerVersion(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, StorageKey, `{"inscripciones":[],"version":99}`))

	_, err := New(ctx, kv)
	assert.Error(t, err)
}

func TestAutoBackupEveryTenthSave(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for i := 1; i < AutoBackupEvery; i++ {
		require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "U"+string(rune('A'+i)), "S")))
	}
	keys, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Nil(t, s.Envelope().Metadata.LastBackup)

	require.NoError(t, s.Save(ctx, rec("2025-01-11", models.MealAlmuerzo, "MEP", "S")))
	keys, err = s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.NotNil(t, s.Envelope().Metadata.LastBackup)
}

func TestBackupPruning(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var created []string
	for i := 0; i < MaxBackups+2; i++ {
		key, err := s.Backup(ctx)
		require.NoError(t, err)
		created = append(created, key)
	}

	keys, err := s.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, keys, MaxBackups)
	// newest first, oldest two gone
	assert.Equal(t, created[len(created)-1], keys[0])
	assert.NotContains(t, keys, created[0])
	assert.NotContains(t, keys, created[1])
}

func TestBackupKeys_UnixMillis(t *testing.T) {
	clock := newClock()
	s, err := New(context.Background(), newKV(t), WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Backup(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, BackupPrefix))
	ms, err := strconv.ParseInt(strings.TrimPrefix(key, BackupPrefix), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, s.Envelope().Metadata.LastBackup.UnixMilli(), ms)

	// a clock that went backwards still yields a newer key
	clock.t = clock.t.Add(-time.Hour)
	next, err := s.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupPrefix+strconv.FormatInt(ms+1, 10), next)

	keys, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{next, key}, keys)
}

func TestRestoreBackup(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))
	key, err := s.Backup(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "N")))
	require.NoError(t, s.RestoreBackup(ctx, key))

	got, ok := s.Find("2025-01-10", models.MealAlmuerzo, "MEP")
	require.True(t, ok)
	assert.Equal(t, "S", got.Opcion)

	assert.Error(t, s.RestoreBackup(ctx, BackupPrefix+"missing"))
}

func TestClearAll(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))
	key, err := s.ClearAll(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Empty(t, s.GetAll())
	assert.Equal(t, 0, s.Envelope().Metadata.TotalInscripciones)

	require.NoError(t, s.RestoreBackup(ctx, key))
	assert.Len(t, s.GetAll(), 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, src.SaveMany(ctx, []models.Inscripcion{
		rec("2025-01-10", models.MealAlmuerzo, "MEP", "S"),
		rec("2025-01-10", models.MealCena, "JLG", "RT"),
		rec("2025-01-11", models.MealAlmuerzo, "MEP", "V"),
	}))

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))

	var file map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &file))
	assert.Equal(t, ExportVersion, file["exportVersion"])
	assert.Contains(t, file, "exportDate")

	dst, _ := newStore(t)
	require.NoError(t, dst.Save(ctx, rec("2025-02-01", models.MealCena, "OLD", "S")))

	backup, n, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()), "comidas-2025-01-11.json")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotEmpty(t, backup)

	assert.Equal(t, src.Envelope().Inscripciones, dst.Envelope().Inscripciones)
	assert.Equal(t, "comidas-2025-01-11.json", dst.Envelope().Metadata.ImportedFrom)
	assert.Equal(t, 3, dst.Envelope().Metadata.TotalInscripciones)
}

func TestImport_RejectsInvalidFile(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))

	testCases := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"invalid record", `{"inscripciones":[{"fecha":"2025-01-10","comida":"Merienda","iniciales":"A","opcion":"S"}],"version":3}`},
		{"duplicate key", `{"inscripciones":[
			{"fecha":"2025-01-10","comida":"Cena","iniciales":"A","opcion":"S"},
			{"fecha":"2025-01-10","comida":"Cena","iniciales":"a","opcion":"N"}],"version":3}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Import(ctx, strings.NewReader(tc.body), "bad.json")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
			assert.Len(t, s.GetAll(), 1)
		})
	}

	keys, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys, "failed imports must not back up")
}

func TestStats(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMany(ctx, []models.Inscripcion{
		rec("2025-01-10", models.MealAlmuerzo, "MEP", "S"),
		rec("2025-01-10", models.MealCena, "MEP", "N"),
		rec("2025-01-12", models.MealAlmuerzo, "JLG", "S"),
	}))

	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.ByMeal[models.MealAlmuerzo])
	assert.Equal(t, 2, st.ByOption["S"])
	assert.Equal(t, 2, st.ByUser["MEP"])
	assert.Equal(t, "2025-01-10", st.FirstDate)
	assert.Equal(t, "2025-01-12", st.LastDate)
	assert.Equal(t, CurrentVersion, st.Version)
}

func TestUnset_KeepsRecordWithEmptyOption(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))
	before, _ := s.Find("2025-01-10", models.MealAlmuerzo, "MEP")

	found, err := s.Unset(ctx, "2025-01-10", "almuerzo", "mep")
	require.NoError(t, err)
	assert.True(t, found)

	after, ok := s.Find("2025-01-10", models.MealAlmuerzo, "MEP")
	require.True(t, ok)
	assert.Equal(t, "", after.Opcion)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, 0, s.Stats().Total, "unset records are not counted")

	// survives a reload
	reloaded, err := New(ctx, kv)
	require.NoError(t, err)
	again, ok := reloaded.Find("2025-01-10", models.MealAlmuerzo, "MEP")
	require.True(t, ok)
	assert.Equal(t, "", again.Opcion)
}

func TestUnset_MissingRecord(t *testing.T) {
	s, _ := newStore(t)

	found, err := s.Unset(context.Background(), "2025-01-10", models.MealCena, "MEP")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, s.GetAll())

	_, err = s.Unset(context.Background(), "10/01/2025", models.MealCena, "MEP")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestImport_AcceptsUnsetRecords(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("2025-01-10", models.MealAlmuerzo, "MEP", "S")))
	_, err := s.Unset(ctx, "2025-01-10", models.MealAlmuerzo, "MEP")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	other, _ := newStore(t)
	_, n, err := other.Import(ctx, &buf, "export.json")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
