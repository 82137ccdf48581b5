// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "2025-01-10", false},
		{"leap day", "2024-02-29", false},
		{"not a leap year", "2025-02-29", true},
		{"month 13", "2025-13-01", true},
		{"short year", "25-01-10", true},
		{"sheet format", "10/1/25", true},
		{"empty", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDate))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRange(t *testing.T) {
	days, err := Range("2025-01-30", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}, days)

	days, err = Range("2025-01-30", 0)
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = Range("2025-01-30", -1)
	assert.Error(t, err)
}

func TestRangeBetween(t *testing.T) {
	days, err := RangeBetween("2024-12-30", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02"}, days)

	days, err = RangeBetween("2025-01-02", "2025-01-01")
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestSheetFormats(t *testing.T) {
	cell, err := ToSheet("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, "10/1/25", cell)

	testCases := []struct {
		cell string
		want string
	}{
		{"10/1/25", "2025-01-10"},
		{"10/01/2025", "2025-01-10"},
		{" 3/12/24 ", "2024-12-03"},
		{"2025-01-10", "2025-01-10"},
	}
	for _, tc := range testCases {
		got, err := ParseSheet(tc.cell)
		require.NoError(t, err, tc.cell)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []string{"31/2/25", "Fecha", "", "1-10-2025"} {
		_, err := ParseSheet(bad)
		assert.Error(t, err, bad)
	}
}

func TestWeekday(t *testing.T) {
	name, err := WeekdayName("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, "Viernes", name)

	assert.True(t, IsWeekend("2025-01-11"))
	assert.False(t, IsWeekend("2025-01-10"))
	assert.False(t, IsWeekend("nope"))
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-02-28", 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got)
}
