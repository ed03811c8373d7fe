package remind

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// now is a Wednesday afternoon in a zone with DST.
var (
	berlin = mustLoad("Europe/Berlin")
	now    = time.Date(2024, 5, 15, 14, 30, 45, 0, berlin)
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestParseWhenAccepted(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		rest string
	}{
		{"16:00 tea", time.Date(2024, 5, 15, 16, 0, 0, 0, berlin), " tea"},
		{"  9:5 x", time.Date(2024, 5, 15, 9, 5, 0, 0, berlin), " x"},
		{"16:00:30 tea", time.Date(2024, 5, 15, 16, 0, 30, 0, berlin), " tea"},
		{"16:00 24/12 xmas", time.Date(2024, 12, 24, 16, 0, 0, 0, berlin), " xmas"},
		{"16:00:01 1/6 25 later", time.Date(2025, 6, 1, 16, 0, 1, 0, berlin), " later"},
		{"16:00   3/7   26 spaced", time.Date(2026, 7, 3, 16, 0, 0, 0, berlin), " spaced"},
		{"16:00 24/12 ", time.Date(2024, 12, 24, 16, 0, 0, 0, berlin), " "},
		{"16:00", time.Date(2024, 5, 15, 16, 0, 0, 0, berlin), ""},
		{"16:00x", time.Date(2024, 5, 15, 16, 0, 0, 0, berlin), "x"},
		{"16:00  tea", time.Date(2024, 5, 15, 16, 0, 0, 0, berlin), "  tea"},
		{"12:00 29/2 28 leap", time.Date(2028, 2, 29, 12, 0, 0, 0, berlin), " leap"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, rest, err := ParseWhen(now, tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestParseWhenRejected(t *testing.T) {
	for _, in := range []string{
		"",
		"tea",
		"16",
		"16-00 x",
		"16: 00 x",
		"25:00 x",
		"12:60 x",
		"12:00:60 x",
		"12:00 31/02 x",
		"12:00 29/2 25 x",
		"12:00 5 beers",
		"12:00 5/ x",
		"12:00 0/5 x",
		"12:00 1/13 x",
		// Clocks jump from 02:00 to 03:00 on this day.
		"02:30 31/3 24 x",
	} {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseWhen(now, in)
			assert.ErrorIs(t, err, ErrBadDate)
		})
	}
}

func TestParseWhenReadsOnlyTwoDigits(t *testing.T) {
	got, rest, err := ParseWhen(now, "16:005 x")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, "5 x", rest)
}
