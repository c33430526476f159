package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		spec string
		want time.Duration
	}{
		{"00:00:00", 0},
		{"00:25:30", 25*time.Minute + 30*time.Second},
		{"01:00:00", time.Hour},
		{"27:00:05", 27*time.Hour + 5*time.Second},
		{"0:90:0", 90 * time.Minute},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.spec)
		require.NoError(t, err, tc.spec)
		require.Equal(t, tc.want, got, tc.spec)
	}
}

func TestParseClockRejectsMalformedSpecs(t *testing.T) {
	for _, spec := range []string{
		"",
		"01:30",
		"01:30:00:00",
		"aa:bb:cc",
		"1.5:00:00",
		"-1:00:00",
		"00:-5:00",
	} {
		_, err := ParseClock(spec)
		require.Error(t, err, spec)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes float64
		want    string
	}{
		{0, "0 hours and 0 minutes"},
		{59, "0 hours and 59 minutes"},
		{60, "1 hours and 0 minutes"},
		{90, "1 hours and 30 minutes"},
		{125.4, "2 hours and 5 minutes"},
		{125.6, "2 hours and 6 minutes"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatMinutes(tc.minutes))
	}
}

// The formatter truncates hours before rounding minutes, so a total just
// under a full hour reads as 60 minutes.
func TestFormatMinutesRoundsUpToSixty(t *testing.T) {
	require.Equal(t, "0 hours and 60 minutes", FormatMinutes(59.7))
}
