package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses an "HH:MM:SS" duration spec into a time.Duration. The
// spec must be exactly three colon-separated non-negative integers; hours may
// exceed 23.
func ParseClock(spec string) (time.Duration, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", spec)
	}
	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("expected HH:MM:SS, got %q", spec)
		}
		if v < 0 {
			return 0, fmt.Errorf("negative component in duration %q", spec)
		}
		values[i] = v
	}
	seconds := values[0]*3600 + values[1]*60 + values[2]
	return time.Duration(seconds) * time.Second, nil
}

// FormatMinutes renders a minute total as "H hours and M minutes": hours are
// truncated, leftover minutes rounded to the nearest integer. A total just
// under a full hour therefore reads "0 hours and 60 minutes", matching the
// charts' historical output.
func FormatMinutes(minutes float64) string {
	hours := int(minutes / 60)
	remaining := int(math.Round(math.Mod(minutes, 60)))
	return fmt.Sprintf("%d hours and %d minutes", hours, remaining)
}
