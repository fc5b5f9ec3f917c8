package utils

import (
	"fmt"
	"strconv"
	"time"
)

// relativeUnits maps the suffix of a relative window to its length.
var relativeUnits = map[byte]time.Duration{
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseSince parses a --since value relative to now. Accepted forms:
//   - Relative: "12h", "7d", "2w"
//   - Absolute: "2025-12-15" (YYYY-MM-DD, UTC) or an RFC 3339 timestamp
func ParseSince(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, fmt.Errorf("since date cannot be empty")
	}

	// Check for relative format (e.g., "7d")
	if unit, ok := relativeUnits[since[len(since)-1]]; ok {
		n, err := strconv.Atoi(since[:len(since)-1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative date format '%s': expected format like '7d', '12h' or '2w'", since)
		}
		if n < 0 {
			return time.Time{}, fmt.Errorf("relative window cannot be negative: %s", since)
		}
		if unit == 24*time.Hour {
			return now.AddDate(0, 0, -n), nil
		}
		return now.Add(-time.Duration(n) * unit), nil
	}

	// Try absolute formats
	if parsed, err := time.Parse("2006-01-02", since); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, since); err == nil {
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format '%s': expected 'YYYY-MM-DD', RFC 3339 or relative format like '7d'", since)
}

// ParseSinceDate is ParseSince relative to the current time.
func ParseSinceDate(since string) (time.Time, error) {
	return ParseSince(since, time.Now())
}
