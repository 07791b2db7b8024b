package application

import (
	"fmt"
	"strings"
	"time"
)

// ParseDay resolves a date argument to the start of that day in local
// time. The shortcuts "today", "tomorrow" and "yesterday" are accepted
// alongside YYYY-MM-DD.
func ParseDay(arg string, now time.Time) (time.Time, error) {
	day := startOfDay(now)
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "today":
		return day, nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	}

	parsed, err := time.ParseInLocation("2006-01-02", arg, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, today, tomorrow or yesterday", arg)
	}
	return parsed, nil
}

// DayRange resolves a date argument to the [start, end) bounds of that day.
func DayRange(arg string, now time.Time) (time.Time, time.Time, error) {
	start, err := ParseDay(arg, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
