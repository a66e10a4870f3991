package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeRe = regexp.MustCompile(`(?i)^in (\d+) (seconds?|minutes?|hours?)$`)

// ParseWhen turns a spoken-style timing phrase into an absolute time:
//
//	"in 10 seconds" / "in 5 minutes" / "in 2 hours"
//	"today 14:30"    (rolls to tomorrow when already past)
//	"tomorrow 09:00"
//	"2026-09-01 14:30" (optionally with seconds)
//
// Anything else is a parse failure.
func ParseWhen(input string, now time.Time) (time.Time, error) {
	text := strings.TrimSpace(input)

	if m := relativeRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse reminder time %q", input)
		}
		switch strings.ToLower(strings.TrimSuffix(m[2], "s")) {
		case "second":
			return now.Add(time.Duration(n) * time.Second), nil
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		}
	}

	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "today ") {
		at, err := clockOn(now, text[len("today "):])
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse reminder time %q", input)
		}
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}
	if strings.HasPrefix(lower, "tomorrow ") {
		at, err := clockOn(now.AddDate(0, 0, 1), text[len("tomorrow "):])
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse reminder time %q", input)
		}
		return at, nil
	}

	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if at, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse reminder time %q", input)
}

// clockOn applies an "HH:MM" clock time to day's date.
func clockOn(day time.Time, clock string) (time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("bad clock time %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("bad minute %q", parts[1])
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
