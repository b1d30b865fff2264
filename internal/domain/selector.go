package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SearchMode selects how the feed is queried.
type SearchMode string

const (
	// ModeInterval reads a pre-aggregated summary feed.
	ModeInterval SearchMode = "interval"
	// ModeDays queries the last N days up to today.
	ModeDays SearchMode = "days"
	// ModeRange queries an explicit start/end date range.
	ModeRange SearchMode = "range"
)

// Interval is the time window of a summary feed.
type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// Intervals lists the summary feed windows in selector order.
var Intervals = []Interval{IntervalHour, IntervalDay, IntervalWeek, IntervalMonth}

// Level is the minimum-magnitude tier of a summary feed.
type Level string

const (
	LevelSignificant Level = "significant"
	Level45          Level = "4.5"
	Level25          Level = "2.5"
	Level10          Level = "1.0"
	LevelAll         Level = "all"
)

// DateLayout is the date format accepted by the event query.
const DateLayout = "2006-01-02"

// Day-count bounds for ModeDays.
const (
	MinDays = 1
	MaxDays = 30
)

// Selector describes which events to fetch.
type Selector struct {
	Mode     SearchMode `json:"mode"`
	Interval Interval   `json:"interval,omitempty"`
	Level    Level      `json:"level,omitempty"`
	Days     int        `json:"days,omitempty"`
	Start    string     `json:"start,omitempty"` // YYYY-MM-DD, optional
	End      string     `json:"end,omitempty"`   // YYYY-MM-DD, optional
}

// DefaultSelector is the past-day summary feed of all magnitudes.
func DefaultSelector() Selector {
	return Selector{Mode: ModeInterval, Interval: IntervalDay, Level: LevelAll}
}

// ParseInterval accepts "day" as well as the feed file stem "all_day".
func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "all_")
	for _, iv := range Intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unknown feed interval %q", s)
}

// ParseLevel validates a summary feed level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelSignificant, Level45, Level25, Level10, LevelAll:
		return l, nil
	default:
		return "", fmt.Errorf("unknown feed level %q", s)
	}
}

// Validate reports whether the selector can be turned into a request.
func (s Selector) Validate() error {
	switch s.Mode {
	case ModeInterval:
		if _, err := ParseInterval(string(s.Interval)); err != nil {
			return err
		}
		if s.Level != "" {
			if _, err := ParseLevel(string(s.Level)); err != nil {
				return err
			}
		}
		return nil
	case ModeDays:
		if s.Days < MinDays || s.Days > MaxDays {
			return fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, s.Days)
		}
		return nil
	case ModeRange:
		start, err := parseOptionalDate("start", s.Start)
		if err != nil {
			return err
		}
		end, err := parseOptionalDate("end", s.End)
		if err != nil {
			return err
		}
		if !start.IsZero() && !end.IsZero() && start.After(end) {
			return errors.New("start date is after end date")
		}
		return nil
	default:
		return fmt.Errorf("unknown search mode %q", s.Mode)
	}
}

// DateBounds returns the query start and end dates for ModeDays and ModeRange.
// For ModeDays, the window ends today (UTC) and starts Days before it.
// Either bound may be empty for ModeRange.
func (s Selector) DateBounds() (start, end string) {
	switch s.Mode {
	case ModeDays:
		today := clock.Now().UTC()
		return today.AddDate(0, 0, -s.Days).Format(DateLayout), today.Format(DateLayout)
	case ModeRange:
		return strings.TrimSpace(s.Start), strings.TrimSpace(s.End)
	default:
		return "", ""
	}
}

// Key identifies the selector for caching. Day-count selectors include the
// resolved dates so a cached entry never spans midnight.
func (s Selector) Key() string {
	switch s.Mode {
	case ModeInterval:
		level := s.Level
		if level == "" {
			level = LevelAll
		}
		return fmt.Sprintf("interval:%s_%s", level, s.Interval)
	default:
		start, end := s.DateBounds()
		return fmt.Sprintf("%s:%s..%s", s.Mode, start, end)
	}
}

// String renders a short human label, e.g. "all · past day" or "2024-01-01 → 2024-01-31".
func (s Selector) String() string {
	switch s.Mode {
	case ModeInterval:
		level := s.Level
		if level == "" {
			level = LevelAll
		}
		return fmt.Sprintf("%s · past %s", level, s.Interval)
	case ModeDays:
		if s.Days == 1 {
			return "past 1 day"
		}
		return fmt.Sprintf("past %d days", s.Days)
	case ModeRange:
		start, end := s.DateBounds()
		if start == "" {
			start = "…"
		}
		if end == "" {
			end = "…"
		}
		return start + " → " + end
	default:
		return string(s.Mode)
	}
}

func parseOptionalDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: want YYYY-MM-DD", field, v)
	}
	return t, nil
}
