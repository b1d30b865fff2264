package ui

import (
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultDays is the day count offered when switching to the days search.
const DefaultDays = 7

// searchModes is the order the search mode key cycles through.
var searchModes = []domain.SearchMode{domain.ModeInterval, domain.ModeDays, domain.ModeRange}

// levels is the order the feed level key cycles through.
var levels = []domain.Level{domain.LevelAll, domain.Level10, domain.Level25, domain.Level45, domain.LevelSignificant}

// ViewConfig is the user-adjustable view state. It is a value: every action
// below returns an updated copy and leaves its input untouched.
type ViewConfig struct {
	Theme          string
	TileLayer      string
	ShowBoundaries bool
	Threshold      float64
	// Selector holds the search being edited. It is sent to the pipeline on
	// submit, or immediately when the feed interval or level changes.
	Selector domain.Selector
}

// ToggleTheme switches between the dark and light themes.
func ToggleTheme(c ViewConfig) ViewConfig {
	if c.Theme == ThemeLight {
		c.Theme = ThemeDark
	} else {
		c.Theme = ThemeLight
	}
	return c
}

// NextTileLayer selects the layer after the current one in the catalog.
func NextTileLayer(c ViewConfig, cat *tilelayer.Catalog) ViewConfig {
	c.TileLayer = cat.Next(c.TileLayer).Name
	return c
}

// ToggleBoundaries shows or hides the plate boundary overlay.
func ToggleBoundaries(c ViewConfig) ViewConfig {
	c.ShowBoundaries = !c.ShowBoundaries
	return c
}

// RaiseThreshold increases the marker filter by one step.
func RaiseThreshold(c ViewConfig) ViewConfig {
	c.Threshold = domain.ClampThreshold(c.Threshold + domain.ThresholdStep)
	return c
}

// LowerThreshold decreases the marker filter by one step.
func LowerThreshold(c ViewConfig) ViewConfig {
	c.Threshold = domain.ClampThreshold(c.Threshold - domain.ThresholdStep)
	return c
}

// NextInterval switches to the summary feed and advances its interval.
func NextInterval(c ViewConfig) ViewConfig {
	sel := c.Selector
	if sel.Mode != domain.ModeInterval {
		sel.Mode = domain.ModeInterval
		if sel.Interval == "" {
			sel.Interval = domain.IntervalDay
		}
	} else {
		sel.Interval = next(domain.Intervals, sel.Interval)
	}
	if sel.Level == "" {
		sel.Level = domain.LevelAll
	}
	c.Selector = sel
	return c
}

// NextLevel switches to the summary feed and advances its magnitude level.
func NextLevel(c ViewConfig) ViewConfig {
	sel := c.Selector
	sel.Mode = domain.ModeInterval
	if sel.Interval == "" {
		sel.Interval = domain.IntervalDay
	}
	sel.Level = next(levels, sel.Level)
	c.Selector = sel
	return c
}

// NextSearchMode cycles interval → days → range. The other fields of the
// selector are kept so switching back restores them.
func NextSearchMode(c ViewConfig) ViewConfig {
	c.Selector.Mode = next(searchModes, c.Selector.Mode)
	if c.Selector.Mode == domain.ModeDays && c.Selector.Days == 0 {
		c.Selector.Days = DefaultDays
	}
	if c.Selector.Mode == domain.ModeInterval && c.Selector.Interval == "" {
		c.Selector.Interval = domain.IntervalDay
	}
	return c
}

// WithDays sets the day count of the days search.
func WithDays(c ViewConfig, days int) ViewConfig {
	c.Selector.Days = days
	return c
}

// WithRange sets the date bounds of the range search.
func WithRange(c ViewConfig, start, end string) ViewConfig {
	c.Selector.Start, c.Selector.End = start, end
	return c
}

// next returns the element after cur, wrapping around. An unknown cur
// yields the first element.
func next[T comparable](items []T, cur T) T {
	for i, it := range items {
		if it == cur {
			return items[(i+1)%len(items)]
		}
	}
	return items[0]
}
