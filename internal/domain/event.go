package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Feature is one seismic event. Features are immutable once parsed; a
// refresh replaces the whole collection instead of editing entries.
type Feature struct {
	ID        string    `json:"id"`
	Magnitude *float64  `json:"mag"` // nil when the feed has no magnitude yet
	MagType   string    `json:"mag_type,omitempty"`
	Place     string    `json:"place"`
	Time      time.Time `json:"time"`
	Point     orb.Point `json:"point"` // [lon, lat]
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
}

// Lon returns the event longitude.
func (f Feature) Lon() float64 { return f.Point.Lon() }

// Lat returns the event latitude.
func (f Feature) Lat() float64 { return f.Point.Lat() }

// Mag returns the magnitude and whether the feed provided one.
func (f Feature) Mag() (float64, bool) {
	if f.Magnitude == nil {
		return 0, false
	}
	return *f.Magnitude, true
}

// EffectiveMagnitude is the magnitude used for bucketing and threshold
// filtering. Missing magnitudes count as 0.
func EffectiveMagnitude(f Feature) float64 {
	if m, ok := f.Mag(); ok {
		return m
	}
	return 0
}

// EpochMillis returns the occurrence time in the feed's native unit.
func (f Feature) EpochMillis() int64 { return f.Time.UnixMilli() }

// Collection is an ordered set of features plus feed metadata. It is
// replaced wholesale on every successful fetch.
type Collection struct {
	Title     string    `json:"title"`
	Generated time.Time `json:"generated"`
	Features  []Feature `json:"features"`
}

// Len returns the number of features.
func (c Collection) Len() int { return len(c.Features) }

// Float returns a pointer to v, for building features with a magnitude.
func Float(v float64) *float64 { return &v }
