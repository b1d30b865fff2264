package domain

import (
	"slices"
	"strconv"
)

// TopN is the number of strongest events listed in the sidebar.
const TopN = 5

// UnknownLabel is shown for max and average when no feature has a magnitude.
const UnknownLabel = "--"

// Stats summarizes a collection for the sidebar.
type Stats struct {
	Count    int       // all features, measured or not
	Measured int       // features with a magnitude
	Max      float64   // valid only when Measured > 0
	Average  float64   // valid only when Measured > 0
	Top      []Feature // at most TopN, strongest first
}

// ComputeStats derives count, max, average and the top events. Features
// without a magnitude count toward Count only. Top keeps feed order among
// equal magnitudes.
func ComputeStats(features []Feature) Stats {
	s := Stats{Count: len(features)}

	var sum float64
	measured := make([]Feature, 0, len(features))
	for _, f := range features {
		m, ok := f.Mag()
		if !ok {
			continue
		}
		if s.Measured == 0 || m > s.Max {
			s.Max = m
		}
		sum += m
		s.Measured++
		measured = append(measured, f)
	}
	if s.Measured > 0 {
		s.Average = sum / float64(s.Measured)
	}

	slices.SortStableFunc(measured, func(a, b Feature) int {
		ma, _ := a.Mag()
		mb, _ := b.Mag()
		switch {
		case ma > mb:
			return -1
		case ma < mb:
			return 1
		default:
			return 0
		}
	})
	if len(measured) > TopN {
		measured = measured[:TopN]
	}
	s.Top = measured
	return s
}

// HasMagnitudes reports whether max and average are meaningful.
func (s Stats) HasMagnitudes() bool { return s.Measured > 0 }

// MaxLabel formats Max to one decimal, or UnknownLabel.
func (s Stats) MaxLabel() string {
	if !s.HasMagnitudes() {
		return UnknownLabel
	}
	return FormatMagnitude(s.Max)
}

// AverageLabel formats Average to one decimal, or UnknownLabel.
func (s Stats) AverageLabel() string {
	if !s.HasMagnitudes() {
		return UnknownLabel
	}
	return FormatMagnitude(s.Average)
}

// FormatMagnitude renders a magnitude with one decimal place.
func FormatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', 1, 64)
}

// MagnitudeLabel renders a feature's magnitude, or UnknownLabel when missing.
func MagnitudeLabel(f Feature) string {
	m, ok := f.Mag()
	if !ok {
		return UnknownLabel
	}
	return FormatMagnitude(m)
}
