package domain

import (
	"fmt"
	"math"
)

// Magnitude filter bounds and step, matching the sidebar slider.
const (
	MinThreshold  = 0.0
	MaxThreshold  = 8.0
	ThresholdStep = 0.5
)

// FilterByMagnitude returns the features whose effective magnitude is at
// least threshold, preserving feed order. The input is not modified.
func FilterByMagnitude(features []Feature, threshold float64) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if EffectiveMagnitude(f) >= threshold {
			out = append(out, f)
		}
	}
	return out
}

// ClampThreshold keeps a threshold inside the slider range and snaps it to
// the nearest step.
func ClampThreshold(t float64) float64 {
	if t < MinThreshold {
		t = MinThreshold
	}
	if t > MaxThreshold {
		t = MaxThreshold
	}
	steps := int(t/ThresholdStep + 0.5)
	return float64(steps) * ThresholdStep
}

// ValidateThreshold reports whether t is a slider position: inside the
// range and on a step.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < MinThreshold || t > MaxThreshold {
		return fmt.Errorf("magnitude threshold must be between %s and %s, got %v",
			FormatMagnitude(MinThreshold), FormatMagnitude(MaxThreshold), t)
	}
	if steps := t / ThresholdStep; math.Abs(steps-math.Round(steps)) > 1e-9 {
		return fmt.Errorf("magnitude threshold must be a multiple of %v, got %v", ThresholdStep, t)
	}
	return nil
}
