// Package charts draws the magnitude distribution as a bar chart and a pie
// chart in the terminal. Slice and bar geometry is shared with the HTML page.
package charts

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/quakewatch/internal/domain"
)

// Slice is one bucket's share of the pie. Angles are in radians, measured
// clockwise from twelve o'clock.
type Slice struct {
	Label    string
	Count    int
	Fraction float64
	Start    float64
	End      float64
	Color    string
}

// Slices splits the circle by bucket counts. Empty buckets get zero-width
// slices; an all-empty input returns nil.
func Slices(buckets []domain.Bucket) []Slice {
	total := domain.BucketTotal(buckets)
	if total == 0 {
		return nil
	}
	out := make([]Slice, len(buckets))
	var angle float64
	for i, b := range buckets {
		frac := float64(b.Count) / float64(total)
		out[i] = Slice{
			Label:    b.Label,
			Count:    b.Count,
			Fraction: frac,
			Start:    angle,
			End:      angle + frac*2*math.Pi,
			Color:    domain.BucketColor(i),
		}
		angle = out[i].End
	}
	out[len(out)-1].End = 2 * math.Pi
	return out
}

// SliceAt returns the index of the slice covering angle, or -1.
func SliceAt(slices []Slice, angle float64) int {
	for i, s := range slices {
		if s.Count > 0 && angle >= s.Start && angle < s.End {
			return i
		}
	}
	return -1
}

// BarLengths scales bucket counts so the largest fills width.
func BarLengths(buckets []domain.Bucket, width int) []int {
	peak := 0
	for _, b := range buckets {
		peak = max(peak, b.Count)
	}
	out := make([]int, len(buckets))
	if peak == 0 || width <= 0 {
		return out
	}
	for i, b := range buckets {
		n := int(math.Round(float64(b.Count) / float64(peak) * float64(width)))
		if b.Count > 0 && n == 0 {
			n = 1
		}
		out[i] = n
	}
	return out
}

// Bars renders one horizontal bar per bucket within width columns.
func Bars(buckets []domain.Bucket, width int) string {
	labelWidth, countWidth := 0, 1
	for _, b := range buckets {
		labelWidth = max(labelWidth, lipgloss.Width(b.Label))
		countWidth = max(countWidth, len(fmt.Sprint(b.Count)))
	}
	barWidth := width - labelWidth - countWidth - 2

	lengths := BarLengths(buckets, barWidth)
	lines := make([]string, len(buckets))
	for i, b := range buckets {
		label := b.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(b.Label))
		bar := lipgloss.NewStyle().
			Foreground(lipgloss.Color(domain.BucketColor(i))).
			Render(strings.Repeat("█", lengths[i]))
		lines[i] = fmt.Sprintf("%s %s %*d", label, bar, countWidth+max(barWidth, 0)-lengths[i], b.Count)
	}
	return strings.Join(lines, "\n")
}

// Pie renders a disk radius rows tall on each side of its center, with a
// legend to its right. Cells are twice as tall as wide, so the disk is four
// times radius columns across.
func Pie(buckets []domain.Bucket, radius int) string {
	slices := Slices(buckets)
	if slices == nil || radius <= 0 {
		return lipgloss.NewStyle().Faint(true).Render("no events")
	}

	rows := make([]string, 0, 2*radius)
	r := float64(radius)
	for y := 0; y < 2*radius; y++ {
		var line strings.Builder
		for x := 0; x < 4*radius; x++ {
			dx := (float64(x) + 0.5 - 2*r) / 2
			dy := float64(y) + 0.5 - r
			if dx*dx+dy*dy > r*r {
				line.WriteByte(' ')
				continue
			}
			i := SliceAt(slices, clockAngle(dx, dy))
			if i < 0 {
				line.WriteByte(' ')
				continue
			}
			line.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(slices[i].Color)).Render("█"))
		}
		rows = append(rows, line.String())
	}

	legend := make([]string, 0, len(slices))
	for _, s := range slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		legend = append(legend, fmt.Sprintf("%s %-4s %3.0f%%", swatch, s.Label, s.Fraction*100))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(rows, "\n"),
		"  ",
		strings.Join(legend, "\n"),
	)
}

// clockAngle converts an offset from the center (y down) into an angle
// clockwise from twelve o'clock, in [0, 2π).
func clockAngle(dx, dy float64) float64 {
	a := math.Atan2(dx, -dy)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
