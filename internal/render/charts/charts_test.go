package charts

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quakewatch/internal/domain"
)

func buckets(counts ...int) []domain.Bucket {
	out := domain.Bucketize(nil)
	for i, c := range counts {
		out[i].Count = c
	}
	return out
}

func scenario() []domain.Bucket {
	var fs []domain.Feature
	for _, m := range []float64{1.2, 4.5, 0.3, 6.1, 2.0} {
		fs = append(fs, domain.Feature{Magnitude: domain.Float(m)})
	}
	return domain.Bucketize(fs)
}

func TestSlices_EqualShares(t *testing.T) {
	slices := Slices(scenario())
	require.Len(t, slices, 5)

	for i, s := range slices {
		assert.Equal(t, 1, s.Count)
		assert.InDelta(t, 0.2, s.Fraction, 1e-9)
		assert.InDelta(t, float64(i)*0.4*math.Pi, s.Start, 1e-9)
		assert.Equal(t, domain.BucketColor(i), s.Color)
	}
	assert.InDelta(t, 2*math.Pi, slices[4].End, 0)
}

func TestSlices_Empty(t *testing.T) {
	assert.Nil(t, Slices(buckets(0, 0, 0, 0, 0)))
}

func TestSliceAt(t *testing.T) {
	slices := Slices(buckets(1, 0, 0, 0, 1))

	assert.Equal(t, 0, SliceAt(slices, 0))
	assert.Equal(t, 0, SliceAt(slices, math.Pi-0.01))
	assert.Equal(t, 4, SliceAt(slices, math.Pi))
	assert.Equal(t, 4, SliceAt(slices, 2*math.Pi-1e-6))
	assert.Equal(t, -1, SliceAt(slices, 2*math.Pi))
}

func TestBarLengths(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		width  int
		want   []int
	}{
		{"scaled to peak", []int{4, 2, 0, 1, 0}, 8, []int{8, 4, 0, 2, 0}},
		{"small counts stay visible", []int{100, 1, 0, 0, 0}, 10, []int{10, 1, 0, 0, 0}},
		{"all empty", []int{0, 0, 0, 0, 0}, 10, []int{0, 0, 0, 0, 0}},
		{"no room", []int{3, 1, 0, 0, 0}, 0, []int{0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, BarLengths(buckets(tt.counts...), tt.width)); diff != "" {
				t.Errorf("BarLengths() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBars(t *testing.T) {
	out := ansi.Strip(Bars(buckets(4, 2, 0, 1, 12), 30))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)

	for _, line := range lines {
		assert.Equal(t, 30, ansi.StringWidth(line), line)
	}
	assert.True(t, strings.HasPrefix(lines[0], "0–1 █"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], " 4"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2–3  "), lines[2])
	assert.True(t, strings.HasSuffix(lines[4], "12"), lines[4])
	assert.Equal(t, 23, strings.Count(lines[4], "█"))
}

func TestPie(t *testing.T) {
	out := ansi.Strip(Pie(scenario(), 3))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)

	assert.Contains(t, out, "█")
	assert.Contains(t, out, "0–1   20%")
	assert.Contains(t, out, "5+    20%")
}

func TestPie_Empty(t *testing.T) {
	assert.Equal(t, "no events", ansi.Strip(Pie(buckets(0, 0, 0, 0, 0), 3)))
}

func TestClockAngle(t *testing.T) {
	assert.InDelta(t, 0, clockAngle(0, -1), 1e-9)
	assert.InDelta(t, math.Pi/2, clockAngle(1, 0), 1e-9)
	assert.InDelta(t, math.Pi, clockAngle(0, 1), 1e-9)
	assert.InDelta(t, 3*math.Pi/2, clockAngle(-1, 0), 1e-9)
}
