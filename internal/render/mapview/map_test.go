package mapview

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

func quake(id string, mag float64, lon, lat float64) domain.Feature {
	return domain.Feature{
		ID:        id,
		Magnitude: domain.Float(mag),
		MagType:   "mb",
		Place:     "10 km SW of Somewhere",
		Time:      time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Point:     orb.Point{lon, lat},
		URL:       "https://earthquake.usgs.gov/earthquakes/eventpage/" + id,
	}
}

// cellRune returns the character drawn at col, row of a plain render.
func cellRune(t *testing.T, plain string, col, row int) rune {
	t.Helper()
	lines := strings.Split(plain, "\n")
	require.Less(t, row, len(lines))
	r := []rune(lines[row])
	require.Less(t, col, len(r))
	return r[col]
}

func TestViewport_Project(t *testing.T) {
	v := Viewport{Width: 36, Height: 9}
	assert.InDelta(t, 10, v.DegPerCol(), 1e-9)
	assert.InDelta(t, 20, v.DegPerRow(), 1e-9)

	col, row, ok := v.Project(0, 0)
	require.True(t, ok)
	assert.Equal(t, 18, col)
	assert.Equal(t, 4, row)

	col, row, ok = v.Project(-180, 90)
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.Equal(t, 0, row)

	col, row, ok = v.Project(170, -80)
	require.True(t, ok)
	assert.Equal(t, 35, col)
	assert.Equal(t, 8, row)

	zoomed := v.WithZoom(1)
	_, _, ok = zoomed.Project(170, 0)
	assert.False(t, ok)
}

func TestViewport_Unproject(t *testing.T) {
	v := Viewport{Width: 36, Height: 9}
	lon, lat := v.Unproject(18, 4)
	assert.InDelta(t, 5, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)
}

func TestViewport_PanAndZoom(t *testing.T) {
	v := Viewport{Width: 36, Height: 9}

	v = v.Pan(1, 0)
	assert.InDelta(t, 10, v.CenterLon, 1e-9)

	v = v.Pan(-20, 0)
	assert.InDelta(t, 170, v.CenterLon, 1e-9)

	v = v.Pan(0, -100)
	assert.InDelta(t, 90, v.CenterLat, 1e-9)

	assert.Equal(t, MaxZoom, v.WithZoom(MaxZoom+3).Zoom)
	assert.Equal(t, 0, v.WithZoom(-1).Zoom)
	assert.InDelta(t, 5, v.WithZoom(1).DegPerCol(), 1e-9)
}

func TestWrapLon(t *testing.T) {
	assert.InDelta(t, -170, wrapLon(190), 1e-9)
	assert.InDelta(t, -180, wrapLon(180), 1e-9)
	assert.InDelta(t, -180, wrapLon(-180), 1e-9)
	assert.InDelta(t, 170, wrapLon(-190), 1e-9)
}

func TestMap_DrawsMarkerGlyphByMagnitude(t *testing.T) {
	tests := []struct {
		name string
		f    domain.Feature
		want rune
	}{
		{"missing magnitude", domain.Feature{ID: "x"}, '·'},
		{"micro", quake("a", 0.4, 0, 0), '·'},
		{"minor", quake("b", 1.8, 0, 0), 'o'},
		{"light", quake("c", 3.2, 0, 0), 'O'},
		{"strong", quake("d", 6.5, 0, 0), '@'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(36, 10)
			m.SetFeatures([]domain.Feature{tt.f})
			assert.Equal(t, tt.want, cellRune(t, m.Plain(), 18, 4))
		})
	}
}

func TestMap_LargerMarkerDrawnOnTop(t *testing.T) {
	m := New(36, 10)
	m.SetFeatures([]domain.Feature{quake("big", 6.1, 0, 0), quake("small", 1.2, 0, 0)})

	assert.Equal(t, '@', cellRune(t, m.Plain(), 18, 4))
	f, ok := m.MarkerAt(18, 4)
	require.True(t, ok)
	assert.Equal(t, "big", f.ID)
}

func TestMap_MarkerAt(t *testing.T) {
	m := New(36, 10)
	m.SetFeatures([]domain.Feature{quake("near", 2.0, 0, 0), quake("far", 2.0, 100, 0)})

	f, ok := m.MarkerAt(19, 5)
	require.True(t, ok)
	assert.Equal(t, "near", f.ID)

	f, ok = m.MarkerAt(27, 4)
	require.True(t, ok)
	assert.Equal(t, "far", f.ID)

	_, ok = m.MarkerAt(23, 4)
	assert.False(t, ok)
}

func TestMap_Cycle(t *testing.T) {
	m := New(36, 10)
	_, ok := m.Cycle(1)
	assert.False(t, ok)

	m.SetFeatures([]domain.Feature{quake("a", 5, 0, 0), quake("b", 1, 10, 10), quake("c", 3, -10, -10)})

	var ids []string
	for _, step := range []int{1, 1, -1, -1} {
		f, ok := m.Cycle(step)
		require.True(t, ok)
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"a", "b", "a", "c"}, ids)

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "c", sel.ID)
}

func TestMap_SelectionWithoutIDs(t *testing.T) {
	m := New(80, 20)
	features := []domain.Feature{quake("", 5, 0, 0), quake("", 1, 40, 20), quake("", 3, -40, -20)}
	m.SetFeatures(features)

	var mags []float64
	for range 4 {
		f, ok := m.Cycle(1)
		require.True(t, ok)
		mags = append(mags, domain.EffectiveMagnitude(f))
	}
	assert.Equal(t, []float64{5, 1, 3, 5}, mags)

	reversed := func() int {
		g := m.draw(DarkPalette)
		n := 0
		for _, c := range g.cells {
			if c.Reverse {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, reversed(), "only the selected marker is highlighted")

	// A rebuilt layer keeps the selection on the same event.
	m.SetFeatures(features)
	f, ok := m.Cycle(1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, domain.EffectiveMagnitude(f), 1e-9)
	assert.Equal(t, 1, reversed())
}

func TestMap_SelectAt(t *testing.T) {
	m := New(36, 10)
	m.SetFeatures([]domain.Feature{quake("", 2, 0, 0), quake("", 4, 100, 40)})

	f, ok := m.SelectAt(18, 4)
	require.True(t, ok)
	assert.InDelta(t, 2.0, domain.EffectiveMagnitude(f), 1e-9)

	next, ok := m.Cycle(1)
	require.True(t, ok)
	assert.InDelta(t, 4.0, domain.EffectiveMagnitude(next), 1e-9)

	_, ok = m.SelectAt(0, 8)
	assert.False(t, ok)
}

func TestMap_CycleRecentersOnHiddenSelection(t *testing.T) {
	m := New(36, 10)
	m.SetFeatures([]domain.Feature{quake("tokyo", 5, 139.7, 35.7)})
	for range MaxZoom {
		m.ZoomIn()
	}

	_, ok := m.Cycle(1)
	require.True(t, ok)
	assert.InDelta(t, 139.7, m.Viewport().CenterLon, 1e-9)
	assert.InDelta(t, 35.7, m.Viewport().CenterLat, 1e-9)

	m.Reset()
	assert.Equal(t, Viewport{Width: 36, Height: 9}, m.Viewport())
}

func TestMap_Popup(t *testing.T) {
	m := New(80, 20)
	f := quake("ak0001", 5.0, -150, 61)
	f.Place = "42 km N of Anchorage, Alaska"
	m.SetFeatures([]domain.Feature{f})
	m.Select(f)

	plain := m.Plain()
	assert.Contains(t, plain, "M 5.0 mb")
	assert.Contains(t, plain, "42 km N of Anchorage, Alaska")
	assert.Contains(t, plain, "2024-03-01 12:30:00 UTC")
	assert.Contains(t, plain, "61.000°N 150.000°W")
	assert.Contains(t, plain, "╭")
}

func TestMap_PopupTruncatesLongPlace(t *testing.T) {
	m := New(30, 20)
	f := quake("x", 4.0, 0, 0)
	f.Place = strings.Repeat("very long place name ", 4)
	m.SetFeatures([]domain.Feature{f})
	m.Select(f)

	assert.Contains(t, m.Plain(), "…")
	for _, line := range strings.Split(m.Plain(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 30)
	}
}

func TestMap_NoPopupWithoutSelection(t *testing.T) {
	m := New(80, 20)
	m.SetFeatures([]domain.Feature{quake("a", 5, 0, 0)})
	assert.NotContains(t, m.Plain(), "╭")
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "35.500°N 117.250°W", FormatCoordinates(35.5, -117.25))
	assert.Equal(t, "12.000°S 45.125°E", FormatCoordinates(-12, 45.125))
}

func TestPopupText_MissingFields(t *testing.T) {
	got := PopupText(domain.Feature{ID: "x", Point: orb.Point{1, 2}})
	assert.Equal(t, "M --\n2.000°N 1.000°E", got)
}

func TestMap_Boundaries(t *testing.T) {
	overlay := &boundary.Overlay{Lines: []boundary.Line{
		{Name: "ridge", Path: orb.LineString{{-60, 0}, {60, 0}}},
	}}
	m := New(80, 20)

	m.SetOverlay(overlay, true)
	assert.Contains(t, m.Plain(), "∙")

	m.SetOverlay(overlay, false)
	assert.NotContains(t, m.Plain(), "∙")
}

func TestMap_BoundariesSkipAntimeridianSegments(t *testing.T) {
	overlay := &boundary.Overlay{Lines: []boundary.Line{
		{Name: "split", Path: orb.LineString{{170, 10}, {-170, 10}}},
	}}
	m := New(80, 20)
	m.SetOverlay(overlay, true)
	assert.NotContains(t, m.Plain(), "∙")
}

func TestMap_LegendAndFooter(t *testing.T) {
	m := New(80, 20)
	m.SetLayer(tilelayer.Default().First())

	lines := strings.Split(m.Plain(), "\n")
	require.Len(t, lines, 20)
	assert.True(t, strings.HasPrefix(lines[19], "Light Map · "), lines[19])
	assert.LessOrEqual(t, ansi.StringWidth(lines[19]), 80)
	for _, stop := range domain.MagnitudePalette {
		assert.Contains(t, m.Plain(), stop.Label)
	}

	small := New(36, 10)
	assert.NotContains(t, small.Plain(), "7+")
}

func TestScaleHint(t *testing.T) {
	assert.Equal(t, "1 cell ≈ 10° lon", ScaleHint(Viewport{Width: 36, Height: 9}))
	assert.Equal(t, "1 cell ≈ 4.5° lon", ScaleHint(Viewport{Width: 80, Height: 19}))
	assert.Equal(t, "1 cell ≈ 0.07° lon", ScaleHint(Viewport{Width: 80, Height: 19, Zoom: 6}))
}

func TestMap_RenderMatchesPlainText(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	m := New(60, 16)
	f := quake("a", 4.7, 20, 10)
	m.SetFeatures([]domain.Feature{f})
	m.Select(f)

	rendered := m.Render(LightPalette)
	assert.Contains(t, rendered, "\x1b[")
	assert.Equal(t, m.Plain(), ansi.Strip(rendered))
}

func TestMap_ZeroSize(t *testing.T) {
	m := New(0, 0)
	m.SetFeatures([]domain.Feature{quake("a", 5, 0, 0)})
	assert.Empty(t, m.Plain())
	_, ok := m.MarkerAt(0, 0)
	assert.False(t, ok)
}
