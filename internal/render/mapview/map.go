// Package mapview draws earthquake markers over a world map on a terminal
// character grid.
package mapview

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

// HitRadius is how many cells away from a marker a click still selects it.
const HitRadius = 2

// Palette colors the non-marker parts of the map.
type Palette struct {
	Graticule lipgloss.Color
	Boundary  lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Popup     lipgloss.Color
}

var (
	DarkPalette = Palette{
		Graticule: lipgloss.Color("#334155"),
		Boundary:  lipgloss.Color("#f472b6"),
		Text:      lipgloss.Color("#e2e8f0"),
		Muted:     lipgloss.Color("#64748b"),
		Popup:     lipgloss.Color("#38bdf8"),
	}
	LightPalette = Palette{
		Graticule: lipgloss.Color("#cbd5e1"),
		Boundary:  lipgloss.Color("#db2777"),
		Text:      lipgloss.Color("#0f172a"),
		Muted:     lipgloss.Color("#64748b"),
		Popup:     lipgloss.Color("#0369a1"),
	}
)

type marker struct {
	feature domain.Feature
	radius  float64
	color   lipgloss.Color
	order   int // position in the feed
}

type placed struct {
	*marker
	col, row int
}

// Map is a pannable, zoomable terminal world map. It owns its marker layer:
// SetFeatures replaces it and every draw re-projects it.
type Map struct {
	width, height  int
	view           Viewport
	layer          tilelayer.Layer
	overlay        *boundary.Overlay
	showBoundaries bool
	markers        []marker
	selected       *domain.Feature
	// selOrder is the feed position of the selected marker in the current
	// layer, or -1 when the selection has no marker.
	selOrder int
}

// New returns a map of the given size in cells, including the footer row.
func New(width, height int) *Map {
	m := &Map{selOrder: -1}
	m.Resize(width, height)
	return m
}

// Resize changes the map size, keeping center and zoom.
func (m *Map) Resize(width, height int) {
	m.width, m.height = max(width, 0), max(height, 0)
	m.view.Width, m.view.Height = m.width, max(m.height-1, 0)
}

// Viewport returns the current map window, excluding the footer row.
func (m *Map) Viewport() Viewport { return m.view }

// SetLayer sets the tile layer named in the footer.
func (m *Map) SetLayer(l tilelayer.Layer) { m.layer = l }

// SetOverlay sets the boundary overlay and whether it is drawn.
func (m *Map) SetOverlay(o *boundary.Overlay, show bool) {
	m.overlay = o
	m.showBoundaries = show
}

// SetFeatures rebuilds the marker layer. Larger markers are drawn last so
// they stay visible where markers overlap.
func (m *Map) SetFeatures(features []domain.Feature) {
	m.markers = make([]marker, len(features))
	for i, f := range features {
		m.markers[i] = marker{
			feature: f,
			radius:  domain.MarkerRadius(f),
			color:   lipgloss.Color(domain.MarkerColor(f)),
			order:   i,
		}
	}
	slices.SortStableFunc(m.markers, func(a, b marker) int { return cmp.Compare(a.radius, b.radius) })
	m.selOrder = -1
	if m.selected != nil {
		m.selOrder = m.orderOf(*m.selected)
	}
}

// MarkerCount returns the number of markers in the layer.
func (m *Map) MarkerCount() int { return len(m.markers) }

// Select makes f the selected event. Its popup is drawn while its marker is
// on the map.
func (m *Map) Select(f domain.Feature) {
	m.selected = &f
	m.selOrder = m.orderOf(f)
}

// SelectAt selects the marker nearest to a map cell, like MarkerAt.
func (m *Map) SelectAt(col, row int) (domain.Feature, bool) {
	mk := m.markerAt(col, row)
	if mk == nil {
		return domain.Feature{}, false
	}
	m.selectMarker(mk)
	return mk.feature, true
}

func (m *Map) selectMarker(mk *marker) {
	f := mk.feature
	m.selected = &f
	m.selOrder = mk.order
}

// orderOf returns the feed position of the first marker showing the same
// event as f, or -1.
func (m *Map) orderOf(f domain.Feature) int {
	best := -1
	for _, mk := range m.markers {
		if sameEvent(mk.feature, f) && (best < 0 || mk.order < best) {
			best = mk.order
		}
	}
	return best
}

// sameEvent compares by id, falling back to the event's content when
// neither feature has one.
func sameEvent(a, b domain.Feature) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.Time.Equal(b.Time) && a.Point == b.Point && a.Place == b.Place &&
		domain.MagnitudeLabel(a) == domain.MagnitudeLabel(b)
}

// Selected returns the selected event, if any.
func (m *Map) Selected() (domain.Feature, bool) {
	if m.selected == nil {
		return domain.Feature{}, false
	}
	return *m.selected, true
}

// Cycle selects the marker step positions away from the current selection,
// in feed order, wrapping around. The view re-centers when the new
// selection is off screen.
func (m *Map) Cycle(step int) (domain.Feature, bool) {
	if len(m.markers) == 0 {
		return domain.Feature{}, false
	}
	ordered := make([]*marker, len(m.markers))
	for i := range m.markers {
		ordered[m.markers[i].order] = &m.markers[i]
	}

	next := 0
	if step < 0 {
		next = len(ordered) - 1
	}
	if m.selOrder >= 0 {
		n := len(ordered)
		next = ((m.selOrder+step)%n + n) % n
	}

	m.selectMarker(ordered[next])
	f := ordered[next].feature
	if _, _, ok := m.view.Project(f.Lon(), f.Lat()); !ok {
		m.view.CenterLon, m.view.CenterLat = f.Lon(), f.Lat()
	}
	return f, true
}

// MarkerAt returns the marker nearest to a map cell, within HitRadius.
// Where markers tie, the one drawn on top wins.
func (m *Map) MarkerAt(col, row int) (domain.Feature, bool) {
	mk := m.markerAt(col, row)
	if mk == nil {
		return domain.Feature{}, false
	}
	return mk.feature, true
}

func (m *Map) markerAt(col, row int) *marker {
	visible := m.place()
	best, bestDist := -1, math.MaxInt
	for i, p := range visible {
		dc, dr := p.col-col, p.row-row
		if max(abs(dc), abs(dr)) > HitRadius {
			continue
		}
		if d := dc*dc + dr*dr; d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return nil
	}
	return visible[best].marker
}

// Pan moves the view by whole cells.
func (m *Map) Pan(dCols, dRows int) { m.view = m.view.Pan(dCols, dRows) }

// ZoomIn doubles the scale.
func (m *Map) ZoomIn() { m.view = m.view.WithZoom(m.view.Zoom + 1) }

// ZoomOut halves the scale.
func (m *Map) ZoomOut() { m.view = m.view.WithZoom(m.view.Zoom - 1) }

// Reset shows the whole world centered on 0°, 0°.
func (m *Map) Reset() {
	m.view.CenterLon, m.view.CenterLat, m.view.Zoom = 0, 0, 0
}

// Plain renders the map without color.
func (m *Map) Plain() string {
	return m.draw(DarkPalette).plain()
}

// Render renders the map with the given palette.
func (m *Map) Render(p Palette) string {
	return m.draw(p).styled()
}

// place projects the marker layer into the visible grid, bottom marker first.
func (m *Map) place() []placed {
	out := make([]placed, 0, len(m.markers))
	for i := range m.markers {
		mk := &m.markers[i]
		col, row, ok := m.view.Project(mk.feature.Lon(), mk.feature.Lat())
		if ok {
			out = append(out, placed{marker: mk, col: col, row: row})
		}
	}
	return out
}

func (m *Map) draw(p Palette) *grid {
	g := newGrid(m.width, m.height)
	if m.width == 0 || m.view.Height == 0 {
		return g
	}

	m.drawGraticule(g, p)
	if m.showBoundaries && m.overlay != nil {
		m.drawBoundaries(g, p)
	}

	var anchor *placed
	for _, pl := range m.place() {
		c := Cell{Rune: glyph(pl.radius), Color: pl.color, Bold: pl.radius >= domain.MarkerRadius(magFeature(6))}
		if pl.order == m.selOrder {
			c.Reverse = true
			anchor = &pl
		}
		g.set(pl.col, pl.row, c)
	}

	m.drawLegend(g, p)
	if anchor != nil {
		drawPopup(g, p, anchor.col, anchor.row, popupLines(anchor.feature), m.view.Height)
	}
	m.drawFooter(g, p)
	return g
}

// glyph picks the marker character from its radius.
func glyph(radius float64) rune {
	switch {
	case radius <= 3:
		return '·'
	case radius < domain.MarkerRadius(magFeature(2.5)):
		return 'o'
	case radius < domain.MarkerRadius(magFeature(4.5)):
		return 'O'
	default:
		return '@'
	}
}

func magFeature(m float64) domain.Feature {
	return domain.Feature{Magnitude: domain.Float(m)}
}

// graticuleStep returns the grid line spacing in degrees for a zoom level.
func graticuleStep(zoom int) float64 {
	step := 30.0
	for _, s := range []float64{30, 15, 10, 5, 2, 1} {
		step = s
		if s*math.Exp2(float64(zoom)) <= 60 {
			break
		}
	}
	return step
}

func (m *Map) drawGraticule(g *grid, p Palette) {
	step := graticuleStep(m.view.Zoom)
	rows := map[int]bool{}
	for lat := -90.0; lat <= 90; lat += step {
		if _, row, ok := m.view.Project(m.view.CenterLon, lat); ok && row < m.view.Height {
			rows[row] = true
		}
	}
	cols := map[int]bool{}
	for lon := -180.0; lon < 180; lon += step {
		if col, _, ok := m.view.Project(lon, m.view.CenterLat); ok {
			cols[col] = true
		}
	}
	for row := 0; row < m.view.Height; row++ {
		for col := 0; col < m.width; col++ {
			var r rune
			switch {
			case rows[row] && cols[col]:
				r = '┼'
			case rows[row]:
				r = '┈'
			case cols[col]:
				r = '┊'
			default:
				continue
			}
			g.set(col, row, Cell{Rune: r, Color: p.Graticule})
		}
	}
}

func (m *Map) drawBoundaries(g *grid, p Palette) {
	cell := Cell{Rune: '∙', Color: p.Boundary}
	for _, line := range m.overlay.Lines {
		for i := 1; i < len(line.Path); i++ {
			a, b := line.Path[i-1], line.Path[i]
			if math.Abs(b.Lon()-a.Lon()) > 180 {
				continue
			}
			x0, y0 := m.cellOf(a.Lon(), a.Lat())
			x1, y1 := m.cellOf(b.Lon(), b.Lat())
			if abs(x1-x0) > m.width/2 {
				// the segment crosses the edge of the view
				continue
			}
			bresenham(x0, y0, x1, y1, func(col, row int) {
				if row < m.view.Height {
					g.set(col, row, cell)
				}
			})
		}
	}
}

// cellOf projects without clipping to the grid.
func (m *Map) cellOf(lon, lat float64) (int, int) {
	v := m.view
	x := wrapLon(lon-v.CenterLon)/v.DegPerCol() + float64(v.Width)/2
	y := (v.CenterLat-lat)/v.DegPerRow() + float64(v.Height)/2
	return int(math.Floor(x)), int(math.Floor(y))
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawLegend lists the magnitude palette in the bottom left corner of the
// map area when it fits.
func (m *Map) drawLegend(g *grid, p Palette) {
	stops := domain.MagnitudePalette
	if m.view.Height < len(stops)+4 || m.width < 16 {
		return
	}
	top := m.view.Height - len(stops)
	for i, stop := range stops {
		row := top + i
		for col := 0; col < 12; col++ {
			g.set(col, row, Cell{Rune: ' '})
		}
		g.set(1, row, Cell{Rune: '●', Color: lipgloss.Color(stop.Color)})
		g.text(3, row, stop.Label, p.Text, false)
	}
}

func (m *Map) drawFooter(g *grid, p Palette) {
	parts := []string{}
	if m.layer.Name != "" {
		parts = append(parts, m.layer.Name)
	}
	if attr := m.layer.PlainAttribution(); attr != "" {
		parts = append(parts, attr)
	}
	parts = append(parts, ScaleHint(m.view))
	footer := ansi.Truncate(strings.Join(parts, " · "), m.width, "…")
	g.text(0, m.height-1, footer, p.Muted, false)
}

// ScaleHint describes the map scale, for example "1 cell ≈ 3.6° lon".
func ScaleHint(v Viewport) string {
	d := v.DegPerCol()
	switch {
	case d >= 10:
		return fmt.Sprintf("1 cell ≈ %.0f° lon", d)
	case d >= 1:
		return fmt.Sprintf("1 cell ≈ %.1f° lon", d)
	default:
		return fmt.Sprintf("1 cell ≈ %.2f° lon", d)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
