package mapview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/couchcryptid/quakewatch/internal/domain"
)

const popupMaxWidth = 44

// popupLines describes an event: magnitude and type, place, UTC time,
// coordinates and the event page link.
func popupLines(f domain.Feature) []string {
	mag := "M " + domain.MagnitudeLabel(f)
	if f.MagType != "" {
		mag += " " + f.MagType
	}
	lines := []string{mag}
	if f.Place != "" {
		lines = append(lines, f.Place)
	}
	if !f.Time.IsZero() {
		lines = append(lines, f.Time.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	lines = append(lines, FormatCoordinates(f.Lat(), f.Lon()))
	if f.URL != "" {
		lines = append(lines, f.URL)
	}
	return lines
}

// FormatCoordinates renders a position as "35.123°N 117.456°W".
func FormatCoordinates(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.3f°%s %.3f°%s", lat, ns, lon, ew)
}

// drawPopup boxes lines next to the marker at (col, row), preferring above
// and to the right, flipping to stay inside the map area.
func drawPopup(g *grid, p Palette, col, row int, lines []string, areaHeight int) {
	inner := 0
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, min(popupMaxWidth, g.width-4), "…")
		inner = max(inner, ansi.StringWidth(lines[i]))
	}
	w, h := inner+4, len(lines)+2
	if w > g.width || h > areaHeight {
		return
	}

	left := col + 1
	if left+w > g.width {
		left = col - w
	}
	top := row - h
	if top < 0 {
		top = row + 1
	}
	left = max(0, min(left, g.width-w))
	top = max(0, min(top, areaHeight-h))

	border := Cell{Color: p.Popup}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := border
			switch {
			case y == 0 && x == 0:
				c.Rune = '╭'
			case y == 0 && x == w-1:
				c.Rune = '╮'
			case y == h-1 && x == 0:
				c.Rune = '╰'
			case y == h-1 && x == w-1:
				c.Rune = '╯'
			case y == 0 || y == h-1:
				c.Rune = '─'
			case x == 0 || x == w-1:
				c.Rune = '│'
			default:
				c = Cell{Rune: ' '}
			}
			g.set(left+x, top+y, c)
		}
	}
	for i, l := range lines {
		g.text(left+2, top+1+i, l, p.Text, i == 0)
	}
}

// PopupText returns the popup content for f as plain lines.
func PopupText(f domain.Feature) string {
	return strings.Join(popupLines(f), "\n")
}
