package mapview

import "math"

// MaxZoom bounds how far the view can be magnified.
const MaxZoom = 6

// Viewport is an equirectangular window onto the world. At zoom 0 the full
// 360° of longitude spans the grid width. Terminal cells are about twice as
// tall as they are wide, so a row covers twice the degrees of a column.
type Viewport struct {
	CenterLon float64
	CenterLat float64
	Zoom      int
	Width     int // columns
	Height    int // rows
}

// DegPerCol is the longitude covered by one column.
func (v Viewport) DegPerCol() float64 {
	if v.Width <= 0 {
		return 0
	}
	return 360 / (float64(v.Width) * math.Exp2(float64(v.Zoom)))
}

// DegPerRow is the latitude covered by one row.
func (v Viewport) DegPerRow() float64 { return 2 * v.DegPerCol() }

// Project maps lon/lat to a grid cell. ok is false when the point falls
// outside the grid.
func (v Viewport) Project(lon, lat float64) (col, row int, ok bool) {
	dpc, dpr := v.DegPerCol(), v.DegPerRow()
	if dpc == 0 || v.Height <= 0 {
		return 0, 0, false
	}
	x := wrapLon(lon-v.CenterLon)/dpc + float64(v.Width)/2
	y := (v.CenterLat-lat)/dpr + float64(v.Height)/2
	col, row = int(math.Floor(x)), int(math.Floor(y))
	ok = col >= 0 && col < v.Width && row >= 0 && row < v.Height
	return col, row, ok
}

// Unproject returns the lon/lat at the center of a grid cell.
func (v Viewport) Unproject(col, row int) (lon, lat float64) {
	lon = wrapLon(v.CenterLon + (float64(col)+0.5-float64(v.Width)/2)*v.DegPerCol())
	lat = v.CenterLat - (float64(row)+0.5-float64(v.Height)/2)*v.DegPerRow()
	return lon, lat
}

// Pan moves the center by whole cells. Latitude is clamped to the poles.
func (v Viewport) Pan(dCols, dRows int) Viewport {
	v.CenterLon = wrapLon(v.CenterLon + float64(dCols)*v.DegPerCol())
	v.CenterLat = clampLat(v.CenterLat - float64(dRows)*v.DegPerRow())
	return v
}

// WithZoom returns the viewport at zoom z, clamped to [0, MaxZoom].
func (v Viewport) WithZoom(z int) Viewport {
	v.Zoom = max(0, min(MaxZoom, z))
	return v
}

// wrapLon normalizes a longitude difference into [-180, 180).
func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}
