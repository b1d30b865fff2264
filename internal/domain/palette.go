package domain

// PaletteStop colors markers whose magnitude is at least Min, up to the next stop.
type PaletteStop struct {
	Min   float64
	Color string // hex RGB
	Label string
}

// MagnitudePalette colors map markers. Stops are ascending; a magnitude
// below the first stop uses the first color.
var MagnitudePalette = []PaletteStop{
	{Min: 0, Color: "#38bdf8", Label: "< 1"},
	{Min: 1, Color: "#4ade80", Label: "1–2.5"},
	{Min: 2.5, Color: "#facc15", Label: "2.5–4.5"},
	{Min: 4.5, Color: "#fb923c", Label: "4.5–6"},
	{Min: 6, Color: "#ef4444", Label: "6–7"},
	{Min: 7, Color: "#a21caf", Label: "7+"},
}

// BucketColors color the chart bars and pie slices, one per bucket index.
var BucketColors = []string{"#22c55e", "#facc15", "#f97316", "#ef4444", "#7c3aed"}

// MarkerColor returns the palette color for a feature.
func MarkerColor(f Feature) string {
	return PaletteColor(EffectiveMagnitude(f))
}

// PaletteColor returns the palette color for a magnitude.
func PaletteColor(m float64) string {
	color := MagnitudePalette[0].Color
	for _, stop := range MagnitudePalette {
		if m >= stop.Min {
			color = stop.Color
		}
	}
	return color
}

// BucketColor returns the chart color for a bucket index, wrapping around.
func BucketColor(i int) string {
	if i < 0 {
		i = -i
	}
	return BucketColors[i%len(BucketColors)]
}

// MarkerRadius scales the map marker with magnitude, in pixels.
func MarkerRadius(f Feature) float64 {
	m := EffectiveMagnitude(f)
	if m < 1 {
		return 3
	}
	return 3 + m*2.5
}
