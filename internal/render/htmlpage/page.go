// Package htmlpage renders a snapshot of the dashboard as a standalone
// Leaflet web page with inline SVG charts.
package htmlpage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/render/charts"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

//go:embed page.html.tmpl
var pageTemplate string

var tmpl = template.Must(template.New("page").Parse(pageTemplate))

// Page is everything drawn on the page. Markers are limited to features at
// or above Threshold; stats and charts cover the whole collection.
type Page struct {
	Selector    domain.Selector
	Collection  domain.Collection
	Layer       tilelayer.Layer
	Overlay     *boundary.Overlay // nil hides the boundary layer
	Threshold   float64
	Dark        bool
	GeneratedAt time.Time
}

const (
	chartWidth  = 320
	chartHeight = 160
	pieRadius   = 70
	pieMargin   = 10
	pieCenter   = pieRadius + pieMargin
)

type barView struct {
	Label          string
	Count          int
	X, Y, W, H     float64
	LabelX, LabelY float64
	Color          string
}

type sliceView struct {
	Label   string
	Count   int
	Percent string
	Path    string
	Color   string
	Full    bool
}

type topView struct {
	Magnitude string
	Place     string
	Time      string
	URL       string
}

type pageView struct {
	Title       string
	Selector    string
	Dark        bool
	GeneratedAt string
	Threshold   string
	Shown       int

	TileURL     string
	Subdomains  string
	MaxZoom     int
	Attribution string

	Markers    template.JS
	Boundaries template.JS

	Count   int
	Max     string
	Average string
	Top     []topView

	Legend  []domain.PaletteStop
	Bars    []barView
	Slices  []sliceView
	ChartW  int
	ChartH  int
	PieSize int
	PieC    int
	PieR    int
}

// Render writes the page to w.
func Render(w io.Writer, p Page) error {
	view, err := buildView(p)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func buildView(p Page) (pageView, error) {
	features := p.Collection.Features
	shown := domain.FilterByMagnitude(features, p.Threshold)
	stats := domain.ComputeStats(features)
	buckets := domain.Bucketize(features)

	markers, err := json.Marshal(markerCollection(shown))
	if err != nil {
		return pageView{}, fmt.Errorf("encode markers: %w", err)
	}
	boundaries := []byte("null")
	if p.Overlay != nil {
		if boundaries, err = json.Marshal(p.Overlay.FeatureCollection()); err != nil {
			return pageView{}, fmt.Errorf("encode boundaries: %w", err)
		}
	}

	title := p.Collection.Title
	if title == "" {
		title = "Earthquakes: " + p.Selector.String()
	}

	v := pageView{
		Title:       title,
		Selector:    p.Selector.String(),
		Dark:        p.Dark,
		GeneratedAt: p.GeneratedAt.UTC().Format(time.RFC1123),
		Threshold:   domain.FormatMagnitude(p.Threshold),
		Shown:       len(shown),
		TileURL:     p.Layer.URL,
		Subdomains:  p.Layer.Subdomains,
		MaxZoom:     p.Layer.MaxZoom,
		Attribution: p.Layer.Attribution,
		Markers:     template.JS(markers),    //nolint:gosec // json.Marshal escapes <, > and &
		Boundaries:  template.JS(boundaries), //nolint:gosec // json.Marshal escapes <, > and &
		Count:       stats.Count,
		Max:         stats.MaxLabel(),
		Average:     stats.AverageLabel(),
		Legend:      domain.MagnitudePalette,
		Bars:        barViews(buckets),
		Slices:      sliceViews(buckets),
		ChartW:      chartWidth,
		ChartH:      chartHeight,
		PieSize:     2 * pieCenter,
		PieC:        pieCenter,
		PieR:        pieRadius,
	}
	if v.MaxZoom == 0 {
		v.MaxZoom = 18
	}
	for _, f := range stats.Top {
		v.Top = append(v.Top, topView{
			Magnitude: domain.MagnitudeLabel(f),
			Place:     f.Place,
			Time:      f.Time.UTC().Format("2006-01-02 15:04 UTC"),
			URL:       f.URL,
		})
	}
	return v, nil
}

// markerCollection encodes features as GeoJSON points carrying their marker
// style and popup fields.
func markerCollection(features []domain.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Point)
		gf.ID = f.ID
		gf.Properties["mag"] = domain.MagnitudeLabel(f)
		gf.Properties["magType"] = f.MagType
		gf.Properties["place"] = f.Place
		gf.Properties["time"] = f.Time.UTC().Format("2006-01-02 15:04:05 UTC")
		gf.Properties["url"] = f.URL
		gf.Properties["color"] = domain.MarkerColor(f)
		gf.Properties["radius"] = domain.MarkerRadius(f)
		fc.Append(gf)
	}
	return fc
}

func barViews(buckets []domain.Bucket) []barView {
	const top, bottom = 10, 20
	plot := float64(chartHeight - top - bottom)
	slot := float64(chartWidth) / float64(len(buckets))
	lengths := charts.BarLengths(buckets, int(plot))

	out := make([]barView, len(buckets))
	for i, b := range buckets {
		h := float64(lengths[i])
		x := float64(i)*slot + slot*0.15
		out[i] = barView{
			Label:  b.Label,
			Count:  b.Count,
			X:      x,
			Y:      top + plot - h,
			W:      slot * 0.7,
			H:      h,
			LabelX: float64(i)*slot + slot/2,
			LabelY: chartHeight - 5,
			Color:  domain.BucketColor(i),
		}
	}
	return out
}

func sliceViews(buckets []domain.Bucket) []sliceView {
	c := float64(pieCenter)
	var out []sliceView
	for _, s := range charts.Slices(buckets) {
		if s.Count == 0 {
			continue
		}
		out = append(out, sliceView{
			Label:   s.Label,
			Count:   s.Count,
			Percent: fmt.Sprintf("%.0f%%", s.Fraction*100),
			Path:    arcPath(c, c, pieRadius, s.Start, s.End),
			Color:   s.Color,
			Full:    s.Fraction >= 1,
		})
	}
	return out
}

// arcPath draws a pie wedge between two clockwise angles from twelve o'clock.
func arcPath(cx, cy, r, start, end float64) string {
	x0, y0 := cx+r*math.Sin(start), cy-r*math.Cos(start)
	x1, y1 := cx+r*math.Sin(end), cy-r*math.Cos(end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", cx, cy, x0, y0, r, r, large, x1, y1)
	return b.String()
}
