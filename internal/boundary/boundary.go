// Package boundary loads the tectonic plate boundary overlay. The bundled
// data is a coarse simplification of the major plate boundaries, suitable
// for a world-scale map.
package boundary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

//go:embed plates.geojson
var defaultData []byte

// Line is one named boundary segment.
type Line struct {
	Name string
	Path orb.LineString
}

// Overlay is the set of boundary lines drawn over the map.
type Overlay struct {
	Lines []Line
}

// Default returns the bundled overlay.
func Default() *Overlay {
	o, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("boundary: embedded overlay: %v", err))
	}
	return o
}

// Load reads an overlay from a GeoJSON file, or returns the bundled overlay
// when path is empty.
func Load(path string) (*Overlay, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	o, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// Parse decodes a GeoJSON feature collection. LineString and
// MultiLineString features become lines; polygon rings are drawn as their
// outlines. Other geometries are ignored.
func Parse(data []byte) (*Overlay, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}

	o := &Overlay{}
	for _, f := range fc.Features {
		name := f.Properties.MustString("Name", "")
		if name == "" {
			name = f.Properties.MustString("name", "")
		}
		for _, ls := range lineStrings(f.Geometry) {
			if len(ls) >= 2 {
				o.Lines = append(o.Lines, Line{Name: name, Path: ls})
			}
		}
	}
	if len(o.Lines) == 0 {
		return nil, errors.New("no boundary lines found")
	}
	return o, nil
}

func lineStrings(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	case orb.Polygon:
		out := make([]orb.LineString, len(g))
		for i, r := range g {
			out[i] = orb.LineString(r)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.LineString
		for _, p := range g {
			out = append(out, lineStrings(p)...)
		}
		return out
	default:
		return nil
	}
}

// Bound returns the bounding box of all lines.
func (o *Overlay) Bound() orb.Bound {
	var mls orb.MultiLineString
	for _, l := range o.Lines {
		mls = append(mls, l.Path)
	}
	return mls.Bound()
}

// FeatureCollection re-encodes the overlay for embedding in a web map.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range o.Lines {
		f := geojson.NewFeature(l.Path)
		f.Properties["Name"] = l.Name
		fc.Append(f)
	}
	return fc
}
