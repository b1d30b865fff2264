package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNotPoint is returned for features whose geometry is not a Point.
var ErrNotPoint = errors.New("feature geometry is not a point")

// ParseCollection converts a decoded GeoJSON feature collection into a
// Collection. Features that cannot be placed on the map are dropped and
// reported in the returned count.
func ParseCollection(fc *geojson.FeatureCollection) (Collection, int) {
	var c Collection
	if fc == nil {
		return c, 0
	}

	if meta, ok := fc.ExtraMembers["metadata"].(map[string]any); ok {
		c.Title, _ = meta["title"].(string)
		if ms, ok := meta["generated"].(float64); ok {
			c.Generated = time.UnixMilli(int64(ms)).UTC()
		}
	}

	c.Features = make([]Feature, 0, len(fc.Features))
	skipped := 0
	for _, gf := range fc.Features {
		f, err := ParseFeature(gf)
		if err != nil {
			skipped++
			continue
		}
		c.Features = append(c.Features, f)
	}
	return c, skipped
}

// ParseFeature normalizes one GeoJSON feature. Magnitude stays nil when the
// property is null or absent; place and title are trimmed.
func ParseFeature(gf *geojson.Feature) (Feature, error) {
	if gf == nil {
		return Feature{}, errors.New("nil feature")
	}
	pt, ok := gf.Geometry.(orb.Point)
	if !ok {
		return Feature{}, fmt.Errorf("feature %v: %w", gf.ID, ErrNotPoint)
	}
	if !validLonLat(pt) {
		return Feature{}, fmt.Errorf("feature %v: coordinates out of range: %v", gf.ID, pt)
	}

	props := gf.Properties
	f := Feature{
		ID:        featureID(gf),
		Magnitude: floatProp(props, "mag"),
		MagType:   stringProp(props, "magType"),
		Place:     stringProp(props, "place"),
		URL:       stringProp(props, "url"),
		Title:     stringProp(props, "title"),
		Point:     pt,
	}
	if ms := floatProp(props, "time"); ms != nil {
		f.Time = time.UnixMilli(int64(*ms)).UTC()
	}
	if f.ID == "" {
		f.ID = syntheticID(f)
	}
	return f, nil
}

// syntheticID identifies a feature the feed sent without an id by its
// origin time and epicenter.
func syntheticID(f Feature) string {
	return fmt.Sprintf("%d@%.4f,%.4f", f.EpochMillis(), f.Lon(), f.Lat())
}

func featureID(gf *geojson.Feature) string {
	switch id := gf.ID.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// floatProp returns nil for absent, null, or non-numeric values.
func floatProp(props geojson.Properties, key string) *float64 {
	v, ok := props[key].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func stringProp(props geojson.Properties, key string) string {
	s, _ := props[key].(string)
	return strings.TrimSpace(s)
}

func validLonLat(p orb.Point) bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}
