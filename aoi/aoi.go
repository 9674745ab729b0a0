// Package aoi resolves uploaded GeoJSON documents into the single
// area-of-interest geometry the imagery pipeline operates on.
package aoi

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Resolve combines the polygons from the uploaded GeoJSON documents into one
// multi-polygon. Each document must carry at least one feature whose geometry
// is a polygon; anything else aborts the whole render. With no uploads the
// fallback point is returned instead.
func Resolve(uploads [][]byte, fallback orb.Point) (orb.Geometry, error) {
	polygons := make([]orb.Polygon, 0, len(uploads))
	for i, data := range uploads {
		polygon, err := polygonFrom(data)
		if err != nil {
			return nil, fmt.Errorf("upload %d: %w", i+1, err)
		}
		polygons = append(polygons, polygon)
	}

	if len(polygons) == 0 {
		return fallback, nil
	}
	return orb.MultiPolygon(polygons), nil
}

func polygonFrom(data []byte) (orb.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse GeoJSON: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("GeoJSON has no features")
	}

	switch g := fc.Features[0].Geometry.(type) {
	case orb.Polygon:
		return g, nil
	default:
		return nil, fmt.Errorf("first feature is %T, want a polygon", g)
	}
}
