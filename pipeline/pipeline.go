// Package pipeline derives the rendered imagery products for one area of
// interest and time window: a true-color composite, an NDVI band, and a
// 7-class discretized NDVI, each paired with its visualization parameters.
package pipeline

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/zerotwo/sentinel-ndvi-viewer/engine"
)

const dateFormat = "2006-01-02"

// Surface reflectance scale factor of the archive's digital numbers.
const reflectanceScale = 10000

// Window is a normalized start/end date pair. End is exclusive per the
// engine's date filter convention.
type Window struct {
	Start string
	End   string
}

// NewWindow normalizes two picker dates to the engine's YYYY-MM-DD form.
func NewWindow(start, end time.Time) Window {
	return Window{
		Start: start.Format(dateFormat),
		End:   end.Format(dateFormat),
	}
}

// Product is one derived raster plus the parameters used to render it.
type Product struct {
	Name  string
	Image engine.Image
	Vis   engine.VisParams
}

// Pipeline holds the archive settings shared by every render.
type Pipeline struct {
	CollectionID  string
	CloudCoverMax float64
}

var tciVis = engine.VisParams{
	Bands: []string{"B4", "B3", "B2"},
	Min:   0,
	Max:   1,
	Gamma: 1,
}

var ndviVis = engine.VisParams{
	Min:     0,
	Max:     1,
	Palette: []string{"#ffffe5", "#f7fcb9", "#78c679", "#41ab5d", "#238443", "#005a32"},
}

var classifiedVis = engine.VisParams{
	Min:     1,
	Max:     7,
	Palette: []string{"#a50026", "#ed5e3d", "#f9f7ae", "#fec978", "#9ed569", "#229b51", "#006837"},
}

// Products builds the three derived rasters for the AOI and window, in the
// order they are registered on the map. All three are driven by the same
// median composite, so missing pixels are missing consistently across them.
func (p Pipeline) Products(aoi orb.Geometry, w Window) []Product {
	collection := engine.Collection(p.CollectionID).
		FilterLess("CLOUDY_PIXEL_PERCENTAGE", p.CloudCoverMax).
		FilterDate(w.Start, w.End).
		FilterBounds(aoi)

	composite := collection.Clip(aoi).Divide(reflectanceScale).Median()

	// Values below 0 are water or noise, not land.
	ndvi := composite.NormalizedDifference("B8", "B4").MaskBelow(0)

	classified := ndvi.Classify(Rules)

	return []Product{
		{Name: "True Color Image", Image: composite, Vis: tciVis},
		{Name: "NDVI", Image: ndvi, Vis: ndviVis},
		{Name: "NDVI - Classified", Image: classified, Vis: classifiedVis},
	}
}
