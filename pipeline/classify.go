package pipeline

import (
	"math"

	"github.com/zerotwo/sentinel-ndvi-viewer/engine"
)

// Rules is the 7-class NDVI breakdown, ordered by ascending threshold.
// Every rule is matched against the original NDVI value, lower bound
// inclusive, upper bound exclusive; the last class is unbounded above.
var Rules = []engine.ClassRule{
	{Lower: 0, Upper: bound(0.15), Class: 1},
	{Lower: 0.15, Upper: bound(0.25), Class: 2},
	{Lower: 0.25, Upper: bound(0.35), Class: 3},
	{Lower: 0.35, Upper: bound(0.45), Class: 4},
	{Lower: 0.45, Upper: bound(0.65), Class: 5},
	{Lower: 0.65, Upper: bound(0.75), Class: 6},
	{Lower: 0.75, Class: 7},
}

func bound(v float64) *float64 {
	return &v
}

// ClassOf returns the class the rules assign to an NDVI value. Masked (NaN)
// values stay masked: ok is false and no class applies. The first matching
// rule wins.
func ClassOf(rules []engine.ClassRule, v float64) (class int, ok bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	for _, r := range rules {
		if v < r.Lower {
			continue
		}
		if r.Upper != nil && v >= *r.Upper {
			continue
		}
		return r.Class, true
	}
	return 0, false
}
