package engine

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Node is a single operation in the engine's server-side expression graph.
// Graphs are built bottom-up and serialized as nested JSON; the engine
// evaluates them lazily, so no pixel data is ever materialized client-side.
type Node struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ImageCollection is an unmaterialized reference to a filtered set of scenes.
type ImageCollection struct {
	node Node
}

// Image is an unmaterialized single-raster expression.
type Image struct {
	node Node
}

func (ic ImageCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(ic.node)
}

func (img Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.node)
}

// Collection references a named image archive on the engine.
func Collection(id string) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.load",
		Args: map[string]any{"id": id},
	}}
}

// FilterLess keeps scenes whose metadata property is strictly below value.
func (ic ImageCollection) FilterLess(property string, value float64) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.filterMetadata",
		Args: map[string]any{
			"collection": ic.node,
			"property":   property,
			"op":         "less_than",
			"value":      value,
		},
	}}
}

// FilterDate keeps scenes acquired within [start, end). The end date is
// exclusive per the engine's convention.
func (ic ImageCollection) FilterDate(start, end string) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.filterDate",
		Args: map[string]any{
			"collection": ic.node,
			"start":      start,
			"end":        end,
		},
	}}
}

// FilterBounds keeps scenes whose footprint intersects the geometry.
func (ic ImageCollection) FilterBounds(g orb.Geometry) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.filterBounds",
		Args: map[string]any{
			"collection": ic.node,
			"geometry":   geojson.NewGeometry(g),
		},
	}}
}

// Clip clips every scene in the collection to the geometry.
func (ic ImageCollection) Clip(g orb.Geometry) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.clip",
		Args: map[string]any{
			"collection": ic.node,
			"geometry":   geojson.NewGeometry(g),
		},
	}}
}

// Divide divides every band of every scene by a constant scale factor.
func (ic ImageCollection) Divide(scale float64) ImageCollection {
	return ImageCollection{node: Node{
		Name: "Collection.divide",
		Args: map[string]any{
			"collection": ic.node,
			"value":      scale,
		},
	}}
}

// Median reduces the collection to one image via per-pixel median over time.
func (ic ImageCollection) Median() Image {
	return Image{node: Node{
		Name: "Collection.median",
		Args: map[string]any{"collection": ic.node},
	}}
}

// NormalizedDifference computes (first − second) / (first + second).
func (img Image) NormalizedDifference(first, second string) Image {
	return Image{node: Node{
		Name: "Image.normalizedDifference",
		Args: map[string]any{
			"image": img.node,
			"bands": []string{first, second},
		},
	}}
}

// MaskBelow masks out pixels whose value is below threshold. Masked pixels
// stay masked through every downstream operation.
func (img Image) MaskBelow(threshold float64) Image {
	return Image{node: Node{
		Name: "Image.mask",
		Args: map[string]any{
			"image":     img.node,
			"op":        "greater_than_equals",
			"threshold": threshold,
		},
	}}
}

// A ClassRule assigns Class to source values in [Lower, Upper). A nil Upper
// leaves the interval unbounded above.
type ClassRule struct {
	Lower float64  `json:"lower"`
	Upper *float64 `json:"upper,omitempty"`
	Class int      `json:"class"`
}

// Classify buckets the image into ordinal classes. Every rule is evaluated
// against this image's original values, not against earlier rules' output,
// so masked pixels remain masked in the result.
func (img Image) Classify(rules []ClassRule) Image {
	return Image{node: Node{
		Name: "Image.classify",
		Args: map[string]any{
			"image": img.node,
			"rules": rules,
		},
	}}
}

// VisParams select how a raster is rendered to tiles: either a band triplet
// with a value range and gamma, or a palette over a single band.
type VisParams struct {
	Bands   []string `json:"bands,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Gamma   float64  `json:"gamma,omitempty"`
	Palette []string `json:"palette,omitempty"`
}
