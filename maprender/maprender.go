// Package maprender assembles the map specification the single-page app
// renders: center, zoom, selectable basemaps, and overlay tile layers in
// registration order.
package maprender

// Basemap is a static background tile layer.
type Basemap struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	Show        bool   `json:"show"`
}

// Overlay is a derived-raster tile layer. Overlays default to visible and
// are toggled through the layer control.
type Overlay struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	Show        bool   `json:"show"`
}

// MapSpec describes the composed map. Overlay order is panel display order.
type MapSpec struct {
	Center          [2]float64 `json:"center"`
	Zoom            int        `json:"zoom"`
	Basemaps        []Basemap  `json:"basemaps"`
	Overlays        []Overlay  `json:"overlays"`
	ControlExpanded bool       `json:"control_expanded"`
}

// New returns a map spec with the two standard basemaps attached: the dark
// basemap visible by default and the topographic one hidden.
func New(center [2]float64, zoom int) *MapSpec {
	return &MapSpec{
		Center:          center,
		Zoom:            zoom,
		ControlExpanded: true,
		Basemaps: []Basemap{
			{
				Name:        "Dark Matter Basemap",
				URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
				Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
				Show:        true,
			},
			{
				Name:        "Topography Basemap",
				URL:         "https://{s}.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png",
				Attribution: "Topography Map",
				Show:        false,
			},
		},
	}
}

// AddOverlay appends an overlay tile layer to the panel.
func (m *MapSpec) AddOverlay(name, urlTemplate, attribution string) {
	m.Overlays = append(m.Overlays, Overlay{
		Name:        name,
		URL:         urlTemplate,
		Attribution: attribution,
		Show:        true,
	})
}
