package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zerotwo/sentinel-ndvi-viewer/config"
	"github.com/zerotwo/sentinel-ndvi-viewer/engine"
	httpserver "github.com/zerotwo/sentinel-ndvi-viewer/http"
	"github.com/zerotwo/sentinel-ndvi-viewer/maprender"
	"github.com/zerotwo/sentinel-ndvi-viewer/pipeline"
	"github.com/zerotwo/sentinel-ndvi-viewer/tilecache"
)

const polygonDocument = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[2.7, 36.3], [2.9, 36.3], [2.9, 36.5], [2.7, 36.5], [2.7, 36.3]]]
      }
    }
  ]
}`

// fakeEngine stands in for the remote processing service.
type fakeEngine struct {
	mapRequests  int
	tileRequests int
	tileAuth     string
}

func (f *fakeEngine) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/map", func(w http.ResponseWriter, r *http.Request) {
		f.mapRequests++
		json.NewEncoder(w).Encode(map[string]string{
			"mapid":      fmt.Sprintf("m-%d", f.mapRequests),
			"url_format": fmt.Sprintf("/v1/tiles/m-%d/{z}/{x}/{y}", f.mapRequests),
		})
	})
	mux.HandleFunc("/v1/tiles/", func(w http.ResponseWriter, r *http.Request) {
		f.tileRequests++
		f.tileAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tile-bytes"))
	})
	return mux
}

func newTestServer(t *testing.T) (*httpserver.Server, *fakeEngine) {
	t.Helper()

	fake := &fakeEngine{}
	return newTestServerWithBackend(t, fake.handler()), fake
}

func newTestServerWithBackend(t *testing.T, handler http.Handler) *httpserver.Server {
	t.Helper()
	t.Setenv("ENGINE_TOKEN", "test-credential")

	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	cfg := config.Config{
		Port:          8080,
		EngineBaseURL: backend.URL,
		TokenVar:      "ENGINE_TOKEN",
		CollectionID:  "COPERNICUS/S2_SR",
		CloudCoverMax: 100,
		DefaultStart:  "2023-02-10",
		DefaultEnd:    "2023-02-20",
		DefaultPoint:  [2]float64{27.98, 36.13},
		MapCenter:     [2]float64{36.40, 2.80},
		MapZoom:       10,
		TileCacheSize: 16,
	}

	tiles, err := tilecache.New(cfg.TileCacheSize)
	assert.NoError(t, err)

	pipe := pipeline.Pipeline{CollectionID: cfg.CollectionID, CloudCoverMax: cfg.CloudCoverMax}
	return httpserver.New(cfg, engine.NewClient(cfg.EngineBaseURL), pipe, tiles)
}

func buildMapRequest(t *testing.T, fields map[string]string, files []string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		assert.NoError(t, writer.WriteField(name, value))
	}
	for i, file := range files {
		part, err := writer.CreateFormFile("files", fmt.Sprintf("aoi-%d.geojson", i+1))
		assert.NoError(t, err)
		_, err = part.Write([]byte(file))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/map", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Sentinel NDVI Viewer")
}

func TestBuildMapWithDefaults(t *testing.T) {
	srv, fake := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var spec maprender.MapSpec
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))

	assert.Equal(t, [2]float64{36.40, 2.80}, spec.Center)
	assert.Equal(t, 10, spec.Zoom)
	assert.True(t, spec.ControlExpanded)
	assert.Equal(t, 2, len(spec.Basemaps))
	assert.True(t, spec.Basemaps[0].Show)
	assert.False(t, spec.Basemaps[1].Show)

	assert.Equal(t, 3, len(spec.Overlays))
	assert.Equal(t, "True Color Image", spec.Overlays[0].Name)
	assert.Equal(t, "NDVI", spec.Overlays[1].Name)
	assert.Equal(t, "NDVI - Classified", spec.Overlays[2].Name)
	assert.True(t, strings.HasPrefix(spec.Overlays[0].URL, "/api/v1/tiles/m-1/"))
	assert.Equal(t, 3, fake.mapRequests)
}

func TestBuildMapWithUploadedAOI(t *testing.T) {
	srv, fake := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, map[string]string{
		"start_date": "2023-03-01",
		"end_date":   "2023-03-15",
	}, []string{polygonDocument}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, fake.mapRequests)
}

func TestBuildMapLayerNamesAreStable(t *testing.T) {
	srv, _ := newTestServer(t)

	names := func() []string {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, buildMapRequest(t, nil, []string{polygonDocument}))
		assert.Equal(t, http.StatusOK, w.Code)

		var spec maprender.MapSpec
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
		collected := make([]string, 0, len(spec.Overlays))
		for _, overlay := range spec.Overlays {
			collected = append(collected, overlay.Name)
		}
		return collected
	}

	assert.Equal(t, names(), names())
}

func TestBuildMapRejectsBadGeoJSON(t *testing.T) {
	srv, fake := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, nil, []string{`not geojson`}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	assert.Equal(t, 0, fake.mapRequests)
}

func TestBuildMapRejectsInvertedWindow(t *testing.T) {
	srv, fake := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, map[string]string{
		"start_date": "2023-02-20",
		"end_date":   "2023-02-10",
	}, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, fake.mapRequests)
}

func TestBuildMapRejectsMalformedDate(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, map[string]string{
		"start_date": "10/02/2023",
	}, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTileProxyCachesTiles(t *testing.T) {
	srv, fake := newTestServer(t)

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tiles/m-1/3/4/5", nil))
		return w
	}

	first := get()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "tile-bytes", first.Body.String())
	assert.Equal(t, 1, fake.tileRequests)

	second := get()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "tile-bytes", second.Body.String())
	assert.Equal(t, 1, fake.tileRequests)
}

// A tile request may be the first engine call of the process, e.g. a page
// kept open across a service restart. It must carry the credential even
// when no map build has run yet.
func TestTileProxyAuthenticatesOnFreshServer(t *testing.T) {
	srv, fake := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tiles/m-1/3/4/5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer test-credential", fake.tileAuth)
}

func TestBuildMapEngineFailure(t *testing.T) {
	srv := newTestServerWithBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, buildMapRequest(t, nil, nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "render True Color Image:")
}

func TestTileProxyRejectsBadCoordinates(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tiles/m-1/a/b/c", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
