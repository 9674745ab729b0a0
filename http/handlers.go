package http

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zerotwo/sentinel-ndvi-viewer/aoi"
	"github.com/zerotwo/sentinel-ndvi-viewer/engine"
	"github.com/zerotwo/sentinel-ndvi-viewer/maprender"
	"github.com/zerotwo/sentinel-ndvi-viewer/pipeline"
	"github.com/zerotwo/sentinel-ndvi-viewer/tilecache"
)

//go:embed index.html
var indexHTML []byte

const dateFormat = "2006-01-02"

const engineAttribution = `Imagery &copy; processing engine`

var (
	mapRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_map_renders_total",
		Help: "The total number of successful map builds",
	})
	engineErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_engine_errors_total",
		Help: "The total number of failed engine requests",
	})
)

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleBuildMap turns the uploaded AOI files and date window into a map
// specification: basemaps plus one overlay per derived raster, each backed
// by a tile endpoint registered on the engine.
// POST /api/v1/map
func (s *Server) handleBuildMap(c *gin.Context) {
	if err := s.initEngine(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	window, err := s.parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploads, err := readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	geometry, err := aoi.Resolve(uploads, orb.Point(s.cfg.DefaultPoint))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spec := maprender.New(s.cfg.MapCenter, s.cfg.MapZoom)
	for _, product := range s.pipe.Products(geometry, window) {
		mt, err := s.engine.MapTile(c.Request.Context(), product.Image, product.Vis)
		if err != nil {
			engineErrors.Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("render %s: %v", product.Name, err)})
			return
		}
		spec.AddOverlay(product.Name, "/api/v1/tiles/"+mt.MapID+"/{z}/{x}/{y}", engineAttribution)
	}

	mapRenders.Inc()
	c.JSON(http.StatusOK, spec)
}

// handleTile proxies one rendered tile from the engine through the LRU cache.
// A tile request can be the first engine call of the process (a page kept
// open across a restart), so the credential is resolved here too.
// GET /api/v1/tiles/:mapid/:z/:x/:y
func (s *Server) handleTile(c *gin.Context) {
	if err := s.initEngine(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	mapID := c.Param("mapid")

	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errZ != nil || errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tile coordinate"})
		return
	}

	if tile, ok := s.tiles.Get(mapID, z, x, y); ok {
		c.Data(http.StatusOK, tile.ContentType, tile.Data)
		return
	}

	data, contentType, err := s.engine.FetchTile(c.Request.Context(), mapID, z, x, y)
	if err != nil {
		engineErrors.Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.tiles.Add(mapID, z, x, y, tilecache.Tile{Data: data, ContentType: contentType})
	c.Data(http.StatusOK, contentType, data)
}

// initEngine resolves the engine credential; memoized for the process
// lifetime inside the engine package.
func (s *Server) initEngine() error {
	return engine.Initialize(s.cfg.TokenVar)
}

// parseWindow reads the two picker dates, applying the configured defaults
// when a field is unset, and rejects windows whose end precedes the start.
func (s *Server) parseWindow(c *gin.Context) (pipeline.Window, error) {
	startStr := c.PostForm("start_date")
	if startStr == "" {
		startStr = s.cfg.DefaultStart
	}
	endStr := c.PostForm("end_date")
	if endStr == "" {
		endStr = s.cfg.DefaultEnd
	}

	start, err := time.Parse(dateFormat, startStr)
	if err != nil {
		return pipeline.Window{}, fmt.Errorf("invalid start_date: %s", startStr)
	}
	end, err := time.Parse(dateFormat, endStr)
	if err != nil {
		return pipeline.Window{}, fmt.Errorf("invalid end_date: %s", endStr)
	}
	if end.Before(start) {
		return pipeline.Window{}, fmt.Errorf("end_date %s precedes start_date %s", endStr, startStr)
	}

	return pipeline.NewWindow(start, end), nil
}

// readUploads drains every uploaded file into memory, preserving form order.
func readUploads(c *gin.Context) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("read form: %w", err)
	}

	files := form.File["files"]
	uploads := make([][]byte, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", header.Filename, err)
		}
		uploads = append(uploads, data)
	}
	return uploads, nil
}
