package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = 8080
	defaultTokenVar      = "ENGINE_TOKEN"
	defaultCollectionID  = "COPERNICUS/S2_SR"
	defaultCloudCoverMax = 100
	defaultStartDate     = "2023-02-10"
	defaultEndDate       = "2023-02-20"
	defaultTileCacheSize = 2048
)

// Config holds environment-driven settings for the viewer service.
type Config struct {
	Port          int
	EngineBaseURL string
	TokenVar      string
	CollectionID  string
	CloudCoverMax float64
	DefaultStart  string
	DefaultEnd    string
	DefaultPoint  [2]float64
	MapCenter     [2]float64
	MapZoom       int
	TileCacheSize int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:          defaultPort,
		TokenVar:      defaultTokenVar,
		CollectionID:  defaultCollectionID,
		CloudCoverMax: defaultCloudCoverMax,
		DefaultStart:  defaultStartDate,
		DefaultEnd:    defaultEndDate,
		DefaultPoint:  [2]float64{27.98, 36.13},
		MapCenter:     [2]float64{36.40, 2.80},
		MapZoom:       10,
		TileCacheSize: defaultTileCacheSize,
	}

	cfg.EngineBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("ENGINE_BASE_URL")), "/")
	if cfg.EngineBaseURL == "" {
		return cfg, errors.New("ENGINE_BASE_URL is required")
	}

	if v := os.Getenv("ENGINE_TOKEN_VAR"); v != "" {
		cfg.TokenVar = v
	}

	if v := os.Getenv("COLLECTION_ID"); v != "" {
		cfg.CollectionID = v
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if ccStr := os.Getenv("CLOUD_COVER_MAX"); ccStr != "" {
		if cc, err := strconv.ParseFloat(ccStr, 64); err == nil && cc >= 0 {
			cfg.CloudCoverMax = cc
		} else {
			return cfg, fmt.Errorf("invalid CLOUD_COVER_MAX: %s", ccStr)
		}
	}

	if sizeStr := os.Getenv("TILE_CACHE_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			cfg.TileCacheSize = size
		} else {
			return cfg, fmt.Errorf("invalid TILE_CACHE_SIZE: %s", sizeStr)
		}
	}

	if dateStr := os.Getenv("DEFAULT_START_DATE"); dateStr != "" {
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			return cfg, fmt.Errorf("invalid DEFAULT_START_DATE: %s", dateStr)
		}
		cfg.DefaultStart = dateStr
	}

	if dateStr := os.Getenv("DEFAULT_END_DATE"); dateStr != "" {
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			return cfg, fmt.Errorf("invalid DEFAULT_END_DATE: %s", dateStr)
		}
		cfg.DefaultEnd = dateStr
	}

	if pointStr := os.Getenv("DEFAULT_POINT"); pointStr != "" {
		point, err := parsePair(pointStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid DEFAULT_POINT: %s", pointStr)
		}
		cfg.DefaultPoint = point
	}

	if centerStr := os.Getenv("MAP_CENTER"); centerStr != "" {
		center, err := parsePair(centerStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid MAP_CENTER: %s", centerStr)
		}
		cfg.MapCenter = center
	}

	if zoomStr := os.Getenv("MAP_ZOOM"); zoomStr != "" {
		if zoom, err := strconv.Atoi(zoomStr); err == nil && zoom > 0 {
			cfg.MapZoom = zoom
		} else {
			return cfg, fmt.Errorf("invalid MAP_ZOOM: %s", zoomStr)
		}
	}

	return cfg, nil
}

// parsePair parses a "a,b" coordinate pair.
func parsePair(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("want two comma-separated values, got %d", len(parts))
	}

	var pair [2]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [2]float64{}, err
		}
		pair[i] = v
	}
	return pair, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
