package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/zerotwo/sentinel-ndvi-viewer/config"
	"github.com/zerotwo/sentinel-ndvi-viewer/engine"
	httpserver "github.com/zerotwo/sentinel-ndvi-viewer/http"
	"github.com/zerotwo/sentinel-ndvi-viewer/pipeline"
	"github.com/zerotwo/sentinel-ndvi-viewer/tilecache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tiles, err := tilecache.New(cfg.TileCacheSize)
	if err != nil {
		log.Fatalf("tile cache error: %v", err)
	}

	client := engine.NewClient(cfg.EngineBaseURL)
	pipe := pipeline.Pipeline{
		CollectionID:  cfg.CollectionID,
		CloudCoverMax: cfg.CloudCoverMax,
	}

	srv := httpserver.New(cfg, client, pipe, tiles)
	log.Printf("viewer listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
