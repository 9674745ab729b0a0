// Package tilecache keeps recently proxied engine tiles in memory so pans
// and zooms back over the same area do not re-render on the engine.
package tilecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_tile_cache_hits_total",
		Help: "The total number of hits on the tile cache",
	})
	tileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewer_tile_cache_misses_total",
		Help: "The total number of misses on the tile cache",
	})
)

// Tile is one rendered map tile as returned by the engine.
type Tile struct {
	Data        []byte
	ContentType string
}

// Cache is a fixed-size in-memory LRU of rendered tiles.
type Cache struct {
	tiles *lru.Cache[string, Tile]
}

// New returns a cache holding at most size tiles.
func New(size int) (*Cache, error) {
	tiles, err := lru.New[string, Tile](size)
	if err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}
	return &Cache{tiles: tiles}, nil
}

// Get returns the cached tile for the coordinate, if present.
func (c *Cache) Get(mapID string, z, x, y int) (Tile, bool) {
	tile, ok := c.tiles.Get(key(mapID, z, x, y))
	if ok {
		tileCacheHits.Inc()
	} else {
		tileCacheMisses.Inc()
	}
	return tile, ok
}

// Add stores a tile, evicting the least recently used one when full.
func (c *Cache) Add(mapID string, z, x, y int, tile Tile) {
	c.tiles.Add(key(mapID, z, x, y), tile)
}

func key(mapID string, z, x, y int) string {
	return fmt.Sprintf("%s/%d/%d/%d", mapID, z, x, y)
}
