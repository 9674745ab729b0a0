// Package engine is the client for the remote geospatial-processing service.
// It builds expression graphs describing the imagery math and asks the
// service to render them as map tiles; all evaluation happens remotely.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client talks to one engine deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the engine at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// MapTile identifies a rendered raster's tile endpoint on the engine.
type MapTile struct {
	MapID     string `json:"mapid"`
	URLFormat string `json:"url_format"`
}

type mapRequest struct {
	Expression Image     `json:"expression"`
	VisParams  VisParams `json:"vis_params"`
}

// MapTile registers an expression plus its visualization parameters with the
// engine and returns the tile endpoint serving the rendered result.
func (c *Client) MapTile(ctx context.Context, img Image, vis VisParams) (MapTile, error) {
	payload, err := json.Marshal(mapRequest{Expression: img, VisParams: vis})
	if err != nil {
		return MapTile{}, fmt.Errorf("encode expression: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/map", bytes.NewReader(payload))
	if err != nil {
		return MapTile{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MapTile{}, fmt.Errorf("request map tile endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return MapTile{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var mt MapTile
	if err := json.NewDecoder(resp.Body).Decode(&mt); err != nil {
		return MapTile{}, fmt.Errorf("decode map tile endpoint: %w", err)
	}
	return mt, nil
}

// FetchTile retrieves one rendered tile. It returns the raw bytes and the
// content type reported by the engine.
func (c *Client) FetchTile(ctx context.Context, mapID string, z, x, y int) ([]byte, string, error) {
	tileURL := fmt.Sprintf("%s/v1/tiles/%s/%d/%d/%d", c.baseURL, url.PathEscape(mapID), z, x, y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+credential())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read tile: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
