package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

var (
	ErrNotFound    = errors.New("no matching location")
	ErrUnavailable = errors.New("geocoding service unavailable")
)

const defaultUserAgent = "cliweather"

// Client resolves free-form addresses via Nominatim and the machine's
// approximate position via ipinfo.io.
type Client struct {
	searchURL  string
	reverseURL string
	ipinfoURL  string
	userAgent  string
	client     *http.Client
}

// New builds a geocoding client with the given request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		searchURL:  "https://nominatim.openstreetmap.org/search",
		reverseURL: "https://nominatim.openstreetmap.org/reverse",
		ipinfoURL:  "https://ipinfo.io/json",
		userAgent:  defaultUserAgent,
		client:     &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search forward-geocodes a free-form query. Returns up to limit matches,
// best first, or ErrNotFound when Nominatim has nothing.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, c.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parse geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	locations := make([]models.Location, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		locations = append(locations, models.Location{
			Name:      query,
			Latitude:  lat,
			Longitude: lon,
			Address:   r.DisplayName,
		})
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return locations, nil
}

// Geocode returns the single best match for a query.
func (c *Client) Geocode(ctx context.Context, query string) (models.Location, error) {
	matches, err := c.Search(ctx, query, 1)
	if err != nil {
		return models.Location{}, err
	}
	return matches[0], nil
}

// Reverse resolves coordinates to a display address. Failure is non-fatal for
// callers; they keep the bare coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	body, err := c.get(ctx, c.reverseURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	var result nominatimResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse reverse geocode response: %w", err)
	}
	if result.DisplayName == "" {
		return "", ErrNotFound
	}
	return result.DisplayName, nil
}

type ipinfoResponse struct {
	Loc  string `json:"loc"` // "lat,lon"
	City string `json:"city"`
}

// Current returns the machine's approximate location from its public IP,
// refined with a reverse-geocoded address when possible.
func (c *Client) Current(ctx context.Context) (models.Location, error) {
	body, err := c.get(ctx, c.ipinfoURL)
	if err != nil {
		return models.Location{}, err
	}

	var info ipinfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return models.Location{}, fmt.Errorf("parse ipinfo response: %w", err)
	}
	parts := strings.SplitN(info.Loc, ",", 2)
	if len(parts) != 2 {
		return models.Location{}, fmt.Errorf("%w: malformed coordinates %q", ErrUnavailable, info.Loc)
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return models.Location{}, fmt.Errorf("%w: malformed coordinates %q", ErrUnavailable, info.Loc)
	}

	loc := models.Location{Name: "Current location", Latitude: lat, Longitude: lon}
	if addr, err := c.Reverse(ctx, lat, lon); err == nil {
		loc.Address = addr
	} else if info.City != "" {
		loc.Address = info.City
	}
	return loc, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return body, nil
}
