package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rbacarra/cliweather/internal/models"
	"github.com/rbacarra/cliweather/internal/observability"
)

// Fetcher is the weather API surface the rest of the program consumes.
type Fetcher interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherReading, error)
	FetchHourly(ctx context.Context, lat, lon float64) (models.ForecastSeries, error)
	FetchDaily(ctx context.Context, lat, lon float64) (models.ForecastSeries, error)
	FetchAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrNetwork          = errors.New("network failure")
)

// APIError reports a non-2xx upstream response not covered by a more
// specific sentinel.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weather API: HTTP %d", e.StatusCode)
}

// hourlyCount and dailyStep mirror the upstream forecast layout: the
// /forecast endpoint returns 3-hour slots, so one day is every 8th slot and
// the hourly view takes the first 24 slots.
const (
	hourlyCount = 24
	dailyStep   = 8
	dailyCount  = 5
)

// Client talks to the OpenWeatherMap API. Calls retry with exponential
// backoff and jitter on retryable failures and run through a circuit breaker
// so a dead upstream fails fast instead of burning the full retry budget.
type Client struct {
	apiKey         string
	forecastURL    string
	currentURL     string
	oneCallURL     string
	tz             *time.Location
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// Config carries the client settings; zero-valued fields fall back to
// defaults.
type Config struct {
	APIKey         string
	BaseURL        string // API root, default https://api.openweathermap.org
	Timezone       *time.Location
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// NewClient validates the API key and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(cfg.APIKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openweathermap.org"
	}
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := cfg.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "weather_api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &Client{
		apiKey:         cfg.APIKey,
		forecastURL:    base + "/data/2.5/forecast",
		currentURL:     base + "/data/2.5/weather",
		oneCallURL:     base + "/data/3.0/onecall",
		tz:             tz,
		breaker:        breaker,
		retryAttempts:  attempts,
		retryBaseDelay: baseDelay,
		retryMaxDelay:  maxDelay,
		client:         &http.Client{Timeout: timeout},
	}, nil
}

// FetchCurrent returns the current conditions for the coordinates.
func (c *Client) FetchCurrent(ctx context.Context, lat, lon float64) (models.WeatherReading, error) {
	body, err := c.get(ctx, c.currentURL, lat, lon, nil)
	if err != nil {
		return models.WeatherReading{}, err
	}
	var resp currentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.WeatherReading{}, fmt.Errorf("parse current response: %w", err)
	}
	return mapCurrent(resp, c.tz), nil
}

// FetchHourly returns the next forecast slots at the API's native
// granularity, capped at 24 readings.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64) (models.ForecastSeries, error) {
	resp, err := c.fetchForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return mapHourly(resp, hourlyCount, c.tz), nil
}

// FetchDaily returns one reading per day over the 5-day forecast window.
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64) (models.ForecastSeries, error) {
	resp, err := c.fetchForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return mapDaily(resp, c.tz), nil
}

// FetchAlerts returns active weather alerts for the coordinates.
func (c *Client) FetchAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	body, err := c.get(ctx, c.oneCallURL, lat, lon, url.Values{
		"exclude": {"minutely,hourly,daily"},
	})
	if err != nil {
		return nil, err
	}
	var resp oneCallResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse alerts response: %w", err)
	}
	return mapAlerts(resp, c.tz), nil
}

func (c *Client) fetchForecast(ctx context.Context, lat, lon float64) (forecastResponse, error) {
	body, err := c.get(ctx, c.forecastURL, lat, lon, nil)
	if err != nil {
		return forecastResponse{}, err
	}
	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return forecastResponse{}, fmt.Errorf("parse forecast response: %w", err)
	}
	return resp, nil
}

// get performs the request with the retry loop. The circuit breaker wraps
// each individual attempt.
func (c *Client) get(ctx context.Context, endpoint string, lat, lon float64, extra url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.callAPI(ctx, endpoint, lat, lon, extra)
		})
		if err == nil {
			return result.([]byte), nil
		}

		lastErr = err
		if !c.isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *Client) callAPI(ctx context.Context, endpoint string, lat, lon float64, extra url.Values) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, endpoint, lat, lon, extra)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: request timeout: %v", ErrNetwork, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrNetwork, err)
	}
	return body, nil
}

func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetwork) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *Client) buildRequest(ctx context.Context, endpoint string, lat, lon float64, extra url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: HTTP 401", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrLocationNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode}
	}

	return nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
