// Package enrichment fetches contextual data for a coordinate pair: current
// weather from Open-Meteo and a reverse-geocoded place name from Nominatim.
// Each call is attempted exactly once and bounded by a timeout.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
	"github.com/Brownie44l1/agrosathi-api/internal/metrics"
)

const (
	DefaultWeatherBaseURL = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodeBaseURL = "https://nominatim.openstreetmap.org/reverse"
	DefaultUserAgent      = "AgroSathiApp/1.0"
	DefaultTimeout        = 5 * time.Second

	upstreamWeather = "weather"
	upstreamGeocode = "geocode"

	maxResponseBytes = 1 << 20
)

var (
	ErrWeatherUnavailable = errors.New("weather provider unavailable")
	ErrGeocodeUnavailable = errors.New("geocoding provider unavailable")
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	WeatherBaseURL string
	GeocodeBaseURL string
	// UserAgent identifies this application to the geocoding provider, which
	// rejects anonymous traffic.
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to both upstreams. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	weatherBaseURL string
	geocodeBaseURL string
	userAgent      string
	timeout        time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		weatherBaseURL: opts.WeatherBaseURL,
		geocodeBaseURL: opts.GeocodeBaseURL,
		userAgent:      opts.UserAgent,
		timeout:        opts.Timeout,
		httpClient:     opts.HTTPClient,
		logger:         opts.Logger,
	}
	if c.weatherBaseURL == "" {
		c.weatherBaseURL = DefaultWeatherBaseURL
	}
	if c.geocodeBaseURL == "" {
		c.geocodeBaseURL = DefaultGeocodeBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "enrichment")
	return c
}

type weatherResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// CurrentWeather fetches the current temperature and weather code.
func (c *Client) CurrentWeather(ctx context.Context, coords Coordinates) (*WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", formatFloat(coords.Latitude))
	q.Set("longitude", formatFloat(coords.Longitude))
	q.Set("current_weather", "true")

	var body weatherResponse
	err := c.getJSON(ctx, c.weatherBaseURL, q, nil, &body)
	if err == nil && (body.CurrentWeather == nil || body.CurrentWeather.Temperature == nil) {
		err = errors.New("response has no current_weather.temperature")
	}
	metrics.EnrichmentRequests.WithLabelValues(upstreamWeather, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeatherUnavailable, err)
	}

	code := 0
	if body.CurrentWeather.WeatherCode != nil {
		code = *body.CurrentWeather.WeatherCode
	}
	temp := *body.CurrentWeather.Temperature

	return &WeatherSnapshot{
		Temperature: &temp,
		Condition:   Condition(code),
		Code:        code,
	}, nil
}

// WeatherOrUnknown is CurrentWeather for callers that treat weather as
// optional. It never fails: on any upstream problem the snapshot carries an
// unknown temperature and the failure is logged.
func (c *Client) WeatherOrUnknown(ctx context.Context, coords Coordinates) WeatherSnapshot {
	snap, err := c.CurrentWeather(ctx, coords)
	if err != nil {
		c.logger.Warn("weather enrichment degraded",
			"code", apperror.CodeEnrichmentDegraded,
			"lat", coords.Latitude,
			"lon", coords.Longitude,
			"error", err,
		)
		return WeatherSnapshot{Condition: Condition(0)}
	}
	return *snap
}

type geocodeResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a place name.
func (c *Client) ReverseGeocode(ctx context.Context, coords Coordinates) (*LocationName, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", formatFloat(coords.Latitude))
	q.Set("lon", formatFloat(coords.Longitude))

	headers := http.Header{}
	headers.Set("User-Agent", c.userAgent)

	var body geocodeResponse
	err := c.getJSON(ctx, c.geocodeBaseURL, q, headers, &body)
	metrics.EnrichmentRequests.WithLabelValues(upstreamGeocode, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocodeUnavailable, err)
	}

	a := body.Address
	return &LocationName{
		City:   firstNonEmpty(a.City, a.Town, a.Village, a.County, UnknownLocation),
		Region: a.State,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, baseURL string, query url.Values, headers http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
