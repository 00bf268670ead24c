// Package service composes the classification pipeline and the weather lookup.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
	"github.com/Brownie44l1/agrosathi-api/internal/enrichment"
	"github.com/Brownie44l1/agrosathi-api/internal/labels"
	"github.com/Brownie44l1/agrosathi-api/internal/metrics"
	"github.com/Brownie44l1/agrosathi-api/internal/model"
)

// DefaultCoordinates is used when a classification request carries no location.
var DefaultCoordinates = enrichment.Coordinates{Latitude: 20.5937, Longitude: 78.9629}

// Enricher is the subset of the enrichment client the service depends on.
type Enricher interface {
	CurrentWeather(ctx context.Context, coords enrichment.Coordinates) (*enrichment.WeatherSnapshot, error)
	WeatherOrUnknown(ctx context.Context, coords enrichment.Coordinates) enrichment.WeatherSnapshot
	ReverseGeocode(ctx context.Context, coords enrichment.Coordinates) (*enrichment.LocationName, error)
}

// ClassificationResponse is the result of Classify.
type ClassificationResponse struct {
	Disease     string  `json:"disease"`
	Suggestion  string  `json:"suggestion"`
	Location    string  `json:"location"`
	Temperature string  `json:"temperature"`
	Confidence  float32 `json:"confidence"`
	RequestID   string  `json:"request_id,omitempty"`
	// MessageID is set when the diagnosis was also sent to the farmer's phone.
	MessageID string `json:"message_id,omitempty"`
}

// Summary is the text sent to a farmer's phone for this diagnosis.
func (r *ClassificationResponse) Summary() string {
	return fmt.Sprintf("%s | %s\n%s\n\n%s", r.Location, r.Temperature, r.Disease, r.Suggestion)
}

// LocationResponse is the result of Locate.
type LocationResponse struct {
	Location string `json:"location"`
	Region   string `json:"region,omitempty"`
}

// WeatherResponse is the result of CurrentWeather.
type WeatherResponse struct {
	Temp        int    `json:"temp"`
	Condition   string `json:"condition"`
	Location    string `json:"location"`
	WeatherCode int    `json:"weathercode"`
}

type Options struct {
	Predictor model.Predictor
	Catalog   *labels.Catalog
	Enricher  Enricher
	// Defaults overrides DefaultCoordinates when non-nil.
	Defaults *enrichment.Coordinates
	Logger   *slog.Logger
}

type Service struct {
	predictor model.Predictor
	catalog   *labels.Catalog
	enricher  Enricher
	defaults  enrichment.Coordinates
	logger    *slog.Logger
}

func New(opts Options) *Service {
	s := &Service{
		predictor: opts.Predictor,
		catalog:   opts.Catalog,
		enricher:  opts.Enricher,
		defaults:  DefaultCoordinates,
		logger:    opts.Logger,
	}
	if opts.Defaults != nil {
		s.defaults = *opts.Defaults
	}
	if s.catalog == nil {
		s.catalog = labels.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Defaults returns the coordinates used when a request carries none.
func (s *Service) Defaults() enrichment.Coordinates {
	return s.defaults
}

// Classify diagnoses a leaf photo. Decode and model errors fail the call;
// weather problems only degrade the temperature field to "Unknown".
func (s *Service) Classify(ctx context.Context, image []byte, coords *enrichment.Coordinates) (*ClassificationResponse, error) {
	point := s.defaults
	if coords != nil {
		point = *coords
	}

	tensor, err := model.Normalize(image)
	if err != nil {
		return nil, err
	}

	prediction, err := s.predictor.Predict(ctx, tensor)
	if err != nil {
		return nil, err
	}

	label := s.catalog.Resolve(prediction.ClassIndex)
	suggestion := s.catalog.AdviceFor(label.CanonicalID)
	weather := s.enricher.WeatherOrUnknown(ctx, point)

	metrics.Classifications.WithLabelValues(label.CanonicalID).Inc()
	s.logger.Debug("leaf classified",
		"class_index", prediction.ClassIndex,
		"disease", label.CanonicalID,
		"confidence", prediction.Confidence,
		"weather_known", weather.Known(),
	)

	return &ClassificationResponse{
		Disease:     label.DisplayName,
		Suggestion:  suggestion,
		Location:    point.String(),
		Temperature: weather.TemperatureLabel(),
		Confidence:  prediction.Confidence,
	}, nil
}

// CurrentWeather combines weather and place name for a point. Weather is the
// payload here, so either upstream failing fails the whole call.
func (s *Service) CurrentWeather(ctx context.Context, coords enrichment.Coordinates) (*WeatherResponse, error) {
	var (
		snapshot *enrichment.WeatherSnapshot
		location *enrichment.LocationName
	)

	// Plain Group, not WithContext: one upstream failing must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		snapshot, err = s.enricher.CurrentWeather(ctx, coords)
		return err
	})
	g.Go(func() error {
		var err error
		location, err = s.enricher.ReverseGeocode(ctx, coords)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("weather lookup failed", "lat", coords.Latitude, "lon", coords.Longitude, "error", err)
		return nil, apperror.EnrichmentUnavailable(err)
	}

	return &WeatherResponse{
		Temp:        snapshot.RoundedTemperature(),
		Condition:   snapshot.Condition,
		Location:    location.String(),
		WeatherCode: snapshot.Code,
	}, nil
}

// Locate names the place at coords.
func (s *Service) Locate(ctx context.Context, coords enrichment.Coordinates) (*LocationResponse, error) {
	location, err := s.enricher.ReverseGeocode(ctx, coords)
	if err != nil {
		s.logger.ErrorContext(ctx, "location lookup failed", "lat", coords.Latitude, "lon", coords.Longitude, "error", err)
		return nil, apperror.LocationUnavailable(err)
	}
	return &LocationResponse{Location: location.City, Region: location.Region}, nil
}
