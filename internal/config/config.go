package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	ModelPath         string
	ModelMetadataPath string
	// ONNXLibraryPath is the onnxruntime shared library. Empty uses the runtime default.
	ONNXLibraryPath string
	ModelPoolSize   int
	MaxUploadBytes  int64

	WeatherBaseURL    string
	GeocodeBaseURL    string
	GeocodeUserAgent  string
	EnrichmentTimeout time.Duration

	DefaultLatitude  float64
	DefaultLongitude float64

	// SNSRegion enables SMS delivery through AWS SNS. Empty keeps the log-only sender.
	SNSRegion         string
	CORSAllowedOrigin string
}

var defaults = map[string]any{
	"APP_ENV":             "dev",
	"LOG_LEVEL":           "info",
	"HTTP_ADDR":           ":8080",
	"MODEL_PATH":          "models/model.onnx",
	"MODEL_METADATA_PATH": "models/model_metadata.json",
	"ONNX_LIBRARY_PATH":   "",
	"MODEL_POOL_SIZE":     2,
	"MAX_UPLOAD_BYTES":    10 << 20,
	"WEATHER_BASE_URL":    "https://api.open-meteo.com/v1/forecast",
	"GEOCODE_BASE_URL":    "https://nominatim.openstreetmap.org/reverse",
	"GEOCODE_USER_AGENT":  "AgroSathiApp/1.0",
	"ENRICHMENT_TIMEOUT":  "5s",
	"DEFAULT_LATITUDE":    20.5937,
	"DEFAULT_LONGITUDE":   78.9629,
	"SNS_REGION":          "",
	"CORS_ALLOWED_ORIGIN": "*",
}

// LoadFromEnv reads an optional .env file, then the process environment.
func LoadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	v.AutomaticEnv()
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	appEnv := strings.TrimSpace(v.GetString("APP_ENV"))
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(v.GetString("HTTP_ADDR"))
	if port := strings.TrimSpace(v.GetString("PORT")); port != "" {
		httpAddr = ":" + port
	}

	poolSize := v.GetInt("MODEL_POOL_SIZE")
	if poolSize < 1 {
		return Config{}, fmt.Errorf("invalid MODEL_POOL_SIZE %q: must be >= 1", v.GetString("MODEL_POOL_SIZE"))
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload < 1 {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: must be > 0", v.GetString("MAX_UPLOAD_BYTES"))
	}

	timeoutStr := strings.TrimSpace(v.GetString("ENRICHMENT_TIMEOUT"))
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ENRICHMENT_TIMEOUT %q: %w", timeoutStr, err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("invalid ENRICHMENT_TIMEOUT %q: must be > 0", timeoutStr)
	}

	weatherURL, err := parseBaseURL("WEATHER_BASE_URL", v.GetString("WEATHER_BASE_URL"))
	if err != nil {
		return Config{}, err
	}
	geocodeURL, err := parseBaseURL("GEOCODE_BASE_URL", v.GetString("GEOCODE_BASE_URL"))
	if err != nil {
		return Config{}, err
	}

	userAgent := strings.TrimSpace(v.GetString("GEOCODE_USER_AGENT"))
	if userAgent == "" {
		return Config{}, errors.New("GEOCODE_USER_AGENT must not be empty")
	}

	lat, err := parseCoordinate("DEFAULT_LATITUDE", v.GetString("DEFAULT_LATITUDE"), 90)
	if err != nil {
		return Config{}, err
	}
	lon, err := parseCoordinate("DEFAULT_LONGITUDE", v.GetString("DEFAULT_LONGITUDE"), 180)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:            appEnv,
		LogLevel:          level,
		HTTPAddr:          httpAddr,
		ModelPath:         strings.TrimSpace(v.GetString("MODEL_PATH")),
		ModelMetadataPath: strings.TrimSpace(v.GetString("MODEL_METADATA_PATH")),
		ONNXLibraryPath:   strings.TrimSpace(v.GetString("ONNX_LIBRARY_PATH")),
		ModelPoolSize:     poolSize,
		MaxUploadBytes:    maxUpload,
		WeatherBaseURL:    weatherURL,
		GeocodeBaseURL:    geocodeURL,
		GeocodeUserAgent:  userAgent,
		EnrichmentTimeout: timeout,
		DefaultLatitude:   lat,
		DefaultLongitude:  lon,
		SNSRegion:         strings.TrimSpace(v.GetString("SNS_REGION")),
		CORSAllowedOrigin: strings.TrimSpace(v.GetString("CORS_ALLOWED_ORIGIN")),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func parseBaseURL(key, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("invalid %s %q: expected absolute http(s) URL", key, raw)
	}
	return raw, nil
}

func parseCoordinate(key, raw string, limit float64) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if f < -limit || f > limit {
		return 0, fmt.Errorf("invalid %s %q: out of range", key, raw)
	}
	return f, nil
}
