package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "models/model.onnx", cfg.ModelPath)
	assert.Equal(t, "models/model_metadata.json", cfg.ModelMetadataPath)
	assert.Equal(t, 2, cfg.ModelPoolSize)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.WeatherBaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org/reverse", cfg.GeocodeBaseURL)
	assert.Equal(t, "AgroSathiApp/1.0", cfg.GeocodeUserAgent)
	assert.Equal(t, 5*time.Second, cfg.EnrichmentTimeout)
	assert.Equal(t, 20.5937, cfg.DefaultLatitude)
	assert.Equal(t, 78.9629, cfg.DefaultLongitude)
	assert.Empty(t, cfg.SNSRegion)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_POOL_SIZE", "4")
	t.Setenv("ENRICHMENT_TIMEOUT", "1500ms")
	t.Setenv("DEFAULT_LATITUDE", "18.52")
	t.Setenv("DEFAULT_LONGITUDE", "73.8567")
	t.Setenv("SNS_REGION", "ap-south-1")
	t.Setenv("GEOCODE_USER_AGENT", "LeafScan/2.0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 4, cfg.ModelPoolSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.EnrichmentTimeout)
	assert.Equal(t, 18.52, cfg.DefaultLatitude)
	assert.Equal(t, 73.8567, cfg.DefaultLongitude)
	assert.Equal(t, "ap-south-1", cfg.SNSRegion)
	assert.Equal(t, "LeafScan/2.0", cfg.GeocodeUserAgent)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"app env", "APP_ENV", "staging"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"pool size", "MODEL_POOL_SIZE", "0"},
		{"pool size not a number", "MODEL_POOL_SIZE", "many"},
		{"upload limit", "MAX_UPLOAD_BYTES", "-1"},
		{"timeout", "ENRICHMENT_TIMEOUT", "soon"},
		{"negative timeout", "ENRICHMENT_TIMEOUT", "-1s"},
		{"weather url", "WEATHER_BASE_URL", "api.open-meteo.com"},
		{"geocode url", "GEOCODE_BASE_URL", "ftp://nominatim"},
		{"latitude", "DEFAULT_LATITUDE", "91"},
		{"longitude", "DEFAULT_LONGITUDE", "east"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
