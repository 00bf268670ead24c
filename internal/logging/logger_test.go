package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agrosathi-api/internal/config"
)

func TestNewWithWriter_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.0", "agrosathi-api")

	logger.Info("model loaded", "classes", 38)
	logger.Debug("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "model loaded", line["msg"])
	assert.Equal(t, "agrosathi-api", line["app"])
	assert.Equal(t, "1.2.0", line["version"])
	assert.Equal(t, "prod", line["env"])
	assert.Equal(t, float64(38), line["classes"])
}

func TestNewWithWriter_DevRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelWarn}, "dev", "agrosathi-api")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("weather degraded")
	assert.Contains(t, buf.String(), "weather degraded")
	assert.Contains(t, buf.String(), "agrosathi-api")
}

func TestNewWithWriter_AddsRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.0", "agrosathi-api")

	ctx := WithRequestID(context.Background(), "req-42")
	logger.With("component", "handlers").InfoContext(ctx, "http request")
	logger.Info("no context")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "req-42", first[RequestIDKey])
	assert.Equal(t, "handlers", first["component"])
	assert.NotContains(t, second, RequestIDKey)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}

func TestTrimSource(t *testing.T) {
	src := &slog.Source{File: "/home/build/agrosathi-api/internal/model/server.go", Line: 142}

	got := trimSource(nil, slog.Any(slog.SourceKey, src))
	assert.Equal(t, "model/server.go:142", got.Value.String())

	other := slog.String("path", "/classify")
	assert.Equal(t, other, trimSource(nil, other))
}
