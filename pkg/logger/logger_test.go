package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "json")

	id := NewRequestID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), base, id)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	FromContext(ctx).Info("hello", slog.String("k", "v"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, id, line["request_id"])
	assert.Equal(t, "v", line["k"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("dropped")
	assert.Empty(t, buf.String())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFromContextWithoutRequest(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestInitializeWithFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		defaultLogger = nil
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := Initialize(Config{Level: "debug", Format: "json", OutputPath: path, MaxSize: 1})
	require.NoError(t, err)
	assert.Same(t, l, Get())
	assert.DirExists(t, filepath.Dir(path))

	l.Info("to file")
	assert.FileExists(t, path)
}
