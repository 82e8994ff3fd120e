package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "storefront", Level: zerolog.DebugLevel, Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-1")
	ctx = log.WithCartID(ctx, "cart-9")
	log.Error(ctx, "boom", errors.New("exploded"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "storefront", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "cart-9", entry["cart_id"])
	assert.Equal(t, "exploded", entry["error"])
	assert.Contains(t, entry, "stack")
}

func TestLogger_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Level: zerolog.WarnLevel, Output: buf})

	log.Info(context.Background(), "quiet")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "loud")
	assert.Contains(t, buf.String(), "loud")
	assert.NotContains(t, buf.String(), "stack")
}

func TestLogger_InfoFieldsDoNotLeakIntoContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf})
	ctx := context.Background()

	log.InfoFields(ctx, "request.complete", map[string]any{"status": 200})
	buf.Reset()
	log.Info(ctx, "next")

	assert.NotContains(t, buf.String(), "status")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}
