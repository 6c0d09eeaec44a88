package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("component", "test").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"message":"visible"`)
}

func TestCorrelationIDOnContextLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := WithCorrelationID(context.Background(), "abc-123")
	Ctx(ctx).Info().Msg("request")

	assert.Equal(t, "abc-123", CorrelationID(ctx))
	assert.Contains(t, buf.String(), `"correlation_id":"abc-123"`)
}

func TestCtxFallsBackToGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	Ctx(context.Background()).Info().Msg("fallback")

	assert.Contains(t, buf.String(), "fallback")
	assert.Empty(t, CorrelationID(context.Background()))
}
