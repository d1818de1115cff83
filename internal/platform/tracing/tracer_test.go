package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seecr/gmh-registration-service/internal/platform/config"
)

func TestNewProviderNone(t *testing.T) {
	p, err := NewProvider(context.Background(), config.TracingConfig{Exporter: "none"}, nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(context.Background(), config.TracingConfig{Exporter: "stdout", ServiceName: "gmh-test"}, &buf)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "registration.resolve")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "registration.resolve")
	assert.Contains(t, buf.String(), "gmh-test")
}

func TestNewProviderRejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), config.TracingConfig{Exporter: "zipkin"}, nil)
	assert.ErrorContains(t, err, "unsupported exporter")
}
