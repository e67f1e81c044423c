package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, sampler(-0.5).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, sampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, sampler(2).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, sampler(0.25).Description(), "root:TraceIDRatioBased{0.25}")
}

func TestInitJaeger(t *testing.T) {
	shutdown, err := InitJaeger(Options{
		ServiceName:    "storefront-test",
		ServiceVersion: "test",
		Environment:    "test",
		Endpoint:       "http://127.0.0.1:1/api/traces",
	}, zap.NewNop())
	require.NoError(t, err)

	// Nothing was recorded, so shutdown has no spans to push.
	assert.NoError(t, shutdown(context.Background()))
	assert.NoError(t, Noop(context.Background()))
}
