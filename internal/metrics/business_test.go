package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, bm)
}

func TestBusinessMetrics_Export(t *testing.T) {
	provider, err := NewProvider("gatekeeper_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "gatekeeper_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "auth", "api_key_verify", StatusSuccess)
	bm.RecordOperation(ctx, "auth", "api_key_verify", StatusSuccess)
	bm.RecordOperation(ctx, "auth", "api_key_verify", "revoked")
	bm.RecordOperation(ctx, "auth", "session_verify", StatusError)
	bm.RecordDuration(ctx, "auth", "api_key_verify", 5*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "auth", "api_key_verify", 7*time.Millisecond, StatusSuccess)

	output := scrape(t, provider)

	assertMetricLine(t, output, `gatekeeper_test_operations_total`,
		`domain="auth".*operation="api_key_verify".*status="success"`, `2`)
	assertMetricLine(t, output, `gatekeeper_test_operations_total`,
		`domain="auth".*operation="api_key_verify".*status="revoked"`, `1`)
	assertMetricLine(t, output, `gatekeeper_test_operations_total`,
		`domain="auth".*operation="session_verify".*status="error"`, `1`)
	assertMetricLine(t, output, `gatekeeper_test_operation_duration_seconds_count`,
		`domain="auth".*operation="api_key_verify".*status="success"`, `2`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	assert.IsType(t, &NoOpBusinessMetrics{}, bm)
	assert.NotPanics(t, func() {
		bm.RecordOperation(context.Background(), "auth", "api_key_create", StatusSuccess)
		bm.RecordDuration(context.Background(), "auth", "api_key_create", time.Millisecond, StatusError)
	})
}
