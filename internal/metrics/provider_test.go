package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("gatekeeper_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	assert.Equal(t, "gatekeeper_test", provider.Namespace())
	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.registry)
}

func TestProvider_HandlerExportsInstruments(t *testing.T) {
	provider, err := NewProvider("gatekeeper_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	counter, err := provider.MeterProvider().Meter("gatekeeper").Int64Counter("gatekeeper_test_probe_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	body := scrape(t, provider)
	assert.Contains(t, body, "gatekeeper_test_probe_total")
}

func TestProvider_SeparateRegistries(t *testing.T) {
	first, err := NewProvider("first")
	require.NoError(t, err)
	second, err := NewProvider("second")
	require.NoError(t, err)

	counter, err := first.MeterProvider().Meter("gatekeeper").Int64Counter("first_only_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.Contains(t, scrape(t, first), "first_only_total")
	assert.NotContains(t, scrape(t, second), "first_only_total")
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success_ShutdownProvider", func(t *testing.T) {
		provider, err := NewProvider("gatekeeper_test")
		require.NoError(t, err)
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("Success_ShutdownNilMeterProvider", func(t *testing.T) {
		provider := &Provider{}
		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
