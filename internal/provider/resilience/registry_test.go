package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/provider/resilience"
)

func registered(t *testing.T, registry *resilience.Registry, name string) *resilience.Client {
	t.Helper()
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := registered(t, registry, "postgis")

	health := registry.Health("postgis")
	require.NotNil(t, health)
	assert.Equal(t, "postgis", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Equal(t, "healthy", health.Status())
	assert.Equal(t, "postgis", client.Name())
}

func TestRegistry_HealthNotFound(t *testing.T) {
	assert.Nil(t, resilience.NewRegistry().Health("missing"))
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(t, registry, "qdrant")

	registry.RecordSuccess("qdrant")
	registry.RecordFailure("qdrant", errors.New("connection refused"))

	health := registry.Health("qdrant")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection refused", health.LastError)
}

func TestRegistry_RecordUnknownProviderIsNoop(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("ghost")
	registry.RecordFailure("ghost", errors.New("boom"))

	assert.Empty(t, registry.All())
}

func TestRegistry_AllSortedByName(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(t, registry, "qdrant")
	registered(t, registry, "events")
	registered(t, registry, "postgis")

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "events", all[0].Name)
	assert.Equal(t, "postgis", all[1].Name)
	assert.Equal(t, "qdrant", all[2].Name)
	assert.True(t, registry.Healthy())
}

func TestProviderHealth_Status(t *testing.T) {
	tests := []struct {
		state    gobreaker.State
		expected string
	}{
		{gobreaker.StateClosed, "healthy"},
		{gobreaker.StateHalfOpen, "degraded"},
		{gobreaker.StateOpen, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.expected, h.Status())
		})
	}
}
