package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personagen/internal/config"
	"personagen/internal/types"
)

func TestBuildGateway(t *testing.T) {
	t.Run("nil without a base URL", func(t *testing.T) {
		gw := BuildGateway(config.DefaultConfig(), nil)
		assert.Nil(t, gw)
		assert.False(t, gw.Configured())
	})

	t.Run("configured with a base URL", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Gateway.BaseURL = "https://gw.example.com"
		cfg.Gateway.Token = "secret"
		gw := BuildGateway(cfg, nil)
		require.NotNil(t, gw)
		assert.True(t, gw.Configured())
	})
}

func TestBuildRegistry_AllProvidersRegistered(t *testing.T) {
	cfg := config.DefaultConfig()
	registry := BuildRegistry(cfg, nil, nil)

	assert.Equal(t,
		[]types.Provider{types.ProviderGemini, types.ProviderOpenAI, types.ProviderStability},
		registry.Providers())
}

func TestBuildRegistry_KeylessProviderFailsWithConfigurationError(t *testing.T) {
	cfg := config.DefaultConfig() // no API keys, no gateway
	registry := BuildRegistry(cfg, BuildGateway(cfg, nil), nil)

	generator, err := registry.Lookup(types.ProviderOpenAI)
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(),
		&types.GenerationRequest{Prompt: "a castle", Provider: types.ProviderOpenAI})

	var cfgErr *types.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
