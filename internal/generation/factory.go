package generation

import (
	"go.uber.org/zap"

	"personagen/internal/config"
	"personagen/internal/gateway"
	"personagen/internal/types"
)

// BuildGateway creates the shared gateway client from configuration. Returns
// nil when no gateway base URL is configured; adapters treat a nil Caller as
// "go straight to the direct path".
func BuildGateway(cfg *config.Config, logger *zap.Logger) *gateway.Client {
	if cfg.Gateway.BaseURL == "" {
		return nil
	}
	return gateway.New(gateway.Config{
		BaseURL:        cfg.Gateway.BaseURL,
		Credentials:    gateway.StaticCredential(cfg.Gateway.Token),
		AttemptTimeout: cfg.GetAttemptTimeout(),
		MaxAttempts:    cfg.Gateway.MaxAttempts,
		BackoffBase:    cfg.GetBackoffBase(),
		Logger:         logger,
	})
}

// BuildRegistry wires one adapter per provider from configuration. Adapters
// are always registered, credential or not: the cascade decides at call time
// which paths are reachable, so a provider picked without a key still fails
// with a ConfigurationError instead of "unknown provider".
func BuildRegistry(cfg *config.Config, gw Caller, logger *zap.Logger) *Registry {
	registry := NewRegistry()

	registry.Register(types.ProviderOpenAI, NewOpenAIAdapter(OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		BaseURL: cfg.Providers.OpenAI.BaseURL,
		Model:   cfg.Providers.OpenAI.Model,
		Timeout: cfg.Providers.OpenAI.GetProviderTimeout(),
	}, gw, logger))

	registry.Register(types.ProviderGemini, NewGeminiAdapter(GeminiConfig{
		APIKey:  cfg.Providers.Gemini.APIKey,
		BaseURL: cfg.Providers.Gemini.BaseURL,
		Model:   cfg.Providers.Gemini.Model,
		Timeout: cfg.Providers.Gemini.GetProviderTimeout(),
	}, gw, logger))

	registry.Register(types.ProviderStability, NewStabilityAdapter(StabilityConfig{
		APIKey:  cfg.Providers.Stability.APIKey,
		BaseURL: cfg.Providers.Stability.BaseURL,
		Model:   cfg.Providers.Stability.Model,
		Timeout: cfg.Providers.Stability.GetProviderTimeout(),
	}, gw, logger))

	return registry
}
