// Package generation holds the provider adapters and the fallback cascade:
// every adapter first tries the managed gateway, then a direct call against
// the provider's own API, and only then fails with a typed error.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"personagen/internal/types"
)

// Caller is the gateway capability adapters depend on. *gateway.Client
// satisfies it; tests substitute fakes.
type Caller interface {
	Call(ctx context.Context, endpointName string, payload any) (json.RawMessage, error)
	Configured() bool
}

// gatewayResult is the normalized shape the gateway returns for every
// provider endpoint.
type gatewayResult struct {
	ImageURL  string   `json:"imageUrl"`
	ImageURLs []string `json:"imageUrls"`
}

// parseGatewayResult validates and normalizes a gateway response. A body
// with neither field is treated as a gateway failure, which sends the
// cascade down the direct path.
func parseGatewayResult(raw json.RawMessage) (*types.GenerationResult, error) {
	var parsed gatewayResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed gateway response: %w", err)
	}
	if parsed.ImageURL == "" && len(parsed.ImageURLs) == 0 {
		return nil, fmt.Errorf("gateway response carried no image")
	}
	result := &types.GenerationResult{
		ImageURL:  parsed.ImageURL,
		ImageURLs: parsed.ImageURLs,
	}
	if result.ImageURL == "" {
		result.ImageURL = result.ImageURLs[0]
	}
	return result, nil
}

// directFunc is an adapter's direct provider call.
type directFunc func(ctx context.Context) (*types.GenerationResult, error)

// runCascade executes the gateway -> direct -> error sequence shared by all
// adapters. hasDirect reports whether the direct path has a credential; when
// it does not, the cascade fails with a ConfigurationError without touching
// the network on that path. When both paths fail, the direct error wins
// because it carries provider-specific detail.
func runCascade(ctx context.Context, logger *zap.Logger, gw Caller, endpointName string, payload any, provider string, hasDirect bool, direct directFunc) (*types.GenerationResult, error) {
	var gatewayErr error
	if gw != nil && gw.Configured() {
		raw, err := gw.Call(ctx, endpointName, payload)
		if err == nil {
			result, perr := parseGatewayResult(raw)
			if perr == nil {
				return result, nil
			}
			gatewayErr = perr
			logger.Warn("gateway returned an unusable result; trying direct call",
				zap.String("provider", provider),
				zap.Error(perr))
		} else {
			gatewayErr = err
			logger.Warn("gateway path failed; trying direct call",
				zap.String("provider", provider),
				zap.Error(err))
		}
	}

	if !hasDirect {
		if gatewayErr != nil {
			return nil, &types.ConfigurationError{
				Reason: fmt.Sprintf("no %s credential for direct fallback (gateway: %v)", provider, gatewayErr),
			}
		}
		return nil, &types.ConfigurationError{
			Reason: fmt.Sprintf("neither gateway nor %s credential configured", provider),
		}
	}

	result, err := direct(ctx)
	if err != nil {
		// The direct error is the most specific failure we have.
		return nil, err
	}
	return result, nil
}

// validatePrompt rejects requests the cascade should never see.
func validatePrompt(req *types.GenerationRequest) error {
	if req == nil {
		return &types.ValidationError{Reason: "nil request"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return &types.ValidationError{Reason: "empty prompt"}
	}
	return nil
}
