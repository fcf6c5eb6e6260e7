// Package types holds the shared generation types and the error taxonomy
// used across the gateway, the provider adapters, and the session layer.
package types

import "context"

// Provider identifies a generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderStability Provider = "stability"
)

// ValidProviders lists all supported generation providers.
var ValidProviders = []Provider{ProviderOpenAI, ProviderGemini, ProviderStability}

// ProviderOptions carries the provider-agnostic generation knobs. Each
// adapter maps these onto its own wire contract; unsupported fields are
// ignored by adapters that have no equivalent.
type ProviderOptions struct {
	Size              string `json:"size,omitempty"`         // e.g. "1024x1024"
	Quality           string `json:"quality,omitempty"`      // e.g. "standard", "hd"
	Style             string `json:"style,omitempty"`        // style qualifier appended to the prompt
	AspectRatio       string `json:"aspect_ratio,omitempty"` // e.g. "16:9"
	Count             int    `json:"count,omitempty"`        // number of images, default 1
	ReferenceImageURL string `json:"reference_image_url,omitempty"`
}

// GenerationRequest describes one generation. Immutable once submitted.
type GenerationRequest struct {
	Prompt   string          `json:"prompt"`
	Provider Provider        `json:"provider"`
	Options  ProviderOptions `json:"options"`
}

// GenerationResult is the normalized adapter output. Single-image providers
// fill ImageURL; multi-image providers fill ImageURLs and mirror the first
// entry into ImageURL so callers can treat both uniformly.
type GenerationResult struct {
	ImageURL  string   `json:"imageUrl,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// Generator is the capability every provider adapter implements.
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}
