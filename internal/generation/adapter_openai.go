package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"personagen/internal/types"
)

// OpenAIConfig holds configuration for the OpenAI image adapter.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "dall-e-3",
		Timeout: 120 * time.Second,
	}
}

// OpenAIAdapter generates a single image through the OpenAI images API. The
// size/quality/style option set maps directly onto request fields rather
// than prompt text.
type OpenAIAdapter struct {
	gw         Caller
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIAdapter creates the adapter. gw may be nil when no gateway is
// deployed; the adapter then goes straight to the direct path.
func NewOpenAIAdapter(cfg OpenAIConfig, gw Caller, logger *zap.Logger) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIAdapter{
		gw:         gw,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// openAIImageRequest is the direct-call request body.
type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// openAIImageResponse is the direct-call response body.
type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate implements types.Generator.
func (a *OpenAIAdapter) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	if err := validatePrompt(req); err != nil {
		return nil, err
	}

	body := openAIImageRequest{
		Model:          a.model,
		Prompt:         req.Prompt,
		N:              1, // dall-e-3 only supports n=1
		Size:           mapOpenAISize(req.Options.Size),
		Quality:        mapOpenAIQuality(req.Options.Quality),
		Style:          mapOpenAIStyle(req.Options.Style),
		ResponseFormat: "url",
	}

	return runCascade(ctx, a.logger, a.gw, "generate-openai", body, "openai",
		a.apiKey != "", func(ctx context.Context) (*types.GenerationResult, error) {
			return a.generateDirect(ctx, body)
		})
}

// generateDirect calls the OpenAI images API with the locally configured key.
func (a *OpenAIAdapter) generateDirect(ctx context.Context, body openAIImageRequest) (*types.GenerationResult, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/images/generations", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.TransportError{Op: "network", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ProviderAPIError{
			Provider: "openai",
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}

	var parsed openAIImageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &types.ProviderAPIError{Provider: "openai", Status: resp.StatusCode, Body: parsed.Error.Message}
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return nil, fmt.Errorf("no image returned")
	}

	return &types.GenerationResult{ImageURL: parsed.Data[0].URL}, nil
}

// mapOpenAISize maps generic sizes onto the values dall-e-3 accepts.
func mapOpenAISize(size string) string {
	switch size {
	case "1024x1024", "1792x1024", "1024x1792":
		return size
	case "square", "":
		return "1024x1024"
	case "landscape":
		return "1792x1024"
	case "portrait":
		return "1024x1792"
	}
	return "1024x1024"
}

func mapOpenAIQuality(quality string) string {
	if quality == "hd" {
		return "hd"
	}
	return "standard"
}

func mapOpenAIStyle(style string) string {
	switch strings.ToLower(style) {
	case "natural":
		return "natural"
	case "vivid":
		return "vivid"
	}
	return ""
}
