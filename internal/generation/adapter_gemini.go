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

// GeminiConfig holds configuration for the Imagen adapter.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "imagen-3.0-generate-002",
		Timeout: 120 * time.Second,
	}
}

// GeminiAdapter generates images through Google's Imagen predict endpoint.
// Style normalization happens in prompt text: the style option becomes an
// "in <style> style" qualifier, appended at most once.
type GeminiAdapter struct {
	gw         Caller
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiAdapter creates the adapter.
func NewGeminiAdapter(cfg GeminiConfig, gw Caller, logger *zap.Logger) *GeminiAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "imagen-3.0-generate-002"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiAdapter{
		gw:         gw,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type imagenRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount int    `json:"sampleCount"`
		AspectRatio string `json:"aspectRatio,omitempty"`
	} `json:"parameters"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements types.Generator.
func (a *GeminiAdapter) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	if err := validatePrompt(req); err != nil {
		return nil, err
	}

	prompt := appendQualifier(req.Prompt, styleQualifier(req.Options.Style))

	var body imagenRequest
	body.Instances = append(body.Instances, struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	body.Parameters.SampleCount = imageCount(req.Options.Count)
	body.Parameters.AspectRatio = req.Options.AspectRatio

	return runCascade(ctx, a.logger, a.gw, "generate-gemini", body, "gemini",
		a.apiKey != "", func(ctx context.Context) (*types.GenerationResult, error) {
			return a.generateDirect(ctx, body)
		})
}

// generateDirect calls the Imagen predict endpoint with the locally
// configured key. The key rides in the query string, matching the
// generativelanguage REST contract.
func (a *GeminiAdapter) generateDirect(ctx context.Context, body imagenRequest) (*types.GenerationResult, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", a.baseURL, a.model, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
			Provider: "gemini",
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}

	var parsed imagenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &types.ProviderAPIError{Provider: "gemini", Status: parsed.Error.Code, Body: parsed.Error.Message}
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions returned")
	}

	urls := make([]string, 0, len(parsed.Predictions))
	for _, prediction := range parsed.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		mime := prediction.MimeType
		if mime == "" {
			mime = "image/png"
		}
		urls = append(urls, fmt.Sprintf("data:%s;base64,%s", mime, prediction.BytesBase64Encoded))
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("predictions carried no image data")
	}

	result := &types.GenerationResult{ImageURL: urls[0]}
	if len(urls) > 1 {
		result.ImageURLs = urls
	}
	return result, nil
}
