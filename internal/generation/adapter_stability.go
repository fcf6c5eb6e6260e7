package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"personagen/internal/types"
)

// StabilityConfig holds configuration for the Stability adapter.
type StabilityConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultStabilityConfig returns sensible defaults.
func DefaultStabilityConfig(apiKey string) StabilityConfig {
	return StabilityConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.stability.ai/v2beta",
		Model:   "stable-image-core",
		Timeout: 120 * time.Second,
	}
}

// StabilityAdapter generates one or more images through the Stability API.
// Aspect-ratio normalization happens in prompt text, appended at most once.
// An optional reference image is fetched and inlined as a data URI before
// either call path runs.
type StabilityAdapter struct {
	gw         Caller
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewStabilityAdapter creates the adapter.
func NewStabilityAdapter(cfg StabilityConfig, gw Caller, logger *zap.Logger) *StabilityAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stability.ai/v2beta"
	}
	if cfg.Model == "" {
		cfg.Model = "stable-image-core"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StabilityAdapter{
		gw:         gw,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type stabilityRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Samples        int    `json:"samples"`
	ReferenceImage string `json:"reference_image,omitempty"` // inline data URI
}

type stabilityResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Message string `json:"message,omitempty"`
}

// Generate implements types.Generator.
func (a *StabilityAdapter) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	if err := validatePrompt(req); err != nil {
		return nil, err
	}

	prompt := appendQualifier(req.Prompt, aspectRatioQualifier(req.Options.AspectRatio))

	body := stabilityRequest{
		Model:   a.model,
		Prompt:  prompt,
		Samples: imageCount(req.Options.Count),
	}

	// The reference image must be transportable on both paths, so fetch and
	// encode it up front. Failure here is a configuration problem, not a
	// transport one.
	if ref := strings.TrimSpace(req.Options.ReferenceImageURL); ref != "" {
		encoded, err := a.encodeReferenceImage(ctx, ref)
		if err != nil {
			return nil, &types.ConfigurationError{Reason: fmt.Sprintf("reference image: %v", err)}
		}
		body.ReferenceImage = encoded
	}

	return runCascade(ctx, a.logger, a.gw, "generate-stability", body, "stability",
		a.apiKey != "", func(ctx context.Context) (*types.GenerationResult, error) {
			return a.generateDirect(ctx, body)
		})
}

// encodeReferenceImage fetches the image and inlines it as a data URI. Data
// URIs pass through untouched.
func (a *StabilityAdapter) encodeReferenceImage(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return "", fmt.Errorf("must be an HTTP(S) URL or data URI")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create fetch request: %w", err)
	}
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image body was empty")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

// generateDirect calls the Stability API with the locally configured key.
func (a *StabilityAdapter) generateDirect(ctx context.Context, body stabilityRequest) (*types.GenerationResult, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/stable-image/generate/core", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
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
			Provider: "stability",
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}

	var parsed stabilityResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Images) == 0 {
		return nil, fmt.Errorf("no images returned")
	}

	urls := make([]string, 0, len(parsed.Images))
	for _, image := range parsed.Images {
		if image.URL != "" {
			urls = append(urls, image.URL)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("images carried no URLs")
	}

	return &types.GenerationResult{ImageURL: urls[0], ImageURLs: urls}, nil
}
