package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nekoko-ai/platform/pkg/logger"
)

// HTTPGenerator calls OpenAI-compatible image endpoints
// (POST {base}/v1/images/generations with a bearer credential).
type HTTPGenerator struct {
	client *http.Client
	log    *logger.Logger
}

var _ Generator = (*HTTPGenerator)(nil)

// NewHTTPGenerator constructs a generator using the provided client.
func NewHTTPGenerator(client *http.Client, log *logger.Logger) *HTTPGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("generation-http")
	}
	return &HTTPGenerator{client: client, log: log}
}

func (g *HTTPGenerator) Generate(ctx context.Context, call ProviderCall) (ProviderResult, error) {
	payload := map[string]any{
		"prompt": call.Prompt,
		"model":  call.Model,
		"size":   fmt.Sprintf("%dx%d", call.Width, call.Height),
		"n":      1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ProviderResult{}, fmt.Errorf("marshal generation request: %w", err)
	}

	endpoint := strings.TrimRight(call.BaseURL, "/") + "/v1/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ProviderResult{}, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if call.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+call.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return ProviderResult{}, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProviderResult{}, fmt.Errorf("provider status %d: %s", resp.StatusCode, upstreamError(resp))
	}

	var parsed struct {
		Data []struct {
			URL     string `json:"url"`
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ProviderResult{}, fmt.Errorf("decode provider response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return ProviderResult{}, nil
	}
	return ProviderResult{URL: parsed.Data[0].URL, Base64: parsed.Data[0].B64JSON}, nil
}

// upstreamError extracts the provider's error message when the body is
// the usual {"error":{"message":...}} shape, falling back to a generic
// marker.
func upstreamError(resp *http.Response) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Error.Message); msg != "" {
			return msg
		}
	}
	return "upstream error"
}
