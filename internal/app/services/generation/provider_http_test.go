package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPGeneratorSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/images/generations" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "http://img.test/out.png"}},
		})
	}))
	defer upstream.Close()

	gen := NewHTTPGenerator(upstream.Client(), nil)
	result, err := gen.Generate(context.Background(), ProviderCall{
		BaseURL: upstream.URL,
		APIKey:  "secret",
		Model:   "flux-1",
		Prompt:  "cat",
		Width:   512,
		Height:  768,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.URL != "http://img.test/out.png" {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}
	if gotBody["prompt"] != "cat" || gotBody["model"] != "flux-1" || gotBody["size"] != "512x768" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
	if gotBody["n"] != float64(1) {
		t.Fatalf("expected n=1, got %v", gotBody["n"])
	}
}

func TestHTTPGeneratorBase64Payload(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": "aGVsbG8="}},
		})
	}))
	defer upstream.Close()

	gen := NewHTTPGenerator(upstream.Client(), nil)
	result, err := gen.Generate(context.Background(), ProviderCall{BaseURL: upstream.URL, Prompt: "cat", Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Base64 != "aGVsbG8=" {
		t.Fatalf("unexpected base64 %q", result.Base64)
	}
}

func TestHTTPGeneratorUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "quota exhausted"},
		})
	}))
	defer upstream.Close()

	gen := NewHTTPGenerator(upstream.Client(), nil)
	_, err := gen.Generate(context.Background(), ProviderCall{BaseURL: upstream.URL, Prompt: "cat", Width: 1, Height: 1})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("error should carry status and upstream message, got %v", err)
	}
}

func TestHTTPGeneratorEmptyData(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer upstream.Close()

	gen := NewHTTPGenerator(upstream.Client(), nil)
	result, err := gen.Generate(context.Background(), ProviderCall{BaseURL: upstream.URL, Prompt: "cat", Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.URL != "" || result.Base64 != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
