package geminiservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testPayload() *GeminiPayload {
	return &GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: "halo"}}},
		},
	}
}

func successBody(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

// modelFromPath extracts the model name from /<model>:generateContent.
func modelFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(trimmed, ":generateContent")
}

func newTestClient(t *testing.T, baseURL string, models []string) *Client {
	t.Helper()
	client, err := NewClient(FallbackConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Models:  models,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestGenerateFirstModelSucceeds(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, successBody("**Hasil** analisis"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, []string{"model-a", "model-b"})

	got, err := client.Generate(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Hasil analisis" {
		t.Errorf("Generate() = %q, want sanitized %q", got, "Hasil analisis")
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestGenerateFallsBackOnModelNotFound(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model := modelFromPath(r.URL.Path)
		models = append(models, model)
		if model == "model-a" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, successBody("jawaban"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, []string{"model-a", "model-b"})

	got, err := client.Generate(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "jawaban" {
		t.Errorf("Generate() = %q, want %q", got, "jawaban")
	}
	if len(models) != 2 || models[0] != "model-a" || models[1] != "model-b" {
		t.Errorf("attempt order = %v, want [model-a model-b]", models)
	}
}

func TestGenerateEmptyResponseFallsBack(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			fmt.Fprint(w, `{"candidates":[]}`)
			return
		}
		fmt.Fprint(w, successBody("kedua"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, []string{"model-a", "model-b"})

	got, err := client.Generate(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "kedua" {
		t.Errorf("Generate() = %q, want %q", got, "kedua")
	}
	if calls != 2 {
		t.Errorf("provider calls = %d, want 2", calls)
	}
}

func TestGenerateTerminalStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode GenerateErrorCode
	}{
		{"forbidden aborts the chain", http.StatusForbidden, ErrUnauthorized},
		{"rate limit aborts the chain", http.StatusTooManyRequests, ErrQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, []string{"model-a", "model-b", "model-c"})

			_, err := client.Generate(context.Background(), testPayload())
			if err == nil {
				t.Fatal("Generate() error = nil, want terminal error")
			}

			var genErr *GenerateError
			if !errors.As(err, &genErr) {
				t.Fatalf("Generate() error type = %T, want *GenerateError", err)
			}
			if genErr.Code != tt.wantCode {
				t.Errorf("error code = %s, want %s", genErr.Code, tt.wantCode)
			}
			if genErr.IsRetryable() {
				t.Error("terminal error reported as retryable")
			}
			if genErr.Remediation == "" {
				t.Error("terminal error carries no remediation")
			}
			if calls != 1 {
				t.Errorf("provider calls = %d, want 1 (no fallback past a terminal status)", calls)
			}
		})
	}
}

func TestGenerateAllModelsFailed(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	models := []string{"model-a", "model-b", "model-c"}
	client := newTestClient(t, srv.URL, models)

	_, err := client.Generate(context.Background(), testPayload())
	if err == nil {
		t.Fatal("Generate() error = nil, want aggregate failure")
	}

	var genErr *GenerateError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error type = %T, want *GenerateError", err)
	}
	if genErr.Code != ErrAllModelsFailed {
		t.Errorf("error code = %s, want %s", genErr.Code, ErrAllModelsFailed)
	}
	if !genErr.IsRetryable() {
		t.Error("aggregate failure must be retryable")
	}
	if genErr.Cause == nil {
		t.Error("aggregate failure carries no cause")
	}
	if int(calls) != len(models) {
		t.Errorf("provider calls = %d, want %d", calls, len(models))
	}
}

func TestGenerateTransportErrorFallsThrough(t *testing.T) {
	// A server that is already closed produces connection failures for every
	// model.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL, []string{"model-a", "model-b"})

	_, err := client.Generate(context.Background(), testPayload())
	if err == nil {
		t.Fatal("Generate() error = nil, want aggregate failure")
	}

	var genErr *GenerateError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error type = %T, want *GenerateError", err)
	}
	if genErr.Code != ErrAllModelsFailed {
		t.Errorf("error code = %s, want %s", genErr.Code, ErrAllModelsFailed)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(FallbackConfig{Models: DefaultModels()}); err == nil {
		t.Error("NewClient() with empty API key, want error")
	}
	if _, err := NewClient(FallbackConfig{APIKey: "k"}); err == nil {
		t.Error("NewClient() with empty model list, want error")
	}
}
