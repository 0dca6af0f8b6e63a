package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultConnectTimeout = 10 * time.Second
	defaultRequestTimeout = 60 * time.Second
)

// Classification decides what the fallback loop does with a non-200 status.
type Classification int

const (
	// ClassRetryable moves on to the next model in the list.
	ClassRetryable Classification = iota
	// ClassTerminal aborts the whole loop. Used for failures that apply to
	// the credential or the provider as a whole, not to a single model.
	ClassTerminal
)

// DefaultStatusPolicy maps provider HTTP statuses to fallback behavior.
// 404 means the specific model was renamed or retired, so the next one may
// still work. 403 and 429 are account-wide: retrying other models would only
// burn more quota against a key that is already rejected or exhausted.
func DefaultStatusPolicy() map[int]Classification {
	return map[int]Classification{
		http.StatusNotFound:        ClassRetryable,
		http.StatusForbidden:       ClassTerminal,
		http.StatusTooManyRequests: ClassTerminal,
	}
}

// DefaultModels is the ordered fallback chain, newest first.
func DefaultModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.0-flash",
		"gemini-1.5-flash",
	}
}

// FallbackConfig is the injectable configuration of the fallback client.
type FallbackConfig struct {
	BaseURL        string
	APIKey         string
	Models         []string
	StatusPolicy   map[int]Classification
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// FallbackConfigFromEnv builds the default config with the key from
// GEMINI_API_KEY.
func FallbackConfigFromEnv() FallbackConfig {
	return FallbackConfig{
		BaseURL:      defaultBaseURL,
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		Models:       DefaultModels(),
		StatusPolicy: DefaultStatusPolicy(),
	}
}

// Client calls the Gemini generateContent endpoint with an ordered model
// fallback chain. Attempts are strictly sequential: a terminal status must
// short-circuit the remaining models, and the provider rate-limits per
// credential, not per concurrent request.
type Client struct {
	cfg        FallbackConfig
	httpClient *http.Client
}

// NewClient validates the config and returns a ready fallback client.
func NewClient(cfg FallbackConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("model fallback list is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.StatusPolicy == nil {
		cfg.StatusPolicy = DefaultStatusPolicy()
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			},
		},
	}, nil
}

// Generate tries each configured model in order until one returns usable
// text. The returned text is already sanitized. A nil error means the text is
// non-blank.
func (c *Client) Generate(ctx context.Context, payload *GeminiPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	for _, model := range c.cfg.Models {
		text, attemptErr := c.attempt(ctx, model, payloadBytes)
		if attemptErr == nil {
			return text, nil
		}

		if !attemptErr.Retryable {
			log.Error().Str("model", model).Str("code", string(attemptErr.Code)).
				Msg("Gemini attempt failed terminally, aborting fallback")
			return "", attemptErr
		}

		log.Warn().Str("model", model).Str("code", string(attemptErr.Code)).
			Err(attemptErr).Msg("Gemini attempt failed, trying next model")
		lastErr = attemptErr
	}

	return "", &GenerateError{
		Code:        ErrAllModelsFailed,
		Message:     "semua model AI sedang tidak tersedia",
		Remediation: "Coba lagi dalam beberapa saat.",
		Cause:       lastErr,
	}
}

// attempt issues one generateContent call against one model and classifies
// the outcome.
func (c *Client) attempt(ctx context.Context, model string, payload []byte) (string, *GenerateError) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.cfg.BaseURL, model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &GenerateError{Code: ErrTransport, Model: model, Message: err.Error(), Retryable: true, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts land here too and are treated like any transport failure.
		return "", &GenerateError{Code: ErrTransport, Model: model, Message: err.Error(), Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerateError{Code: ErrTransport, Model: model, Message: err.Error(), Retryable: true, Cause: err}
	}

	if resp.StatusCode == http.StatusOK {
		text, ok := ExtractText(body)
		if !ok {
			return "", &GenerateError{Code: ErrEmptyResponse, Model: model, Message: "empty response", Retryable: true}
		}
		return SanitizeModelText(text), nil
	}

	return "", c.classifyStatus(model, resp.StatusCode)
}

// classifyStatus maps a non-200 status onto the configured policy.
func (c *Client) classifyStatus(model string, status int) *GenerateError {
	class, known := c.cfg.StatusPolicy[status]
	if !known {
		class = ClassRetryable
	}

	switch {
	case status == http.StatusNotFound:
		return &GenerateError{
			Code:      ErrModelNotFound,
			Model:     model,
			Message:   fmt.Sprintf("model not found: %s", model),
			Retryable: class == ClassRetryable,
		}
	case status == http.StatusForbidden:
		return &GenerateError{
			Code:        ErrUnauthorized,
			Model:       model,
			Message:     "API key ditolak oleh penyedia AI",
			Remediation: "Periksa kembali GEMINI_API_KEY pada konfigurasi server.",
			Retryable:   class == ClassRetryable,
		}
	case status == http.StatusTooManyRequests:
		return &GenerateError{
			Code:        ErrQuotaExceeded,
			Model:       model,
			Message:     "kuota penyedia AI telah habis",
			Remediation: "Tunggu beberapa menit sebelum mencoba lagi.",
			Retryable:   class == ClassRetryable,
		}
	default:
		return &GenerateError{
			Code:      ErrProviderStatus,
			Model:     model,
			Message:   fmt.Sprintf("Error %d", status),
			Retryable: class == ClassRetryable,
		}
	}
}
