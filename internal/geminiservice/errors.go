package geminiservice

import "fmt"

// GenerateErrorCode identifies the failure class of a Gemini attempt.
type GenerateErrorCode string

const (
	ErrTransport       GenerateErrorCode = "TRANSPORT"
	ErrModelNotFound   GenerateErrorCode = "MODEL_NOT_FOUND"
	ErrUnauthorized    GenerateErrorCode = "UNAUTHORIZED"
	ErrQuotaExceeded   GenerateErrorCode = "QUOTA_EXCEEDED"
	ErrEmptyResponse   GenerateErrorCode = "EMPTY_RESPONSE"
	ErrProviderStatus  GenerateErrorCode = "PROVIDER_STATUS"
	ErrAllModelsFailed GenerateErrorCode = "ALL_MODELS_FAILED"
)

// GenerateError is the structured failure of a model attempt or of the whole
// fallback loop. Retryable errors are absorbed by the loop and never reach
// the caller individually; only a terminal error or the final aggregate does.
type GenerateError struct {
	Code        GenerateErrorCode
	Model       string
	Message     string
	Remediation string
	Retryable   bool
	Cause       error
}

func (e *GenerateError) Error() string {
	msg := e.Message
	if e.Remediation != "" {
		msg = msg + ". " + e.Remediation
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *GenerateError) Unwrap() error {
	return e.Cause
}

// UserMessage is the single human-readable line surfaced to the client.
func (e *GenerateError) UserMessage() string {
	if e.Remediation != "" {
		return e.Message + ". " + e.Remediation
	}
	return e.Message
}

// IsRetryable reports whether a caller-facing retry action makes sense.
func (e *GenerateError) IsRetryable() bool {
	return e.Retryable || e.Code == ErrAllModelsFailed
}
