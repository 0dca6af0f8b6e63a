/*
Package scan orchestrates the label-scan pipeline: precondition checks,
profile lookup, image upload, AI analysis, product-name derivation, and
persistence. The collaborators are injected as interfaces so the pipeline's
failure semantics can be tested without Postgres, object storage, or the
model provider.
*/
package scan

import (
	"context"
	"errors"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/geminiservice"
	"github.com/rs/zerolog/log"
)

// ProfileSource resolves the stored health profile. Failures here are
// non-fatal: personalization is best-effort.
type ProfileSource interface {
	GetHealthProfile(ctx context.Context, userID string) (*database.UserHealthProfile, error)
}

// ImageStore uploads the raw label photo and returns its public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, userID string, data []byte, filename string) (string, error)
}

// Analyzer runs one generate call against the model provider.
type Analyzer interface {
	Generate(ctx context.Context, payload *geminiservice.GeminiPayload) (string, error)
}

// SessionStore persists the scan session and its messages.
type SessionStore interface {
	PersistSession(ctx context.Context, userID, imageURL, productName, analysisText string) (string, error)
	PersistMessage(ctx context.Context, sessionID, role, content string) (string, error)
}

// ProgressNotifier receives the pipeline's state transitions. Optional.
type ProgressNotifier interface {
	Notify(userID string, state State)
}

// StateKind tags a pipeline progress state.
type StateKind string

const (
	StateIdle      StateKind = "idle"
	StateUploading StateKind = "uploading"
	StateAnalyzing StateKind = "analyzing"
	StateSaving    StateKind = "saving"
	StateDone      StateKind = "done"
	StateError     StateKind = "error"
)

// State is one tagged progress update pushed to the client.
type State struct {
	Kind      StateKind `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// ErrorKind classifies pipeline failures so the caller can decide whether a
// retry action makes sense.
type ErrorKind string

const (
	KindAuthRequired ErrorKind = "AUTH_REQUIRED"
	KindUpload       ErrorKind = "UPLOAD_FAILED"
	KindAnalysis     ErrorKind = "ANALYSIS_FAILED"
	KindPersist      ErrorKind = "PERSIST_FAILED"
)

// PipelineError is the single typed failure a pipeline run surfaces. Message
// is already human-readable.
type PipelineError struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	Cause     error
}

func (e *PipelineError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Result is the outcome of a successful pipeline run. Immutable once
// returned; later product-name edits go through the session store directly.
type Result struct {
	SessionID    string                            `json:"session_id"`
	ProductName  string                            `json:"product_name"`
	AnalysisText string                            `json:"analysis_text"`
	ImageURL     string                            `json:"image_url"`
	Profile      geminiservice.HealthProfileSummary `json:"-"`
}

// Coordinator wires the pipeline collaborators together.
type Coordinator struct {
	profiles ProfileSource
	images   ImageStore
	ai       Analyzer
	store    SessionStore
	notifier ProgressNotifier
}

func NewCoordinator(profiles ProfileSource, images ImageStore, ai Analyzer, store SessionStore, notifier ProgressNotifier) *Coordinator {
	return &Coordinator{
		profiles: profiles,
		images:   images,
		ai:       ai,
		store:    store,
		notifier: notifier,
	}
}

func (c *Coordinator) notify(userID string, state State) {
	if c.notifier != nil {
		c.notifier.Notify(userID, state)
	}
}

// Run executes the scan pipeline for one image. Every step's failure aborts
// the run; no later step runs after an earlier one fails. The only best-
// effort step is the profile fetch, which degrades to an empty summary.
func (c *Coordinator) Run(ctx context.Context, userID string, image []byte, filename, mimeType string) (*Result, error) {
	// 1. Identity must already be resolved by the auth middleware.
	if userID == "" {
		return nil, c.fail(userID, &PipelineError{
			Kind:    KindAuthRequired,
			Message: "authentication required",
		})
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	// 2. Profile snapshot, best-effort. The same snapshot is used for the
	// whole run.
	var summary geminiservice.HealthProfileSummary
	profile, err := c.profiles.GetHealthProfile(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Profile lookup failed, continuing without personalization")
	} else {
		summary = geminiservice.BuildProfileSummary(profile)
	}

	// 3. Upload the raw image. A failed upload must not cost a model call.
	c.notify(userID, State{Kind: StateUploading})
	imageURL, err := c.images.UploadImage(ctx, userID, image, filename)
	if err != nil {
		return nil, c.fail(userID, &PipelineError{
			Kind:      KindUpload,
			Message:   "gagal mengunggah foto label, coba lagi",
			Retryable: true,
			Cause:     err,
		})
	}

	// 4. Analysis via the model fallback chain.
	c.notify(userID, State{Kind: StateAnalyzing})
	payload := geminiservice.BuildAnalysisPayload(summary, image, mimeType)
	analysisText, err := c.ai.Generate(ctx, payload)
	if err != nil {
		return nil, c.fail(userID, &PipelineError{
			Kind:      KindAnalysis,
			Message:   analysisFailureMessage(err),
			Retryable: analysisRetryable(err),
			Cause:     err,
		})
	}

	// 5. Product name from the analysis section contract.
	productName := geminiservice.ExtractProductName(analysisText)

	// 6. Persist the session, then the analysis as the opening assistant
	// message.
	c.notify(userID, State{Kind: StateSaving})
	sessionID, err := c.store.PersistSession(ctx, userID, imageURL, productName, analysisText)
	if err != nil {
		return nil, c.fail(userID, &PipelineError{
			Kind:    KindPersist,
			Message: "gagal menyimpan hasil analisis",
			Cause:   err,
		})
	}
	if _, err := c.store.PersistMessage(ctx, sessionID, geminiservice.RoleAssistant, analysisText); err != nil {
		return nil, c.fail(userID, &PipelineError{
			Kind:    KindPersist,
			Message: "gagal menyimpan hasil analisis",
			Cause:   err,
		})
	}

	c.notify(userID, State{Kind: StateDone, SessionID: sessionID})
	return &Result{
		SessionID:    sessionID,
		ProductName:  productName,
		AnalysisText: analysisText,
		ImageURL:     imageURL,
		Profile:      summary,
	}, nil
}

func (c *Coordinator) fail(userID string, perr *PipelineError) *PipelineError {
	log.Error().Str("kind", string(perr.Kind)).Err(perr.Cause).Msg("Scan pipeline aborted")
	c.notify(userID, State{Kind: StateError, Message: perr.Message})
	return perr
}

// analysisFailureMessage prefers the provider error's user-facing text.
func analysisFailureMessage(err error) string {
	var genErr *geminiservice.GenerateError
	if errors.As(err, &genErr) {
		return genErr.UserMessage()
	}
	return "analisis AI sedang tidak tersedia, coba lagi nanti"
}

func analysisRetryable(err error) bool {
	var genErr *geminiservice.GenerateError
	if errors.As(err, &genErr) {
		return genErr.IsRetryable()
	}
	return true
}
