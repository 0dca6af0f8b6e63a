package scan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/geminiservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysis = "📦 NAMA PRODUK\nKrupuk Enak\n\n📊 INFORMASI NILAI GIZI\nEnergi 150 kkal"

type fakeProfiles struct {
	profile *database.UserHealthProfile
	err     error
	calls   int
}

func (f *fakeProfiles) GetHealthProfile(ctx context.Context, userID string) (*database.UserHealthProfile, error) {
	f.calls++
	return f.profile, f.err
}

type fakeImages struct {
	url   string
	err   error
	calls int
}

func (f *fakeImages) UploadImage(ctx context.Context, userID string, data []byte, filename string) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeAnalyzer struct {
	text    string
	err     error
	calls   int
	payload *geminiservice.GeminiPayload
}

func (f *fakeAnalyzer) Generate(ctx context.Context, payload *geminiservice.GeminiPayload) (string, error) {
	f.calls++
	f.payload = payload
	return f.text, f.err
}

type storedMessage struct {
	sessionID string
	role      string
	content   string
}

type fakeStore struct {
	sessionID  string
	sessionErr error
	messageErr error
	sessions   int
	messages   []storedMessage
}

func (f *fakeStore) PersistSession(ctx context.Context, userID, imageURL, productName, analysisText string) (string, error) {
	f.sessions++
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return f.sessionID, nil
}

func (f *fakeStore) PersistMessage(ctx context.Context, sessionID, role, content string) (string, error) {
	if f.messageErr != nil {
		return "", f.messageErr
	}
	f.messages = append(f.messages, storedMessage{sessionID, role, content})
	return "msg-1", nil
}

type fakeNotifier struct {
	states []State
}

func (f *fakeNotifier) Notify(userID string, state State) {
	f.states = append(f.states, state)
}

func kinds(states []State) []StateKind {
	out := make([]StateKind, len(states))
	for i, s := range states {
		out[i] = s.Kind
	}
	return out
}

func TestRunHappyPath(t *testing.T) {
	profiles := &fakeProfiles{profile: &database.UserHealthProfile{Conditions: []string{"Diabetes"}}}
	images := &fakeImages{url: "https://storage.example/scans/u1/x.jpg"}
	ai := &fakeAnalyzer{text: sampleAnalysis}
	store := &fakeStore{sessionID: "sess-1"}
	notifier := &fakeNotifier{}

	coord := NewCoordinator(profiles, images, ai, store, notifier)

	result, err := coord.Run(context.Background(), "u1", []byte{1, 2, 3}, "label.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, "Krupuk Enak", result.ProductName)
	assert.Equal(t, sampleAnalysis, result.AnalysisText)
	assert.Equal(t, images.url, result.ImageURL)

	// The analysis is stored as the opening assistant message.
	require.Len(t, store.messages, 1)
	assert.Equal(t, storedMessage{"sess-1", geminiservice.RoleAssistant, sampleAnalysis}, store.messages[0])

	assert.Equal(t, []StateKind{StateUploading, StateAnalyzing, StateSaving, StateDone}, kinds(notifier.states))

	// The personalized instruction must reflect the fetched profile.
	require.NotNil(t, ai.payload)
	assert.Contains(t, ai.payload.Contents[0].Parts[0].Text, "Diabetes")
}

func TestRunRequiresAuthenticatedUser(t *testing.T) {
	images := &fakeImages{}
	ai := &fakeAnalyzer{}
	store := &fakeStore{}

	coord := NewCoordinator(&fakeProfiles{}, images, ai, store, nil)

	_, err := coord.Run(context.Background(), "", []byte{1}, "label.jpg", "image/jpeg")

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindAuthRequired, perr.Kind)
	assert.Zero(t, images.calls)
	assert.Zero(t, ai.calls)
	assert.Zero(t, store.sessions)
}

func TestRunUploadFailureCostsNoModelCall(t *testing.T) {
	images := &fakeImages{err: errors.New("bucket unavailable")}
	ai := &fakeAnalyzer{}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	coord := NewCoordinator(&fakeProfiles{}, images, ai, store, notifier)

	_, err := coord.Run(context.Background(), "u1", []byte{1}, "label.jpg", "image/jpeg")

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindUpload, perr.Kind)
	assert.True(t, perr.Retryable)
	assert.Zero(t, ai.calls, "a failed upload must not reach the model")
	assert.Zero(t, store.sessions)
	assert.Equal(t, []StateKind{StateUploading, StateError}, kinds(notifier.states))
}

func TestRunProfileFailureDegradesToGeneric(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("db down")}
	ai := &fakeAnalyzer{text: sampleAnalysis}
	store := &fakeStore{sessionID: "sess-2"}

	coord := NewCoordinator(profiles, &fakeImages{url: "u"}, ai, store, nil)

	result, err := coord.Run(context.Background(), "u1", []byte{1}, "label.jpg", "image/jpeg")
	require.NoError(t, err, "profile lookup failure must not abort the scan")

	assert.True(t, result.Profile.IsEmpty())
	require.NotNil(t, ai.payload)
	assert.Contains(t, ai.payload.Contents[0].Parts[0].Text, "masyarakat umum")
}

func TestRunAnalysisFailure(t *testing.T) {
	genErr := &geminiservice.GenerateError{
		Code:        geminiservice.ErrAllModelsFailed,
		Message:     "semua model AI sedang tidak tersedia",
		Remediation: "Coba lagi dalam beberapa saat.",
	}
	ai := &fakeAnalyzer{err: genErr}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	coord := NewCoordinator(&fakeProfiles{}, &fakeImages{url: "u"}, ai, store, notifier)

	_, err := coord.Run(context.Background(), "u1", []byte{1}, "label.jpg", "image/jpeg")

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindAnalysis, perr.Kind)
	assert.True(t, perr.Retryable)
	assert.True(t, strings.Contains(perr.Message, "semua model AI"))
	assert.Zero(t, store.sessions, "failed analysis must not be persisted")
}

func TestRunPersistFailure(t *testing.T) {
	store := &fakeStore{sessionErr: errors.New("insert failed")}

	coord := NewCoordinator(&fakeProfiles{}, &fakeImages{url: "u"}, &fakeAnalyzer{text: sampleAnalysis}, store, nil)

	_, err := coord.Run(context.Background(), "u1", []byte{1}, "label.jpg", "image/jpeg")

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindPersist, perr.Kind)
}

func TestRunPlaceholderProductName(t *testing.T) {
	ai := &fakeAnalyzer{text: "Analisis tanpa bagian nama produk."}
	store := &fakeStore{sessionID: "sess-3"}

	coord := NewCoordinator(&fakeProfiles{}, &fakeImages{url: "u"}, ai, store, nil)

	result, err := coord.Run(context.Background(), "u1", []byte{1}, "label.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, geminiservice.PlaceholderProductName, result.ProductName)
}
