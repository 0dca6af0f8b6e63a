package user

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/geminiservice"
	"NutriScan_V1.0/internal/utility"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxChatMessageRunes caps a single chat message.
const maxChatMessageRunes = 2000

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// sessionFetchResponse maps a transcript lookup failure to an HTTP response.
// A missing session is the caller's problem; anything else is ours.
func sessionFetchResponse(err error) (int, string) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, "Scan session not found"
	}
	return http.StatusInternalServerError, "Failed to load chat session"
}

// ChatHandler runs one follow-up turn of the nutrition chat for a scan
// session. The user's message is stored before the model call so a provider
// outage never loses what the user typed.
func ChatHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}
	sessionID := c.Param("session_id")

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pesan tidak boleh kosong"})
	}
	if utf8.RuneCountInString(message) > maxChatMessageRunes {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pesan terlalu panjang"})
	}

	// 1. Fetch the session, its transcript, and the profile summary
	// concurrently.
	var (
		session database.ScanSession
		history []database.ChatMessage
		summary geminiservice.HealthProfileSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = queries.GetScanSession(gctx, sessionID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = queries.GetSessionMessages(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		summary = cachedProfileSummary(gctx, userID)
		return nil
	})

	if err := g.Wait(); err != nil {
		status, msg := sessionFetchResponse(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load chat session")
		}
		return c.JSON(status, map[string]string{"error": msg})
	}

	// 2. Rebuild the conversation from the stored transcript. The transcript
	// is the source of truth; nothing lives only in memory.
	convo := geminiservice.NewConversationContext(summary, session.AnalysisText)
	for _, msg := range history {
		switch msg.Role {
		case geminiservice.RoleUser:
			convo.AppendUser(msg.Content)
		case geminiservice.RoleAssistant:
			convo.AppendAssistant(msg.Content)
		}
	}

	// 3. Store the user's message before calling the model.
	userMsg, err := queries.InsertChatMessage(ctx, database.InsertChatMessageParams{
		SessionID: session.SessionID,
		Role:      geminiservice.RoleUser,
		Content:   message,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to store chat message")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Gagal menyimpan pesan"})
	}

	// 4. Ask the model. On failure the transcript still gets an assistant
	// turn so the client renders the outage inline like any other reply.
	payload := geminiservice.BuildChatPayload(convo, message)
	reply, err := aiClient.Generate(ctx, payload)
	if err != nil {
		failureText := chatFailureText(err)

		if _, insErr := queries.InsertChatMessage(ctx, database.InsertChatMessageParams{
			SessionID: session.SessionID,
			Role:      geminiservice.RoleAssistant,
			Content:   failureText,
		}); insErr != nil {
			log.Error().Err(insErr).Msg("Failed to store failure reply")
		}

		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error":     failureText,
			"retryable": chatRetryable(err),
		})
	}

	// 5. Store and return the assistant reply.
	assistantMsg, err := queries.InsertChatMessage(ctx, database.InsertChatMessageParams{
		SessionID: session.SessionID,
		Role:      geminiservice.RoleAssistant,
		Content:   reply,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to store assistant reply")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Gagal menyimpan balasan"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":   session.SessionID,
		"user_message": userMsg,
		"reply":        assistantMsg,
	})
}

func chatFailureText(err error) string {
	var genErr *geminiservice.GenerateError
	if errors.As(err, &genErr) {
		return genErr.UserMessage()
	}
	return "Maaf, terjadi gangguan. Coba lagi dalam beberapa saat."
}

func chatRetryable(err error) bool {
	var genErr *geminiservice.GenerateError
	if errors.As(err, &genErr) {
		return genErr.IsRetryable()
	}
	return true
}
