package user

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/scan"
	"NutriScan_V1.0/internal/utility"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// maxImageBytes caps the uploaded label photo at 8 MB.
const maxImageBytes = 8 << 20

// ScanHandler accepts a multipart label photo, runs the scan pipeline, and
// returns the persisted session with its analysis.
func ScanHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	// 1. Read the uploaded image
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Foto label wajib diunggah pada field 'image'"})
	}
	if fileHeader.Size > maxImageBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "Ukuran foto maksimal 8 MB"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Foto label tidak dapat dibaca"})
	}
	defer src.Close()

	image, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil || len(image) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Foto label tidak dapat dibaca"})
	}
	if len(image) > maxImageBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "Ukuran foto maksimal 8 MB"})
	}

	mimeType := fileHeader.Header.Get("Content-Type")

	// 2. Run the pipeline
	result, err := coordinator.Run(ctx, userID, image, fileHeader.Filename, mimeType)
	if err != nil {
		var perr *scan.PipelineError
		if errors.As(err, &perr) {
			return c.JSON(pipelineErrorStatus(perr), map[string]interface{}{
				"error":     perr.Message,
				"kind":      string(perr.Kind),
				"retryable": perr.Retryable,
			})
		}
		log.Error().Err(err).Msg("Scan pipeline failed without classification")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Terjadi kesalahan, coba lagi"})
	}

	return c.JSON(http.StatusCreated, result)
}

func pipelineErrorStatus(perr *scan.PipelineError) int {
	switch perr.Kind {
	case scan.KindAuthRequired:
		return http.StatusUnauthorized
	case scan.KindUpload, scan.KindAnalysis:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetScanSessionsHandler returns the user's scan history, newest first.
func GetScanSessionsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	limit := utility.ParseIntParam(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := utility.ParseIntParam(c, "offset", 0)

	sessions, err := queries.ListScanSessions(ctx, database.ListScanSessionsParams{
		UserID:      userID,
		LimitCount:  int32(limit),
		OffsetCount: int32(offset),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scan sessions")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch scan history"})
	}

	total, err := queries.CountScanSessions(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count scan sessions")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch scan history"})
	}

	// Ensure we return an empty array [] instead of null
	if sessions == nil {
		sessions = []database.ScanSession{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetScanSessionDetailHandler returns one session with its analysis text.
func GetScanSessionDetailHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	session, err := queries.GetScanSession(ctx, c.Param("session_id"), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Scan session not found"})
	}

	return c.JSON(http.StatusOK, session)
}

// GetSessionMessagesHandler returns the full chat transcript oldest-first.
func GetSessionMessagesHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	// Ownership check before reading messages
	session, err := queries.GetScanSession(ctx, c.Param("session_id"), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Scan session not found"})
	}

	messages, err := queries.GetSessionMessages(ctx, session.SessionID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch session messages")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch messages"})
	}

	if messages == nil {
		messages = []database.ChatMessage{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": session.SessionID,
		"messages":   messages,
	})
}

type UpdateProductNameRequest struct {
	ProductName string `json:"product_name" validate:"required,min=2,max=50"`
}

// UpdateProductNameHandler lets the user correct the extracted product name.
func UpdateProductNameHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req UpdateProductNameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	name := strings.TrimSpace(req.ProductName)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Nama produk harus 2 sampai 50 karakter"})
	}

	session, err := queries.UpdateScanSessionProductName(ctx, database.UpdateScanSessionProductNameParams{
		SessionID:   c.Param("session_id"),
		UserID:      userID,
		ProductName: name,
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Scan session not found"})
	}

	return c.JSON(http.StatusOK, session)
}

// DeleteSessionHandler removes a session and, through the FK cascade, its
// chat messages.
func DeleteSessionHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	// Verify ownership first so a delete of someone else's session 404s
	session, err := queries.GetScanSession(ctx, c.Param("session_id"), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Scan session not found"})
	}

	if err := queries.DeleteScanSession(ctx, session.SessionID, userID); err != nil {
		log.Error().Err(err).Msg("Failed to delete scan session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete session"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Scan session deleted"})
}

// ScanSocketHandler maintains the persistent progress connection for the
// scanning screen.
func ScanSocketHandler(c echo.Context) error {
	// 1. Get User ID from the Context (set by JwtAuthMiddleware)
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return echo.ErrUnauthorized
	}

	// 2. Upgrade HTTP request to WebSocket
	ws, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	// 3. Register the client
	utility.RegisterClient(userID, ws)
	defer utility.UnregisterClient(userID)

	// 4. Listen loop (Keep connection alive)
	// We don't expect messages FROM the client, but we need to read to keep
	// the socket open
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	return nil
}
