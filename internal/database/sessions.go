package database

import (
	"context"
)

type CreateScanSessionParams struct {
	UserID       string
	ImageURL     string
	ProductName  string
	AnalysisText string
}

func (q *Queries) CreateScanSession(ctx context.Context, arg CreateScanSessionParams) (ScanSession, error) {
	const query = `
		INSERT INTO scan_sessions (user_id, image_url, product_name, analysis_text)
		VALUES ($1, $2, $3, $4)
		RETURNING session_id, user_id, image_url, product_name, analysis_text, created_at`

	var s ScanSession
	err := q.db.QueryRow(ctx, query, arg.UserID, arg.ImageURL, arg.ProductName, arg.AnalysisText).
		Scan(&s.SessionID, &s.UserID, &s.ImageURL, &s.ProductName, &s.AnalysisText, &s.CreatedAt)
	return s, err
}

// GetScanSession scopes by user so a session id from another account is a
// not-found, not a leak.
func (q *Queries) GetScanSession(ctx context.Context, sessionID, userID string) (ScanSession, error) {
	const query = `
		SELECT session_id, user_id, image_url, product_name, analysis_text, created_at
		FROM scan_sessions WHERE session_id = $1 AND user_id = $2`

	var s ScanSession
	err := q.db.QueryRow(ctx, query, sessionID, userID).
		Scan(&s.SessionID, &s.UserID, &s.ImageURL, &s.ProductName, &s.AnalysisText, &s.CreatedAt)
	return s, err
}

type ListScanSessionsParams struct {
	UserID      string
	LimitCount  int32
	OffsetCount int32
}

func (q *Queries) ListScanSessions(ctx context.Context, arg ListScanSessionsParams) ([]ScanSession, error) {
	const query = `
		SELECT session_id, user_id, image_url, product_name, analysis_text, created_at
		FROM scan_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := q.db.Query(ctx, query, arg.UserID, arg.LimitCount, arg.OffsetCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []ScanSession
	for rows.Next() {
		var s ScanSession
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.ImageURL, &s.ProductName, &s.AnalysisText, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (q *Queries) CountScanSessions(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT count(*) FROM scan_sessions WHERE user_id = $1`

	var count int64
	err := q.db.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

type UpdateScanSessionProductNameParams struct {
	SessionID   string
	UserID      string
	ProductName string
}

func (q *Queries) UpdateScanSessionProductName(ctx context.Context, arg UpdateScanSessionProductNameParams) (ScanSession, error) {
	const query = `
		UPDATE scan_sessions SET product_name = $3
		WHERE session_id = $1 AND user_id = $2
		RETURNING session_id, user_id, image_url, product_name, analysis_text, created_at`

	var s ScanSession
	err := q.db.QueryRow(ctx, query, arg.SessionID, arg.UserID, arg.ProductName).
		Scan(&s.SessionID, &s.UserID, &s.ImageURL, &s.ProductName, &s.AnalysisText, &s.CreatedAt)
	return s, err
}

func (q *Queries) DeleteScanSession(ctx context.Context, sessionID, userID string) error {
	const query = `DELETE FROM scan_sessions WHERE session_id = $1 AND user_id = $2`
	_, err := q.db.Exec(ctx, query, sessionID, userID)
	return err
}

type InsertChatMessageParams struct {
	SessionID string
	Role      string
	Content   string
}

func (q *Queries) InsertChatMessage(ctx context.Context, arg InsertChatMessageParams) (ChatMessage, error) {
	const query = `
		INSERT INTO chat_messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING message_id, session_id, role, content, created_at`

	var m ChatMessage
	err := q.db.QueryRow(ctx, query, arg.SessionID, arg.Role, arg.Content).
		Scan(&m.MessageID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
	return m, err
}

// GetSessionMessages returns the full history oldest-first. Prompt windowing
// happens in memory so the stored ordering stays authoritative.
func (q *Queries) GetSessionMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	const query = `
		SELECT message_id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, message_id ASC`

	rows, err := q.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.MessageID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
