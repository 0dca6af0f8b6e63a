package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries is the data access object shared by all handlers. One instance
// wraps the application connection pool.
type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

// User is an account row.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	UserName     string    `json:"user_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// UserHealthProfile is the personalization source for scan analysis and chat.
// The array columns are Postgres text[].
type UserHealthProfile struct {
	UserID              string      `json:"user_id"`
	Conditions          []string    `json:"conditions"`
	FoodAllergies       []string    `json:"food_allergies"`
	DietaryRestrictions []string    `json:"dietary_restrictions"`
	Age                 pgtype.Int4 `json:"age"`
	Gender              pgtype.Text `json:"gender"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// ScanSession is one analyzed label photo plus its conversation.
type ScanSession struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	ImageURL     string    `json:"image_url"`
	ProductName  string    `json:"product_name"`
	AnalysisText string    `json:"analysis_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatMessage is one turn of a scan session conversation. Role is "user" or
// "assistant"; insertion order is chronological and significant.
type ChatMessage struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
