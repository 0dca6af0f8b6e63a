package database

import (
	"context"
	"time"
)

type CreateUserParams struct {
	Email        string
	UserName     string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	const query = `
		INSERT INTO users (email, user_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING user_id, email, user_name, password_hash, created_at`

	var u User
	err := q.db.QueryRow(ctx, query, arg.Email, arg.UserName, arg.PasswordHash).
		Scan(&u.UserID, &u.Email, &u.UserName, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT user_id, email, user_name, password_hash, created_at
		FROM users WHERE email = $1`

	var u User
	err := q.db.QueryRow(ctx, query, email).
		Scan(&u.UserID, &u.Email, &u.UserName, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT user_id, email, user_name, password_hash, created_at
		FROM users WHERE user_id = $1`

	var u User
	err := q.db.QueryRow(ctx, query, userID).
		Scan(&u.UserID, &u.Email, &u.UserName, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

type StoreRefreshTokenParams struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}

func (q *Queries) StoreRefreshToken(ctx context.Context, arg StoreRefreshTokenParams) error {
	const query = `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`

	_, err := q.db.Exec(ctx, query, arg.UserID, arg.TokenHash, arg.ExpiresAt)
	return err
}

func (q *Queries) GetRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error) {
	const query = `
		SELECT token_id, user_id, token_hash, expires_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > now()`

	var t RefreshToken
	err := q.db.QueryRow(ctx, query, tokenHash).
		Scan(&t.TokenID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked)
	return t, err
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`
	_, err := q.db.Exec(ctx, query, tokenHash)
	return err
}

func (q *Queries) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}
