/*
Package auth implements account registration, login, refresh-token rotation,
and the JWT middleware guarding the protected API surface.
*/
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/utility"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 30 * 24 * time.Hour
)

var queries *database.Queries

// InitAuth wires the package to the shared connection pool. Must be called
// once before the server starts routing.
func InitAuth(dbpool *pgxpool.Pool) error {
	queries = database.New(dbpool)
	if os.Getenv("SESSION_SECRET") == "" {
		return fmt.Errorf("auth: SESSION_SECRET environment variable is not set")
	}
	return nil
}

type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SignupRequest for registration.
type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

// LoginRequest for email/password login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResponse carries the token pair for mobile clients.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         database.User `json:"user"`
}

func SignupHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if err := utility.CheckIPRateLimit(utility.GetRealIP(c)); err != nil {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many attempts, please try again later"})
	}

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email, username, and a password of at least 8 characters are required"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create account"})
	}

	user, err := queries.CreateUser(ctx, database.CreateUserParams{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		UserName:     req.Username,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		return c.JSON(http.StatusConflict, map[string]string{"error": "Account with this email already exists"})
	}

	return issueTokenPair(c, ctx, &user)
}

func LoginHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if err := utility.CheckIPRateLimit(utility.GetRealIP(c)); err != nil {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many attempts, please try again later"})
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	user, err := queries.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same response as a wrong password so accounts can't be enumerated.
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	return issueTokenPair(c, ctx, &user)
}

func RefreshHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var refreshToken string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		refreshToken = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if refreshToken == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "No refresh token provided"})
	}

	hash := hashRefreshToken(refreshToken)
	stored, err := queries.GetRefreshToken(ctx, hash)
	if err != nil {
		log.Warn().Err(err).Msg("Refresh token rejected")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired refresh token"})
	}

	// Rotate: the presented token is burned whether or not issuing succeeds.
	if err := queries.RevokeRefreshToken(ctx, hash); err != nil {
		log.Error().Err(err).Msg("Failed to revoke refresh token")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to refresh session"})
	}

	user, err := queries.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	return issueTokenPair(c, ctx, &user)
}

func LogoutHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := c.Get("user_id").(string)
	if ok && userID != "" {
		if err := queries.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
			log.Error().Err(err).Msg("Failed to revoke refresh tokens on logout")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// JwtAuthMiddleware validates the bearer token and loads the account into
// the request context.
func JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		sessionSecret := os.Getenv("SESSION_SECRET")
		token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(sessionSecret), nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		claims, ok := token.Claims.(*JwtCustomClaims)
		if !ok || claims.UserID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		}

		user, err := queries.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
		}

		c.Set("user", &user)
		c.Set("user_id", claims.UserID)
		return next(c)
	}
}

// Helper functions

func issueTokenPair(c echo.Context, ctx context.Context, user *database.User) error {
	accessToken, err := generateAccessToken(user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign access token")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating access token"})
	}

	refreshToken, err := generateAndStoreRefreshToken(ctx, user.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store refresh token")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating refresh token"})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
		User:         *user,
	})
}

func generateAccessToken(user *database.User) (string, error) {
	claims := &JwtCustomClaims{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.UserName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "nutriscan",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	sessionSecret := os.Getenv("SESSION_SECRET")
	return token.SignedString([]byte(sessionSecret))
}

func generateAndStoreRefreshToken(ctx context.Context, userID string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	err := queries.StoreRefreshToken(ctx, database.StoreRefreshTokenParams{
		UserID:    userID,
		TokenHash: hashRefreshToken(token),
		ExpiresAt: time.Now().Add(RefreshTokenDuration),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func hashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(hash[:])
}
