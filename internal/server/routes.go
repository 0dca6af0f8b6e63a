package server

import (
	"net/http"

	user "NutriScan_V1.0/internal/User"
	"NutriScan_V1.0/internal/admin"
	"NutriScan_V1.0/internal/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Traditional Auth Routes
	e.POST("/signup", auth.SignupHandler)
	e.POST("/login", auth.LoginHandler)
	e.POST("/auth/refresh", auth.RefreshHandler)

	e.GET("/health", s.healthHandler)

	e.Use(LoggerMiddleware)

	// Protected routes
	protected := e.Group("")
	protected.Use(auth.JwtAuthMiddleware)

	protected.GET("/logout", auth.LogoutHandler)

	// Label Scan & Chat Function Routes
	protected.POST("/scan", user.ScanHandler)
	protected.GET("/scan/sessions", user.GetScanSessionsHandler)
	protected.GET("/scan/session/:session_id", user.GetScanSessionDetailHandler)
	protected.PUT("/scan/session/:session_id/name", user.UpdateProductNameHandler)
	protected.DELETE("/scan/session/:session_id", user.DeleteSessionHandler)
	protected.GET("/scan/session/:session_id/messages", user.GetSessionMessagesHandler)
	protected.POST("/scan/session/:session_id/chat", user.ChatHandler)

	// Websocket for scan progress updates on mobile clients
	protected.GET("/scan/ws", user.ScanSocketHandler)

	// User Health Data Function Routes
	protected.GET("/health/profile", user.GetHealthProfileHandler)
	protected.PUT("/health/profile", user.UpsertHealthProfileHandler)

	// Admin Function Routes
	protected.GET("/admin/status", admin.SystemStatusHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.db.Health())
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
