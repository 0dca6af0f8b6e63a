package user

import (
	"net/http"
	"strings"

	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/utility"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type RequestHealthProfile struct {
	Conditions          []string `json:"conditions"`
	FoodAllergies       []string `json:"food_allergies"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Age                 *int32   `json:"age"`
	Gender              *string  `json:"gender"`
}

// GetHealthProfileHandler retrieves the user's health profile
func GetHealthProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	profile, err := queries.GetUserHealthProfile(ctx, userID)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Health profile not found. Please create it first."})
		}
		log.Error().Err(err).Msg("Failed to retrieve user health profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve profile"})
	}

	return c.JSON(http.StatusOK, profile)
}

// UpsertHealthProfileHandler creates or fully replaces the health profile.
// Clients send the merged document; the server does not patch fields.
func UpsertHealthProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req RequestHealthProfile
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Age != nil && (*req.Age < 1 || *req.Age > 130) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Age must be between 1 and 130"})
	}

	params := database.UpsertUserHealthProfileParams{
		UserID:              userID,
		Conditions:          cleanList(req.Conditions),
		FoodAllergies:       cleanList(req.FoodAllergies),
		DietaryRestrictions: cleanList(req.DietaryRestrictions),
	}
	if req.Age != nil {
		params.Age = pgtype.Int4{Int32: *req.Age, Valid: true}
	}
	if req.Gender != nil && strings.TrimSpace(*req.Gender) != "" {
		params.Gender = pgtype.Text{String: strings.TrimSpace(*req.Gender), Valid: true}
	}

	profile, err := queries.UpsertUserHealthProfile(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert user health profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save profile"})
	}

	// The cached summary is stale now; the next chat rebuilds it.
	profileCache.Remove(userID)

	return c.JSON(http.StatusOK, profile)
}

// cleanList trims entries and drops empties so the prompt never renders a
// dangling comma.
func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
