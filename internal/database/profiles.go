package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func (q *Queries) GetUserHealthProfile(ctx context.Context, userID string) (UserHealthProfile, error) {
	const query = `
		SELECT user_id, conditions, food_allergies, dietary_restrictions, age, gender, updated_at
		FROM user_health_profiles WHERE user_id = $1`

	var p UserHealthProfile
	err := q.db.QueryRow(ctx, query, userID).
		Scan(&p.UserID, &p.Conditions, &p.FoodAllergies, &p.DietaryRestrictions, &p.Age, &p.Gender, &p.UpdatedAt)
	return p, err
}

type UpsertUserHealthProfileParams struct {
	UserID              string
	Conditions          []string
	FoodAllergies       []string
	DietaryRestrictions []string
	Age                 pgtype.Int4
	Gender              pgtype.Text
}

// UpsertUserHealthProfile replaces the whole profile row. Partial updates are
// resolved client-side: the handler sends the merged document.
func (q *Queries) UpsertUserHealthProfile(ctx context.Context, arg UpsertUserHealthProfileParams) (UserHealthProfile, error) {
	const query = `
		INSERT INTO user_health_profiles (user_id, conditions, food_allergies, dietary_restrictions, age, gender, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			conditions = EXCLUDED.conditions,
			food_allergies = EXCLUDED.food_allergies,
			dietary_restrictions = EXCLUDED.dietary_restrictions,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			updated_at = now()
		RETURNING user_id, conditions, food_allergies, dietary_restrictions, age, gender, updated_at`

	var p UserHealthProfile
	err := q.db.QueryRow(ctx, query,
		arg.UserID, arg.Conditions, arg.FoodAllergies, arg.DietaryRestrictions, arg.Age, arg.Gender).
		Scan(&p.UserID, &p.Conditions, &p.FoodAllergies, &p.DietaryRestrictions, &p.Age, &p.Gender, &p.UpdatedAt)
	return p, err
}
