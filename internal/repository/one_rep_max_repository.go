package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

// OneRepMaxRepository reads recorded one-rep maxes.
type OneRepMaxRepository struct {
	db *sqlx.DB
}

// NewOneRepMaxRepository constructs the repository.
func NewOneRepMaxRepository(db *sqlx.DB) *OneRepMaxRepository {
	return &OneRepMaxRepository{db: db}
}

// Latest returns the most recent max for an exercise in a plan, or sql.ErrNoRows.
func (r *OneRepMaxRepository) Latest(ctx context.Context, planID, exerciseID string) (*models.OneRepMax, error) {
	const query = `SELECT plan_id, exercise_id, value_kg, recorded_at
FROM one_rep_maxes
WHERE plan_id = $1 AND exercise_id = $2
ORDER BY recorded_at DESC
LIMIT 1`
	var rm models.OneRepMax
	if err := r.db.GetContext(ctx, &rm, query, planID, exerciseID); err != nil {
		return nil, fmt.Errorf("latest one rep max: %w", err)
	}
	return &rm, nil
}
