package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

// ExerciseRepository reads the exercise catalog.
type ExerciseRepository struct {
	db *sqlx.DB
}

// NewExerciseRepository constructs the repository.
func NewExerciseRepository(db *sqlx.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// ListByPlan returns the exercises selectable in a plan.
func (r *ExerciseRepository) ListByPlan(ctx context.Context, planID string) ([]models.Exercise, error) {
	const query = `
SELECT e.id, e.name, e.muscle_groups, e.equipment, e.description
FROM exercises e
JOIN plan_exercises pe ON pe.exercise_id = e.id
WHERE pe.plan_id = $1
ORDER BY e.name ASC`
	var exercises []models.Exercise
	if err := r.db.SelectContext(ctx, &exercises, query, planID); err != nil {
		return nil, fmt.Errorf("list plan exercises: %w", err)
	}
	return exercises, nil
}
