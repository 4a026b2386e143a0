package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

// PlanRepository reads training plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// FindByID returns a plan by id. Missing plans surface sql.ErrNoRows.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.TrainingPlan, error) {
	const query = `SELECT id, name, number_of_weeks, created_at, updated_at FROM training_plans WHERE id = $1`
	var plan models.TrainingPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("find training plan: %w", err)
	}
	return &plan, nil
}
