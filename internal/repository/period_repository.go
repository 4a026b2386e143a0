package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

// PeriodRepository persists the periods of a training plan.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListByPlan returns the periods of a plan in creation order.
func (r *PeriodRepository) ListByPlan(ctx context.Context, planID string) ([]models.Period, error) {
	const query = `SELECT id, plan_id, name, start_day, end_day, position, COALESCE(client_ref, '') AS client_ref, created_at, updated_at
FROM plan_periods
WHERE plan_id = $1
ORDER BY position ASC, created_at ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, planID); err != nil {
		return nil, fmt.Errorf("list plan periods: %w", err)
	}
	for i := range periods {
		periods[i].Status = models.PeriodStatusPersisted
		periods[i].Assignments = []models.ExerciseAssignment{}
	}
	return periods, nil
}

// Create inserts a period. A repeated client reference returns the row stored by the first
// attempt instead of inserting a duplicate.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	const query = `INSERT INTO plan_periods (id, plan_id, name, start_day, end_day, position, client_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5,
        (SELECT COALESCE(MAX(position), 0) + 1 FROM plan_periods WHERE plan_id = $2),
        NULLIF($6, ''), $7, $8)
ON CONFLICT (plan_id, client_ref)
DO UPDATE SET client_ref = EXCLUDED.client_ref
RETURNING id, position, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		period.ID, period.PlanID, period.Name, period.Start, period.End, period.ClientRef, period.CreatedAt, period.UpdatedAt)
	if err := row.Scan(&period.ID, &period.Position, &period.CreatedAt, &period.UpdatedAt); err != nil {
		return fmt.Errorf("create plan period: %w", err)
	}
	period.Status = models.PeriodStatusPersisted
	return nil
}

// Update stores the name and range of an existing period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE plan_periods SET name = :name, start_day = :start_day, end_day = :end_day, updated_at = :updated_at
WHERE id = :id AND plan_id = :plan_id`
	result, err := r.db.NamedExecContext(ctx, query, period)
	if err != nil {
		return fmt.Errorf("update plan period: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan period rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a period and, through the foreign key, its assignments.
func (r *PeriodRepository) Delete(ctx context.Context, planID, id string) error {
	const query = `DELETE FROM plan_periods WHERE id = $1 AND plan_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, planID)
	if err != nil {
		return fmt.Errorf("delete plan period: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan period rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
