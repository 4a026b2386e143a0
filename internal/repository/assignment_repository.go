package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

// AssignmentRepository persists exercise assignments of plan periods.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByPlan returns every assignment of the plan's periods.
func (r *AssignmentRepository) ListByPlan(ctx context.Context, planID string) ([]models.PeriodAssignmentRow, error) {
	const query = `
SELECT pa.period_id, pa.exercise_id, pa.percentage, pa.adjustment_kind, pa.adjustment_unit, pa.adjustment_value, pa.updated_at
FROM period_assignments pa
JOIN plan_periods pp ON pp.id = pa.period_id
WHERE pp.plan_id = $1
ORDER BY pp.position ASC, pa.ordinal ASC`
	var rows []models.PeriodAssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, planID); err != nil {
		return nil, fmt.Errorf("list period assignments: %w", err)
	}
	return rows, nil
}

// ReplaceForPeriod swaps the full assignment list of a period in one transaction.
func (r *AssignmentRepository) ReplaceForPeriod(ctx context.Context, periodID string, assignments []models.ExerciseAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM period_assignments WHERE period_id = $1`, periodID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear period assignments: %w", err)
	}

	const insert = `INSERT INTO period_assignments (period_id, exercise_id, ordinal, percentage, adjustment_kind, adjustment_unit, adjustment_value, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	for i, a := range assignments {
		adj := a.Adjustment.Normalize()
		var unit *string
		if adj.Kind != models.AdjustmentMaintain {
			u := string(adj.Unit)
			unit = &u
		}
		if _, err := tx.ExecContext(ctx, insert, periodID, a.ExerciseID, i, a.Percentage, string(adj.Kind), unit, adj.Value, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert period assignment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments tx: %w", err)
	}
	return nil
}
