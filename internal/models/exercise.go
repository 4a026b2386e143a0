package models

import (
	"time"

	"github.com/lib/pq"
)

// Exercise is a catalog entry that can be assigned to periods.
type Exercise struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	MuscleGroups pq.StringArray `db:"muscle_groups" json:"muscle_groups"`
	Equipment    *string        `db:"equipment" json:"equipment,omitempty"`
	Description  *string        `db:"description" json:"description,omitempty"`
}

// OneRepMax is the most recent max recorded for an exercise within a plan.
type OneRepMax struct {
	PlanID     string    `db:"plan_id" json:"plan_id"`
	ExerciseID string    `db:"exercise_id" json:"exercise_id"`
	ValueKg    float64   `db:"value_kg" json:"value_kg"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
