package models

import "time"

// TrainingPlan is the container whose periods are being edited.
type TrainingPlan struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	NumberOfWeeks int       `db:"number_of_weeks" json:"number_of_weeks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
