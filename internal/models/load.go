package models

// LoadBasis names where a derived weight's reference came from.
type LoadBasis string

const (
	BasisOneRepMax      LoadBasis = "ONE_REP_MAX"
	BasisPreviousPeriod LoadBasis = "PREVIOUS_PERIOD"
	BasisNone           LoadBasis = "NONE"
)

// DerivedLoad is the computed working weight for one assignment.
// ReferenceWeight and WorkingWeight are nil when Basis is NONE.
type DerivedLoad struct {
	PeriodID        string     `json:"period_id"`
	PeriodName      string     `json:"period_name"`
	ExerciseID      string     `json:"exercise_id"`
	Percentage      float64    `json:"percentage"`
	Adjustment      Adjustment `json:"adjustment"`
	Basis           LoadBasis  `json:"basis"`
	SourcePeriodID  string     `json:"source_period_id,omitempty"`
	ReferenceWeight *float64   `json:"reference_weight"`
	WorkingWeight   *float64   `json:"working_weight"`
}
