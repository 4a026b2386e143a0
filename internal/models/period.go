package models

import (
	"strings"
	"time"
)

// PeriodStatus tracks the persistence lifecycle of a period.
type PeriodStatus string

const (
	PeriodStatusDraft     PeriodStatus = "DRAFT"
	PeriodStatusPersisted PeriodStatus = "PERSISTED"
	PeriodStatusDeleted   PeriodStatus = "DELETED"
)

// Boundary selects which end of a period is being moved.
type Boundary string

const (
	BoundaryStart Boundary = "start"
	BoundaryEnd   Boundary = "end"
)

// Direction says whether a boundary move grows or shrinks the period.
type Direction string

const (
	DirectionExpand   Direction = "expand"
	DirectionContract Direction = "contract"
)

// AdjustmentKind enumerates the post-percentage weight modifiers.
type AdjustmentKind string

const (
	AdjustmentMaintain AdjustmentKind = "MAINTAIN"
	AdjustmentIncrease AdjustmentKind = "INCREASE"
	AdjustmentDecrease AdjustmentKind = "DECREASE"
)

// AdjustmentUnit is the unit an increase or decrease is expressed in.
type AdjustmentUnit string

const (
	UnitKilograms AdjustmentUnit = "KG"
	UnitPercent   AdjustmentUnit = "PERCENT"
)

// Adjustment modifies the percentage-derived weight of an assignment.
// Unit and Value are ignored for MAINTAIN.
type Adjustment struct {
	Kind  AdjustmentKind `json:"kind"`
	Unit  AdjustmentUnit `json:"unit,omitempty"`
	Value float64        `json:"value,omitempty"`
}

// Maintain returns the no-op adjustment.
func Maintain() Adjustment {
	return Adjustment{Kind: AdjustmentMaintain}
}

// Increase returns an increase adjustment.
func Increase(unit AdjustmentUnit, value float64) Adjustment {
	return Adjustment{Kind: AdjustmentIncrease, Unit: unit, Value: value}
}

// Decrease returns a decrease adjustment.
func Decrease(unit AdjustmentUnit, value float64) Adjustment {
	return Adjustment{Kind: AdjustmentDecrease, Unit: unit, Value: value}
}

// Normalize upper-cases the tags and zeroes unit/value for MAINTAIN.
func (a Adjustment) Normalize() Adjustment {
	kind := AdjustmentKind(strings.ToUpper(strings.TrimSpace(string(a.Kind))))
	if kind == "" {
		kind = AdjustmentMaintain
	}
	if kind == AdjustmentMaintain {
		return Adjustment{Kind: AdjustmentMaintain}
	}
	unit := AdjustmentUnit(strings.ToUpper(strings.TrimSpace(string(a.Unit))))
	switch unit {
	case "KILOGRAMS", "KGS":
		unit = UnitKilograms
	case "%", "PCT":
		unit = UnitPercent
	}
	return Adjustment{Kind: kind, Unit: unit, Value: a.Value}
}

// ExerciseAssignment binds one exercise to one period.
type ExerciseAssignment struct {
	ExerciseID string     `db:"exercise_id" json:"exercise_id"`
	Percentage float64    `db:"percentage" json:"percentage"`
	Adjustment Adjustment `json:"adjustment"`
}

// DayRange is an inclusive span of plan day indices.
type DayRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the two ranges share at least one day.
func (r DayRange) Overlaps(other DayRange) bool {
	return r.Start <= other.End && r.End >= other.Start
}

// Period is a named span of a plan with its exercise assignments.
type Period struct {
	ID          string               `db:"id" json:"id"`
	PlanID      string               `db:"plan_id" json:"plan_id"`
	Name        string               `db:"name" json:"name"`
	Start       int                  `db:"start_day" json:"start"`
	End         int                  `db:"end_day" json:"end"`
	Position    int                  `db:"position" json:"position"`
	ClientRef   string               `db:"client_ref" json:"client_ref,omitempty"`
	Status      PeriodStatus         `db:"-" json:"status"`
	Assignments []ExerciseAssignment `db:"-" json:"assignments"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// Range returns the period's day span.
func (p Period) Range() DayRange {
	return DayRange{Start: p.Start, End: p.End}
}

// Assignment looks up the assignment for an exercise.
func (p Period) Assignment(exerciseID string) (ExerciseAssignment, bool) {
	for _, a := range p.Assignments {
		if a.ExerciseID == exerciseID {
			return a, true
		}
	}
	return ExerciseAssignment{}, false
}

// Clone returns a deep copy so assignment slices are not shared.
func (p Period) Clone() Period {
	cp := p
	if p.Assignments != nil {
		cp.Assignments = make([]ExerciseAssignment, len(p.Assignments))
		copy(cp.Assignments, p.Assignments)
	}
	return cp
}

// PeriodAssignmentRow is the flattened storage shape of an assignment.
type PeriodAssignmentRow struct {
	PeriodID        string    `db:"period_id"`
	ExerciseID      string    `db:"exercise_id"`
	Percentage      float64   `db:"percentage"`
	AdjustmentKind  string    `db:"adjustment_kind"`
	AdjustmentUnit  *string   `db:"adjustment_unit"`
	AdjustmentValue float64   `db:"adjustment_value"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ToAssignment converts a storage row into the domain shape.
func (r PeriodAssignmentRow) ToAssignment() ExerciseAssignment {
	adj := Adjustment{Kind: AdjustmentKind(r.AdjustmentKind), Value: r.AdjustmentValue}
	if r.AdjustmentUnit != nil {
		adj.Unit = AdjustmentUnit(*r.AdjustmentUnit)
	}
	return ExerciseAssignment{
		ExerciseID: r.ExerciseID,
		Percentage: r.Percentage,
		Adjustment: adj.Normalize(),
	}
}
