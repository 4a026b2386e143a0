package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
)

// CreatePeriodRequest carves a new period out of a plan. The range is given either as day
// indices or as week/day-of-week coordinates.
type CreatePeriodRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Start     *int   `json:"start" validate:"omitempty,min=1"`
	End       *int   `json:"end" validate:"omitempty,min=1"`
	StartWeek *int   `json:"startWeek" validate:"omitempty,min=1"`
	StartDay  *int   `json:"startDay" validate:"omitempty,min=1,max=7"`
	EndWeek   *int   `json:"endWeek" validate:"omitempty,min=1"`
	EndDay    *int   `json:"endDay" validate:"omitempty,min=1,max=7"`
}

// Range resolves the requested day span.
func (r CreatePeriodRequest) Range() (models.DayRange, error) {
	if r.Start != nil && r.End != nil {
		return models.DayRange{Start: *r.Start, End: *r.End}, nil
	}
	if r.StartWeek == nil || r.StartDay == nil || r.EndWeek == nil || r.EndDay == nil {
		return models.DayRange{}, fmt.Errorf("either start/end or startWeek/startDay/endWeek/endDay is required")
	}
	start, err := calendar.ToDayIndex(*r.StartWeek, *r.StartDay)
	if err != nil {
		return models.DayRange{}, err
	}
	end, err := calendar.ToDayIndex(*r.EndWeek, *r.EndDay)
	if err != nil {
		return models.DayRange{}, err
	}
	return models.DayRange{Start: start, End: end}, nil
}

// RenamePeriodRequest changes a period's name.
type RenamePeriodRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ResizePeriodRequest moves one boundary of a period by a single day.
type ResizePeriodRequest struct {
	Boundary  models.Boundary  `json:"boundary" validate:"required,oneof=start end"`
	Direction models.Direction `json:"direction" validate:"required,oneof=expand contract"`
}

// AdjustmentRequest is the wire shape of an adjustment.
type AdjustmentRequest struct {
	Kind  string  `json:"kind" validate:"omitempty,oneof=MAINTAIN INCREASE DECREASE maintain increase decrease"`
	Unit  string  `json:"unit" validate:"omitempty,oneof=KG PERCENT kg percent"`
	Value float64 `json:"value" validate:"gte=0"`
}

// ToModel converts the request into a normalized adjustment.
func (a AdjustmentRequest) ToModel() models.Adjustment {
	return models.Adjustment{
		Kind:  models.AdjustmentKind(a.Kind),
		Unit:  models.AdjustmentUnit(a.Unit),
		Value: a.Value,
	}.Normalize()
}

// AssignExerciseRequest attaches an exercise to a period or updates its existing assignment.
type AssignExerciseRequest struct {
	Exercise   ExerciseRef       `json:"exercise"`
	ExerciseID string            `json:"exerciseId"`
	Percentage *float64          `json:"percentage" validate:"required,gte=0"`
	Adjustment AdjustmentRequest `json:"adjustment"`
}

// ToAssignment collapses the request into the single assignment shape used by the engine.
func (r AssignExerciseRequest) ToAssignment() models.ExerciseAssignment {
	id := r.Exercise.ID
	if id == "" {
		id = strings.TrimSpace(r.ExerciseID)
	}
	var pct float64
	if r.Percentage != nil {
		pct = *r.Percentage
	}
	return models.ExerciseAssignment{
		ExerciseID: id,
		Percentage: pct,
		Adjustment: r.Adjustment.ToModel(),
	}
}

// ExerciseRef accepts an exercise given as a bare string id, a bare numeric id, or an object
// carrying an id field.
type ExerciseRef struct {
	ID string
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ExerciseRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		e.ID = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.ID = strings.TrimSpace(s)
		return nil
	case '{':
		var obj struct {
			ID         json.RawMessage `json:"id"`
			ExerciseID json.RawMessage `json:"exerciseId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		raw := obj.ID
		if isNullOrEmpty(raw) {
			raw = obj.ExerciseID
		}
		if isNullOrEmpty(raw) {
			return fmt.Errorf("exercise object has no id")
		}
		if raw[0] == '{' {
			return fmt.Errorf("exercise id must be a string or number")
		}
		return e.UnmarshalJSON(raw)
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("exercise must be an id or an object: %w", err)
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			e.ID = strconv.FormatInt(i, 10)
			return nil
		}
		e.ID = n.String()
		return nil
	}
}

// MarshalJSON renders the reference as its id.
func (e ExerciseRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ID)
}

// DayCoordinate is a day index together with its week/day-of-week position.
type DayCoordinate struct {
	Day       int `json:"day"`
	Week      int `json:"week"`
	DayOfWeek int `json:"dayOfWeek"`
}

// NewDayCoordinate maps a day index onto the week grid.
func NewDayCoordinate(day int) DayCoordinate {
	wd, err := calendar.ToWeekDay(day)
	if err != nil {
		return DayCoordinate{Day: day}
	}
	return DayCoordinate{Day: day, Week: wd.Week, DayOfWeek: wd.Day}
}

// AssignmentView is an assignment together with its derived working weight.
type AssignmentView struct {
	ExerciseID      string            `json:"exerciseId"`
	Percentage      float64           `json:"percentage"`
	Adjustment      models.Adjustment `json:"adjustment"`
	Basis           models.LoadBasis  `json:"basis"`
	SourcePeriodID  string            `json:"sourcePeriodId,omitempty"`
	ReferenceWeight *float64          `json:"referenceWeight"`
	WorkingWeight   *float64          `json:"workingWeight"`
}

// PeriodView renders a period with its coordinates and derived loads.
type PeriodView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Status      models.PeriodStatus `json:"status"`
	Start       DayCoordinate       `json:"start"`
	End         DayCoordinate       `json:"end"`
	Days        int                 `json:"days"`
	Assignments []AssignmentView    `json:"assignments"`
	UpdatedAt   *time.Time          `json:"updatedAt,omitempty"`
}

// PlanSessionView is the full editable state of a plan.
type PlanSessionView struct {
	PlanID        string             `json:"planId"`
	Horizon       int                `json:"horizon"`
	NumberOfWeeks int                `json:"numberOfWeeks"`
	Periods       []PeriodView       `json:"periods"`
	OneRepMaxes   map[string]float64 `json:"oneRepMaxes"`
}

// LoadTable lists every derived load of a plan in plan order.
type LoadTable struct {
	PlanID      string               `json:"planId"`
	Version     string               `json:"version"`
	Loads       []models.DerivedLoad `json:"loads"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// WorkingWeightResponse answers a single-assignment weight query.
type WorkingWeightResponse struct {
	PeriodID        string           `json:"periodId"`
	ExerciseID      string           `json:"exerciseId"`
	WorkingWeight   float64          `json:"workingWeight"`
	ReferenceWeight float64          `json:"referenceWeight"`
	Basis           models.LoadBasis `json:"basis"`
	SourcePeriodID  string           `json:"sourcePeriodId,omitempty"`
}

// OneRepMaxRefreshResponse reports the anchor weight after a refresh.
type OneRepMaxRefreshResponse struct {
	ExerciseID string     `json:"exerciseId"`
	ValueKg    *float64   `json:"valueKg"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

func isNullOrEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
