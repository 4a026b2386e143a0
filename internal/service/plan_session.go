package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

const draftIDPrefix = "draft-"

// PlanSession is the in-memory aggregate of one plan's periods, assignments and derived loads.
// Every mutation re-derives all loads before returning. A PlanSession is not safe for concurrent
// use; callers serialize access and mutate a Clone when changes must be confirmed elsewhere first.
type PlanSession struct {
	planID      string
	horizon     int
	periods     []models.Period
	oneRepMaxes map[string]float64
	loads       []models.DerivedLoad
}

// NewPlanSession returns an empty session for a plan spanning horizon days.
func NewPlanSession(planID string, horizon int) *PlanSession {
	return &PlanSession{
		planID:      planID,
		horizon:     horizon,
		periods:     make([]models.Period, 0),
		oneRepMaxes: make(map[string]float64),
		loads:       make([]models.DerivedLoad, 0),
	}
}

// RestorePlanSession rebuilds a session from stored periods given in plan order. Stored periods
// are treated as persisted.
func RestorePlanSession(planID string, horizon int, periods []models.Period, oneRepMaxes map[string]float64) (*PlanSession, error) {
	s := NewPlanSession(planID, horizon)
	for _, p := range periods {
		p = p.Clone()
		p.Status = models.PeriodStatusPersisted
		if p.Assignments == nil {
			p.Assignments = make([]models.ExerciseAssignment, 0)
		}
		if err := validateRange(p.Range(), horizon); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("stored period %s is invalid", p.ID))
		}
		if other := firstOverlap(s.periods, p.Range(), ""); other != nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("stored periods %s and %s overlap", other.ID, p.ID))
		}
		s.periods = append(s.periods, p)
	}
	for id, v := range oneRepMaxes {
		s.oneRepMaxes[id] = v
	}
	if err := s.rederive(); err != nil {
		return nil, err
	}
	return s, nil
}

// PlanID returns the plan identifier.
func (s *PlanSession) PlanID() string { return s.planID }

// Horizon returns the number of days in the plan.
func (s *PlanSession) Horizon() int { return s.horizon }

// Clone deep-copies the session so it can be mutated without touching the original.
func (s *PlanSession) Clone() *PlanSession {
	cp := &PlanSession{
		planID:      s.planID,
		horizon:     s.horizon,
		periods:     make([]models.Period, len(s.periods)),
		oneRepMaxes: make(map[string]float64, len(s.oneRepMaxes)),
		loads:       make([]models.DerivedLoad, len(s.loads)),
	}
	for i, p := range s.periods {
		cp.periods[i] = p.Clone()
	}
	for id, v := range s.oneRepMaxes {
		cp.oneRepMaxes[id] = v
	}
	copy(cp.loads, s.loads)
	return cp
}

// Periods returns a copy of the periods in plan order.
func (s *PlanSession) Periods() []models.Period {
	out := make([]models.Period, len(s.periods))
	for i, p := range s.periods {
		out[i] = p.Clone()
	}
	return out
}

// Period returns a copy of one period.
func (s *PlanSession) Period(id string) (models.Period, error) {
	idx, err := s.indexOf(id)
	if err != nil {
		return models.Period{}, err
	}
	return s.periods[idx].Clone(), nil
}

// CanPlace reports whether r can be created without overlapping a persisted period.
func (s *PlanSession) CanPlace(r models.DayRange) bool {
	return CanPlace(s.periods, r, "")
}

// CreateDraft adds a period with a temporary id. It is not visible to overlap checks until it
// is promoted.
func (s *PlanSession) CreateDraft(r models.DayRange, name string) (models.Period, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Period{}, appErrors.Clone(appErrors.ErrValidation, "period name is required")
	}
	if err := validateRange(r, s.horizon); err != nil {
		return models.Period{}, err
	}
	if other := firstOverlap(s.periods, r, ""); other != nil {
		return models.Period{}, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf("days %d-%d overlap period %q (%d-%d)", r.Start, r.End, other.Name, other.Start, other.End))
	}
	id := draftIDPrefix + uuid.NewString()
	period := models.Period{
		ID:          id,
		PlanID:      s.planID,
		Name:        name,
		Start:       r.Start,
		End:         r.End,
		ClientRef:   id,
		Status:      models.PeriodStatusDraft,
		Assignments: make([]models.ExerciseAssignment, 0),
	}
	s.periods = append(s.periods, period)
	return period.Clone(), nil
}

// Promote swaps a draft's temporary id for the durable one confirmed by the store.
func (s *PlanSession) Promote(draftID string, stored models.Period) (models.Period, error) {
	idx, err := s.indexOf(draftID)
	if err != nil {
		return models.Period{}, err
	}
	current := &s.periods[idx]
	if current.Status != models.PeriodStatusDraft {
		return models.Period{}, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period %s is not a draft", draftID))
	}
	if stored.ID == "" {
		return models.Period{}, appErrors.Clone(appErrors.ErrPersistence, "store returned no period id")
	}
	r := stored.Range()
	if other := firstOverlap(s.periods, r, draftID); other != nil {
		return models.Period{}, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf("stored period overlaps %q", other.Name))
	}
	current.ID = stored.ID
	current.Name = stored.Name
	current.Start = r.Start
	current.End = r.End
	current.Position = stored.Position
	current.CreatedAt = stored.CreatedAt
	current.UpdatedAt = stored.UpdatedAt
	current.Status = models.PeriodStatusPersisted
	if err := s.rederive(); err != nil {
		return models.Period{}, err
	}
	return current.Clone(), nil
}

// Discard drops a draft that could not be persisted.
func (s *PlanSession) Discard(draftID string) error {
	idx, err := s.indexOf(draftID)
	if err != nil {
		return err
	}
	if s.periods[idx].Status != models.PeriodStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period %s is not a draft", draftID))
	}
	s.periods = append(s.periods[:idx], s.periods[idx+1:]...)
	return nil
}

// Rename changes a period's name. Blank names are rejected.
func (s *PlanSession) Rename(id, name string) (models.Period, error) {
	idx, err := s.indexOf(id)
	if err != nil {
		return models.Period{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Period{}, appErrors.Clone(appErrors.ErrValidation, "period name is required")
	}
	s.periods[idx].Name = name
	if err := s.rederive(); err != nil {
		return models.Period{}, err
	}
	return s.periods[idx].Clone(), nil
}

// Resize moves one boundary by exactly one day. A rejected move leaves the period unchanged.
func (s *PlanSession) Resize(id string, boundary models.Boundary, direction models.Direction) (models.Period, error) {
	idx, err := s.indexOf(id)
	if err != nil {
		return models.Period{}, err
	}
	next, err := shiftBoundary(s.periods[idx].Range(), boundary, direction)
	if err != nil {
		return models.Period{}, err
	}
	if err := checkResize(s.periods, id, next, s.horizon); err != nil {
		return models.Period{}, err
	}
	s.periods[idx].Start = next.Start
	s.periods[idx].End = next.End
	return s.periods[idx].Clone(), nil
}

// Delete removes a period. Later periods that chained from it re-anchor on the nearest earlier
// period holding the same exercise, then on the one-rep max.
func (s *PlanSession) Delete(id string) (models.Period, error) {
	idx, err := s.indexOf(id)
	if err != nil {
		return models.Period{}, err
	}
	removed := s.periods[idx].Clone()
	removed.Status = models.PeriodStatusDeleted
	s.periods = append(s.periods[:idx], s.periods[idx+1:]...)
	if err := s.rederive(); err != nil {
		return models.Period{}, err
	}
	return removed, nil
}

// AssignExercise upserts the assignment for its exercise and re-derives every later period.
func (s *PlanSession) AssignExercise(periodID string, assignment models.ExerciseAssignment) (models.Period, error) {
	idx, err := s.indexOf(periodID)
	if err != nil {
		return models.Period{}, err
	}
	assignment, err = normalizeAssignment(assignment)
	if err != nil {
		return models.Period{}, err
	}
	period := &s.periods[idx]
	replaced := false
	for i := range period.Assignments {
		if period.Assignments[i].ExerciseID == assignment.ExerciseID {
			period.Assignments[i] = assignment
			replaced = true
			break
		}
	}
	if !replaced {
		period.Assignments = append(period.Assignments, assignment)
	}
	if err := s.rederive(); err != nil {
		return models.Period{}, err
	}
	return period.Clone(), nil
}

// RemoveAssignment drops an exercise from a period.
func (s *PlanSession) RemoveAssignment(periodID, exerciseID string) (models.Period, error) {
	idx, err := s.indexOf(periodID)
	if err != nil {
		return models.Period{}, err
	}
	period := &s.periods[idx]
	for i := range period.Assignments {
		if period.Assignments[i].ExerciseID == exerciseID {
			period.Assignments = append(period.Assignments[:i], period.Assignments[i+1:]...)
			if err := s.rederive(); err != nil {
				return models.Period{}, err
			}
			return period.Clone(), nil
		}
	}
	return models.Period{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exercise %s is not assigned to period %s", exerciseID, periodID))
}

// SetOneRepMax records the anchor weight for an exercise.
func (s *PlanSession) SetOneRepMax(exerciseID string, valueKg float64) error {
	if valueKg < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "one-rep max cannot be negative")
	}
	s.oneRepMaxes[exerciseID] = valueKg
	return s.rederive()
}

// ClearOneRepMax forgets the anchor weight for an exercise.
func (s *PlanSession) ClearOneRepMax(exerciseID string) error {
	delete(s.oneRepMaxes, exerciseID)
	return s.rederive()
}

// OneRepMax returns the anchor weight for an exercise if one is known.
func (s *PlanSession) OneRepMax(exerciseID string) (float64, bool) {
	v, ok := s.oneRepMaxes[exerciseID]
	return v, ok
}

// AssignedExercises lists the distinct exercises assigned anywhere in the plan.
func (s *PlanSession) AssignedExercises() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range s.periods {
		for _, a := range p.Assignments {
			if _, ok := seen[a.ExerciseID]; ok {
				continue
			}
			seen[a.ExerciseID] = struct{}{}
			out = append(out, a.ExerciseID)
		}
	}
	return out
}

// Loads returns the derived load table in plan order.
func (s *PlanSession) Loads() []models.DerivedLoad {
	out := make([]models.DerivedLoad, len(s.loads))
	copy(out, s.loads)
	return out
}

// Load returns the derived load of one assignment.
func (s *PlanSession) Load(periodID, exerciseID string) (models.DerivedLoad, error) {
	if _, err := s.indexOf(periodID); err != nil {
		return models.DerivedLoad{}, err
	}
	for _, l := range s.loads {
		if l.PeriodID == periodID && l.ExerciseID == exerciseID {
			return l, nil
		}
	}
	return models.DerivedLoad{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exercise %s is not assigned to period %s", exerciseID, periodID))
}

// WorkingWeight returns the derived weight of one assignment, or ErrNoBasis when nothing anchors it.
func (s *PlanSession) WorkingWeight(periodID, exerciseID string) (float64, error) {
	load, err := s.Load(periodID, exerciseID)
	if err != nil {
		return 0, err
	}
	if load.WorkingWeight == nil {
		return 0, appErrors.Clone(appErrors.ErrNoBasis, fmt.Sprintf("no one-rep max or earlier period weight for exercise %s", exerciseID))
	}
	return *load.WorkingWeight, nil
}

func (s *PlanSession) rederive() error {
	loads, err := deriveLoads(s.periods, s.oneRepMaxes)
	if err != nil {
		return err
	}
	s.loads = loads
	return nil
}

func (s *PlanSession) indexOf(id string) (int, error) {
	for i := range s.periods {
		if s.periods[i].ID == id && s.periods[i].Status != models.PeriodStatusDeleted {
			return i, nil
		}
	}
	return -1, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("period %s not found", id))
}

func normalizeAssignment(a models.ExerciseAssignment) (models.ExerciseAssignment, error) {
	a.ExerciseID = strings.TrimSpace(a.ExerciseID)
	if a.ExerciseID == "" {
		return a, appErrors.Clone(appErrors.ErrValidation, "exercise id is required")
	}
	if a.Percentage < 0 {
		return a, appErrors.Clone(appErrors.ErrValidation, "percentage cannot be negative")
	}
	a.Adjustment = a.Adjustment.Normalize()
	switch a.Adjustment.Kind {
	case models.AdjustmentMaintain:
	case models.AdjustmentIncrease, models.AdjustmentDecrease:
		if a.Adjustment.Unit != models.UnitKilograms && a.Adjustment.Unit != models.UnitPercent {
			return a, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown adjustment unit %q", a.Adjustment.Unit))
		}
		if a.Adjustment.Value < 0 {
			return a, appErrors.Clone(appErrors.ErrValidation, "adjustment value cannot be negative")
		}
	default:
		return a, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown adjustment kind %q", a.Adjustment.Kind))
	}
	return a, nil
}
