package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

func threePeriodSession(t *testing.T) *PlanSession {
	t.Helper()
	session, err := RestorePlanSession("plan-1", 84, []models.Period{
		withAssignments(persisted("p1", 1, 14), assign("squat", 80, models.Maintain())),
		withAssignments(persisted("p2", 15, 28), assign("squat", 90, models.Increase(models.UnitKilograms, 5))),
		withAssignments(persisted("p3", 29, 42), assign("squat", 100, models.Maintain())),
	}, map[string]float64{"squat": 100})
	require.NoError(t, err)
	return session
}

func mustWeight(t *testing.T, s *PlanSession, periodID, exerciseID string) float64 {
	t.Helper()
	w, err := s.WorkingWeight(periodID, exerciseID)
	require.NoError(t, err)
	return w
}

func TestRestorePlanSessionRejectsOverlappingStoredPeriods(t *testing.T) {
	_, err := RestorePlanSession("plan-1", 84, []models.Period{persisted("a", 1, 10), persisted("b", 10, 20)}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestCreateDraftRejectsOverlap(t *testing.T) {
	session, err := RestorePlanSession("plan-1", 84, []models.Period{persisted("base", 15, 25)}, nil)
	require.NoError(t, err)

	_, err = session.CreateDraft(models.DayRange{Start: 10, End: 20}, "Build")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOverlap))

	periods := session.Periods()
	require.Len(t, periods, 1)
	assert.Equal(t, 15, periods[0].Start)
	assert.Equal(t, 25, periods[0].End)
	assert.Equal(t, models.PeriodStatusPersisted, periods[0].Status)
}

func TestCreateDraftValidatesInput(t *testing.T) {
	session := NewPlanSession("plan-1", 28)

	_, err := session.CreateDraft(models.DayRange{Start: 1, End: 7}, "   ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.CreateDraft(models.DayRange{Start: 7, End: 7}, "Base")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.CreateDraft(models.DayRange{Start: 20, End: 29}, "Base")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDraftLifecycle(t *testing.T) {
	session := NewPlanSession("plan-1", 28)

	draft, err := session.CreateDraft(models.DayRange{Start: 1, End: 7}, " Base ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft.ID, draftIDPrefix))
	assert.Equal(t, draft.ID, draft.ClientRef)
	assert.Equal(t, "Base", draft.Name)
	assert.Equal(t, models.PeriodStatusDraft, draft.Status)

	// drafts do not block other creations
	assert.True(t, session.CanPlace(models.DayRange{Start: 3, End: 5}))

	stored := draft
	stored.ID = "period-1"
	promoted, err := session.Promote(draft.ID, stored)
	require.NoError(t, err)
	assert.Equal(t, "period-1", promoted.ID)
	assert.Equal(t, models.PeriodStatusPersisted, promoted.Status)
	assert.False(t, session.CanPlace(models.DayRange{Start: 3, End: 5}))

	_, err = session.Period(draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestDiscardRemovesDraftOnly(t *testing.T) {
	session := threePeriodSession(t)
	draft, err := session.CreateDraft(models.DayRange{Start: 43, End: 50}, "Peak")
	require.NoError(t, err)

	require.NoError(t, session.Discard(draft.ID))
	assert.Len(t, session.Periods(), 3)

	err = session.Discard("p1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestRename(t *testing.T) {
	session := threePeriodSession(t)

	renamed, err := session.Rename("p2", "Intensification")
	require.NoError(t, err)
	assert.Equal(t, "Intensification", renamed.Name)

	load, err := session.Load("p2", "squat")
	require.NoError(t, err)
	assert.Equal(t, "Intensification", load.PeriodName)

	_, err = session.Rename("p2", "  ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.Rename("missing", "x")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestResize(t *testing.T) {
	session := threePeriodSession(t)

	_, err := session.Resize("p2", models.BoundaryStart, models.DirectionExpand)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBoundary))
	p2, _ := session.Period("p2")
	assert.Equal(t, 15, p2.Start)

	got, err := session.Resize("p2", models.BoundaryStart, models.DirectionContract)
	require.NoError(t, err)
	assert.Equal(t, 16, got.Start)

	got, err = session.Resize("p2", models.BoundaryStart, models.DirectionExpand)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Start)

	_, err = session.Resize("p1", models.BoundaryStart, models.DirectionExpand)
	assert.True(t, errors.Is(err, appErrors.ErrBoundary))
}

func TestResizeNeverBreaksInvariants(t *testing.T) {
	session, err := RestorePlanSession("plan-1", 14, []models.Period{persisted("a", 1, 3), persisted("b", 8, 10)}, nil)
	require.NoError(t, err)

	moves := []struct {
		boundary  models.Boundary
		direction models.Direction
	}{
		{models.BoundaryEnd, models.DirectionContract},
		{models.BoundaryEnd, models.DirectionContract},
		{models.BoundaryStart, models.DirectionContract},
		{models.BoundaryEnd, models.DirectionExpand},
		{models.BoundaryEnd, models.DirectionExpand},
		{models.BoundaryEnd, models.DirectionExpand},
		{models.BoundaryEnd, models.DirectionExpand},
		{models.BoundaryEnd, models.DirectionExpand},
		{models.BoundaryStart, models.DirectionExpand},
		{models.BoundaryStart, models.DirectionExpand},
	}
	for i := 0; i < 5; i++ {
		for _, id := range []string{"a", "b"} {
			for _, m := range moves {
				_, _ = session.Resize(id, m.boundary, m.direction)
				periods := session.Periods()
				for _, p := range periods {
					require.GreaterOrEqual(t, p.Start, 1)
					require.LessOrEqual(t, p.End, 14)
					require.Less(t, p.Start, p.End)
				}
				require.False(t, periods[0].Range().Overlaps(periods[1].Range()))
			}
		}
	}
}

func TestAssignExerciseUpsertsInPlace(t *testing.T) {
	session := threePeriodSession(t)

	period, err := session.AssignExercise("p1", assign("squat", 70, models.Maintain()))
	require.NoError(t, err)
	require.Len(t, period.Assignments, 1)
	assert.Equal(t, 70.0, period.Assignments[0].Percentage)

	period, err = session.AssignExercise("p1", assign("bench", 60, models.Maintain()))
	require.NoError(t, err)
	assert.Len(t, period.Assignments, 2)

	_, err = session.AssignExercise("nope", assign("bench", 60, models.Maintain()))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAssignExerciseValidation(t *testing.T) {
	session := threePeriodSession(t)

	_, err := session.AssignExercise("p1", assign("squat", -1, models.Maintain()))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.AssignExercise("p1", assign("squat", 80, models.Increase(models.UnitKilograms, -5)))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.AssignExercise("p1", assign("squat", 80, models.Adjustment{Kind: models.AdjustmentIncrease, Unit: "LB", Value: 5}))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = session.AssignExercise("p1", assign("", 80, models.Maintain()))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	period, err := session.AssignExercise("p1", assign("squat", 120, models.Maintain()))
	require.NoError(t, err)
	assert.Equal(t, 120.0, period.Assignments[0].Percentage)
}

func TestEditingFirstPeriodPropagatesToLaterPeriods(t *testing.T) {
	session := threePeriodSession(t)
	assert.Equal(t, 80.0, mustWeight(t, session, "p1", "squat"))
	assert.Equal(t, 77.0, mustWeight(t, session, "p2", "squat"))
	assert.Equal(t, 77.0, mustWeight(t, session, "p3", "squat"))

	_, err := session.AssignExercise("p1", assign("squat", 90, models.Maintain()))
	require.NoError(t, err)

	assert.Equal(t, 90.0, mustWeight(t, session, "p1", "squat"))
	// round(90*0.9)+5
	assert.Equal(t, 86.0, mustWeight(t, session, "p2", "squat"))
	assert.Equal(t, 86.0, mustWeight(t, session, "p3", "squat"))
}

func TestPropagationLeavesEarlierAndUnrelatedUntouched(t *testing.T) {
	session := threePeriodSession(t)
	_, err := session.AssignExercise("p1", assign("bench", 75, models.Maintain()))
	require.NoError(t, err)
	require.NoError(t, session.SetOneRepMax("bench", 80))
	bench := mustWeight(t, session, "p1", "bench")

	_, err = session.AssignExercise("p2", assign("squat", 50, models.Maintain()))
	require.NoError(t, err)

	assert.Equal(t, 80.0, mustWeight(t, session, "p1", "squat"))
	assert.Equal(t, bench, mustWeight(t, session, "p1", "bench"))
	assert.Equal(t, 40.0, mustWeight(t, session, "p2", "squat"))
	assert.Equal(t, 40.0, mustWeight(t, session, "p3", "squat"))
}

func TestOneRepMaxChangePropagates(t *testing.T) {
	session := threePeriodSession(t)

	require.NoError(t, session.SetOneRepMax("squat", 200))
	assert.Equal(t, 160.0, mustWeight(t, session, "p1", "squat"))
	// round(160*0.9)+5
	assert.Equal(t, 149.0, mustWeight(t, session, "p2", "squat"))
	assert.Equal(t, 149.0, mustWeight(t, session, "p3", "squat"))

	require.NoError(t, session.ClearOneRepMax("squat"))
	_, err := session.WorkingWeight("p3", "squat")
	assert.True(t, errors.Is(err, appErrors.ErrNoBasis))
}

func TestDeleteMiddlePeriodReanchorsOnEarlierPeriod(t *testing.T) {
	session := threePeriodSession(t)

	removed, err := session.Delete("p2")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusDeleted, removed.Status)
	assert.Len(t, session.Periods(), 2)

	load, err := session.Load("p3", "squat")
	require.NoError(t, err)
	assert.Equal(t, models.BasisPreviousPeriod, load.Basis)
	assert.Equal(t, "p1", load.SourcePeriodID)
	assert.Equal(t, 80.0, *load.WorkingWeight)
}

func TestDeleteOnlyEarlierPeriodReanchorsOnOneRepMax(t *testing.T) {
	session := threePeriodSession(t)
	_, err := session.Delete("p1")
	require.NoError(t, err)
	_, err = session.Delete("p2")
	require.NoError(t, err)

	load, err := session.Load("p3", "squat")
	require.NoError(t, err)
	assert.Equal(t, models.BasisOneRepMax, load.Basis)
	assert.Equal(t, 100.0, *load.WorkingWeight)
}

func TestDeleteWithoutOneRepMaxReportsNoBasis(t *testing.T) {
	session := threePeriodSession(t)
	require.NoError(t, session.ClearOneRepMax("squat"))
	_, err := session.Delete("p1")
	require.NoError(t, err)

	_, err = session.WorkingWeight("p3", "squat")
	assert.True(t, errors.Is(err, appErrors.ErrNoBasis))
}

func TestSessionRemoveAssignment(t *testing.T) {
	session := threePeriodSession(t)

	period, err := session.RemoveAssignment("p2", "squat")
	require.NoError(t, err)
	assert.Empty(t, period.Assignments)
	assert.Equal(t, 80.0, mustWeight(t, session, "p3", "squat"))

	_, err = session.RemoveAssignment("p2", "squat")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCloneIsIndependent(t *testing.T) {
	session := threePeriodSession(t)
	clone := session.Clone()

	_, err := clone.AssignExercise("p1", assign("squat", 50, models.Maintain()))
	require.NoError(t, err)
	_, err = clone.Delete("p3")
	require.NoError(t, err)

	assert.Len(t, session.Periods(), 3)
	assert.Equal(t, 80.0, mustWeight(t, session, "p1", "squat"))
	assert.Equal(t, 50.0, mustWeight(t, clone, "p1", "squat"))
}

func TestWorkingWeightUnknownAssignment(t *testing.T) {
	session := threePeriodSession(t)

	_, err := session.WorkingWeight("p1", "bench")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = session.WorkingWeight("missing", "squat")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
