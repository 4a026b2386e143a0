package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneRepMaxRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newPeriodizationRepoMock(t)
	defer cleanup()
	repo := NewOneRepMaxRepository(db)

	recorded := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY recorded_at DESC
LIMIT 1`)).
		WithArgs("plan-1", "squat").
		WillReturnRows(sqlmock.NewRows([]string{"plan_id", "exercise_id", "value_kg", "recorded_at"}).
			AddRow("plan-1", "squat", 142.5, recorded))

	rm, err := repo.Latest(context.Background(), "plan-1", "squat")
	require.NoError(t, err)
	assert.Equal(t, 142.5, rm.ValueKg)
	assert.Equal(t, recorded, rm.RecordedAt)

	mock.ExpectQuery("FROM one_rep_maxes").
		WithArgs("plan-1", "deadlift").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Latest(context.Background(), "plan-1", "deadlift")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExerciseRepositoryListByPlan(t *testing.T) {
	db, mock, cleanup := newPeriodizationRepoMock(t)
	defer cleanup()
	repo := NewExerciseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`JOIN plan_exercises pe ON pe.exercise_id = e.id`)).
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "muscle_groups", "equipment", "description"}).
			AddRow("bench", "Bench Press", "{chest,triceps}", "barbell", nil).
			AddRow("squat", "Back Squat", "{quads,glutes}", nil, nil))

	exercises, err := repo.ListByPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	assert.Equal(t, []string{"chest", "triceps"}, []string(exercises[0].MuscleGroups))
	require.NotNil(t, exercises[0].Equipment)
	assert.Equal(t, "barbell", *exercises[0].Equipment)
	assert.Nil(t, exercises[1].Equipment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
