package calendar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

func TestToWeekDay(t *testing.T) {
	tests := []struct {
		day  int
		want WeekDay
	}{
		{1, WeekDay{Week: 1, Day: 1}},
		{6, WeekDay{Week: 1, Day: 6}},
		{7, WeekDay{Week: 1, Day: 7}},
		{8, WeekDay{Week: 2, Day: 1}},
		{14, WeekDay{Week: 2, Day: 7}},
		{30, WeekDay{Week: 5, Day: 2}},
	}
	for _, tt := range tests {
		got, err := ToWeekDay(tt.day)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "day %d", tt.day)
	}
}

func TestToWeekDayRejectsNonPositive(t *testing.T) {
	for _, day := range []int{0, -1, -7} {
		_, err := ToWeekDay(day)
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	}
}

func TestToDayIndexValidation(t *testing.T) {
	_, err := ToDayIndex(0, 1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = ToDayIndex(1, 8)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = ToDayIndex(1, 0)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	day, err := ToDayIndex(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 18, day)
}

func TestDayIndexRoundTrip(t *testing.T) {
	horizon := Horizon(12)
	require.Equal(t, 84, horizon)
	for day := 1; day <= horizon; day++ {
		wd, err := ToWeekDay(day)
		require.NoError(t, err)
		back, err := ToDayIndex(wd.Week, wd.Day)
		require.NoError(t, err)
		require.Equal(t, day, back)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(14, 1))
	assert.True(t, Contains(14, 14))
	assert.False(t, Contains(14, 0))
	assert.False(t, Contains(14, 15))
	assert.Equal(t, 0, Horizon(0))
}
