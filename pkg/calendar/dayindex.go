package calendar

import (
	"fmt"

	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

// DaysPerWeek is the number of day indices that make up one plan week.
const DaysPerWeek = 7

// WeekDay is the (week, day-of-week) coordinate of a plan day index. Both parts are 1-based.
type WeekDay struct {
	Week int `json:"week"`
	Day  int `json:"day"`
}

// ToWeekDay converts a 1-based day index into its week and day-of-week.
func ToWeekDay(day int) (WeekDay, error) {
	if day <= 0 {
		return WeekDay{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day index must be positive, got %d", day))
	}
	week := (day + DaysPerWeek - 1) / DaysPerWeek
	dow := day % DaysPerWeek
	if dow == 0 {
		dow = DaysPerWeek
	}
	return WeekDay{Week: week, Day: dow}, nil
}

// ToDayIndex converts a week and day-of-week back into a day index.
func ToDayIndex(week, dayOfWeek int) (int, error) {
	if week <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("week must be positive, got %d", week))
	}
	if dayOfWeek < 1 || dayOfWeek > DaysPerWeek {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day of week must be between 1 and 7, got %d", dayOfWeek))
	}
	return (week-1)*DaysPerWeek + dayOfWeek, nil
}

// Horizon returns the number of day indices covered by a plan of the given length.
func Horizon(numberOfWeeks int) int {
	if numberOfWeeks <= 0 {
		return 0
	}
	return numberOfWeeks * DaysPerWeek
}

// Contains reports whether day lies inside [1, horizon].
func Contains(horizon, day int) bool {
	return day >= 1 && day <= horizon
}
