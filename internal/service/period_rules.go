package service

import (
	"fmt"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

// CanPlace reports whether candidate fits beside existing without sharing a day with any
// persisted period. The period identified by excludingID is ignored so a resize is judged
// against its siblings only.
func CanPlace(existing []models.Period, candidate models.DayRange, excludingID string) bool {
	return firstOverlap(existing, candidate, excludingID) == nil
}

func firstOverlap(existing []models.Period, candidate models.DayRange, excludingID string) *models.Period {
	for i := range existing {
		p := &existing[i]
		if p.Status != models.PeriodStatusPersisted {
			continue
		}
		if excludingID != "" && p.ID == excludingID {
			continue
		}
		if candidate.Overlaps(p.Range()) {
			return p
		}
	}
	return nil
}

// validateRange checks the standalone invariants 1 <= start < end <= horizon.
func validateRange(r models.DayRange, horizon int) error {
	if r.Start < 1 || r.End < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "period days must be positive")
	}
	if r.Start >= r.End {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period start %d must be before end %d", r.Start, r.End))
	}
	if !calendar.Contains(horizon, r.End) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period end %d is outside the %d day plan", r.End, horizon))
	}
	return nil
}

// shiftBoundary moves one boundary by a single day. Expanding the start moves it earlier,
// expanding the end moves it later.
func shiftBoundary(r models.DayRange, boundary models.Boundary, direction models.Direction) (models.DayRange, error) {
	step := 0
	switch direction {
	case models.DirectionExpand:
		step = 1
	case models.DirectionContract:
		step = -1
	default:
		return r, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown direction %q", direction))
	}
	switch boundary {
	case models.BoundaryStart:
		r.Start -= step
	case models.BoundaryEnd:
		r.End += step
	default:
		return r, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown boundary %q", boundary))
	}
	return r, nil
}

// checkResize validates a shifted range against the horizon, ordering and siblings.
func checkResize(periods []models.Period, periodID string, next models.DayRange, horizon int) error {
	if next.Start < 1 || next.End > horizon {
		return appErrors.Clone(appErrors.ErrBoundary, fmt.Sprintf("period would leave the plan horizon [1, %d]", horizon))
	}
	if next.Start >= next.End {
		return appErrors.Clone(appErrors.ErrBoundary, "period start must stay before its end")
	}
	if other := firstOverlap(periods, next, periodID); other != nil {
		return appErrors.Clone(appErrors.ErrBoundary, fmt.Sprintf("period would overlap %q", other.Name))
	}
	return nil
}
