package service

import (
	"errors"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
	"github.com/noah-isme/coach-periodization-api/pkg/loadcalc"
)

// deriveLoads walks the periods in plan order and computes every assignment's working weight.
// The first period holding an exercise is anchored on its one-rep max; each later one chains
// from the nearest earlier period holding the same exercise. Deleted periods are skipped, so a
// removed link re-anchors the chain on whatever precedes it.
func deriveLoads(periods []models.Period, oneRepMaxes map[string]float64) ([]models.DerivedLoad, error) {
	type link struct {
		periodID string
		weight   *float64
	}
	previous := make(map[string]link)
	loads := make([]models.DerivedLoad, 0)

	for _, period := range periods {
		if period.Status == models.PeriodStatusDeleted {
			continue
		}
		for _, assignment := range period.Assignments {
			load := models.DerivedLoad{
				PeriodID:   period.ID,
				PeriodName: period.Name,
				ExerciseID: assignment.ExerciseID,
				Percentage: assignment.Percentage,
				Adjustment: assignment.Adjustment,
				Basis:      models.BasisNone,
			}

			var reference *float64
			if prev, ok := previous[assignment.ExerciseID]; ok && prev.weight != nil {
				reference = prev.weight
				load.Basis = models.BasisPreviousPeriod
				load.SourcePeriodID = prev.periodID
			} else if rm, ok := oneRepMaxes[assignment.ExerciseID]; ok {
				reference = &rm
				load.Basis = models.BasisOneRepMax
			}

			weight, err := loadcalc.Compute(reference, assignment.Percentage, assignment.Adjustment)
			switch {
			case err == nil:
				ref := *reference
				load.ReferenceWeight = &ref
				load.WorkingWeight = &weight
			case errors.Is(err, appErrors.ErrNoBasis):
				load.Basis = models.BasisNone
				load.SourcePeriodID = ""
			default:
				return nil, err
			}

			previous[assignment.ExerciseID] = link{periodID: period.ID, weight: load.WorkingWeight}
			loads = append(loads, load)
		}
	}
	return loads, nil
}
