// Package loadcalc turns a reference weight, a percentage and an adjustment into a working weight.
package loadcalc

import (
	"fmt"
	"math"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

// Round rounds half away from zero to the nearest whole unit.
func Round(v float64) float64 {
	return math.Round(v)
}

// Base returns the percentage-derived weight before any adjustment.
func Base(reference, percentage float64) float64 {
	return Round(reference * percentage / 100)
}

// Compute derives the working weight. A nil reference means there is nothing to anchor to and
// yields ErrNoBasis, never zero.
func Compute(reference *float64, percentage float64, adj models.Adjustment) (float64, error) {
	if reference == nil {
		return 0, appErrors.ErrNoBasis
	}
	base := Base(*reference, percentage)
	return Apply(base, adj)
}

// Apply runs the adjustment step on an already rounded base.
func Apply(base float64, adj models.Adjustment) (float64, error) {
	adj = adj.Normalize()
	switch adj.Kind {
	case models.AdjustmentMaintain:
		return base, nil
	case models.AdjustmentIncrease:
		delta, err := delta(base, adj)
		if err != nil {
			return 0, err
		}
		return base + delta, nil
	case models.AdjustmentDecrease:
		delta, err := delta(base, adj)
		if err != nil {
			return 0, err
		}
		return math.Max(0, base-delta), nil
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown adjustment kind %q", adj.Kind))
	}
}

func delta(base float64, adj models.Adjustment) (float64, error) {
	switch adj.Unit {
	case models.UnitKilograms:
		return adj.Value, nil
	case models.UnitPercent:
		return Round(base * adj.Value / 100), nil
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown adjustment unit %q", adj.Unit))
	}
}
