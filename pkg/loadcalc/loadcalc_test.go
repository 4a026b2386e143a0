package loadcalc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

func ref(v float64) *float64 { return &v }

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		reference  float64
		percentage float64
		adj        models.Adjustment
		want       float64
	}{
		{"maintain", 100, 80, models.Maintain(), 80},
		{"increase kg", 80, 90, models.Increase(models.UnitKilograms, 5), 77},
		{"increase percent", 100, 50, models.Increase(models.UnitPercent, 10), 55},
		{"decrease kg", 100, 50, models.Decrease(models.UnitKilograms, 7.5), 42.5},
		{"decrease percent", 80, 90, models.Decrease(models.UnitPercent, 10), 65},
		{"decrease floors at zero", 40, 50, models.Decrease(models.UnitKilograms, 50), 0},
		{"overload above 100", 100, 105, models.Maintain(), 105},
		{"half rounds away from zero", 45, 50, models.Maintain(), 23},
		{"zero percentage", 100, 0, models.Increase(models.UnitKilograms, 2.5), 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(ref(tt.reference), tt.percentage, tt.adj)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeWithoutReferenceIsNoBasis(t *testing.T) {
	_, err := Compute(nil, 80, models.Maintain())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoBasis))
}

func TestComputeZeroReferenceIsNotNoBasis(t *testing.T) {
	got, err := Compute(ref(0), 80, models.Maintain())
	require.NoError(t, err)
	assert.Equal(t, float64(0), got)
}

func TestComputeIsDeterministic(t *testing.T) {
	adj := models.Increase(models.UnitPercent, 12.5)
	first, err := Compute(ref(137.5), 87, adj)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Compute(ref(137.5), 87, adj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestApplyNormalizesInput(t *testing.T) {
	got, err := Apply(72, models.Adjustment{Kind: "decrease", Unit: "percent", Value: 10})
	require.NoError(t, err)
	assert.Equal(t, float64(65), got)

	got, err = Apply(72, models.Adjustment{Kind: "maintain", Unit: "bogus", Value: 99})
	require.NoError(t, err)
	assert.Equal(t, float64(72), got)
}

func TestApplyRejectsUnknownShapes(t *testing.T) {
	_, err := Apply(50, models.Adjustment{Kind: "DOUBLE"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = Apply(50, models.Adjustment{Kind: models.AdjustmentIncrease, Unit: "LB", Value: 5})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
