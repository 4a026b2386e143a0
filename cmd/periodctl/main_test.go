package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-periodization-api/internal/models"
)

const samplePlan = `
plan: spring
weeks: 12
one_rep_maxes:
  squat: 100
periods:
  - name: Accumulation
    start: 1
    end: 14
    assignments:
      - exercise: squat
        percentage: 80
  - name: Intensification
    start_week: 3
    start_day: 1
    end_week: 4
    end_day: 7
    assignments:
      - exercise: squat
        percentage: 90
        adjustment: {kind: increase, unit: kg, value: 5}
      - exercise: bench
        percentage: 70
`

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDeriveChainsThroughEarlierPeriod(t *testing.T) {
	out, err := runCmd(t, samplePlan, "derive", "-o", "json")
	require.NoError(t, err)

	var loads []models.DerivedLoad
	require.NoError(t, json.Unmarshal([]byte(out), &loads))
	require.Len(t, loads, 3)

	assert.Equal(t, models.BasisOneRepMax, loads[0].Basis)
	require.NotNil(t, loads[0].WorkingWeight)
	assert.Equal(t, 80.0, *loads[0].WorkingWeight)

	assert.Equal(t, models.BasisPreviousPeriod, loads[1].Basis)
	require.NotNil(t, loads[1].WorkingWeight)
	assert.Equal(t, 77.0, *loads[1].WorkingWeight)

	assert.Equal(t, models.BasisNone, loads[2].Basis)
	assert.Nil(t, loads[2].WorkingWeight)
}

func TestDeriveReadsFileAndPrintsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o600))

	out, err := runCmd(t, "", "derive", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PERIOD")
	assert.Contains(t, out, "Intensification")
	assert.Contains(t, out, "+5 KG")
}

func TestDeriveRejectsOverlap(t *testing.T) {
	plan := `
weeks: 4
periods:
  - {name: A, start: 1, end: 10}
  - {name: B, start: 10, end: 20}
`
	_, err := runCmd(t, plan, "derive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestWeekdayAndDayIndex(t *testing.T) {
	out, err := runCmd(t, "", "weekday", "15")
	require.NoError(t, err)
	assert.Equal(t, "week 3 day 1\n", out)

	out, err = runCmd(t, "", "dayindex", "2", "7")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)

	_, err = runCmd(t, "", "weekday", "0")
	assert.Error(t, err)
}
