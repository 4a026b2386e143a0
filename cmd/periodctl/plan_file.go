package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/internal/service"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
)

type planFile struct {
	Plan        string             `yaml:"plan"`
	Weeks       int                `yaml:"weeks"`
	OneRepMaxes map[string]float64 `yaml:"one_rep_maxes"`
	Periods     []periodFile       `yaml:"periods"`
}

type periodFile struct {
	Name        string           `yaml:"name"`
	Start       int              `yaml:"start"`
	End         int              `yaml:"end"`
	StartWeek   int              `yaml:"start_week"`
	StartDay    int              `yaml:"start_day"`
	EndWeek     int              `yaml:"end_week"`
	EndDay      int              `yaml:"end_day"`
	Assignments []assignmentFile `yaml:"assignments"`
}

type assignmentFile struct {
	Exercise   string         `yaml:"exercise"`
	Percentage float64        `yaml:"percentage"`
	Adjustment adjustmentFile `yaml:"adjustment"`
}

type adjustmentFile struct {
	Kind  string  `yaml:"kind"`
	Unit  string  `yaml:"unit"`
	Value float64 `yaml:"value"`
}

func decodePlanFile(r io.Reader) (*planFile, error) {
	var pf planFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode plan file: %w", err)
	}
	if pf.Weeks <= 0 {
		return nil, fmt.Errorf("plan file: weeks must be positive")
	}
	if pf.Plan == "" {
		pf.Plan = "offline"
	}
	return &pf, nil
}

func (p periodFile) dayRange() (models.DayRange, error) {
	if p.Start > 0 || p.End > 0 {
		return models.DayRange{Start: p.Start, End: p.End}, nil
	}
	start, err := calendar.ToDayIndex(p.StartWeek, p.StartDay)
	if err != nil {
		return models.DayRange{}, fmt.Errorf("period %q start: %w", p.Name, err)
	}
	end, err := calendar.ToDayIndex(p.EndWeek, p.EndDay)
	if err != nil {
		return models.DayRange{}, fmt.Errorf("period %q end: %w", p.Name, err)
	}
	return models.DayRange{Start: start, End: end}, nil
}

// buildSession replays the file through a PlanSession, confirming every draft with a
// sequential id the way the store would.
func buildSession(pf *planFile) (*service.PlanSession, error) {
	session := service.NewPlanSession(pf.Plan, calendar.Horizon(pf.Weeks))
	for exerciseID, value := range pf.OneRepMaxes {
		if err := session.SetOneRepMax(exerciseID, value); err != nil {
			return nil, fmt.Errorf("one-rep max %s: %w", exerciseID, err)
		}
	}
	for i, p := range pf.Periods {
		r, err := p.dayRange()
		if err != nil {
			return nil, err
		}
		draft, err := session.CreateDraft(r, p.Name)
		if err != nil {
			return nil, fmt.Errorf("period %q: %w", p.Name, err)
		}
		stored := draft
		stored.ID = fmt.Sprintf("p%d", i+1)
		stored.Position = i + 1
		if _, err := session.Promote(draft.ID, stored); err != nil {
			return nil, fmt.Errorf("period %q: %w", p.Name, err)
		}
		for _, a := range p.Assignments {
			assignment := models.ExerciseAssignment{
				ExerciseID: a.Exercise,
				Percentage: a.Percentage,
				Adjustment: models.Adjustment{
					Kind:  models.AdjustmentKind(a.Adjustment.Kind),
					Unit:  models.AdjustmentUnit(a.Adjustment.Unit),
					Value: a.Adjustment.Value,
				}.Normalize(),
			}
			if _, err := session.AssignExercise(stored.ID, assignment); err != nil {
				return nil, fmt.Errorf("period %q exercise %s: %w", p.Name, a.Exercise, err)
			}
		}
	}
	return session, nil
}
