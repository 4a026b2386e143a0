package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExerciseRefUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "bare string", body: `" squat "`, want: "squat"},
		{name: "bare number", body: `42`, want: "42"},
		{name: "object id", body: `{"id": "bench"}`, want: "bench"},
		{name: "object numeric id", body: `{"id": 7}`, want: "7"},
		{name: "exerciseId fallback", body: `{"exerciseId": "deadlift"}`, want: "deadlift"},
		{name: "null id falls back to exerciseId", body: `{"id": null, "exerciseId": "x"}`, want: "x"},
		{name: "null", body: `null`, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ref ExerciseRef
			require.NoError(t, json.Unmarshal([]byte(tc.body), &ref))
			assert.Equal(t, tc.want, ref.ID)
		})
	}
}

func TestExerciseRefRejectsObjectsWithoutID(t *testing.T) {
	for _, body := range []string{`{}`, `{"id": null}`, `{"id": null, "exerciseId": null}`, `{"id": {"nested": 1}}`} {
		var ref ExerciseRef
		assert.Error(t, json.Unmarshal([]byte(body), &ref), body)
	}
}
