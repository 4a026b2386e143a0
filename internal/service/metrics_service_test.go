package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMutationCountsByOutcome(t *testing.T) {
	m := NewMetricsService()

	m.RecordMutation("assign_exercise", OutcomeCommitted)
	m.RecordMutation("assign_exercise", OutcomeCommitted)
	m.RecordMutation("create_period", OutcomeRolledBack)
	m.RecordMutation("rename_period", OutcomeBusy)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.MutationsCommitted)
	assert.Equal(t, uint64(2), snapshot.MutationsRejected)
}

func TestMetricsHandlerExposesPeriodizationSeries(t *testing.T) {
	m := NewMetricsService()
	m.RecordMutation("delete_period", OutcomeCommitted)
	m.ObserveRederive(2 * time.Millisecond)
	m.SetActiveSessions(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `periodization_mutations_total{operation="delete_period",outcome="committed"} 1`))
	assert.True(t, strings.Contains(body, "periodization_rederive_duration_seconds_count 1"))
	assert.True(t, strings.Contains(body, "periodization_sessions_active 3"))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordMutation("x", OutcomeCommitted)
	m.ObserveRederive(time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, 0, int(m.Snapshot().RequestsTotal))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
