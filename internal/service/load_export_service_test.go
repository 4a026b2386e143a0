package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
	"github.com/noah-isme/coach-periodization-api/pkg/export"
)

type recordingPDF struct {
	dataset export.Dataset
}

func (r *recordingPDF) Render(data export.Dataset) ([]byte, error) {
	r.dataset = data
	return []byte("%PDF-1.3"), nil
}

func (r *recordingPDF) ContentType() string { return "application/pdf" }

func newExportFixture(t *testing.T, maxRows int) (*LoadExportService, *recordingPDF) {
	t.Helper()
	f := newPeriodizationFixture(t, PeriodizationConfig{})
	pdf := &recordingPDF{}
	svc := NewLoadExportService(f.svc, LoadExportConfig{MaxRows: maxRows}, zap.NewNop(), nil, pdf)
	svc.now = func() time.Time { return time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC) }
	return svc, pdf
}

func TestExportCSV(t *testing.T) {
	svc, _ := newExportFixture(t, 0)

	result, err := svc.Export(context.Background(), "plan-1", "")
	require.NoError(t, err)
	assert.Equal(t, "plan-plan-1-loads-20261001.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	records, err := csv.NewReader(bytes.NewReader(result.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, loadSheetHeaders, records[0])
	assert.Equal(t, []string{"Base", "W1D1-W2D7", "squat", "80%", "maintain", "ONE_REP_MAX", "100", "80"}, records[1])
	assert.Equal(t, []string{"Build", "W3D1-W4D7", "squat", "90%", "+5 kg", "PREVIOUS_PERIOD", "80", "77"}, records[2])
}

func TestExportPDFUsesRenderer(t *testing.T) {
	svc, pdf := newExportFixture(t, 0)

	result, err := svc.Export(context.Background(), "plan-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "plan-plan-1-loads-20261001.pdf", result.Filename)
	assert.Equal(t, "Load sheet - plan plan-1", pdf.dataset.Title)
	assert.Len(t, pdf.dataset.Rows, 3)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t, 0)

	_, err := svc.Export(context.Background(), "plan-1", "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedFormat))
}

func TestExportRespectsRowLimit(t *testing.T) {
	svc, _ := newExportFixture(t, 2)

	_, err := svc.Export(context.Background(), "plan-1", "csv")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDescribeAdjustment(t *testing.T) {
	assert.Equal(t, "-10%", describeAdjustment(models.Decrease(models.UnitPercent, 10)))
	assert.Equal(t, "+2.5 kg", describeAdjustment(models.Increase(models.UnitKilograms, 2.5)))
	assert.Equal(t, "no basis", formatWeight(nil))
	assert.Equal(t, "plan-1-x", sanitizeFilename("plan/1 x"))
}
