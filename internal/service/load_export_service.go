package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
	"github.com/noah-isme/coach-periodization-api/pkg/export"
)

// Export formats accepted by the load sheet endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var loadSheetHeaders = []string{"Period", "Weeks", "Exercise", "Percentage", "Adjustment", "Basis", "Reference (kg)", "Working (kg)"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ExportResult is a rendered load sheet ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// LoadExportConfig tunes export behaviour.
type LoadExportConfig struct {
	MaxRows int
}

// LoadExportService renders a plan's derived loads as CSV or PDF.
type LoadExportService struct {
	sessions *PeriodizationService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	cfg      LoadExportConfig
	now      func() time.Time
}

// NewLoadExportService constructs a LoadExportService.
func NewLoadExportService(sessions *PeriodizationService, cfg LoadExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *LoadExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &LoadExportService{sessions: sessions, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// Export renders the load sheet of a plan in the requested format.
func (s *LoadExportService) Export(ctx context.Context, planID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	session, err := s.sessions.session(ctx, planID)
	if err != nil {
		return nil, err
	}
	dataset, err := s.buildDataset(session)
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = s.pdf.ContentType()
	default:
		payload, err = s.csv.Render(dataset)
		contentType = s.csv.ContentType()
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render load sheet")
	}

	s.logger.Info("load sheet exported",
		zap.String("plan_id", planID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{
		Filename:    fmt.Sprintf("plan-%s-loads-%s.%s", sanitizeFilename(planID), s.now().UTC().Format("20060102"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *LoadExportService) buildDataset(session *PlanSession) (export.Dataset, error) {
	loads := session.Loads()
	if len(loads) > s.cfg.MaxRows {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("load sheet has %d rows, limit is %d", len(loads), s.cfg.MaxRows))
	}
	ranges := make(map[string]string)
	for _, p := range session.Periods() {
		ranges[p.ID] = weekSpan(p)
	}

	rows := make([]map[string]string, 0, len(loads))
	for _, l := range loads {
		rows = append(rows, map[string]string{
			"Period":         l.PeriodName,
			"Weeks":          ranges[l.PeriodID],
			"Exercise":       l.ExerciseID,
			"Percentage":     formatNumber(l.Percentage) + "%",
			"Adjustment":     describeAdjustment(l.Adjustment),
			"Basis":          string(l.Basis),
			"Reference (kg)": formatWeight(l.ReferenceWeight),
			"Working (kg)":   formatWeight(l.WorkingWeight),
		})
	}
	return export.Dataset{
		Title: fmt.Sprintf("Load sheet - plan %s", session.PlanID()),
		Notes: []string{
			fmt.Sprintf("%d weeks, %d periods", session.Horizon()/calendar.DaysPerWeek, len(session.Periods())),
			fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC3339)),
		},
		Headers: loadSheetHeaders,
		Rows:    rows,
	}, nil
}

func weekSpan(p models.Period) string {
	start, err := calendar.ToWeekDay(p.Start)
	if err != nil {
		return ""
	}
	end, err := calendar.ToWeekDay(p.End)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("W%dD%d-W%dD%d", start.Week, start.Day, end.Week, end.Day)
}

func describeAdjustment(adj models.Adjustment) string {
	sign := "+"
	switch adj.Kind {
	case models.AdjustmentIncrease:
	case models.AdjustmentDecrease:
		sign = "-"
	default:
		return "maintain"
	}
	if adj.Unit == models.UnitPercent {
		return sign + formatNumber(adj.Value) + "%"
	}
	return sign + formatNumber(adj.Value) + " kg"
}

func formatWeight(v *float64) string {
	if v == nil {
		return "no basis"
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sanitizeFilename(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
