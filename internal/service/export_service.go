package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type timetableDetailReader interface {
	GetTimetable(ctx context.Context, id string) (*models.TimetableDetail, error)
}

type activeGridReader interface {
	ActiveGrid(ctx context.Context) (*TimetableGrid, error)
}

type datasetRenderer interface {
	ContentType() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a timetable as a period-by-day grid.
type ExportService struct {
	timetables timetableDetailReader
	grids      activeGridReader
	renderers  map[string]datasetRenderer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(timetables timetableDetailReader, grids activeGridReader, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		grids:      grids,
		renderers: map[string]datasetRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
	}
}

// Export renders the current entries of a timetable.
func (s *ExportService) Export(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportResult, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}
	detail, err := s.timetables.GetTimetable(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	var grid *TimetableGrid
	if s.grids != nil {
		if grid, err = s.grids.ActiveGrid(ctx); err != nil {
			return nil, err
		}
	}

	title := fmt.Sprintf("%s (%s %s)", detail.Name, detail.Term, detail.AcademicYear)
	payload, err := renderer.Render(buildTimetableDataset(grid, detail.Entries), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	s.logger.Debug("timetable exported", zap.String("timetable_id", req.TimetableID), zap.String("format", req.Format), zap.Int("bytes", len(payload)))

	return &dto.ExportResult{
		Filename:    fmt.Sprintf("timetable-%s-%s.%s", req.TimetableID, time.Now().UTC().Format("20060102"), req.Format),
		ContentType: renderer.ContentType(),
		Body:        payload,
	}, nil
}

// buildTimetableDataset lays entries out as one row per period and one column
// per day. Without a grid, days follow first appearance in entries.
func buildTimetableDataset(grid *TimetableGrid, entries []models.TimetableEntry) export.Dataset {
	var days []string
	periods := 0
	if grid != nil {
		days = grid.Days()
		periods = grid.PeriodsPerDay()
	}
	seen := make(map[string]bool, len(days))
	for _, day := range days {
		seen[day] = true
	}
	for _, entry := range entries {
		if !seen[entry.Day] {
			seen[entry.Day] = true
			days = append(days, entry.Day)
		}
		if entry.Period > periods {
			periods = entry.Period
		}
	}

	sorted := append([]models.TimetableEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return derefString(sorted[i].ClassID) < derefString(sorted[j].ClassID)
	})
	cells := make(map[TimetableSlot][]string)
	for _, entry := range sorted {
		slot := TimetableSlot{Day: entry.Day, Period: entry.Period}
		cells[slot] = append(cells[slot], describeEntry(entry))
	}

	headers := append([]string{"Period"}, days...)
	rows := make([]map[string]string, 0, periods)
	for period := 1; period <= periods; period++ {
		row := map[string]string{"Period": strconv.Itoa(period)}
		for _, day := range days {
			row[day] = strings.Join(cells[TimetableSlot{Day: day, Period: period}], "\n")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func describeEntry(entry models.TimetableEntry) string {
	parts := make([]string, 0, 4)
	for _, v := range []*string{entry.ClassID, entry.SubjectID, entry.TeacherID, entry.Room} {
		if v != nil && *v != "" {
			parts = append(parts, *v)
		}
	}
	label := strings.Join(parts, " / ")
	if entry.IsLocked {
		label += " *"
	}
	return label
}
