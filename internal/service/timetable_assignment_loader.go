package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// TimetableAssignment is one weekly demand to place.
type TimetableAssignment struct {
	TeacherID      string
	ClassID        string
	SubjectID      string
	PeriodsPerWeek int
}

type timetableAssignmentSource interface {
	ListTeacherClassLinks(ctx context.Context) ([]models.TeacherClassLink, error)
	ListTeacherSubjects(ctx context.Context) ([]models.SubjectLink, error)
	ListClassSubjects(ctx context.Context) ([]models.SubjectLink, error)
	ListSubjectPeriods(ctx context.Context, subjectIDs []string) ([]models.SubjectPeriods, error)
}

// TimetableAssignmentLoader derives assignments from the roster: for every
// teacher-class link, one assignment per subject the teacher is qualified for
// and the class studies.
type TimetableAssignmentLoader struct {
	source timetableAssignmentSource
	logger *zap.Logger
}

// NewTimetableAssignmentLoader constructs the loader.
func NewTimetableAssignmentLoader(source timetableAssignmentSource, logger *zap.Logger) *TimetableAssignmentLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableAssignmentLoader{source: source, logger: logger}
}

// Load returns assignments ordered by link, then by the class curriculum.
// An empty result is valid.
func (l *TimetableAssignmentLoader) Load(ctx context.Context) ([]TimetableAssignment, error) {
	links, err := l.source.ListTeacherClassLinks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class links")
	}
	if len(links) == 0 {
		return nil, nil
	}
	teacherRows, err := l.source.ListTeacherSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	classRows, err := l.source.ListClassSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
	}

	qualified := make(map[string]map[string]struct{})
	for _, row := range teacherRows {
		if qualified[row.OwnerID] == nil {
			qualified[row.OwnerID] = make(map[string]struct{})
		}
		qualified[row.OwnerID][row.SubjectID] = struct{}{}
	}
	curriculum := make(map[string][]string)
	for _, row := range classRows {
		curriculum[row.OwnerID] = append(curriculum[row.OwnerID], row.SubjectID)
	}

	var (
		assignments []TimetableAssignment
		subjectIDs  []string
		seenSubject = make(map[string]struct{})
	)
	for _, link := range links {
		teaches := qualified[link.TeacherID]
		if len(teaches) == 0 {
			continue
		}
		for _, subjectID := range curriculum[link.ClassID] {
			if _, ok := teaches[subjectID]; !ok {
				continue
			}
			assignments = append(assignments, TimetableAssignment{
				TeacherID: link.TeacherID,
				ClassID:   link.ClassID,
				SubjectID: subjectID,
			})
			if _, ok := seenSubject[subjectID]; !ok {
				seenSubject[subjectID] = struct{}{}
				subjectIDs = append(subjectIDs, subjectID)
			}
		}
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	subjects, err := l.source.ListSubjectPeriods(ctx, subjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject periods")
	}
	periods := make(map[string]int, len(subjects))
	for _, subject := range subjects {
		if subject.PeriodsPerWeek != nil && *subject.PeriodsPerWeek > 0 {
			periods[subject.SubjectID] = *subject.PeriodsPerWeek
		}
	}
	for i := range assignments {
		assignments[i].PeriodsPerWeek = periods[assignments[i].SubjectID]
	}

	l.logger.Debug("timetable assignments derived", zap.Int("links", len(links)), zap.Int("assignments", len(assignments)))
	return assignments, nil
}

func assignmentsFromRequest(items []dto.AssignmentRequest) []TimetableAssignment {
	out := make([]TimetableAssignment, 0, len(items))
	for _, item := range items {
		out = append(out, TimetableAssignment{
			TeacherID:      item.TeacherID,
			ClassID:        item.ClassID,
			SubjectID:      item.SubjectID,
			PeriodsPerWeek: item.PeriodsPerWeek,
		})
	}
	return out
}
