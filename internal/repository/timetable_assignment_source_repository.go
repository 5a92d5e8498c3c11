package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableAssignmentSourceRepository reads the roster and curriculum tables
// the assignment loader derives demand from. It never writes.
type TimetableAssignmentSourceRepository struct {
	db *sqlx.DB
}

// NewTimetableAssignmentSourceRepository constructs repository.
func NewTimetableAssignmentSourceRepository(db *sqlx.DB) *TimetableAssignmentSourceRepository {
	return &TimetableAssignmentSourceRepository{db: db}
}

// ListTeacherClassLinks returns every teacher-class roster link.
func (r *TimetableAssignmentSourceRepository) ListTeacherClassLinks(ctx context.Context) ([]models.TeacherClassLink, error) {
	const query = `SELECT teacher_id, class_id FROM teacher_classes ORDER BY teacher_id ASC, class_id ASC`
	var links []models.TeacherClassLink
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list teacher class links: %w", err)
	}
	return links, nil
}

// ListTeacherSubjects returns (teacher, subject) qualifications.
func (r *TimetableAssignmentSourceRepository) ListTeacherSubjects(ctx context.Context) ([]models.SubjectLink, error) {
	const query = `SELECT teacher_id AS owner_id, subject_id FROM teacher_subjects ORDER BY teacher_id ASC, subject_id ASC`
	var links []models.SubjectLink
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return links, nil
}

// ListClassSubjects returns (class, subject) curriculum rows.
func (r *TimetableAssignmentSourceRepository) ListClassSubjects(ctx context.Context) ([]models.SubjectLink, error) {
	const query = `SELECT class_id AS owner_id, subject_id FROM class_subjects ORDER BY class_id ASC, subject_id ASC`
	var links []models.SubjectLink
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return links, nil
}

// ListSubjectPeriods returns the weekly period count for the given subjects.
func (r *TimetableAssignmentSourceRepository) ListSubjectPeriods(ctx context.Context, subjectIDs []string) ([]models.SubjectPeriods, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, periods_per_week FROM subjects WHERE id IN (?)`, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("build subject periods query: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.SubjectPeriods
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subject periods: %w", err)
	}
	return subjects, nil
}
