package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableChangeLogRepository stores audit records under a version.
type TimetableChangeLogRepository struct {
	db *sqlx.DB
}

// NewTimetableChangeLogRepository constructs repository.
func NewTimetableChangeLogRepository(db *sqlx.DB) *TimetableChangeLogRepository {
	return &TimetableChangeLogRepository{db: db}
}

func (r *TimetableChangeLogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a change log.
func (r *TimetableChangeLogRepository) Create(ctx context.Context, exec sqlx.ExtContext, log *models.TimetableChangeLog) error {
	if log == nil {
		return fmt.Errorf("change log payload is nil")
	}
	if log.VersionID == "" {
		return fmt.Errorf("version_id is required")
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO timetable_change_logs (id, version_id, action, old_value, new_value, changed_by, reason, created_at)
VALUES (:id, :version_id, :action, :old_value, :new_value, :changed_by, :reason, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, log); err != nil {
		return fmt.Errorf("insert timetable change log: %w", err)
	}
	return nil
}

// ListByVersion returns change logs oldest first.
func (r *TimetableChangeLogRepository) ListByVersion(ctx context.Context, versionID string) ([]models.TimetableChangeLog, error) {
	const query = `SELECT id, version_id, action, old_value, new_value, changed_by, reason, created_at
FROM timetable_change_logs WHERE version_id = $1 ORDER BY created_at ASC`
	var logs []models.TimetableChangeLog
	if err := r.db.SelectContext(ctx, &logs, query, versionID); err != nil {
		return nil, fmt.Errorf("list timetable change logs: %w", err)
	}
	return logs, nil
}
