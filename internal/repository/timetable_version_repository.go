package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableVersionRepository persists numbered timetable versions.
type TimetableVersionRepository struct {
	db *sqlx.DB
}

// NewTimetableVersionRepository constructs repository.
func NewTimetableVersionRepository(db *sqlx.DB) *TimetableVersionRepository {
	return &TimetableVersionRepository{db: db}
}

func (r *TimetableVersionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeactivateAll clears the active flag on every version of a timetable.
func (r *TimetableVersionRepository) DeactivateAll(ctx context.Context, exec sqlx.ExtContext, timetableID string) error {
	const query = `UPDATE timetable_versions SET is_active = FALSE WHERE timetable_id = $1 AND is_active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, timetableID); err != nil {
		return fmt.Errorf("deactivate timetable versions: %w", err)
	}
	return nil
}

// CreateVersioned inserts a version numbered max(existing)+1 for the timetable.
func (r *TimetableVersionRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	if version == nil {
		return fmt.Errorf("version payload is nil")
	}
	if version.TimetableID == "" {
		return fmt.Errorf("timetable_id is required")
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM timetable_versions WHERE timetable_id = $1`
	if err := sqlx.GetContext(ctx, target, &version.VersionNumber, nextVersionQuery, version.TimetableID); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_versions (id, timetable_id, version_number, description, is_active, created_by, created_at)
VALUES (:id, :timetable_id, :version_number, :description, :is_active, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, version); err != nil {
		return fmt.Errorf("insert timetable version: %w", err)
	}
	return nil
}

// ListByTimetable returns versions newest first.
func (r *TimetableVersionRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableVersion, error) {
	const query = `SELECT id, timetable_id, version_number, description, is_active, created_by, created_at
FROM timetable_versions WHERE timetable_id = $1 ORDER BY version_number DESC`
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable versions: %w", err)
	}
	return versions, nil
}

// FindActive returns the active version of a timetable or sql.ErrNoRows.
func (r *TimetableVersionRepository) FindActive(ctx context.Context, exec sqlx.ExtContext, timetableID string) (*models.TimetableVersion, error) {
	const query = `SELECT id, timetable_id, version_number, description, is_active, created_by, created_at
FROM timetable_versions WHERE timetable_id = $1 AND is_active = TRUE ORDER BY version_number DESC LIMIT 1`
	var version models.TimetableVersion
	if err := sqlx.GetContext(ctx, r.exec(exec), &version, query, timetableID); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindByID loads a version.
func (r *TimetableVersionRepository) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	const query = `SELECT id, timetable_id, version_number, description, is_active, created_by, created_at FROM timetable_versions WHERE id = $1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}
