package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const timetableConfigColumns = `id, name, periods_per_day, days_of_week, break_periods, period_duration_minutes, preferences, is_active, created_at, updated_at`

// TimetableConfigRepository persists grid configurations.
type TimetableConfigRepository struct {
	db *sqlx.DB
}

// NewTimetableConfigRepository constructs the repository.
func NewTimetableConfigRepository(db *sqlx.DB) *TimetableConfigRepository {
	return &TimetableConfigRepository{db: db}
}

func (r *TimetableConfigRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a config.
func (r *TimetableConfigRepository) Create(ctx context.Context, exec sqlx.ExtContext, cfg *models.TimetableConfig) error {
	if cfg == nil {
		return fmt.Errorf("timetable config payload is nil")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	const query = `
INSERT INTO timetable_configs (id, name, periods_per_day, days_of_week, break_periods, period_duration_minutes, preferences, is_active, created_at, updated_at)
VALUES (:id, :name, :periods_per_day, :days_of_week, :break_periods, :period_duration_minutes, :preferences, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, cfg); err != nil {
		return fmt.Errorf("insert timetable config: %w", err)
	}
	return nil
}

// FindByID loads a config.
func (r *TimetableConfigRepository) FindByID(ctx context.Context, id string) (*models.TimetableConfig, error) {
	query := `SELECT ` + timetableConfigColumns + ` FROM timetable_configs WHERE id = $1`
	var cfg models.TimetableConfig
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindActive returns the single active config or sql.ErrNoRows.
func (r *TimetableConfigRepository) FindActive(ctx context.Context) (*models.TimetableConfig, error) {
	query := `SELECT ` + timetableConfigColumns + ` FROM timetable_configs WHERE is_active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var cfg models.TimetableConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DeactivateAll clears the active flag on every config.
func (r *TimetableConfigRepository) DeactivateAll(ctx context.Context, exec sqlx.ExtContext) error {
	const query = `UPDATE timetable_configs SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate timetable configs: %w", err)
	}
	return nil
}

// Activate marks one config active.
func (r *TimetableConfigRepository) Activate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE timetable_configs SET is_active = TRUE, updated_at = $1 WHERE id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("activate timetable config: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable config rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
