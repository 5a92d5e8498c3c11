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

const timetableEntryColumns = `id, timetable_id, day, period, teacher_id, class_id, subject_id, room, is_locked, created_at, updated_at`

// TimetableEntryRepository manages placed timetable entries.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository builds the repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByTimetable returns every entry of a timetable in slot order.
func (r *TimetableEntryRepository) ListByTimetable(ctx context.Context, exec sqlx.ExtContext, timetableID string) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE timetable_id = $1 ORDER BY day ASC, period ASC, created_at ASC`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListLocked returns the pinned entries of a timetable.
func (r *TimetableEntryRepository) ListLocked(ctx context.Context, exec sqlx.ExtContext, timetableID string) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE timetable_id = $1 AND is_locked = TRUE ORDER BY created_at ASC`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list locked timetable entries: %w", err)
	}
	return entries, nil
}

// ListBySlot returns the entries occupying one (day, period) slot.
func (r *TimetableEntryRepository) ListBySlot(ctx context.Context, exec sqlx.ExtContext, timetableID, day string, period int) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE timetable_id = $1 AND day = $2 AND period = $3 ORDER BY created_at ASC`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, timetableID, day, period); err != nil {
		return nil, fmt.Errorf("list timetable slot entries: %w", err)
	}
	return entries, nil
}

// FindByID loads one entry scoped to its timetable.
func (r *TimetableEntryRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, timetableID, id string) (*models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE timetable_id = $1 AND id = $2`
	var entry models.TimetableEntry
	if err := sqlx.GetContext(ctx, r.exec(exec), &entry, query, timetableID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteUnlocked removes every non-locked entry of a timetable.
func (r *TimetableEntryRepository) DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext, timetableID string) (int64, error) {
	const query = `DELETE FROM timetable_entries WHERE timetable_id = $1 AND is_locked = FALSE`
	result, err := r.exec(exec).ExecContext(ctx, query, timetableID)
	if err != nil {
		return 0, fmt.Errorf("delete unlocked timetable entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unlocked timetable entries rows affected: %w", err)
	}
	return affected, nil
}

// UpsertBatch writes the full entry set. Rows that already exist are left untouched.
func (r *TimetableEntryRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_entries (id, timetable_id, day, period, teacher_id, class_id, subject_id, room, is_locked, created_at, updated_at)
VALUES (:id, :timetable_id, :day, :period, :teacher_id, :class_id, :subject_id, :room, :is_locked, :created_at, :updated_at)
ON CONFLICT (id) DO NOTHING`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if entry.UpdatedAt.IsZero() {
			entry.UpdatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("upsert timetable entry: %w", err)
		}
	}
	return nil
}

// Create inserts a single entry.
func (r *TimetableEntryRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry == nil {
		return fmt.Errorf("timetable entry payload is nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `
INSERT INTO timetable_entries (id, timetable_id, day, period, teacher_id, class_id, subject_id, room, is_locked, created_at, updated_at)
VALUES (:id, :timetable_id, :day, :period, :teacher_id, :class_id, :subject_id, :room, :is_locked, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

// Update rewrites the slot fields of an entry.
func (r *TimetableEntryRepository) Update(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry == nil {
		return fmt.Errorf("timetable entry payload is nil")
	}
	entry.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE timetable_entries
SET day = :day, period = :period, teacher_id = :teacher_id, class_id = :class_id, subject_id = :subject_id,
    room = :room, is_locked = :is_locked, updated_at = :updated_at
WHERE id = :id AND timetable_id = :timetable_id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry)
	if err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one entry.
func (r *TimetableEntryRepository) Delete(ctx context.Context, exec sqlx.ExtContext, timetableID, id string) error {
	const query = `DELETE FROM timetable_entries WHERE timetable_id = $1 AND id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, timetableID, id)
	if err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
