package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// SubjectDistribution controls how repeated periods of a subject are spread over the week.
type SubjectDistribution string

const (
	DistributionBalanced     SubjectDistribution = "balanced"
	DistributionConcentrated SubjectDistribution = "concentrated"
)

// BreakPeriod is a named non-teaching interval. The engine never reads it.
type BreakPeriod struct {
	Name        string `json:"name"`
	AfterPeriod int    `json:"afterPeriod,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
}

// BreakPeriods is stored as a JSON array.
type BreakPeriods []BreakPeriod

// Value implements driver.Valuer.
func (b BreakPeriods) Value() (driver.Value, error) {
	if b == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *BreakPeriods) Scan(src interface{}) error {
	return scanJSON(src, b)
}

// TimetablePreferences holds generation preferences attached to a config.
type TimetablePreferences struct {
	AllowDoublePeriods           bool                `json:"allowDoublePeriods"`
	MaxConsecutivePeriods        int                 `json:"maxConsecutivePeriods"`
	PreferredSubjectDistribution SubjectDistribution `json:"preferredSubjectDistribution"`
}

// Value implements driver.Valuer.
func (p TimetablePreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *TimetablePreferences) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// Distribution returns the configured distribution, defaulting to balanced.
func (p TimetablePreferences) Distribution() SubjectDistribution {
	if p.PreferredSubjectDistribution == DistributionConcentrated {
		return DistributionConcentrated
	}
	return DistributionBalanced
}

// TimetableConfig describes the weekly grid shape. At most one config is active.
type TimetableConfig struct {
	ID                    string               `db:"id" json:"id"`
	Name                  string               `db:"name" json:"name"`
	PeriodsPerDay         int                  `db:"periods_per_day" json:"periodsPerDay"`
	DaysOfWeek            pq.StringArray       `db:"days_of_week" json:"daysOfWeek"`
	BreakPeriods          BreakPeriods         `db:"break_periods" json:"breakPeriods"`
	PeriodDurationMinutes int                  `db:"period_duration_minutes" json:"periodDurationMinutes"`
	Preferences           TimetablePreferences `db:"preferences" json:"preferences"`
	IsActive              bool                 `db:"is_active" json:"isActive"`
	CreatedAt             time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time            `db:"updated_at" json:"updatedAt"`
}

// Timetable owns a set of entries and versions.
type Timetable struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Term         string     `db:"term" json:"term"`
	AcademicYear string     `db:"academic_year" json:"academicYear"`
	StartDate    *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"endDate,omitempty"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// TimetableDetail bundles a timetable with its current entries.
type TimetableDetail struct {
	Timetable
	Entries []TimetableEntry `json:"entries"`
}

// TimetableEntry is one placed lesson in a (day, period) slot.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetableId"`
	Day         string    `db:"day" json:"day"`
	Period      int       `db:"period" json:"period"`
	TeacherID   *string   `db:"teacher_id" json:"teacherId,omitempty"`
	ClassID     *string   `db:"class_id" json:"classId,omitempty"`
	SubjectID   *string   `db:"subject_id" json:"subjectId,omitempty"`
	Room        *string   `db:"room" json:"room,omitempty"`
	IsLocked    bool      `db:"is_locked" json:"isLocked"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Snapshot captures the slot fields recorded in change logs.
func (e TimetableEntry) Snapshot() EntrySnapshot {
	return EntrySnapshot{
		EntryID:   e.ID,
		Day:       e.Day,
		Period:    e.Period,
		TeacherID: e.TeacherID,
		ClassID:   e.ClassID,
		SubjectID: e.SubjectID,
		Room:      e.Room,
		IsLocked:  e.IsLocked,
	}
}

// EntrySnapshot is the structured old/new value stored in a change log.
type EntrySnapshot struct {
	EntryID   string  `json:"entryId,omitempty"`
	Day       string  `json:"day"`
	Period    int     `json:"period"`
	TeacherID *string `json:"teacherId,omitempty"`
	ClassID   *string `json:"classId,omitempty"`
	SubjectID *string `json:"subjectId,omitempty"`
	Room      *string `json:"room,omitempty"`
	IsLocked  bool    `json:"isLocked"`
}

// TimetableVersion is a numbered marker over a timetable's entry set.
type TimetableVersion struct {
	ID            string    `db:"id" json:"id"`
	TimetableID   string    `db:"timetable_id" json:"timetableId"`
	VersionNumber int       `db:"version_number" json:"versionNumber"`
	Description   string    `db:"description" json:"description"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedBy     string    `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ChangeAction enumerates audited edit kinds.
type ChangeAction string

const (
	ChangeActionCreate ChangeAction = "create"
	ChangeActionUpdate ChangeAction = "update"
	ChangeActionDelete ChangeAction = "delete"
	ChangeActionMove   ChangeAction = "move"
	ChangeActionSwap   ChangeAction = "swap"
)

// Valid reports whether the action is a known value.
func (a ChangeAction) Valid() bool {
	switch a {
	case ChangeActionCreate, ChangeActionUpdate, ChangeActionDelete, ChangeActionMove, ChangeActionSwap:
		return true
	}
	return false
}

// TimetableChangeLog is an audit record under a version.
type TimetableChangeLog struct {
	ID        string         `db:"id" json:"id"`
	VersionID string         `db:"version_id" json:"versionId"`
	Action    ChangeAction   `db:"action" json:"action"`
	OldValue  types.JSONText `db:"old_value" json:"oldValue,omitempty"`
	NewValue  types.JSONText `db:"new_value" json:"newValue,omitempty"`
	ChangedBy string         `db:"changed_by" json:"changedBy"`
	Reason    *string        `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// ConflictType identifies the double-booked dimension.
type ConflictType string

const (
	ConflictTypeTeacher ConflictType = "teacher"
	ConflictTypeClass   ConflictType = "class"
)

// TimetableConflict reports entries sharing a teacher or a class in one slot.
type TimetableConflict struct {
	Type               ConflictType     `json:"type"`
	EntityID           string           `json:"entityId"`
	Day                string           `json:"day"`
	Period             int              `json:"period"`
	ConflictingEntries []TimetableEntry `json:"conflictingEntries"`
}

// TeacherClassLink is a roster row linking a teacher to a class.
type TeacherClassLink struct {
	TeacherID string `db:"teacher_id" json:"teacherId"`
	ClassID   string `db:"class_id" json:"classId"`
}

// SubjectLink is a (owner, subject) pair from teacher_subjects or class_subjects.
type SubjectLink struct {
	OwnerID   string `db:"owner_id"`
	SubjectID string `db:"subject_id"`
}

// SubjectPeriods carries the weekly teaching-period count of a subject.
type SubjectPeriods struct {
	SubjectID      string `db:"id"`
	PeriodsPerWeek *int   `db:"periods_per_week"`
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json source %T", src)
	}
}
