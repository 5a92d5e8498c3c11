package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AssignmentRequest is one (teacher, class, subject) weekly demand.
type AssignmentRequest struct {
	TeacherID      string `json:"teacherId" validate:"required"`
	ClassID        string `json:"classId" validate:"required"`
	SubjectID      string `json:"subjectId" validate:"required"`
	PeriodsPerWeek int    `json:"periodsPerWeek" validate:"min=0,max=64"`
}

// GenerateTimetableRequest triggers placement for a timetable. ConfigID and
// Assignments fall back to the active config and the roster-derived list.
type GenerateTimetableRequest struct {
	TimetableID string              `json:"-" validate:"required"`
	ConfigID    string              `json:"configId"`
	Assignments []AssignmentRequest `json:"assignments" validate:"omitempty,dive"`
	Description string              `json:"description" validate:"omitempty,max=255"`
}

// SkippedPeriodResponse describes one period unit that could not be placed.
type SkippedPeriodResponse struct {
	TeacherID string `json:"teacherId"`
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	Unit      int    `json:"unit"`
}

// GenerateTimetableResponse summarises a generation run.
type GenerateTimetableResponse struct {
	Entries       []models.TimetableEntry `json:"entries"`
	SkippedCount  int                     `json:"skippedCount"`
	Skipped       []SkippedPeriodResponse `json:"skipped"`
	VersionNumber int                     `json:"versionNumber"`
}

// ConflictReport is the result of a full conflict scan.
type ConflictReport struct {
	TimetableID string                     `json:"timetableId"`
	Conflicts   []models.TimetableConflict `json:"conflicts"`
	CheckedAt   time.Time                  `json:"checkedAt"`
}

// ManualEntryRequest creates an entry, or updates/moves one when EntryID is set.
type ManualEntryRequest struct {
	TimetableID string  `json:"-" validate:"required"`
	EntryID     string  `json:"-"`
	Day         string  `json:"day" validate:"required,max=32"`
	Period      int     `json:"period" validate:"required,min=1"`
	TeacherID   *string `json:"teacherId"`
	ClassID     *string `json:"classId"`
	SubjectID   *string `json:"subjectId"`
	Room        *string `json:"room" validate:"omitempty,max=64"`
	IsLocked    *bool   `json:"isLocked"`
	LogChange   bool    `json:"logChange"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

// DeleteEntryRequest removes one entry with an optional audit record.
type DeleteEntryRequest struct {
	TimetableID string  `validate:"required"`
	EntryID     string  `validate:"required"`
	LogChange   bool    `json:"logChange"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

// SwapEntriesRequest exchanges the slots of two entries.
type SwapEntriesRequest struct {
	TimetableID   string  `json:"-" validate:"required"`
	FirstEntryID  string  `json:"firstEntryId" validate:"required"`
	SecondEntryID string  `json:"secondEntryId" validate:"required,nefield=FirstEntryID"`
	LogChange     bool    `json:"logChange"`
	Reason        *string `json:"reason" validate:"omitempty,max=500"`
}

// SwapEntriesResponse returns both entries after the swap.
type SwapEntriesResponse struct {
	First  models.TimetableEntry `json:"first"`
	Second models.TimetableEntry `json:"second"`
}

// TimetableEntryInput is an initial entry supplied when creating a timetable.
type TimetableEntryInput struct {
	Day       string  `json:"day" validate:"required,max=32"`
	Period    int     `json:"period" validate:"required,min=1"`
	TeacherID *string `json:"teacherId"`
	ClassID   *string `json:"classId"`
	SubjectID *string `json:"subjectId"`
	Room      *string `json:"room" validate:"omitempty,max=64"`
	IsLocked  bool    `json:"isLocked"`
}

// CreateTimetableRequest creates a timetable, optionally with entries.
type CreateTimetableRequest struct {
	Name         string                `json:"name" validate:"required,max=128"`
	Term         string                `json:"term" validate:"required,max=64"`
	AcademicYear string                `json:"academicYear" validate:"required,max=32"`
	StartDate    *time.Time            `json:"startDate"`
	EndDate      *time.Time            `json:"endDate"`
	IsActive     bool                  `json:"isActive"`
	Entries      []TimetableEntryInput `json:"entries" validate:"omitempty,dive"`
}

// CreateTimetableConfigRequest registers a grid shape.
type CreateTimetableConfigRequest struct {
	Name                  string                       `json:"name" validate:"required,max=128"`
	PeriodsPerDay         int                          `json:"periodsPerDay" validate:"omitempty,min=1,max=24"`
	DaysOfWeek            []string                     `json:"daysOfWeek" validate:"omitempty,max=7,unique,dive,required,max=32"`
	BreakPeriods          []models.BreakPeriod         `json:"breakPeriods"`
	PeriodDurationMinutes int                          `json:"periodDurationMinutes" validate:"omitempty,min=1,max=240"`
	Preferences           *TimetablePreferencesRequest `json:"preferences"`
	Activate              bool                         `json:"activate"`
}

// TimetablePreferencesRequest carries the typed preference flags.
type TimetablePreferencesRequest struct {
	AllowDoublePeriods           bool   `json:"allowDoublePeriods"`
	MaxConsecutivePeriods        int    `json:"maxConsecutivePeriods" validate:"omitempty,min=1,max=24"`
	PreferredSubjectDistribution string `json:"preferredSubjectDistribution" validate:"omitempty,oneof=balanced concentrated"`
}

// CreateVersionRequest records a manual version marker.
type CreateVersionRequest struct {
	TimetableID string `json:"-" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// RecordChangeRequest appends an audit record to a version.
type RecordChangeRequest struct {
	VersionID string                `json:"-" validate:"required"`
	Action    string                `json:"action" validate:"required,oneof=create update delete move swap"`
	OldValue  *models.EntrySnapshot `json:"oldValue"`
	NewValue  *models.EntrySnapshot `json:"newValue"`
	Reason    *string               `json:"reason" validate:"omitempty,max=500"`
}

// ExportTimetableRequest selects the export format.
type ExportTimetableRequest struct {
	TimetableID string `validate:"required"`
	Format      string `validate:"required,oneof=csv pdf"`
}

// ExportResult carries a rendered export file.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}
