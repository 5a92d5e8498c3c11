package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTimetableConfigRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableConfigRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "periods_per_day", "days_of_week", "break_periods", "period_duration_minutes", "preferences", "is_active", "created_at", "updated_at"}).
		AddRow("cfg-1", "Default", 8, "{Mon,Tue,Wed}", []byte(`[{"name":"recess","afterPeriod":4}]`), 45, []byte(`{"preferredSubjectDistribution":"concentrated"}`), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_configs WHERE is_active = TRUE")).
		WillReturnRows(rows)

	cfg, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue", "Wed"}, []string(cfg.DaysOfWeek))
	assert.Equal(t, 8, cfg.PeriodsPerDay)
	require.Len(t, cfg.BreakPeriods, 1)
	assert.Equal(t, "recess", cfg.BreakPeriods[0].Name)
	assert.Equal(t, models.DistributionConcentrated, cfg.Preferences.Distribution())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableConfigRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableConfigRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_configs")).
		WithArgs(sqlmock.AnyArg(), "Default", 6, sqlmock.AnyArg(), sqlmock.AnyArg(), 40, sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.TimetableConfig{Name: "Default", PeriodsPerDay: 6, DaysOfWeek: []string{"Mon"}, PeriodDurationMinutes: 40}
	require.NoError(t, repo.Create(context.Background(), nil, cfg))
	assert.NotEmpty(t, cfg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableConfigRepositoryActivateMissing(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableConfigRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_configs SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_configs SET is_active = TRUE, updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "cfg-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeactivateAll(context.Background(), nil))
	assert.ErrorIs(t, repo.Activate(context.Background(), nil, "cfg-404"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableAssignmentSourceRepositoryReads(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableAssignmentSourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id, class_id FROM teacher_classes")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "class_id"}).AddRow("t-1", "c-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_subjects")).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "subject_id"}).AddRow("t-1", "math"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_subjects")).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "subject_id"}).AddRow("c-1", "math"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, periods_per_week FROM subjects WHERE id IN (")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "periods_per_week"}).AddRow("math", nil))

	ctx := context.Background()
	links, err := repo.ListTeacherClassLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TeacherClassLink{{TeacherID: "t-1", ClassID: "c-1"}}, links)

	teacherSubjects, err := repo.ListTeacherSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t-1", teacherSubjects[0].OwnerID)

	classSubjects, err := repo.ListClassSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-1", classSubjects[0].OwnerID)

	periods, err := repo.ListSubjectPeriods(ctx, []string{"math"})
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Nil(t, periods[0].PeriodsPerWeek)

	empty, err := repo.ListSubjectPeriods(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
