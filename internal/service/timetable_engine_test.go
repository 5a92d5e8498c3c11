package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func testGridConfig(periods int, days ...string) models.TimetableConfig {
	return models.TimetableConfig{ID: "cfg-1", Name: "default", PeriodsPerDay: periods, DaysOfWeek: days}
}

func mustGrid(t *testing.T, periods int, days ...string) *TimetableGrid {
	t.Helper()
	grid, err := NewTimetableGrid(testGridConfig(periods, days...))
	require.NoError(t, err)
	return grid
}

func entry(id, teacher, class, day string, period int) models.TimetableEntry {
	e := models.TimetableEntry{ID: id, TimetableID: "tt-1", Day: day, Period: period}
	if teacher != "" {
		e.TeacherID = &teacher
	}
	if class != "" {
		e.ClassID = &class
	}
	return e
}

func TestTimetableGridEnumeratesDayMajor(t *testing.T) {
	grid := mustGrid(t, 2, "Mon", "Tue")

	assert.Equal(t, []TimetableSlot{{"Mon", 1}, {"Mon", 2}, {"Tue", 1}, {"Tue", 2}}, grid.Slots())
	assert.Equal(t, 4, grid.Size())
	assert.Equal(t, 1, grid.DayIndex("Tue"))
	assert.Equal(t, -1, grid.DayIndex("Sun"))
	assert.True(t, grid.Contains("Tue", 2))
	assert.False(t, grid.Contains("Tue", 3))
	assert.False(t, grid.Contains("Wed", 1))
}

func TestTimetableGridRejectsInvalidConfig(t *testing.T) {
	cases := map[string]models.TimetableConfig{
		"zero periods":  testGridConfig(0, "Mon"),
		"no days":       testGridConfig(3),
		"blank day":     testGridConfig(3, "Mon", " "),
		"duplicate day": testGridConfig(3, "Mon", "Mon"),
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTimetableGrid(cfg)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrInvalidTimetableConfig.Code, appErr.Code)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
		})
	}
}

func TestTimetablePlacerSkipsWhenGridIsExhausted(t *testing.T) {
	grid := mustGrid(t, 2, "Mon", "Tue")
	placer := NewTimetablePlacer(zap.NewNop())

	result := placer.Place("tt-1", grid, models.TimetablePreferences{}, nil, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 5},
	}, NewRandomSource(7)())

	assert.Equal(t, 4, result.Generated)
	assert.Len(t, result.Entries, 4)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 5, result.Skipped[0].Unit)
	assert.Empty(t, DetectEntryConflicts(result.Entries))
}

func TestTimetablePlacerSharedTeacherSingleSlot(t *testing.T) {
	grid := mustGrid(t, 1, "Mon")
	placer := NewTimetablePlacer(nil)

	result := placer.Place("tt-1", grid, models.TimetablePreferences{}, nil, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 1},
		{TeacherID: "t1", ClassID: "c2", SubjectID: "math", PeriodsPerWeek: 1},
	}, NewRandomSource(1)())

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "c1", *result.Entries[0].ClassID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "c2", result.Skipped[0].ClassID)
}

func TestTimetablePlacerKeepsLockedEntriesFirst(t *testing.T) {
	grid := mustGrid(t, 2, "Mon", "Tue")
	locked := entry("locked-1", "t1", "c1", "Mon", 1)
	locked.IsLocked = true

	result := NewTimetablePlacer(nil).Place("tt-1", grid, models.TimetablePreferences{}, []models.TimetableEntry{locked}, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c2", SubjectID: "math", PeriodsPerWeek: 4},
	}, NewRandomSource(3)())

	require.NotEmpty(t, result.Entries)
	assert.Equal(t, locked, result.Entries[0])
	assert.Equal(t, 3, result.Generated)
	assert.Len(t, result.Skipped, 1)
	for _, e := range result.Entries[1:] {
		assert.False(t, e.Day == "Mon" && e.Period == 1, "locked slot reused")
		assert.False(t, e.IsLocked)
	}
}

func TestTimetablePlacerNeverDoubleBooks(t *testing.T) {
	grid := mustGrid(t, 6, "Mon", "Tue", "Wed", "Thu", "Fri")
	assignments := []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 6},
		{TeacherID: "t1", ClassID: "c2", SubjectID: "math", PeriodsPerWeek: 6},
		{TeacherID: "t2", ClassID: "c1", SubjectID: "bio", PeriodsPerWeek: 8},
		{TeacherID: "t2", ClassID: "c2", SubjectID: "bio", PeriodsPerWeek: 8},
		{TeacherID: "t3", ClassID: "c1", SubjectID: "art", PeriodsPerWeek: 4},
		{TeacherID: "t3", ClassID: "c3", SubjectID: "art", PeriodsPerWeek: 30},
	}
	for seed := int64(1); seed <= 20; seed++ {
		result := NewTimetablePlacer(nil).Place("tt-1", grid, models.TimetablePreferences{}, nil, assignments, NewRandomSource(seed)())
		assert.Empty(t, DetectEntryConflicts(result.Entries), "seed %d", seed)

		requested := 0
		for _, a := range assignments {
			requested += a.PeriodsPerWeek
		}
		assert.Equal(t, requested, result.Generated+len(result.Skipped), "seed %d", seed)
	}
}

func TestTimetablePlacerDeterministicWithSeed(t *testing.T) {
	grid := mustGrid(t, 4, "Mon", "Tue", "Wed")
	assignments := []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 3},
		{TeacherID: "t2", ClassID: "c1", SubjectID: "bio", PeriodsPerWeek: 2},
	}
	slotsOf := func(result PlacementResult) []TimetableSlot {
		out := make([]TimetableSlot, 0, len(result.Entries))
		for _, e := range result.Entries {
			out = append(out, TimetableSlot{Day: e.Day, Period: e.Period})
		}
		return out
	}

	placer := NewTimetablePlacer(nil)
	source := NewRandomSource(99)
	first := placer.Place("tt-1", grid, models.TimetablePreferences{}, nil, assignments, source())
	second := placer.Place("tt-1", grid, models.TimetablePreferences{}, nil, assignments, source())
	assert.Equal(t, slotsOf(first), slotsOf(second))
}

func TestTimetablePlacerConcentratedFillsInGridOrder(t *testing.T) {
	grid := mustGrid(t, 3, "Mon", "Tue")
	prefs := models.TimetablePreferences{PreferredSubjectDistribution: models.DistributionConcentrated}

	result := NewTimetablePlacer(nil).Place("tt-1", grid, prefs, nil, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 1},
		{TeacherID: "t2", ClassID: "c2", SubjectID: "bio", PeriodsPerWeek: 4},
	}, nil)

	require.Len(t, result.Entries, 5)
	// Larger demand goes first and takes the earliest slots.
	assert.Equal(t, "bio", *result.Entries[0].SubjectID)
	assert.Equal(t, TimetableSlot{"Mon", 1}, TimetableSlot{result.Entries[0].Day, result.Entries[0].Period})
	assert.Equal(t, TimetableSlot{"Tue", 1}, TimetableSlot{result.Entries[3].Day, result.Entries[3].Period})
	assert.Equal(t, "math", *result.Entries[4].SubjectID)
	assert.Equal(t, TimetableSlot{"Mon", 1}, TimetableSlot{result.Entries[4].Day, result.Entries[4].Period})
}

func TestTimetablePlacerIgnoresZeroDemand(t *testing.T) {
	grid := mustGrid(t, 2, "Mon")
	result := NewTimetablePlacer(nil).Place("tt-1", grid, models.TimetablePreferences{}, nil, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 0},
	}, NewRandomSource(1)())

	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Skipped)
}

func TestDetectEntryConflictsReportsTeacherCollision(t *testing.T) {
	entries := []models.TimetableEntry{
		entry("e1", "t1", "c1", "Mon", 1),
		entry("e2", "t1", "c2", "Mon", 1),
		entry("e3", "t1", "c1", "Mon", 2),
	}

	conflicts := DetectEntryConflicts(entries)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTypeTeacher, conflicts[0].Type)
	assert.Equal(t, "t1", conflicts[0].EntityID)
	assert.Equal(t, "Mon", conflicts[0].Day)
	assert.Equal(t, 1, conflicts[0].Period)
	require.Len(t, conflicts[0].ConflictingEntries, 2)
	assert.Equal(t, "e1", conflicts[0].ConflictingEntries[0].ID)
	assert.Equal(t, "e2", conflicts[0].ConflictingEntries[1].ID)
}

func TestDetectEntryConflictsOrdersTeacherBeforeClass(t *testing.T) {
	entries := []models.TimetableEntry{
		entry("e1", "t1", "c1", "Tue", 1),
		entry("e2", "t2", "c1", "Tue", 1),
		entry("e3", "t3", "c3", "Mon", 1),
		entry("e4", "t3", "c4", "Mon", 1),
		entry("e5", "", "", "Mon", 1),
	}

	conflicts := DetectEntryConflicts(entries)
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictTypeTeacher, conflicts[0].Type)
	assert.Equal(t, "t3", conflicts[0].EntityID)
	assert.Equal(t, models.ConflictTypeClass, conflicts[1].Type)
	assert.Equal(t, "c1", conflicts[1].EntityID)
}

func TestDetectEntryConflictsEmpty(t *testing.T) {
	conflicts := DetectEntryConflicts(nil)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestCheckSlotIgnoresMovingEntry(t *testing.T) {
	occupants := []models.TimetableEntry{
		entry("e1", "t1", "c1", "Mon", 1),
		entry("e2", "t2", "c1", "Mon", 1),
	}
	candidate := entry("e1", "t1", "c2", "Mon", 1)

	conflicts := CheckSlot(candidate, occupants, "e1")
	assert.Empty(t, conflicts)

	candidate = entry("", "t2", "c1", "Mon", 1)
	conflicts = CheckSlot(candidate, occupants)
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictTypeTeacher, conflicts[0].Type)
	assert.Equal(t, "e2", conflicts[0].ConflictingEntries[0].ID)
	assert.Equal(t, models.ConflictTypeClass, conflicts[1].Type)
	assert.Len(t, conflicts[1].ConflictingEntries, 2)
}

type assignmentSourceStub struct {
	links    []models.TeacherClassLink
	teachers []models.SubjectLink
	classes  []models.SubjectLink
	periods  []models.SubjectPeriods
	err      error
	asked    []string
}

func (s *assignmentSourceStub) ListTeacherClassLinks(context.Context) ([]models.TeacherClassLink, error) {
	return s.links, s.err
}

func (s *assignmentSourceStub) ListTeacherSubjects(context.Context) ([]models.SubjectLink, error) {
	return s.teachers, nil
}

func (s *assignmentSourceStub) ListClassSubjects(context.Context) ([]models.SubjectLink, error) {
	return s.classes, nil
}

func (s *assignmentSourceStub) ListSubjectPeriods(_ context.Context, ids []string) ([]models.SubjectPeriods, error) {
	s.asked = ids
	return s.periods, nil
}

func intPtr(v int) *int { return &v }

func TestTimetableAssignmentLoaderIntersectsQualifications(t *testing.T) {
	source := &assignmentSourceStub{
		links: []models.TeacherClassLink{
			{TeacherID: "t1", ClassID: "c1"},
			{TeacherID: "t2", ClassID: "c1"},
		},
		teachers: []models.SubjectLink{
			{OwnerID: "t1", SubjectID: "math"},
			{OwnerID: "t1", SubjectID: "bio"},
			{OwnerID: "t2", SubjectID: "art"},
		},
		classes: []models.SubjectLink{
			{OwnerID: "c1", SubjectID: "bio"},
			{OwnerID: "c1", SubjectID: "math"},
		},
		periods: []models.SubjectPeriods{
			{SubjectID: "bio", PeriodsPerWeek: intPtr(3)},
			{SubjectID: "math", PeriodsPerWeek: nil},
		},
	}

	assignments, err := NewTimetableAssignmentLoader(source, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TimetableAssignment{
		{TeacherID: "t1", ClassID: "c1", SubjectID: "bio", PeriodsPerWeek: 3},
		{TeacherID: "t1", ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 0},
	}, assignments)
	assert.Equal(t, []string{"bio", "math"}, source.asked)
}

func TestTimetableAssignmentLoaderPropagatesErrors(t *testing.T) {
	source := &assignmentSourceStub{err: errors.New("db down")}
	_, err := NewTimetableAssignmentLoader(source, nil).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
