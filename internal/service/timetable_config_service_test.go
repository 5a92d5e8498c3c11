package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newConfigServiceFixture(t *testing.T, items ...models.TimetableConfig) (*TimetableConfigService, *memoryConfigRepo, func()) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	repo := &memoryConfigRepo{items: items}
	svc := NewTimetableConfigService(repo, tx, TimetableConfigDefaults{PeriodsPerDay: 8, Days: []string{"Mon", "Tue", "Wed", "Thu", "Fri"}}, nil, nil)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return svc, repo, func() {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func TestTimetableConfigServiceCreateAppliesDefaults(t *testing.T) {
	svc, repo, _ := newConfigServiceFixture(t)

	cfg, err := svc.CreateConfig(context.Background(), dto.CreateTimetableConfigRequest{Name: "default"})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.PeriodsPerDay)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, []string(cfg.DaysOfWeek))
	assert.Equal(t, 45, cfg.PeriodDurationMinutes)
	assert.Equal(t, models.DistributionBalanced, cfg.Preferences.PreferredSubjectDistribution)
	assert.False(t, cfg.IsActive)
	assert.Len(t, repo.items, 1)
}

func TestTimetableConfigServiceCreateActivatesExclusively(t *testing.T) {
	svc, repo, expectTx := newConfigServiceFixture(t, activeConfig(6, "Mon"))
	expectTx()

	cfg, err := svc.CreateConfig(context.Background(), dto.CreateTimetableConfigRequest{
		Name:          "short week",
		PeriodsPerDay: 4,
		DaysOfWeek:    []string{"Mon", "Tue"},
		Preferences:   &dto.TimetablePreferencesRequest{PreferredSubjectDistribution: "concentrated"},
		Activate:      true,
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsActive)

	active, err := svc.ActiveConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, active.ID)
	assert.Equal(t, models.DistributionConcentrated, active.Preferences.Distribution())
	assert.False(t, repo.items[0].IsActive)
}

func TestTimetableConfigServiceCreateRejectsDuplicateDays(t *testing.T) {
	svc, _, _ := newConfigServiceFixture(t)

	_, err := svc.CreateConfig(context.Background(), dto.CreateTimetableConfigRequest{
		Name:       "broken",
		DaysOfWeek: []string{"Mon", "Mon"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableConfigServiceActivate(t *testing.T) {
	first := activeConfig(6, "Mon")
	second := testGridConfig(4, "Tue")
	second.ID = "cfg-2"
	svc, repo, expectTx := newConfigServiceFixture(t, first, second)
	expectTx()

	cfg, err := svc.ActivateConfig(context.Background(), "cfg-2")
	require.NoError(t, err)
	assert.True(t, cfg.IsActive)
	assert.False(t, repo.items[0].IsActive)
	assert.True(t, repo.items[1].IsActive)

	_, err = svc.ActivateConfig(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableConfigServiceResolve(t *testing.T) {
	svc, _, _ := newConfigServiceFixture(t)

	_, err := svc.Resolve(context.Background(), "")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.Resolve(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.ActiveConfig(context.Background())
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	grid, err := svc.ActiveGrid(context.Background())
	require.NoError(t, err)
	assert.Nil(t, grid)
}

func TestTimetableVersionServiceAddChange(t *testing.T) {
	f := newTimetableFixture(t)
	f.expectCommit()
	version, err := f.versionSvc.CreateManualVersion(context.Background(), "admin-1", dto.CreateVersionRequest{TimetableID: "tt-1", Description: "baseline"})
	require.NoError(t, err)
	assert.Equal(t, 1, version.VersionNumber)
	assert.True(t, version.IsActive)

	_, err = f.versionSvc.AddChange(context.Background(), "tt-1", "admin-1", dto.RecordChangeRequest{VersionID: version.ID, Action: "update"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.versionSvc.AddChange(context.Background(), "other", "admin-1", dto.RecordChangeRequest{
		VersionID: version.ID,
		Action:    "update",
		NewValue:  &models.EntrySnapshot{Day: "Mon", Period: 1},
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	log, err := f.versionSvc.AddChange(context.Background(), "tt-1", "admin-1", dto.RecordChangeRequest{
		VersionID: version.ID,
		Action:    "update",
		NewValue:  &models.EntrySnapshot{Day: "Mon", Period: 1},
	})
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(log.OldValue))

	logs, err := f.versionSvc.ListChanges(context.Background(), "tt-1", version.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestTimetableVersionServiceListVersionsEmpty(t *testing.T) {
	f := newTimetableFixture(t)

	versions, err := f.versionSvc.ListVersions(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.NotNil(t, versions)
	assert.Empty(t, versions)

	_, err = f.versionSvc.ListVersions(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableVersionServiceCreateManualVersionWaitsForTimetableLock(t *testing.T) {
	f := newTimetableFixture(t)
	f.versions.items = []models.TimetableVersion{{ID: "ver-1", TimetableID: "tt-1", VersionNumber: 1, IsActive: true}}
	f.expectCommit()

	release, err := f.svc.locker.Acquire(context.Background(), "tt-1")
	require.NoError(t, err)

	type result struct {
		version *models.TimetableVersion
		err     error
	}
	done := make(chan result, 1)
	go func() {
		version, err := f.versionSvc.CreateManualVersion(context.Background(), "admin-1", dto.CreateVersionRequest{TimetableID: "tt-1", Description: "manual"})
		done <- result{version, err}
	}()

	select {
	case <-done:
		t.Fatal("version created while the timetable was locked")
	case <-time.After(30 * time.Millisecond):
	}
	release()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 2, res.version.VersionNumber)
	case <-time.After(time.Second):
		t.Fatal("version never created after the lock was released")
	}
}

func TestTimetableVersionServiceCreateManualVersionUnknownTimetable(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.versionSvc.CreateManualVersion(context.Background(), "admin-1", dto.CreateVersionRequest{TimetableID: "missing", Description: "manual"})
	requireAppError(t, err, appErrors.ErrNotFound)
}
