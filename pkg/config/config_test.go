package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTimetableDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 2*time.Minute, cfg.Timetable.LockTTL)
	assert.Equal(t, 10*time.Second, cfg.Timetable.LockWait)
	assert.Equal(t, 5*time.Minute, cfg.Timetable.ConflictCacheTTL)
	assert.True(t, cfg.Timetable.AuditEnabled)
	assert.Equal(t, 1, cfg.Timetable.AuditWorkers)
	assert.Equal(t, 8, cfg.Timetable.DefaultPeriodsPerDay)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, cfg.Timetable.DefaultDays)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadTimetableOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TIMETABLE_LOCK_WAIT", "3s")
	t.Setenv("TIMETABLE_RANDOM_SEED", "42")
	t.Setenv("TIMETABLE_DEFAULT_DAYS", "Mon, Tue ,")
	t.Setenv("ENABLE_REDIS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Timetable.LockWait)
	assert.Equal(t, int64(42), cfg.Timetable.RandomSeed)
	assert.Equal(t, []string{"Mon", "Tue"}, cfg.Timetable.DefaultDays)
	assert.True(t, cfg.Redis.Enabled)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nonsense", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
