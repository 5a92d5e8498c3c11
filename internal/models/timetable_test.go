package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimetablePreferencesScan(t *testing.T) {
	var prefs TimetablePreferences
	require.NoError(t, prefs.Scan([]byte(`{"allowDoublePeriods":true,"maxConsecutivePeriods":3,"preferredSubjectDistribution":"concentrated"}`)))
	assert.True(t, prefs.AllowDoublePeriods)
	assert.Equal(t, 3, prefs.MaxConsecutivePeriods)
	assert.Equal(t, DistributionConcentrated, prefs.Distribution())

	var empty TimetablePreferences
	require.NoError(t, empty.Scan(nil))
	assert.Equal(t, DistributionBalanced, empty.Distribution())

	assert.Error(t, empty.Scan(42))
}

func TestBreakPeriodsValueNil(t *testing.T) {
	var breaks BreakPeriods
	v, err := breaks.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
}

func TestChangeActionValid(t *testing.T) {
	assert.True(t, ChangeActionSwap.Valid())
	assert.False(t, ChangeAction("rename").Valid())
}
