package service

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RandomSource hands out a fresh generator per placement run so concurrent
// runs never share RNG state.
type RandomSource func() *rand.Rand

// NewRandomSource returns a source seeded with seed on every call, or with
// the clock when seed is zero.
func NewRandomSource(seed int64) RandomSource {
	return func() *rand.Rand {
		if seed != 0 {
			return rand.New(rand.NewSource(seed))
		}
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// SkippedPeriod is one period unit that found no free slot.
type SkippedPeriod struct {
	TeacherID string
	ClassID   string
	SubjectID string
	Unit      int
}

// PlacementResult holds the full entry set (locked first, then generated) and
// the units that could not be placed.
type PlacementResult struct {
	Entries   []models.TimetableEntry
	Generated int
	Skipped   []SkippedPeriod
}

// TimetablePlacer is the greedy randomized placement engine.
type TimetablePlacer struct {
	logger *zap.Logger
}

// NewTimetablePlacer constructs a placer.
func NewTimetablePlacer(logger *zap.Logger) *TimetablePlacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetablePlacer{logger: logger}
}

// Place assigns every period unit of every assignment to a slot where neither
// its teacher nor its class is busy. Locked entries are kept as-is and seed
// occupancy. Larger demands go first; ties keep input order.
func (p *TimetablePlacer) Place(
	timetableID string,
	grid *TimetableGrid,
	prefs models.TimetablePreferences,
	locked []models.TimetableEntry,
	assignments []TimetableAssignment,
	rng *rand.Rand,
) PlacementResult {
	shuffle := prefs.Distribution() == models.DistributionBalanced
	if shuffle && rng == nil {
		rng = NewRandomSource(0)()
	}

	occ := seedTimetableOccupancy(locked)
	result := PlacementResult{
		Entries: make([]models.TimetableEntry, 0, len(locked)+grid.Size()),
	}
	result.Entries = append(result.Entries, locked...)

	ordered := make([]TimetableAssignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PeriodsPerWeek > ordered[j].PeriodsPerWeek
	})

	for _, assignment := range ordered {
		if assignment.PeriodsPerWeek <= 0 {
			continue
		}
		candidates := p.candidates(grid, occ, assignment, shuffle, rng)
		for unit := 1; unit <= assignment.PeriodsPerWeek; unit++ {
			slot, rest, ok := takeFreeSlot(candidates, occ, assignment)
			candidates = rest
			if !ok {
				candidates = p.candidates(grid, occ, assignment, shuffle, rng)
				slot, rest, ok = takeFreeSlot(candidates, occ, assignment)
				candidates = rest
			}
			if !ok {
				result.Skipped = append(result.Skipped, SkippedPeriod{
					TeacherID: assignment.TeacherID,
					ClassID:   assignment.ClassID,
					SubjectID: assignment.SubjectID,
					Unit:      unit,
				})
				p.logger.Warn("timetable period skipped",
					zap.String("timetable_id", timetableID),
					zap.String("teacher_id", assignment.TeacherID),
					zap.String("class_id", assignment.ClassID),
					zap.String("subject_id", assignment.SubjectID),
					zap.Int("unit", unit),
				)
				continue
			}

			occ.Occupy(assignment.TeacherID, assignment.ClassID, slot)
			result.Entries = append(result.Entries, models.TimetableEntry{
				ID:          uuid.NewString(),
				TimetableID: timetableID,
				Day:         slot.Day,
				Period:      slot.Period,
				TeacherID:   optionalString(assignment.TeacherID),
				ClassID:     optionalString(assignment.ClassID),
				SubjectID:   optionalString(assignment.SubjectID),
			})
			result.Generated++
		}
	}
	return result
}

// candidates lists grid slots currently free for the assignment, shuffled
// (Fisher-Yates) for balanced distribution or in grid order otherwise.
func (p *TimetablePlacer) candidates(grid *TimetableGrid, occ *timetableOccupancy, a TimetableAssignment, shuffle bool, rng *rand.Rand) []TimetableSlot {
	all := grid.Slots()
	free := all[:0]
	for _, slot := range all {
		if occ.IsFree(a.TeacherID, a.ClassID, slot) {
			free = append(free, slot)
		}
	}
	if shuffle {
		for i := len(free) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			free[i], free[j] = free[j], free[i]
		}
	}
	return free
}

// takeFreeSlot scans candidates in order and returns the first slot still free
// together with the unscanned remainder.
func takeFreeSlot(candidates []TimetableSlot, occ *timetableOccupancy, a TimetableAssignment) (TimetableSlot, []TimetableSlot, bool) {
	for i, slot := range candidates {
		if occ.IsFree(a.TeacherID, a.ClassID, slot) {
			return slot, candidates[i+1:], true
		}
	}
	return TimetableSlot{}, nil, false
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
