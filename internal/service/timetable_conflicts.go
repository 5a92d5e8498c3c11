package service

import "github.com/noah-isme/sma-timetable-api/internal/models"

type conflictKey struct {
	entityID string
	slot     TimetableSlot
}

// DetectEntryConflicts groups entries by (teacher, slot) and by (class, slot)
// and reports every group holding more than one entry. Teacher conflicts come
// first; within a type, groups keep the order of their first entry.
func DetectEntryConflicts(entries []models.TimetableEntry) []models.TimetableConflict {
	conflicts := make([]models.TimetableConflict, 0)
	conflicts = append(conflicts, groupConflicts(entries, models.ConflictTypeTeacher, func(e models.TimetableEntry) string {
		return derefString(e.TeacherID)
	})...)
	conflicts = append(conflicts, groupConflicts(entries, models.ConflictTypeClass, func(e models.TimetableEntry) string {
		return derefString(e.ClassID)
	})...)
	return conflicts
}

func groupConflicts(entries []models.TimetableEntry, kind models.ConflictType, entity func(models.TimetableEntry) string) []models.TimetableConflict {
	groups := make(map[conflictKey][]models.TimetableEntry)
	var order []conflictKey
	for _, entry := range entries {
		id := entity(entry)
		if id == "" {
			continue
		}
		key := conflictKey{entityID: id, slot: TimetableSlot{Day: entry.Day, Period: entry.Period}}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	var out []models.TimetableConflict
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		out = append(out, models.TimetableConflict{
			Type:               kind,
			EntityID:           key.entityID,
			Day:                key.slot.Day,
			Period:             key.slot.Period,
			ConflictingEntries: group,
		})
	}
	return out
}

// CheckSlot compares a candidate against the entries already in its slot and
// reports a teacher and/or class conflict naming the colliding occupants.
// Entries whose id is in ignoreIDs (the candidate itself when moving) are skipped.
func CheckSlot(candidate models.TimetableEntry, occupants []models.TimetableEntry, ignoreIDs ...string) []models.TimetableConflict {
	ignored := make(map[string]struct{}, len(ignoreIDs))
	for _, id := range ignoreIDs {
		if id != "" {
			ignored[id] = struct{}{}
		}
	}
	teacherID := derefString(candidate.TeacherID)
	classID := derefString(candidate.ClassID)

	var teacherHits, classHits []models.TimetableEntry
	for _, occupant := range occupants {
		if _, skip := ignored[occupant.ID]; skip {
			continue
		}
		if occupant.Day != candidate.Day || occupant.Period != candidate.Period {
			continue
		}
		if teacherID != "" && derefString(occupant.TeacherID) == teacherID {
			teacherHits = append(teacherHits, occupant)
		}
		if classID != "" && derefString(occupant.ClassID) == classID {
			classHits = append(classHits, occupant)
		}
	}

	var conflicts []models.TimetableConflict
	if len(teacherHits) > 0 {
		conflicts = append(conflicts, models.TimetableConflict{
			Type:               models.ConflictTypeTeacher,
			EntityID:           teacherID,
			Day:                candidate.Day,
			Period:             candidate.Period,
			ConflictingEntries: teacherHits,
		})
	}
	if len(classHits) > 0 {
		conflicts = append(conflicts, models.TimetableConflict{
			Type:               models.ConflictTypeClass,
			EntityID:           classID,
			Day:                candidate.Day,
			Period:             candidate.Period,
			ConflictingEntries: classHits,
		})
	}
	return conflicts
}
