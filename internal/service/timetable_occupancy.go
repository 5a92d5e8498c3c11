package service

import "github.com/noah-isme/sma-timetable-api/internal/models"

type slotSet map[TimetableSlot]struct{}

// timetableOccupancy tracks which slots each teacher and class already holds
// during one placement run. Empty ids are unconstrained.
type timetableOccupancy struct {
	teachers map[string]slotSet
	classes  map[string]slotSet
}

func newTimetableOccupancy() *timetableOccupancy {
	return &timetableOccupancy{
		teachers: make(map[string]slotSet),
		classes:  make(map[string]slotSet),
	}
}

// seedTimetableOccupancy reserves the slots of existing entries.
func seedTimetableOccupancy(entries []models.TimetableEntry) *timetableOccupancy {
	occ := newTimetableOccupancy()
	for _, entry := range entries {
		occ.Occupy(derefString(entry.TeacherID), derefString(entry.ClassID), TimetableSlot{Day: entry.Day, Period: entry.Period})
	}
	return occ
}

func (o *timetableOccupancy) IsTeacherFree(teacherID string, slot TimetableSlot) bool {
	return isFree(o.teachers, teacherID, slot)
}

func (o *timetableOccupancy) IsClassFree(classID string, slot TimetableSlot) bool {
	return isFree(o.classes, classID, slot)
}

func (o *timetableOccupancy) IsFree(teacherID, classID string, slot TimetableSlot) bool {
	return o.IsTeacherFree(teacherID, slot) && o.IsClassFree(classID, slot)
}

// Occupy marks slot taken for the teacher and the class immediately.
func (o *timetableOccupancy) Occupy(teacherID, classID string, slot TimetableSlot) {
	occupy(o.teachers, teacherID, slot)
	occupy(o.classes, classID, slot)
}

func isFree(index map[string]slotSet, id string, slot TimetableSlot) bool {
	if id == "" {
		return true
	}
	_, taken := index[id][slot]
	return !taken
}

func occupy(index map[string]slotSet, id string, slot TimetableSlot) {
	if id == "" {
		return
	}
	set, ok := index[id]
	if !ok {
		set = make(slotSet)
		index[id] = set
	}
	set[slot] = struct{}{}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
