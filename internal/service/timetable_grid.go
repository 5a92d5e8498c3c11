package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// TimetableSlot is a (day, period) coordinate of the weekly grid.
type TimetableSlot struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
}

func (s TimetableSlot) String() string {
	return fmt.Sprintf("%s/%d", s.Day, s.Period)
}

// TimetableGrid enumerates the slots of a config: days in configured order,
// periods 1..periodsPerDay within each day.
type TimetableGrid struct {
	days          []string
	periodsPerDay int
	dayIndex      map[string]int
	slots         []TimetableSlot
}

// NewTimetableGrid validates cfg and builds its grid. It never substitutes defaults.
func NewTimetableGrid(cfg models.TimetableConfig) (*TimetableGrid, error) {
	if cfg.PeriodsPerDay < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimetableConfig, "periodsPerDay must be at least 1")
	}
	if len(cfg.DaysOfWeek) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimetableConfig, "daysOfWeek must not be empty")
	}

	grid := &TimetableGrid{
		days:          make([]string, 0, len(cfg.DaysOfWeek)),
		periodsPerDay: cfg.PeriodsPerDay,
		dayIndex:      make(map[string]int, len(cfg.DaysOfWeek)),
		slots:         make([]TimetableSlot, 0, len(cfg.DaysOfWeek)*cfg.PeriodsPerDay),
	}
	for _, day := range cfg.DaysOfWeek {
		if strings.TrimSpace(day) == "" {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimetableConfig, "daysOfWeek contains a blank label")
		}
		if _, dup := grid.dayIndex[day]; dup {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimetableConfig, fmt.Sprintf("daysOfWeek contains %q twice", day))
		}
		grid.dayIndex[day] = len(grid.days)
		grid.days = append(grid.days, day)
		for period := 1; period <= cfg.PeriodsPerDay; period++ {
			grid.slots = append(grid.slots, TimetableSlot{Day: day, Period: period})
		}
	}
	return grid, nil
}

// Slots returns a copy of the ordered slot universe.
func (g *TimetableGrid) Slots() []TimetableSlot {
	out := make([]TimetableSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Days returns the configured day labels in order.
func (g *TimetableGrid) Days() []string {
	out := make([]string, len(g.days))
	copy(out, g.days)
	return out
}

// PeriodsPerDay returns the number of periods in each day.
func (g *TimetableGrid) PeriodsPerDay() int {
	return g.periodsPerDay
}

// Contains reports whether (day, period) lies inside the grid.
func (g *TimetableGrid) Contains(day string, period int) bool {
	if _, ok := g.dayIndex[day]; !ok {
		return false
	}
	return period >= 1 && period <= g.periodsPerDay
}

// DayIndex returns the position of day, or -1 when unknown.
func (g *TimetableGrid) DayIndex(day string) int {
	if idx, ok := g.dayIndex[day]; ok {
		return idx
	}
	return -1
}

// Size is the number of slots.
func (g *TimetableGrid) Size() int {
	return len(g.slots)
}
