package models

// Teacher carries the availability data the solver schedules against.
// Availability is a 5x10 grid: Availability[day][slot] reports whether the
// teacher can take a class in that slot. A day listed in DaysOff overrides
// the grid and blocks the whole day.
type Teacher struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MaxHoursPerDay int      `json:"max_hours_per_day"`
	Availability   [][]bool `json:"availability"`
	DaysOff        []int    `json:"days_off"`
}

// Available reports whether the teacher can teach the given day/slot.
func (t *Teacher) Available(day, slot int) bool {
	for _, off := range t.DaysOff {
		if off == day {
			return false
		}
	}
	if t.Availability == nil {
		return true
	}
	if day >= len(t.Availability) {
		return false
	}
	row := t.Availability[day]
	if slot >= len(row) {
		return false
	}
	return row[slot]
}
