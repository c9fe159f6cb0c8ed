package scheduler

import "fmt"

// The weekly grid is fixed: five teaching days of ten 55-minute slots
// starting at 08:00. Every component indexes days 0-4 (Monday first) and
// slots 0-9.
const (
	NumDays      = 5
	SlotsPerDay  = 10
	SlotMinutes  = 55
	DayStartHour = 8

	MaxSpan = 4
)

var dayNames = [NumDays]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// DayName returns the human-readable name for a day index.
func DayName(day int) string {
	if day < 0 || day >= NumDays {
		return "Unknown"
	}
	return dayNames[day]
}

// SlotTime formats the wall-clock start of a slot as HH:MM.
func SlotTime(slot int) string {
	minutes := DayStartHour*60 + slot*SlotMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SessionEndTime formats the wall-clock end of a session starting at slot and
// lasting the given number of minutes.
func SessionEndTime(slot, durationMinutes int) string {
	minutes := DayStartHour*60 + slot*SlotMinutes + durationMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeToSlot maps an HH:MM start time back onto its slot index. Returns -1
// for times outside the grid.
func TimeToSlot(value string) int {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return -1
	}
	offset := hour*60 + minute - DayStartHour*60
	if offset < 0 {
		return -1
	}
	slot := offset / SlotMinutes
	if slot >= SlotsPerDay {
		return -1
	}
	return slot
}

// TimeToSlotEnd maps an HH:MM session end time onto the first slot index
// after the session. End times are exclusive, so the end of the last slot of
// the day maps to SlotsPerDay, which TimeToSlot would reject. Returns -1 for
// times outside the grid.
func TimeToSlotEnd(value string) int {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return -1
	}
	offset := hour*60 + minute - DayStartHour*60
	if offset <= 0 {
		return -1
	}
	slot := (offset + SlotMinutes - 1) / SlotMinutes
	if slot > SlotsPerDay {
		return -1
	}
	return slot
}

// SpanForDuration converts a course duration to its contiguous slot span.
func SpanForDuration(durationMinutes int) (int, error) {
	if durationMinutes <= 0 || durationMinutes%SlotMinutes != 0 {
		return 0, fmt.Errorf("duration %d is not a multiple of %d minutes", durationMinutes, SlotMinutes)
	}
	span := durationMinutes / SlotMinutes
	if span > MaxSpan {
		return 0, fmt.Errorf("duration %d exceeds the maximum span of %d slots", durationMinutes, MaxSpan)
	}
	return span, nil
}
