package coordinator

import (
	"fmt"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// SlotKey identifies one shared classroom-slot cell of the weekly grid.
type SlotKey struct {
	ClassroomID string `json:"classroom_id"`
	Day         int    `json:"day"`
	Slot        int    `json:"slot"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s@%d/%d", k.ClassroomID, k.Day, k.Slot)
}

// Reservation records which department/timetable holds a shared slot.
type Reservation struct {
	Department  string `json:"department"`
	TimetableID string `json:"timetable_id"`
}

// ReservationConflictError is returned when a reserve call loses the
// compare-and-set race. State is untouched; the caller learns who holds the
// slot.
type ReservationConflictError struct {
	Key                  SlotKey
	RequestingDepartment string
	OccupyingDepartment  string
}

func (e *ReservationConflictError) Error() string {
	return fmt.Sprintf("slot %s requested by %s is already reserved by %s",
		e.Key, e.RequestingDepartment, e.OccupyingDepartment)
}

// Conflict is one shared-classroom overlap between two departments that no
// reservation covers.
type Conflict struct {
	Key                  SlotKey `json:"slot"`
	RoomID               string  `json:"room_id"`
	RequestingDepartment string  `json:"requesting_department"`
	OccupyingDepartment  string  `json:"occupying_department"`
	CourseName           string  `json:"course_name"`
	SectionCode          string  `json:"section_code"`
}

// SyncResult summarises a synchronizeDepartments run. Unresolved conflicts
// are surfaced, never silently repaired.
type SyncResult struct {
	ConflictsResolved int        `json:"conflicts_resolved"`
	Synchronized      []string   `json:"departments_synchronized"`
	Failed            []string   `json:"departments_failed"`
	Conflicts         []Conflict `json:"conflicts,omitempty"`
}

// ResourceView is one shared classroom's availability over a queried window.
type ResourceView struct {
	Classroom models.Classroom `json:"classroom"`
	Available bool             `json:"available"`
	HeldBy    string           `json:"held_by,omitempty"`
}

// RoomUtilization is the occupancy ratio of one shared classroom.
type RoomUtilization struct {
	ClassroomID string  `json:"classroom_id"`
	RoomID      string  `json:"room_id"`
	UsedSlots   int     `json:"used_slots"`
	TotalSlots  int     `json:"total_slots"`
	Rate        float64 `json:"utilization_rate"`
}

// TeacherUtilization is the occupancy ratio of one teacher across the week.
type TeacherUtilization struct {
	TeacherName string  `json:"teacher_name"`
	Department  string  `json:"department"`
	UsedSlots   int     `json:"used_slots"`
	TotalSlots  int     `json:"total_slots"`
	Rate        float64 `json:"utilization_rate"`
}

// UtilizationReport aggregates classroom and teacher occupancy with summary
// statistics over the classroom rates.
type UtilizationReport struct {
	Classrooms       []RoomUtilization    `json:"classroom_utilization"`
	Teachers         []TeacherUtilization `json:"teacher_utilization"`
	GlobalSlotCounts map[string]int       `json:"department_slot_counts"`
	MeanRoomRate     float64              `json:"average_classroom_utilization"`
	StddevRoomRate   float64              `json:"stddev_classroom_utilization"`
}

// ConflictsReport aggregates conflicts by department plus consistency
// findings over the reservation table.
type ConflictsReport struct {
	TotalConflicts    int            `json:"total_conflicts"`
	ByDepartment      map[string]int `json:"conflicts_by_department"`
	Conflicts         []Conflict     `json:"conflicts"`
	DoubleBookedSlots []SlotKey      `json:"double_booked_slots"`
}
