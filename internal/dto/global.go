package dto

import (
	"github.com/Shourya-pant/timetable-scheduler/internal/coordinator"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// InitializeGlobalRequest loads the shared classroom inventory.
type InitializeGlobalRequest struct {
	Classrooms []models.Classroom `json:"shared_classrooms" validate:"required,min=1,dive"`
}

// InitializeGlobalResponse echoes how many rooms are tracked.
type InitializeGlobalResponse struct {
	SharedClassrooms int `json:"shared_classrooms"`
}

// ReserveSlotsRequest claims shared slots for a registered timetable.
type ReserveSlotsRequest struct {
	Department  string   `json:"department" validate:"required"`
	TimetableID string   `json:"timetable_id" validate:"required"`
	SlotIDs     []string `json:"slot_ids" validate:"required,min=1"`
}

// ReserveSlotsResponse reports the outcome of an all-or-nothing claim.
type ReserveSlotsResponse struct {
	Reserved bool `json:"reserved"`
}

// ReleaseSlotsRequest drops a department's reservations.
type ReleaseSlotsRequest struct {
	Department  string `json:"department" validate:"required"`
	TimetableID string `json:"timetable_id"`
}

// ReleaseSlotsResponse reports how many reservations were dropped.
type ReleaseSlotsResponse struct {
	Released int `json:"released"`
}

// DetectConflictsRequest scopes a conflict scan; empty means all
// departments.
type DetectConflictsRequest struct {
	Departments []string `json:"departments"`
}

// DetectConflictsResponse lists every shared-classroom overlap found.
type DetectConflictsResponse struct {
	TotalConflicts int                    `json:"total_conflicts"`
	Conflicts      []coordinator.Conflict `json:"conflicts"`
}

// SynchronizeRequest re-validates and re-reserves the named departments in
// order.
type SynchronizeRequest struct {
	Departments []string `json:"departments" validate:"required,min=1"`
}

// SharedResourcesRequest captures the query window for shared classroom
// availability.
type SharedResourcesRequest struct {
	Day       int             `form:"day" validate:"min=0,max=4"`
	StartSlot int             `form:"start_slot" validate:"min=0,max=9"`
	EndSlot   int             `form:"end_slot" validate:"omitempty,min=1,max=10"`
	RoomType  models.RoomType `form:"room_type"`
}

// SharedResourcesResponse lists availability per shared classroom.
type SharedResourcesResponse struct {
	Day       int                        `json:"day"`
	StartSlot int                        `json:"start_slot"`
	EndSlot   int                        `json:"end_slot"`
	Resources []coordinator.ResourceView `json:"resources"`
}
