package dto

import "github.com/Shourya-pant/timetable-scheduler/internal/models"

// GenerateTimetableRequest carries the full problem instance for one
// department run. Entities arrive inline so a run is reproducible from its
// request body alone.
type GenerateTimetableRequest struct {
	Name              string              `json:"name" validate:"required"`
	Department        string              `json:"department" validate:"required"`
	Sections          []models.Section    `json:"sections" validate:"required,min=1,dive"`
	Teachers          []models.Teacher    `json:"teachers" validate:"required,min=1,dive"`
	Courses           []models.Course     `json:"courses" validate:"required,min=1,dive"`
	Classrooms        []models.Classroom  `json:"classrooms" validate:"required,min=1,dive"`
	Assignments       []models.Assignment `json:"assignments" validate:"required,min=1,dive"`
	Rules             []models.Rule       `json:"rules"`
	TimeBudgetSeconds int                 `json:"time_budget_seconds" validate:"omitempty,min=1,max=600"`
}

// GenerateTimetableResponse returns the finished (or failed) run.
type GenerateTimetableResponse struct {
	TimetableID   string                 `json:"timetable_id"`
	Name          string                 `json:"name"`
	Department    string                 `json:"department"`
	Status        models.TimetableStatus `json:"status"`
	GenerationLog string                 `json:"generation_log,omitempty"`
	SolverStats   *models.SolverStats    `json:"solver_stats,omitempty"`
	Slots         []models.ScheduledSlot `json:"scheduled_slots,omitempty"`
}

// AsyncGenerateResponse acknowledges a queued run.
type AsyncGenerateResponse struct {
	TimetableID string                 `json:"timetable_id"`
	Status      models.TimetableStatus `json:"status"`
}

// TimetableResponse is the stored timetable record without its slots.
type TimetableResponse struct {
	TimetableID   string                 `json:"timetable_id"`
	Name          string                 `json:"name"`
	Department    string                 `json:"department"`
	Status        models.TimetableStatus `json:"status"`
	GenerationLog string                 `json:"generation_log,omitempty"`
	SolverStats   *models.SolverStats    `json:"solver_stats,omitempty"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

// TimetableSlotsResponse lists the scheduled slots of one timetable.
type TimetableSlotsResponse struct {
	TimetableID string                 `json:"timetable_id"`
	Slots       []models.ScheduledSlot `json:"scheduled_slots"`
}
