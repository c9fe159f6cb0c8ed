package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus is the DeptTimetable lifecycle. Transitions only move
// forward: draft -> generating -> completed | failed.
type TimetableStatus string

const (
	TimetableDraft      TimetableStatus = "draft"
	TimetableGenerating TimetableStatus = "generating"
	TimetableCompleted  TimetableStatus = "completed"
	TimetableFailed     TimetableStatus = "failed"
)

// CanTransition reports whether moving to next is a legal forward step.
func (s TimetableStatus) CanTransition(next TimetableStatus) bool {
	switch s {
	case TimetableDraft:
		return next == TimetableGenerating
	case TimetableGenerating:
		return next == TimetableCompleted || next == TimetableFailed
	}
	return false
}

// DeptTimetable is one department's generation run and its outcome.
type DeptTimetable struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Department    string          `db:"department" json:"department"`
	Status        TimetableStatus `db:"status" json:"status"`
	GenerationLog string          `db:"generation_log" json:"generation_log"`
	SolverStats   types.JSONText  `db:"solver_stats" json:"solver_stats"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// SolverStats summarises one solve.
type SolverStats struct {
	Status         string  `json:"status"`
	ObjectiveValue float64 `json:"objective_value"`
	ElapsedMillis  int64   `json:"elapsed_ms"`
	Backtracks     int     `json:"backtracks"`
	Conflicts      int     `json:"conflicts"`
	Variables      int     `json:"variables"`
	NodesExplored  int     `json:"nodes_explored"`
}

// ScheduledSlot is one placed session, immutable once its timetable reaches
// completed status.
type ScheduledSlot struct {
	ID           string    `db:"id" json:"id"`
	TimetableID  string    `db:"timetable_id" json:"timetable_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CourseName   string    `db:"course_name" json:"course_name"`
	SectionCode  string    `db:"section_code" json:"section_code"`
	TeacherName  string    `db:"teacher_name" json:"teacher_name"`
	RoomID       string    `db:"room_id" json:"room_id"`
	Department   string    `db:"department" json:"department"`
	IsGlobalSlot bool      `db:"is_global_slot" json:"is_global_slot"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GlobalSlot is the coordinator's cross-department view of a ScheduledSlot
// that occupies a shared classroom.
type GlobalSlot struct {
	ClassroomID string `json:"classroom_id"`
	RoomID      string `json:"room_id"`
	DayOfWeek   int    `json:"day_of_week"`
	Slot        int    `json:"slot"`
	Department  string `json:"department"`
	TimetableID string `json:"timetable_id"`
}
