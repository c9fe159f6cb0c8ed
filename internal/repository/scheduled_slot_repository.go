package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// ScheduledSlotRepository manages persistence for placed sessions.
type ScheduledSlotRepository struct {
	db *sqlx.DB
}

// NewScheduledSlotRepository constructs a new repository.
func NewScheduledSlotRepository(db *sqlx.DB) *ScheduledSlotRepository {
	return &ScheduledSlotRepository{db: db}
}

// ReplaceForTimetable atomically swaps a timetable's slots for the given
// set. Generation always writes the full result, so the old rows have no
// further use.
func (r *ScheduledSlotRepository) ReplaceForTimetable(ctx context.Context, timetableID string, slots []models.ScheduledSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_slots WHERE timetable_id = $1`, timetableID); err != nil {
		return fmt.Errorf("clear scheduled slots: %w", err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO scheduled_slots
(id, timetable_id, assignment_id, classroom_id, day_of_week, start_time, end_time,
 course_name, section_code, teacher_name, room_id, department, is_global_slot, created_at)
VALUES (:id, :timetable_id, :assignment_id, :classroom_id, :day_of_week, :start_time, :end_time,
 :course_name, :section_code, :teacher_name, :room_id, :department, :is_global_slot, :created_at)`
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.TimetableID = timetableID
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, slot); err != nil {
			return fmt.Errorf("insert scheduled slot: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot replace: %w", err)
	}
	return nil
}

// ListByTimetable returns a timetable's slots in grid order.
func (r *ScheduledSlotRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduledSlot, error) {
	var rows []models.ScheduledSlot
	query := `SELECT id, timetable_id, assignment_id, classroom_id, day_of_week, start_time, end_time,
course_name, section_code, teacher_name, room_id, department, is_global_slot, created_at
FROM scheduled_slots WHERE timetable_id = $1 ORDER BY day_of_week, start_time, section_code`
	if err := r.db.SelectContext(ctx, &rows, query, timetableID); err != nil {
		return nil, fmt.Errorf("list scheduled slots: %w", err)
	}
	return rows, nil
}

// ListGlobalByDepartments returns shared-classroom slots for the given
// departments, restricted to each department's most recently completed
// timetable. Older completed runs are superseded, not co-registered. Empty
// input means all departments.
func (r *ScheduledSlotRepository) ListGlobalByDepartments(ctx context.Context, departments []string) ([]models.ScheduledSlot, error) {
	base := `SELECT s.id, s.timetable_id, s.assignment_id, s.classroom_id, s.day_of_week, s.start_time, s.end_time,
s.course_name, s.section_code, s.teacher_name, s.room_id, s.department, s.is_global_slot, s.created_at
FROM scheduled_slots s
JOIN (
	SELECT DISTINCT ON (department) id
	FROM timetables
	WHERE status = 'completed'
	ORDER BY department, updated_at DESC
) latest ON latest.id = s.timetable_id
WHERE s.is_global_slot = TRUE`
	var rows []models.ScheduledSlot
	if len(departments) == 0 {
		if err := r.db.SelectContext(ctx, &rows, base+` ORDER BY s.day_of_week, s.start_time`); err != nil {
			return nil, fmt.Errorf("list global slots: %w", err)
		}
		return rows, nil
	}
	query, args, err := sqlx.In(base+` AND s.department IN (?) ORDER BY s.day_of_week, s.start_time`, departments)
	if err != nil {
		return nil, fmt.Errorf("list global slots: %w", err)
	}
	query = r.db.Rebind(query)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list global slots: %w", err)
	}
	return rows, nil
}
