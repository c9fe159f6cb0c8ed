package scheduler

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// Materialize converts a feasible solver result into ScheduledSlot records,
// one per member assignment of each session variable. Display fields are
// denormalized for downstream consumers; shared classrooms produce global
// slots tracked by the coordinator.
func Materialize(m *Model, placements []candidate, timetableID string) []models.ScheduledSlot {
	p := m.Problem
	now := time.Now().UTC()

	slots := make([]models.ScheduledSlot, 0, len(placements))
	for v, c := range placements {
		sv := &m.Vars[v]
		course := &p.Courses[sv.Course]
		room := &p.Classrooms[c.Room]

		for _, ai := range sv.Members {
			a := &p.Assignments[ai]
			section := p.Sections[m.sectionIdx[a.SectionID]]
			teacher := p.Teachers[m.teacherIdx[a.TeacherID]]

			slots = append(slots, models.ScheduledSlot{
				ID:           uuid.NewString(),
				TimetableID:  timetableID,
				AssignmentID: a.ID,
				ClassroomID:  room.ID,
				DayOfWeek:    c.Day,
				StartTime:    SlotTime(c.Slot),
				EndTime:      SessionEndTime(c.Slot, course.DurationMinutes),
				CourseName:   course.Name,
				SectionCode:  section.Code,
				TeacherName:  teacher.Name,
				RoomID:       room.RoomID,
				Department:   p.Department,
				IsGlobalSlot: room.Shared,
				CreatedAt:    now,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].SectionCode < slots[j].SectionCode
	})
	return slots
}
