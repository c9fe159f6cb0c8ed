package coordinator

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
)

// UtilizationReport computes per-classroom and per-teacher occupancy over
// the full weekly grid, with mean and standard deviation of the classroom
// rates.
func (c *Coordinator) UtilizationReport() UtilizationReport {
	snap := c.snapshot(nil)

	totalSlots := scheduler.NumDays * scheduler.SlotsPerDay

	roomUsed := make(map[string]int)
	for _, gs := range snap.slots {
		roomUsed[gs.ClassroomID]++
	}

	type teacherKey struct{ name, dept string }
	teacherUsed := make(map[teacherKey]int)
	deptCounts := make(map[string]int)
	for dept, slots := range snap.originals {
		for _, slot := range slots {
			deptCounts[dept] += spanOf(slot)
			if slot.TeacherName != "" {
				teacherUsed[teacherKey{slot.TeacherName, dept}] += spanOf(slot)
			}
		}
	}

	roomIDs := make([]string, 0, len(snap.sharedRooms))
	for id := range snap.sharedRooms {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)

	report := UtilizationReport{GlobalSlotCounts: deptCounts}
	rates := make([]float64, 0, len(roomIDs))
	for _, id := range roomIDs {
		used := roomUsed[id]
		rate := float64(used) / float64(totalSlots)
		rates = append(rates, rate)
		report.Classrooms = append(report.Classrooms, RoomUtilization{
			ClassroomID: id,
			RoomID:      snap.sharedRooms[id].RoomID,
			UsedSlots:   used,
			TotalSlots:  totalSlots,
			Rate:        rate,
		})
	}

	teacherKeys := make([]teacherKey, 0, len(teacherUsed))
	for key := range teacherUsed {
		teacherKeys = append(teacherKeys, key)
	}
	sort.Slice(teacherKeys, func(i, j int) bool {
		if teacherKeys[i].dept != teacherKeys[j].dept {
			return teacherKeys[i].dept < teacherKeys[j].dept
		}
		return teacherKeys[i].name < teacherKeys[j].name
	})
	for _, key := range teacherKeys {
		used := teacherUsed[key]
		report.Teachers = append(report.Teachers, TeacherUtilization{
			TeacherName: key.name,
			Department:  key.dept,
			UsedSlots:   used,
			TotalSlots:  totalSlots,
			Rate:        float64(used) / float64(totalSlots),
		})
	}

	if len(rates) > 0 {
		report.MeanRoomRate = stat.Mean(rates, nil)
		if len(rates) > 1 {
			report.StddevRoomRate = stat.StdDev(rates, nil)
		}
	}
	return report
}

// ConflictsReport runs a full conflict scan plus a consistency check of the
// reservation table against registered timetables: a reservation whose
// department no longer claims the cell counts as double-booked bookkeeping.
func (c *Coordinator) ConflictsReport() ConflictsReport {
	snap := c.snapshot(nil)
	conflicts := detectConflicts(snap)

	byDept := make(map[string]int)
	for _, conflict := range conflicts {
		byDept[conflict.RequestingDepartment]++
		byDept[conflict.OccupyingDepartment]++
	}

	claimed := make(map[SlotKey]map[string]bool)
	for _, gs := range snap.slots {
		key := SlotKey{ClassroomID: gs.ClassroomID, Day: gs.DayOfWeek, Slot: gs.Slot}
		if claimed[key] == nil {
			claimed[key] = make(map[string]bool)
		}
		claimed[key][gs.Department] = true
	}

	var stale []SlotKey
	for key, held := range snap.reservations {
		if !claimed[key][held.Department] {
			stale = append(stale, key)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		a, b := stale[i], stale[j]
		if a.ClassroomID != b.ClassroomID {
			return a.ClassroomID < b.ClassroomID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Slot < b.Slot
	})

	return ConflictsReport{
		TotalConflicts:    len(conflicts),
		ByDepartment:      byDept,
		Conflicts:         conflicts,
		DoubleBookedSlots: stale,
	}
}

func spanOf(slot models.ScheduledSlot) int {
	start := scheduler.TimeToSlot(slot.StartTime)
	end := scheduler.TimeToSlotEnd(slot.EndTime)
	if start < 0 {
		return 0
	}
	if end <= start {
		return 1
	}
	return end - start
}
