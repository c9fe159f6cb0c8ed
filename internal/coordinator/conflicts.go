package coordinator

import (
	"sort"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
)

// detectConflicts is a pure function over a snapshot: it reports every
// shared classroom-slot cell claimed by more than one department. The
// department holding the reservation (or, absent one, the first in sorted
// order) counts as the occupant; everyone else is a requester.
func detectConflicts(snap stateSnapshot) []Conflict {
	occupants := make(map[SlotKey][]string)
	for _, gs := range snap.slots {
		key := SlotKey{ClassroomID: gs.ClassroomID, Day: gs.DayOfWeek, Slot: gs.Slot}
		occupants[key] = appendUnique(occupants[key], gs.Department)
	}

	keys := make([]SlotKey, 0, len(occupants))
	for key, depts := range occupants {
		if len(depts) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ClassroomID != b.ClassroomID {
			return a.ClassroomID < b.ClassroomID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Slot < b.Slot
	})

	var conflicts []Conflict
	for _, key := range keys {
		depts := occupants[key]
		sort.Strings(depts)

		holder := depts[0]
		if held, ok := snap.reservations[key]; ok {
			holder = held.Department
		}
		roomID := key.ClassroomID
		if room, ok := snap.sharedRooms[key.ClassroomID]; ok {
			roomID = room.RoomID
		}
		for _, dept := range depts {
			if dept == holder {
				continue
			}
			conflict := Conflict{
				Key:                  key,
				RoomID:               roomID,
				RequestingDepartment: dept,
				OccupyingDepartment:  holder,
			}
			if slot := findScheduledSlot(snap.originals[dept], key); slot != nil {
				conflict.CourseName = slot.CourseName
				conflict.SectionCode = slot.SectionCode
			}
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts
}

// findScheduledSlot locates the scheduled slot of a department that covers
// the given cell, if any.
func findScheduledSlot(slots []models.ScheduledSlot, key SlotKey) *models.ScheduledSlot {
	for i := range slots {
		slot := &slots[i]
		if slot.ClassroomID != key.ClassroomID || slot.DayOfWeek != key.Day {
			continue
		}
		start := scheduler.TimeToSlot(slot.StartTime)
		end := scheduler.TimeToSlotEnd(slot.EndTime)
		if start < 0 {
			continue
		}
		if end <= start {
			end = start + 1
		}
		if key.Slot >= start && key.Slot < end {
			return slot
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
