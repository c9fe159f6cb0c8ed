package coordinator

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
)

// registration is one department's latest completed timetable, reduced to
// its shared-classroom occupancy.
type registration struct {
	timetableID string
	slots       []models.GlobalSlot
	originals   []models.ScheduledSlot
}

// Coordinator arbitrates shared classroom usage across departments. The
// reservation table is the only mutable state shared between department
// runs; every mutation happens under the mutex with compare-and-set
// semantics, and conflict detection works on a snapshot so it never holds
// the lock while scanning.
type Coordinator struct {
	mu           sync.RWMutex
	reservations map[SlotKey]Reservation
	sharedRooms  map[string]models.Classroom
	departments  map[string]*registration
	logger       *zap.Logger
}

// New returns an empty coordinator.
func New(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		reservations: make(map[SlotKey]Reservation),
		sharedRooms:  make(map[string]models.Classroom),
		departments:  make(map[string]*registration),
		logger:       logger,
	}
}

// Initialize loads the shared classroom inventory, dropping prior state.
func (c *Coordinator) Initialize(shared []models.Classroom) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reservations = make(map[SlotKey]Reservation)
	c.sharedRooms = make(map[string]models.Classroom, len(shared))
	c.departments = make(map[string]*registration)
	for _, room := range shared {
		c.sharedRooms[room.ID] = room
	}
	c.logger.Info("global scheduler initialized", zap.Int("shared_classrooms", len(shared)))
}

// RegisterTimetable records a department's completed timetable for
// cross-department bookkeeping. Only slots in shared classrooms are tracked.
// Re-registering a department replaces its previous timetable and drops its
// reservations.
func (c *Coordinator) RegisterTimetable(department, timetableID string, slots []models.ScheduledSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked(department, "")

	reg := &registration{timetableID: timetableID}
	for _, slot := range slots {
		if !slot.IsGlobalSlot {
			continue
		}
		reg.originals = append(reg.originals, slot)
		for _, key := range expandKeys(slot) {
			room := ""
			if r, ok := c.sharedRooms[slot.ClassroomID]; ok {
				room = r.RoomID
			} else {
				room = slot.RoomID
			}
			reg.slots = append(reg.slots, models.GlobalSlot{
				ClassroomID: key.ClassroomID,
				RoomID:      room,
				DayOfWeek:   key.Day,
				Slot:        key.Slot,
				Department:  department,
				TimetableID: timetableID,
			})
		}
	}
	c.departments[department] = reg
	c.logger.Info("timetable registered",
		zap.String("department", department),
		zap.String("timetable_id", timetableID),
		zap.Int("global_slots", len(reg.slots)),
	)
}

// expandKeys converts one ScheduledSlot into a key per occupied grid slot.
// End times are exclusive, so a span reaching the day boundary still covers
// its last slot.
func expandKeys(slot models.ScheduledSlot) []SlotKey {
	start := scheduler.TimeToSlot(slot.StartTime)
	end := scheduler.TimeToSlotEnd(slot.EndTime)
	if start < 0 {
		return nil
	}
	if end <= start {
		end = start + 1
	}
	keys := make([]SlotKey, 0, end-start)
	for s := start; s < end; s++ {
		keys = append(keys, SlotKey{ClassroomID: slot.ClassroomID, Day: slot.DayOfWeek, Slot: s})
	}
	return keys
}

// ReserveSlots atomically claims the shared classroom-slot cells behind the
// given scheduled slot IDs. The claim is all-or-nothing: on any collision
// nothing is reserved and the colliding department/slot is returned.
func (c *Coordinator) ReserveSlots(department, timetableID string, slotIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.departments[department]
	if !ok || reg.timetableID != timetableID {
		return &UnknownTimetableError{Department: department, TimetableID: timetableID}
	}

	wanted := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		wanted[id] = true
	}

	var keys []SlotKey
	for _, slot := range reg.originals {
		if !wanted[slot.ID] {
			continue
		}
		keys = append(keys, expandKeys(slot)...)
	}

	// Validate every key before touching the table.
	for _, key := range keys {
		if held, exists := c.reservations[key]; exists && held.Department != department {
			return &ReservationConflictError{
				Key:                  key,
				RequestingDepartment: department,
				OccupyingDepartment:  held.Department,
			}
		}
	}
	for _, key := range keys {
		c.reservations[key] = Reservation{Department: department, TimetableID: timetableID}
	}
	c.logger.Info("slots reserved",
		zap.String("department", department),
		zap.String("timetable_id", timetableID),
		zap.Int("keys", len(keys)),
	)
	return nil
}

// ReleaseSlots drops every reservation the department/timetable holds and
// returns how many were released.
func (c *Coordinator) ReleaseSlots(department, timetableID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked(department, timetableID)
}

func (c *Coordinator) releaseLocked(department, timetableID string) int {
	released := 0
	for key, held := range c.reservations {
		if held.Department != department {
			continue
		}
		if timetableID != "" && held.TimetableID != timetableID {
			continue
		}
		delete(c.reservations, key)
		released++
	}
	return released
}

// DetectConflicts scans the given departments (all when empty) for
// shared-classroom overlaps not covered by a reservation. The scan runs over
// a snapshot, so the reservation table is not held for the duration.
func (c *Coordinator) DetectConflicts(departments ...string) []Conflict {
	snapshot := c.snapshot(departments)
	return detectConflicts(snapshot)
}

// SynchronizeDepartments re-validates and re-reserves slots for the given
// departments in order. Reservations already held by departments outside the
// set stay untouched. A department whose slots collide keeps none of its new
// reservations and is reported as failed; nothing is rescheduled or deleted
// on its behalf.
func (c *Coordinator) SynchronizeDepartments(departments []string) SyncResult {
	before := len(c.DetectConflicts(departments...))

	c.mu.Lock()
	result := SyncResult{}
	for _, dept := range departments {
		reg, ok := c.departments[dept]
		if !ok {
			result.Failed = append(result.Failed, dept)
			continue
		}
		c.releaseLocked(dept, "")

		collision := false
		for _, gs := range reg.slots {
			key := SlotKey{ClassroomID: gs.ClassroomID, Day: gs.DayOfWeek, Slot: gs.Slot}
			if held, exists := c.reservations[key]; exists && held.Department != dept {
				collision = true
				break
			}
		}
		if collision {
			result.Failed = append(result.Failed, dept)
			continue
		}
		for _, gs := range reg.slots {
			key := SlotKey{ClassroomID: gs.ClassroomID, Day: gs.DayOfWeek, Slot: gs.Slot}
			c.reservations[key] = Reservation{Department: dept, TimetableID: reg.timetableID}
		}
		result.Synchronized = append(result.Synchronized, dept)
	}
	c.mu.Unlock()

	remaining := c.DetectConflicts(departments...)
	result.Conflicts = remaining
	if resolved := before - len(remaining); resolved > 0 {
		result.ConflictsResolved = resolved
	}
	c.logger.Info("departments synchronized",
		zap.Strings("synchronized", result.Synchronized),
		zap.Strings("failed", result.Failed),
		zap.Int("conflicts_resolved", result.ConflictsResolved),
	)
	return result
}

// SharedResources returns the availability of shared classrooms over a slot
// window, optionally filtered by room type.
func (c *Coordinator) SharedResources(day, startSlot, endSlot int, roomType models.RoomType) []ResourceView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if endSlot <= startSlot {
		endSlot = startSlot + 1
	}

	ids := make([]string, 0, len(c.sharedRooms))
	for id := range c.sharedRooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]ResourceView, 0, len(ids))
	for _, id := range ids {
		room := c.sharedRooms[id]
		if roomType != "" && room.RoomType != roomType {
			continue
		}
		view := ResourceView{Classroom: room, Available: true}
		for s := startSlot; s < endSlot; s++ {
			if held, ok := c.reservations[SlotKey{ClassroomID: id, Day: day, Slot: s}]; ok {
				view.Available = false
				view.HeldBy = held.Department
				break
			}
		}
		views = append(views, view)
	}
	return views
}

// snapshot copies the state conflict detection and reporting need.
type stateSnapshot struct {
	slots        []models.GlobalSlot
	reservations map[SlotKey]Reservation
	sharedRooms  map[string]models.Classroom
	originals    map[string][]models.ScheduledSlot
}

func (c *Coordinator) snapshot(departments []string) stateSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	include := func(dept string) bool {
		if len(departments) == 0 {
			return true
		}
		for _, d := range departments {
			if d == dept {
				return true
			}
		}
		return false
	}

	snap := stateSnapshot{
		reservations: make(map[SlotKey]Reservation, len(c.reservations)),
		sharedRooms:  make(map[string]models.Classroom, len(c.sharedRooms)),
		originals:    make(map[string][]models.ScheduledSlot),
	}
	for k, v := range c.reservations {
		snap.reservations[k] = v
	}
	for k, v := range c.sharedRooms {
		snap.sharedRooms[k] = v
	}

	depts := make([]string, 0, len(c.departments))
	for dept := range c.departments {
		depts = append(depts, dept)
	}
	sort.Strings(depts)
	for _, dept := range depts {
		if !include(dept) {
			continue
		}
		reg := c.departments[dept]
		snap.slots = append(snap.slots, reg.slots...)
		snap.originals[dept] = append([]models.ScheduledSlot(nil), reg.originals...)
	}
	return snap
}

// UnknownTimetableError signals a reserve call against an unregistered
// department/timetable pair.
type UnknownTimetableError struct {
	Department  string
	TimetableID string
}

func (e *UnknownTimetableError) Error() string {
	return "no registered timetable " + e.TimetableID + " for department " + e.Department
}
