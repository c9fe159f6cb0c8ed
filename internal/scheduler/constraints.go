package scheduler

import "github.com/Shourya-pant/timetable-scheduler/internal/models"

// rejectionStats counts candidate rejections by hard-constraint class. The
// dominant class is reported when a run ends infeasible.
type rejectionStats struct {
	TeacherBusy int
	SectionBusy int
	RoomBusy    int
	LoadCap     int
	Ordering    int
}

// Dominant names the constraint class that blocked the most candidates.
func (r rejectionStats) Dominant() string {
	best, name := r.TeacherBusy, "teacher double-booking"
	if r.SectionBusy > best {
		best, name = r.SectionBusy, "section double-booking"
	}
	if r.RoomBusy > best {
		best, name = r.RoomBusy, "classroom double-booking"
	}
	if r.LoadCap > best {
		best, name = r.LoadCap, "teacher daily load cap"
	}
	if best == 0 {
		return "teacher availability"
	}
	return name
}

// searchState tracks resource occupancy during search. All structures are
// flat slices indexed by entity handles; undoing a placement is symmetric
// subtraction, never structural mutation.
type searchState struct {
	model *Model

	teacherBusy    [][]bool // [teacher][day*SlotsPerDay+slot]
	sectionBusy    [][]bool
	roomBusy       [][]bool
	teacherMinutes [][]int // [teacher][day]
	lectureCount   [][]int // [section][day], lecture-type sessions only

	placements []int // per variable: index into its domain, -1 if unplaced
	rejects    rejectionStats
}

func newSearchState(m *Model) *searchState {
	p := m.Problem
	st := &searchState{
		model:          m,
		teacherBusy:    makeBoolGrid(len(p.Teachers)),
		sectionBusy:    makeBoolGrid(len(p.Sections)),
		roomBusy:       makeBoolGrid(len(p.Classrooms)),
		teacherMinutes: makeIntGrid(len(p.Teachers), NumDays),
		lectureCount:   makeIntGrid(len(p.Sections), NumDays),
		placements:     make([]int, len(m.Vars)),
	}
	for i := range st.placements {
		st.placements[i] = -1
	}
	return st
}

func makeBoolGrid(n int) [][]bool {
	grid := make([][]bool, n)
	for i := range grid {
		grid[i] = make([]bool, NumDays*SlotsPerDay)
	}
	return grid
}

func makeIntGrid(n, m int) [][]int {
	grid := make([][]int, n)
	for i := range grid {
		grid[i] = make([]int, m)
	}
	return grid
}

// canPlace checks the dynamic hard constraints for assigning candidate c to
// variable v: no teacher/section/room overlap, the daily minute cap, and the
// sibling-session ordering that breaks permutation symmetry.
func (st *searchState) canPlace(v int, c candidate) bool {
	sv := &st.model.Vars[v]
	course := st.model.Course(v)

	for s := c.Slot; s < c.Slot+sv.Span; s++ {
		at := c.Day*SlotsPerDay + s
		for _, ti := range sv.Teachers {
			if st.teacherBusy[ti][at] {
				st.rejects.TeacherBusy++
				return false
			}
		}
		for _, si := range sv.Sections {
			if st.sectionBusy[si][at] {
				st.rejects.SectionBusy++
				return false
			}
		}
		if st.roomBusy[c.Room][at] {
			st.rejects.RoomBusy++
			return false
		}
	}

	for _, ti := range sv.Teachers {
		t := &st.model.Problem.Teachers[ti]
		if t.MaxHoursPerDay > 0 && st.teacherMinutes[ti][c.Day]+course.DurationMinutes > t.MaxHoursPerDay*60 {
			st.rejects.LoadCap++
			return false
		}
	}

	// Sessions of one assignment group are placed in increasing (day, slot)
	// order so permutations of the same weekly pattern are searched once.
	if sv.PrevVar >= 0 && st.placements[sv.PrevVar] >= 0 {
		prev := st.model.Vars[sv.PrevVar].Domain[st.placements[sv.PrevVar]]
		if !lessCandidate(prev, c) {
			st.rejects.Ordering++
			return false
		}
	}
	if next := v + 1; next < len(st.model.Vars) && st.model.Vars[next].PrevVar == v && st.placements[next] >= 0 {
		nc := st.model.Vars[next].Domain[st.placements[next]]
		if !lessCandidate(c, nc) {
			st.rejects.Ordering++
			return false
		}
	}
	return true
}

func lessCandidate(a, b candidate) bool {
	if a.Day != b.Day {
		return a.Day < b.Day
	}
	return a.Slot < b.Slot
}

// place commits candidate ci for variable v. Caller must have verified
// canPlace.
func (st *searchState) place(v, ci int) {
	sv := &st.model.Vars[v]
	c := sv.Domain[ci]
	course := st.model.Course(v)

	for s := c.Slot; s < c.Slot+sv.Span; s++ {
		at := c.Day*SlotsPerDay + s
		for _, ti := range sv.Teachers {
			st.teacherBusy[ti][at] = true
		}
		for _, si := range sv.Sections {
			st.sectionBusy[si][at] = true
		}
		st.roomBusy[c.Room][at] = true
	}
	for _, ti := range sv.Teachers {
		st.teacherMinutes[ti][c.Day] += course.DurationMinutes
	}
	if course.CourseType == models.CourseLecture {
		for _, si := range sv.Sections {
			st.lectureCount[si][c.Day]++
		}
	}
	st.placements[v] = ci
}

// unplace reverses place.
func (st *searchState) unplace(v int) {
	sv := &st.model.Vars[v]
	c := sv.Domain[st.placements[v]]
	course := st.model.Course(v)

	for s := c.Slot; s < c.Slot+sv.Span; s++ {
		at := c.Day*SlotsPerDay + s
		for _, ti := range sv.Teachers {
			st.teacherBusy[ti][at] = false
		}
		for _, si := range sv.Sections {
			st.sectionBusy[si][at] = false
		}
		st.roomBusy[c.Room][at] = false
	}
	for _, ti := range sv.Teachers {
		st.teacherMinutes[ti][c.Day] -= course.DurationMinutes
	}
	if course.CourseType == models.CourseLecture {
		for _, si := range sv.Sections {
			st.lectureCount[si][c.Day]--
		}
	}
	st.placements[v] = -1
}
