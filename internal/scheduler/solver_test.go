package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

func availabilityGrid(open bool) [][]bool {
	grid := make([][]bool, NumDays)
	for d := range grid {
		grid[d] = make([]bool, SlotsPerDay)
		for s := range grid[d] {
			grid[d][s] = open
		}
	}
	return grid
}

func baseProblem() *Problem {
	return &Problem{
		Department: "cs",
		Sections: []models.Section{
			{ID: "sec-a", Code: "CS-A", Department: "cs", Strength: 40},
			{ID: "sec-b", Code: "CS-B", Department: "cs", Strength: 35},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Name: "Rao", MaxHoursPerDay: 6},
			{ID: "t-2", Name: "Iyer", MaxHoursPerDay: 6},
		},
		Courses: []models.Course{
			{ID: "c-alg", Name: "Algorithms", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 2, RoomType: models.RoomLecture},
			{ID: "c-db", Name: "Databases", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 1, RoomType: models.RoomLecture},
			{ID: "c-os", Name: "Operating Systems Lab", CourseType: models.CourseLab, DurationMinutes: 110, SessionsPerWeek: 1, RoomType: models.RoomLab},
		},
		Classrooms: []models.Classroom{
			{ID: "r-101", RoomID: "R101", RoomType: models.RoomLecture, Capacity: 60, Department: "cs"},
			{ID: "r-lab", RoomID: "LAB1", RoomType: models.RoomComputerLab, Capacity: 45, Department: "cs"},
		},
		Assignments: []models.Assignment{
			{ID: "a-1", CourseID: "c-alg", SectionID: "sec-a", TeacherID: "t-1"},
			{ID: "a-2", CourseID: "c-db", SectionID: "sec-b", TeacherID: "t-2"},
			{ID: "a-3", CourseID: "c-os", SectionID: "sec-a", TeacherID: "t-2"},
		},
	}
}

func solve(t *testing.T, p *Problem) (*Model, *Result) {
	t.Helper()
	m, err := BuildModel(p)
	require.NoError(t, err)
	solver := NewSolver(m, NewEvaluator(m), 10*time.Second, zap.NewNop())
	return m, solver.Solve(context.Background())
}

func assertNoOverlaps(t *testing.T, m *Model, placements []candidate) {
	t.Helper()
	teacherAt := map[[3]int]bool{}
	sectionAt := map[[3]int]bool{}
	roomAt := map[[3]int]bool{}
	for v, c := range placements {
		sv := &m.Vars[v]
		for s := c.Slot; s < c.Slot+sv.Span; s++ {
			for _, ti := range sv.Teachers {
				key := [3]int{ti, c.Day, s}
				assert.False(t, teacherAt[key], "teacher %d double-booked on day %d slot %d", ti, c.Day, s)
				teacherAt[key] = true
			}
			for _, si := range sv.Sections {
				key := [3]int{si, c.Day, s}
				assert.False(t, sectionAt[key], "section %d double-booked on day %d slot %d", si, c.Day, s)
				sectionAt[key] = true
			}
			key := [3]int{c.Room, c.Day, s}
			assert.False(t, roomAt[key], "room %d double-booked on day %d slot %d", c.Room, c.Day, s)
			roomAt[key] = true
		}
	}
}

func TestSolveBasicProblem(t *testing.T) {
	m, result := solve(t, baseProblem())

	require.Equal(t, StatusFeasible, result.Status)
	require.True(t, result.Feasible())
	// Algorithms twice, Databases once, OS Lab once.
	require.Len(t, result.Placements, 4)
	assertNoOverlaps(t, m, result.Placements)

	slots := Materialize(m, result.Placements, "tt-1")
	require.Len(t, slots, 4)
	for _, slot := range slots {
		assert.Equal(t, "tt-1", slot.TimetableID)
		assert.Equal(t, "cs", slot.Department)
		assert.NotEmpty(t, slot.ID)
		assert.Greater(t, TimeToSlot(slot.StartTime), -1)
	}
}

func TestSolveEverySessionScheduledOnce(t *testing.T) {
	p := baseProblem()
	m, result := solve(t, p)
	require.Equal(t, StatusFeasible, result.Status)

	perAssignment := map[string]int{}
	for _, slot := range Materialize(m, result.Placements, "tt-1") {
		perAssignment[slot.AssignmentID]++
	}
	assert.Equal(t, 2, perAssignment["a-1"])
	assert.Equal(t, 1, perAssignment["a-2"])
	assert.Equal(t, 1, perAssignment["a-3"])
}

func TestSolveDeterministic(t *testing.T) {
	_, first := solve(t, baseProblem())
	_, second := solve(t, baseProblem())
	require.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, first.Objective, second.Objective)
}

func TestSolveInfeasibleSharedTeacher(t *testing.T) {
	// One teacher whose only open slot must serve two sections at once.
	grid := availabilityGrid(false)
	grid[0][0] = true
	p := &Problem{
		Department: "cs",
		Sections: []models.Section{
			{ID: "sec-a", Code: "CS-A", Department: "cs"},
			{ID: "sec-b", Code: "CS-B", Department: "cs"},
		},
		Teachers: []models.Teacher{{ID: "t-1", Name: "Rao", Availability: grid}},
		Courses: []models.Course{
			{ID: "c-1", Name: "Algebra", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 1, RoomType: models.RoomLecture},
			{ID: "c-2", Name: "Geometry", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 1, RoomType: models.RoomLecture},
		},
		Classrooms: []models.Classroom{
			{ID: "r-1", RoomID: "R1", RoomType: models.RoomLecture, Capacity: 60},
			{ID: "r-2", RoomID: "R2", RoomType: models.RoomLecture, Capacity: 60},
		},
		Assignments: []models.Assignment{
			{ID: "a-1", CourseID: "c-1", SectionID: "sec-a", TeacherID: "t-1"},
			{ID: "a-2", CourseID: "c-2", SectionID: "sec-b", TeacherID: "t-1"},
		},
	}

	_, result := solve(t, p)
	require.Equal(t, StatusInfeasible, result.Status)
	assert.False(t, result.Feasible())
	assert.Equal(t, "teacher double-booking", result.BlockedBy)
}

func TestSolveGroupCohesion(t *testing.T) {
	p := baseProblem()
	p.Assignments = []models.Assignment{
		{ID: "a-1", CourseID: "c-db", SectionID: "sec-a", TeacherID: "t-1", GroupID: "g-1"},
		{ID: "a-2", CourseID: "c-db", SectionID: "sec-b", TeacherID: "t-1", GroupID: "g-1"},
	}
	p.Classrooms[0].Capacity = 100 // must seat both sections together

	m, result := solve(t, p)
	require.Equal(t, StatusFeasible, result.Status)

	slots := Materialize(m, result.Placements, "tt-1")
	require.Len(t, slots, 2)
	assert.Equal(t, slots[0].DayOfWeek, slots[1].DayOfWeek)
	assert.Equal(t, slots[0].StartTime, slots[1].StartTime)
	assert.Equal(t, slots[0].ClassroomID, slots[1].ClassroomID)
	assert.NotEqual(t, slots[0].SectionCode, slots[1].SectionCode)
}

func TestSolveDailyLoadCapSpreadsSessions(t *testing.T) {
	p := baseProblem()
	p.Teachers = []models.Teacher{{ID: "t-1", Name: "Rao", MaxHoursPerDay: 1}}
	p.Courses = []models.Course{
		{ID: "c-alg", Name: "Algorithms", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 3, RoomType: models.RoomLecture},
	}
	p.Assignments = []models.Assignment{
		{ID: "a-1", CourseID: "c-alg", SectionID: "sec-a", TeacherID: "t-1"},
	}

	_, result := solve(t, p)
	require.Equal(t, StatusFeasible, result.Status)

	days := map[int]int{}
	for _, c := range result.Placements {
		days[c.Day]++
	}
	for day, count := range days {
		assert.Equal(t, 1, count, "more than one 55-minute session on day %d under a 1-hour cap", day)
	}
}

func TestSolveForbiddenTimePairs(t *testing.T) {
	p := baseProblem()
	pairs := make([]models.ForbiddenTimePair, 0, SlotsPerDay)
	for s := 0; s < SlotsPerDay; s++ {
		pairs = append(pairs, models.ForbiddenTimePair{CoursePattern: "algo", Day: 0, Slot: s})
	}
	p.Rules = []models.Rule{{
		ID:             "rule-1",
		Name:           "no monday algorithms",
		Type:           models.RuleForbiddenTimePairs,
		ForbiddenPairs: &models.ForbiddenTimePairsRule{Pairs: pairs},
	}}

	m, result := solve(t, p)
	require.Equal(t, StatusFeasible, result.Status)
	for _, slot := range Materialize(m, result.Placements, "tt-1") {
		if slot.CourseName == "Algorithms" {
			assert.NotEqual(t, 0, slot.DayOfWeek, "Algorithms scheduled on an excluded day")
		}
	}
}

func TestSolveLunchWindowAvoided(t *testing.T) {
	p := baseProblem()
	p.Courses = p.Courses[:2]
	p.Assignments = p.Assignments[:2]
	p.Rules = []models.Rule{{
		ID:          "rule-lunch",
		Name:        "protect lunch",
		Type:        models.RuleLunchWindow,
		LunchWindow: &models.LunchWindowRule{StartSlot: 3, EndSlot: 5, Penalty: 10},
	}}

	_, result := solve(t, p)
	require.Equal(t, StatusFeasible, result.Status)
	assert.Equal(t, 0.0, result.Objective)
	for _, c := range result.Placements {
		assert.NotContains(t, []int{3, 4}, c.Slot, "session overlaps the lunch window despite free alternatives")
		assert.NotEqual(t, 0, c.Slot, "edge slot chosen despite free alternatives")
	}
}

func TestSolveConstantObjectiveWithoutRules(t *testing.T) {
	m, result := solve(t, baseProblem())
	require.Equal(t, StatusFeasible, result.Status)
	assert.Zero(t, result.Objective)
	assert.NotNil(t, m)
}

func TestSolveRespectsContextCancel(t *testing.T) {
	p := baseProblem()
	m, err := BuildModel(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	solver := NewSolver(m, NewEvaluator(m), 10*time.Second, zap.NewNop())
	result := solver.Solve(ctx)
	// A cancelled context may still allow a tiny search to finish; the run
	// must end in a terminal state either way.
	assert.Contains(t, []Status{StatusFeasible, StatusTimedOut}, result.Status)
}
