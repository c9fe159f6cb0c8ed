package scheduler

import (
	"fmt"
	"strings"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// candidate is one (day, start-slot, classroom) choice for a session
// variable. Room indexes Problem.Classrooms.
type candidate struct {
	Day  int
	Slot int
	Room int
}

// sessionVar is one weekly occurrence that must be placed on the grid.
// Grouped assignments share a variable, so group cohesion holds by
// construction: every member lands on the variable's single placement.
type sessionVar struct {
	Members  []int // assignment indices into Problem.Assignments
	Course   int   // course index
	Session  int   // session index within the week (0-based)
	Span     int
	PrevVar  int // previous session of the same assignment group, -1 if first
	Teachers []int
	Sections []int
	Domain   []candidate
}

// Model holds the arena of session variables plus the entity index maps the
// search needs. Variables and domains are flat slices addressed by integer
// handles so backtracking never rewires pointers.
type Model struct {
	Problem *Problem
	Vars    []sessionVar

	courseIdx  map[string]int
	teacherIdx map[string]int
	sectionIdx map[string]int
}

// Course returns the course behind a variable.
func (m *Model) Course(v int) *models.Course {
	return &m.Problem.Courses[m.Vars[v].Course]
}

// BuildModel expands assignments into session variables and computes each
// variable's domain. Teacher availability, days off, room compatibility,
// capacity and forbidden time pairs are pruned here, before search, so an
// unsatisfiable assignment surfaces as a ModelError rather than a late
// infeasibility.
func BuildModel(p *Problem) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		Problem:    p,
		courseIdx:  make(map[string]int, len(p.Courses)),
		teacherIdx: make(map[string]int, len(p.Teachers)),
		sectionIdx: make(map[string]int, len(p.Sections)),
	}
	for i := range p.Courses {
		m.courseIdx[p.Courses[i].ID] = i
	}
	for i := range p.Teachers {
		m.teacherIdx[p.Teachers[i].ID] = i
	}
	for i := range p.Sections {
		m.sectionIdx[p.Sections[i].ID] = i
	}

	groups, order := groupAssignments(p.Assignments)
	for _, key := range order {
		members := groups[key]
		if err := m.buildGroupVars(members); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// groupAssignments buckets assignment indices by group id, keeping input
// order for determinism. Ungrouped assignments form singleton buckets.
func groupAssignments(assignments []models.Assignment) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, a := range assignments {
		key := a.GroupID
		if key == "" {
			key = "~solo:" + a.ID
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return groups, order
}

func (m *Model) buildGroupVars(members []int) error {
	p := m.Problem
	lead := p.Assignments[members[0]]
	course := p.Courses[m.courseIdx[lead.CourseID]]
	span, err := SpanForDuration(course.DurationMinutes)
	if err != nil {
		return &ModelError{AssignmentID: lead.ID, Reason: err.Error()}
	}

	var teacherIdxs, sectionIdxs []int
	strength := 0
	for _, ai := range members {
		a := p.Assignments[ai]
		other := p.Courses[m.courseIdx[a.CourseID]]
		if other.DurationMinutes != course.DurationMinutes || other.SessionsPerWeek != course.SessionsPerWeek ||
			other.RoomType != course.RoomType || other.CourseType != course.CourseType {
			return &ModelError{
				AssignmentID: a.ID,
				Reason:       fmt.Sprintf("group %s mixes incompatible courses (%s vs %s)", a.GroupID, other.Name, course.Name),
			}
		}
		teacherIdxs = appendUnique(teacherIdxs, m.teacherIdx[a.TeacherID])
		si := m.sectionIdx[a.SectionID]
		sectionIdxs = appendUnique(sectionIdxs, si)
		strength += p.Sections[si].Strength
	}

	// A single session longer than the cap can never be placed.
	for _, ti := range teacherIdxs {
		t := &p.Teachers[ti]
		if t.MaxHoursPerDay > 0 && course.DurationMinutes > t.MaxHoursPerDay*60 {
			return &ModelError{
				AssignmentID: lead.ID,
				Reason:       fmt.Sprintf("course %s (%d min) exceeds teacher %s daily cap of %d hours", course.Name, course.DurationMinutes, t.Name, t.MaxHoursPerDay),
			}
		}
	}

	domain := m.buildDomain(course, span, teacherIdxs, strength)
	if len(domain) == 0 {
		return &ModelError{
			AssignmentID: lead.ID,
			Reason:       m.emptyDomainReason(course, span, teacherIdxs, strength),
		}
	}

	prev := -1
	for s := 0; s < course.SessionsPerWeek; s++ {
		m.Vars = append(m.Vars, sessionVar{
			Members:  members,
			Course:   m.courseIdx[lead.CourseID],
			Session:  s,
			Span:     span,
			PrevVar:  prev,
			Teachers: teacherIdxs,
			Sections: sectionIdxs,
			Domain:   domain,
		})
		prev = len(m.Vars) - 1
	}
	return nil
}

// buildDomain enumerates every candidate that passes the static hard
// constraints: grid bounds, room compatibility, capacity, teacher
// availability over the full span, and forbidden time pairs.
func (m *Model) buildDomain(course models.Course, span int, teacherIdxs []int, strength int) []candidate {
	p := m.Problem
	var domain []candidate
	for day := 0; day < NumDays; day++ {
		for slot := 0; slot+span <= SlotsPerDay; slot++ {
			if !m.teachersAvailable(teacherIdxs, day, slot, span) {
				continue
			}
			if m.forbidden(course.Name, day, slot, span) {
				continue
			}
			for room := range p.Classrooms {
				cr := &p.Classrooms[room]
				if !course.RoomType.Compatible(cr.RoomType) {
					continue
				}
				if strength > 0 && cr.Capacity < strength {
					continue
				}
				domain = append(domain, candidate{Day: day, Slot: slot, Room: room})
			}
		}
	}
	return domain
}

func (m *Model) teachersAvailable(teacherIdxs []int, day, slot, span int) bool {
	for _, ti := range teacherIdxs {
		t := &m.Problem.Teachers[ti]
		for s := slot; s < slot+span; s++ {
			if !t.Available(day, s) {
				return false
			}
		}
	}
	return true
}

// forbidden reports whether a forbidden_time_pairs rule excludes any slot the
// session would cover.
func (m *Model) forbidden(courseName string, day, slot, span int) bool {
	name := strings.ToLower(courseName)
	for _, rule := range m.Problem.Rules {
		if rule.Type != models.RuleForbiddenTimePairs || rule.ForbiddenPairs == nil {
			continue
		}
		for _, pair := range rule.ForbiddenPairs.Pairs {
			if pair.Day != day || pair.Slot < slot || pair.Slot >= slot+span {
				continue
			}
			if strings.Contains(name, strings.ToLower(pair.CoursePattern)) {
				return true
			}
		}
	}
	return false
}

// emptyDomainReason picks the most useful explanation for a variable whose
// domain came up empty.
func (m *Model) emptyDomainReason(course models.Course, span int, teacherIdxs []int, strength int) string {
	p := m.Problem

	hasRoom := false
	for i := range p.Classrooms {
		if course.RoomType.Compatible(p.Classrooms[i].RoomType) {
			hasRoom = true
			if strength > 0 && p.Classrooms[i].Capacity < strength {
				hasRoom = false
				continue
			}
			break
		}
	}
	if !hasRoom {
		if strength > 0 {
			return fmt.Sprintf("no %s classroom can seat %d students for course %s", course.RoomType, strength, course.Name)
		}
		return fmt.Sprintf("no classroom of type %s exists for course %s", course.RoomType, course.Name)
	}

	for day := 0; day < NumDays; day++ {
		for slot := 0; slot+span <= SlotsPerDay; slot++ {
			if m.teachersAvailable(teacherIdxs, day, slot, span) {
				return fmt.Sprintf("every feasible time for course %s is excluded by forbidden time pairs", course.Name)
			}
		}
	}
	names := make([]string, 0, len(teacherIdxs))
	for _, ti := range teacherIdxs {
		names = append(names, p.Teachers[ti].Name)
	}
	return fmt.Sprintf("teacher availability leaves no slot for course %s (teachers: %s)", course.Name, strings.Join(names, ", "))
}

func appendUnique(list []int, v int) []int {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
