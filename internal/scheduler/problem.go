package scheduler

import (
	"fmt"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// Problem is the validated input for one department's generation run.
type Problem struct {
	Department string
	Sections   []models.Section
	Teachers   []models.Teacher
	Courses    []models.Course
	Classrooms []models.Classroom
	Assignments []models.Assignment
	Rules       []models.Rule
}

// ModelError reports an input that can never produce a feasible schedule. It
// is raised before search starts so callers can distinguish bad data from
// genuine infeasibility.
type ModelError struct {
	AssignmentID string
	Reason       string
}

func (e *ModelError) Error() string {
	if e.AssignmentID == "" {
		return e.Reason
	}
	return fmt.Sprintf("assignment %s: %s", e.AssignmentID, e.Reason)
}

// Validate checks that the entity collections are present and referentially
// consistent.
func (p *Problem) Validate() error {
	if len(p.Assignments) == 0 {
		return &ModelError{Reason: "no assignments found for scheduling"}
	}
	if len(p.Teachers) == 0 {
		return &ModelError{Reason: "no teachers found for scheduling"}
	}
	if len(p.Courses) == 0 {
		return &ModelError{Reason: "no courses found for scheduling"}
	}
	if len(p.Classrooms) == 0 {
		return &ModelError{Reason: "no classrooms found for scheduling"}
	}
	if len(p.Sections) == 0 {
		return &ModelError{Reason: "no sections found for scheduling"}
	}

	courses := make(map[string]*models.Course, len(p.Courses))
	for i := range p.Courses {
		c := &p.Courses[i]
		if _, err := SpanForDuration(c.DurationMinutes); err != nil {
			return &ModelError{Reason: fmt.Sprintf("course %s: %v", c.Name, err)}
		}
		if c.SessionsPerWeek < 1 || c.SessionsPerWeek > NumDays {
			return &ModelError{Reason: fmt.Sprintf("course %s: sessions_per_week %d outside 1-%d", c.Name, c.SessionsPerWeek, NumDays)}
		}
		if !c.RoomType.Valid() {
			return &ModelError{Reason: fmt.Sprintf("course %s: unknown room type %q", c.Name, c.RoomType)}
		}
		courses[c.ID] = c
	}

	teachers := make(map[string]struct{}, len(p.Teachers))
	for _, t := range p.Teachers {
		teachers[t.ID] = struct{}{}
	}
	sections := make(map[string]struct{}, len(p.Sections))
	for _, s := range p.Sections {
		sections[s.ID] = struct{}{}
	}
	for i := range p.Classrooms {
		if !p.Classrooms[i].RoomType.Valid() {
			return &ModelError{Reason: fmt.Sprintf("classroom %s: unknown room type %q", p.Classrooms[i].RoomID, p.Classrooms[i].RoomType)}
		}
	}

	for _, r := range p.Rules {
		if err := validateRule(r); err != nil {
			return err
		}
	}

	for _, a := range p.Assignments {
		if _, ok := courses[a.CourseID]; !ok {
			return &ModelError{AssignmentID: a.ID, Reason: fmt.Sprintf("references unknown course %s", a.CourseID)}
		}
		if _, ok := sections[a.SectionID]; !ok {
			return &ModelError{AssignmentID: a.ID, Reason: fmt.Sprintf("references unknown section %s", a.SectionID)}
		}
		if _, ok := teachers[a.TeacherID]; !ok {
			return &ModelError{AssignmentID: a.ID, Reason: fmt.Sprintf("references unknown teacher %s", a.TeacherID)}
		}
	}
	return nil
}

// validateRule range-checks a rule payload. The search prunes branches
// assuming penalties only ever add, so negative penalties and weights are
// rejected here rather than silently breaking the bound.
func validateRule(r models.Rule) error {
	switch r.Type {
	case models.RuleLunchWindow:
		lw := r.LunchWindow
		if lw == nil {
			return nil
		}
		if lw.Penalty < 0 {
			return &ModelError{Reason: fmt.Sprintf("rule %s: negative penalty %d", r.Type, lw.Penalty)}
		}
		if lw.StartSlot < 0 || lw.EndSlot > SlotsPerDay || lw.EndSlot <= lw.StartSlot {
			return &ModelError{Reason: fmt.Sprintf("rule %s: window %d-%d outside the 0-%d slot grid", r.Type, lw.StartSlot, lw.EndSlot, SlotsPerDay)}
		}
	case models.RuleMaxLecturesPerDay:
		ml := r.MaxLectures
		if ml == nil {
			return nil
		}
		if ml.Penalty < 0 {
			return &ModelError{Reason: fmt.Sprintf("rule %s: negative penalty %d", r.Type, ml.Penalty)}
		}
		if ml.MaxCount < 1 {
			return &ModelError{Reason: fmt.Sprintf("rule %s: max_count %d must be at least 1", r.Type, ml.MaxCount)}
		}
	case models.RuleGapPreference:
		gp := r.GapPreference
		if gp == nil {
			return nil
		}
		if gp.Weight < 0 {
			return &ModelError{Reason: fmt.Sprintf("rule %s: negative weight %d", r.Type, gp.Weight)}
		}
		if gp.MaxGapHours < 0 {
			return &ModelError{Reason: fmt.Sprintf("rule %s: negative max_gap_hours %d", r.Type, gp.MaxGapHours)}
		}
	case models.RuleForbiddenTimePairs:
		fp := r.ForbiddenPairs
		if fp == nil {
			return nil
		}
		for _, pair := range fp.Pairs {
			if pair.Day < 0 || pair.Day >= NumDays || pair.Slot < 0 || pair.Slot >= SlotsPerDay {
				return &ModelError{Reason: fmt.Sprintf("rule %s: pair (day %d, slot %d) outside the grid", r.Type, pair.Day, pair.Slot)}
			}
		}
	}
	return nil
}
