package scheduler

import (
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// Penalty applied to sessions touching the first or last slot of a day so
// schedules drift toward mid-day placement. Active only when the department
// has configured at least one rule.
const edgeSlotPenalty = 5

// Evaluator folds the department's rules into a single minimisation
// objective. Lunch-window, lecture-cap and edge penalties are monotone in the
// number of placed sessions, so their running sum is a valid lower bound for
// branch-and-bound pruning; gap penalties are only known for a complete
// assignment and are added at the leaves.
type Evaluator struct {
	model *Model

	lunch       []models.LunchWindowRule
	maxLectures []scopedLectureCap
	gaps        []models.GapPreferenceRule
}

type scopedLectureCap struct {
	rule    models.MaxLecturesPerDayRule
	section int // section index, -1 for all sections
}

// NewEvaluator compiles the rule set against the model's entity indexes.
func NewEvaluator(m *Model) *Evaluator {
	e := &Evaluator{model: m}
	for _, rule := range m.Problem.Rules {
		switch rule.Type {
		case models.RuleLunchWindow:
			if rule.LunchWindow != nil {
				e.lunch = append(e.lunch, *rule.LunchWindow)
			}
		case models.RuleMaxLecturesPerDay:
			if rule.MaxLectures == nil {
				continue
			}
			scope := -1
			if !rule.MaxLectures.ApplyToAllSections {
				idx, ok := m.sectionIdx[rule.MaxLectures.SectionID]
				if !ok {
					continue
				}
				scope = idx
			}
			e.maxLectures = append(e.maxLectures, scopedLectureCap{rule: *rule.MaxLectures, section: scope})
		case models.RuleGapPreference:
			if rule.GapPreference != nil {
				e.gaps = append(e.gaps, *rule.GapPreference)
			}
		}
	}
	return e
}

// Empty reports whether no soft constraints are active. With an empty
// evaluator the objective is constant and the solver stops at the first
// feasible assignment.
func (e *Evaluator) Empty() bool {
	return len(e.lunch) == 0 && len(e.maxLectures) == 0 && len(e.gaps) == 0
}

// placementPenalty is the monotone penalty a single placement adds, given
// the lecture counts already accumulated in st (before the placement).
func (e *Evaluator) placementPenalty(st *searchState, v int, c candidate) float64 {
	if e.Empty() {
		return 0
	}
	sv := &st.model.Vars[v]
	penalty := 0.0

	for _, lw := range e.lunch {
		if c.Slot < lw.EndSlot && c.Slot+sv.Span > lw.StartSlot {
			penalty += float64(lw.Penalty)
		}
	}

	if c.Slot == 0 || c.Slot+sv.Span == SlotsPerDay {
		penalty += edgeSlotPenalty
	}

	course := st.model.Course(v)
	if course.CourseType == models.CourseLecture {
		for _, lc := range e.maxLectures {
			for _, si := range sv.Sections {
				if lc.section >= 0 && lc.section != si {
					continue
				}
				if st.lectureCount[si][c.Day] >= lc.rule.MaxCount {
					penalty += float64(lc.rule.Penalty)
				}
			}
		}
	}
	return penalty
}

// gapPenalty scores idle slots between scheduled sessions per teacher and per
// section on each day, for the complete assignment held in st.
func (e *Evaluator) gapPenalty(st *searchState) float64 {
	if len(e.gaps) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range e.gaps {
		capSlots := g.MaxGapHours * 60 / SlotMinutes
		for _, row := range st.teacherBusy {
			total += scoreGaps(row, g, capSlots)
		}
		for _, row := range st.sectionBusy {
			total += scoreGaps(row, g, capSlots)
		}
	}
	return total
}

func scoreGaps(busy []bool, g models.GapPreferenceRule, capSlots int) float64 {
	total := 0.0
	for day := 0; day < NumDays; day++ {
		first, last := -1, -1
		occupied := 0
		for s := 0; s < SlotsPerDay; s++ {
			if busy[day*SlotsPerDay+s] {
				if first < 0 {
					first = s
				}
				last = s
				occupied++
			}
		}
		if first < 0 || occupied < 2 {
			continue
		}
		idle := last - first + 1 - occupied
		if idle <= 0 {
			continue
		}
		switch g.Mode {
		case models.GapAllow:
			if idle > capSlots {
				total += float64(g.Weight * (idle - capSlots))
			}
		default: // minimize
			counted := idle
			if capSlots > 0 && counted > capSlots {
				counted = capSlots
			}
			total += float64(g.Weight * counted)
		}
	}
	return total
}
