package scheduler

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// Status is the solver lifecycle.
type Status string

const (
	StatusUnsolved   Status = "unsolved"
	StatusSearching  Status = "searching"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimedOut   Status = "timed_out"
)

// budgetCheckInterval is how many search nodes pass between wall-clock
// checks.
const budgetCheckInterval = 256

// Result is a completed solve. Placements holds, per session variable, the
// chosen candidate; it is nil unless at least one feasible assignment was
// found.
type Result struct {
	Status     Status
	Placements []candidate
	Objective  float64
	Stats      models.SolverStats
	BlockedBy  string
}

// Feasible reports whether the result carries a usable assignment.
func (r *Result) Feasible() bool {
	return r.Placements != nil
}

// Solver runs backtracking search with constraint propagation over a built
// model. Variable order is most-constrained-first (fewest currently
// placeable candidates, variable handle as tie-break); values are tried in
// ascending (penalty delta, day, slot, classroom) order. The ordering is
// deterministic for identical input.
type Solver struct {
	model  *Model
	eval   *Evaluator
	budget time.Duration
	logger *zap.Logger

	status Status
}

// NewSolver wires a solver. A non-positive budget falls back to 30 seconds.
func NewSolver(m *Model, eval *Evaluator, budget time.Duration, logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if budget <= 0 {
		budget = 30 * time.Second
	}
	if eval == nil {
		eval = NewEvaluator(m)
	}
	return &Solver{model: m, eval: eval, budget: budget, logger: logger, status: StatusUnsolved}
}

type searchRun struct {
	st       *searchState
	eval     *Evaluator
	deadline time.Time
	ctx      context.Context

	best          []candidate
	bestObjective float64
	hasBest       bool

	accumulated float64 // monotone penalty of current partial assignment
	nodes       int
	backtracks  int
	timedOut    bool
	stopped     bool // found a solution with an empty evaluator
}

// Solve searches for a minimum-penalty assignment within the time budget.
// On timeout the best feasible assignment found so far is returned.
func (s *Solver) Solve(ctx context.Context) *Result {
	start := time.Now()
	s.status = StatusSearching

	run := &searchRun{
		st:       newSearchState(s.model),
		eval:     s.eval,
		deadline: start.Add(s.budget),
		ctx:      ctx,
	}
	run.search(0)

	elapsed := time.Since(start)
	result := &Result{Stats: models.SolverStats{
		ElapsedMillis: elapsed.Milliseconds(),
		Backtracks:    run.backtracks,
		Conflicts:     run.backtracks,
		Variables:     len(s.model.Vars),
		NodesExplored: run.nodes,
	}}

	switch {
	case run.hasBest && run.timedOut:
		s.status = StatusTimedOut
	case run.hasBest:
		s.status = StatusFeasible
	case run.timedOut:
		s.status = StatusTimedOut
	default:
		s.status = StatusInfeasible
	}
	result.Status = s.status
	result.Stats.Status = string(s.status)

	if run.hasBest {
		result.Placements = run.best
		result.Objective = run.bestObjective
		result.Stats.ObjectiveValue = run.bestObjective
	} else {
		result.BlockedBy = run.st.rejects.Dominant()
	}

	s.logger.Info("solve finished",
		zap.String("status", string(s.status)),
		zap.Duration("elapsed", elapsed),
		zap.Int("variables", len(s.model.Vars)),
		zap.Int("backtracks", run.backtracks),
		zap.Float64("objective", result.Objective),
	)
	return result
}

// Status returns the solver's current lifecycle state.
func (s *Solver) Status() Status {
	return s.status
}

// search assigns variables depth-first. depth counts placed variables.
// Returns when the subtree is exhausted or the run is cut off.
func (r *searchRun) search(depth int) {
	if r.stopped || r.timedOut {
		return
	}
	r.nodes++
	if r.nodes%budgetCheckInterval == 0 {
		if time.Now().After(r.deadline) || r.ctx.Err() != nil {
			r.timedOut = true
			return
		}
	}

	if depth == len(r.st.model.Vars) {
		r.recordSolution()
		return
	}

	v, feasible := r.pickVariable()
	if v < 0 {
		// Some unassigned variable has no placeable candidate.
		r.backtracks++
		return
	}

	for _, choice := range r.orderValues(v, feasible) {
		delta := r.eval.placementPenalty(r.st, v, r.st.model.Vars[v].Domain[choice])
		if r.hasBest && r.accumulated+delta >= r.bestObjective {
			continue
		}
		r.st.place(v, choice)
		r.accumulated += delta
		r.search(depth + 1)
		r.accumulated -= delta
		r.st.unplace(v)
		if r.stopped || r.timedOut {
			return
		}
	}
	r.backtracks++
}

func (r *searchRun) recordSolution() {
	objective := r.accumulated + r.eval.gapPenalty(r.st)
	if r.hasBest && objective >= r.bestObjective {
		return
	}
	model := r.st.model
	solution := make([]candidate, len(model.Vars))
	for v, ci := range r.st.placements {
		solution[v] = model.Vars[v].Domain[ci]
	}
	r.best = solution
	r.bestObjective = objective
	r.hasBest = true
	if r.eval.Empty() {
		r.stopped = true
	}
}

// pickVariable returns the unassigned variable with the fewest currently
// placeable candidates, with its feasible candidate indices. Returns -1 when
// an unassigned variable has an empty effective domain.
func (r *searchRun) pickVariable() (int, []int) {
	bestVar := -1
	var bestFeasible []int
	for v := range r.st.model.Vars {
		if r.st.placements[v] >= 0 {
			continue
		}
		var feasible []int
		for ci, c := range r.st.model.Vars[v].Domain {
			if r.st.canPlace(v, c) {
				feasible = append(feasible, ci)
			}
		}
		if len(feasible) == 0 {
			return -1, nil
		}
		if bestVar < 0 || len(feasible) < len(bestFeasible) {
			bestVar = v
			bestFeasible = feasible
		}
	}
	return bestVar, bestFeasible
}

// orderValues sorts feasible candidate indices by ascending penalty delta,
// then day, slot and classroom handle. Domain order already encodes the
// (day, slot, room) ordering, so the sort is stable on that baseline.
func (r *searchRun) orderValues(v int, feasible []int) []int {
	if r.eval.Empty() {
		return feasible
	}
	domain := r.st.model.Vars[v].Domain
	deltas := make(map[int]float64, len(feasible))
	for _, ci := range feasible {
		deltas[ci] = r.eval.placementPenalty(r.st, v, domain[ci])
	}
	ordered := make([]int, len(feasible))
	copy(ordered, feasible)
	sort.SliceStable(ordered, func(i, j int) bool {
		return deltas[ordered[i]] < deltas[ordered[j]]
	})
	return ordered
}
