package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/Shourya-pant/timetable-scheduler/pkg/errors"
	"github.com/Shourya-pant/timetable-scheduler/pkg/jobs"

	"github.com/Shourya-pant/timetable-scheduler/internal/dto"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
)

type timetableStore interface {
	Create(ctx context.Context, tt *models.DeptTimetable) error
	GetByID(ctx context.Context, id string) (*models.DeptTimetable, error)
	UpdateStatus(ctx context.Context, tt *models.DeptTimetable) error
}

type slotStore interface {
	ReplaceForTimetable(ctx context.Context, timetableID string, slots []models.ScheduledSlot) error
	ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduledSlot, error)
}

type timetableRegistrar interface {
	RegisterTimetable(department, timetableID string, slots []models.ScheduledSlot)
}

type generationObserver interface {
	ObserveGeneration(outcome string, elapsed time.Duration, backtracks int)
}

// GenerationConfig governs solver and worker behaviour.
type GenerationConfig struct {
	TimeBudget  time.Duration
	Workers     int
	QueueBuffer int
}

// GenerationService owns the timetable lifecycle: it validates a problem
// instance, runs the solver, persists the outcome and registers completed
// timetables with the global coordinator. Runs happen synchronously or
// through an in-memory worker queue; either way a run ends in exactly one
// of the completed or failed states.
type GenerationService struct {
	timetables timetableStore
	slots      slotStore
	registrar  timetableRegistrar
	metrics    generationObserver
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        GenerationConfig
	queue      *jobs.Queue
}

type generateJob struct {
	TimetableID string
	Request     dto.GenerateTimetableRequest
}

// NewGenerationService wires the generation pipeline.
func NewGenerationService(
	timetables timetableStore,
	slots slotStore,
	registrar timetableRegistrar,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 30 * time.Second
	}
	svc := &GenerationService{
		timetables: timetables,
		slots:      slots,
		registrar:  registrar,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
	svc.queue = jobs.NewQueue("timetable-generation", svc.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueBuffer,
		Logger:     logger,
	})
	return svc
}

// Start launches the background workers.
func (s *GenerationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *GenerationService) Stop() {
	s.queue.Stop()
}

// Generate runs a full generation synchronously and returns the finished
// timetable. Infeasible or invalid problems still produce a persisted
// failed record; the error carries the reason for the caller.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	tt, err := s.createDraft(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, tt, req)
}

// GenerateAsync accepts the request, persists a draft record and queues the
// run. The caller polls GetTimetable for the outcome.
func (s *GenerationService) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.AsyncGenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	tt, err := s.createDraft(ctx, req)
	if err != nil {
		return nil, err
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "generate",
		Payload: generateJob{TimetableID: tt.ID, Request: req},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation queue unavailable")
	}
	return &dto.AsyncGenerateResponse{TimetableID: tt.ID, Status: tt.Status}, nil
}

// GetTimetable returns the stored record for one run.
func (s *GenerationService) GetTimetable(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	tt, err := s.timetables.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.TimetableResponse{
		TimetableID:   tt.ID,
		Name:          tt.Name,
		Department:    tt.Department,
		Status:        tt.Status,
		GenerationLog: tt.GenerationLog,
		CreatedAt:     tt.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     tt.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(tt.SolverStats) > 0 {
		var stats models.SolverStats
		if err := json.Unmarshal(tt.SolverStats, &stats); err == nil {
			resp.SolverStats = &stats
		}
	}
	return resp, nil
}

// GetSlots returns the scheduled slots of one timetable.
func (s *GenerationService) GetSlots(ctx context.Context, id string) (*dto.TimetableSlotsResponse, error) {
	if _, err := s.timetables.GetByID(ctx, id); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTimetable(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TimetableSlotsResponse{TimetableID: id, Slots: slots}, nil
}

func (s *GenerationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generateJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	tt, err := s.timetables.GetByID(ctx, payload.TimetableID)
	if err != nil {
		return fmt.Errorf("load queued timetable: %w", err)
	}
	_, err = s.run(ctx, tt, payload.Request)
	return err
}

func (s *GenerationService) createDraft(ctx context.Context, req dto.GenerateTimetableRequest) (*models.DeptTimetable, error) {
	tt := &models.DeptTimetable{
		Name:       req.Name,
		Department: req.Department,
		Status:     models.TimetableDraft,
	}
	if err := s.timetables.Create(ctx, tt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return tt, nil
}

// run drives the draft -> generating -> completed | failed state machine.
func (s *GenerationService) run(ctx context.Context, tt *models.DeptTimetable, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	tt.Status = models.TimetableGenerating
	if err := s.timetables.UpdateStatus(ctx, tt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "timetable is not in a runnable state")
	}

	problem := &scheduler.Problem{
		Department:  req.Department,
		Sections:    req.Sections,
		Teachers:    req.Teachers,
		Courses:     req.Courses,
		Classrooms:  req.Classrooms,
		Assignments: req.Assignments,
		Rules:       req.Rules,
	}
	started := time.Now()

	if err := problem.Validate(); err != nil {
		return s.finishFailed(ctx, tt, started, "model_error", fmt.Sprintf("model error: %v", err), err)
	}
	model, err := scheduler.BuildModel(problem)
	if err != nil {
		return s.finishFailed(ctx, tt, started, "model_error", fmt.Sprintf("model error: %v", err), err)
	}

	budget := s.cfg.TimeBudget
	if req.TimeBudgetSeconds > 0 {
		budget = time.Duration(req.TimeBudgetSeconds) * time.Second
	}
	solver := scheduler.NewSolver(model, scheduler.NewEvaluator(model), budget, s.logger)
	result := solver.Solve(ctx)

	if !result.Feasible() {
		reason := fmt.Sprintf("no feasible timetable: dominant constraint %s", result.BlockedBy)
		if result.Status == scheduler.StatusTimedOut {
			reason = "time budget exhausted before any feasible timetable was found"
		}
		tt.SolverStats, _ = json.Marshal(result.Stats)
		resp, ferr := s.finishFailed(ctx, tt, started, string(result.Status), reason,
			appErrors.Wrap(errors.New(reason), appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, reason))
		resp.SolverStats = &result.Stats
		return resp, ferr
	}

	slots := scheduler.Materialize(model, result.Placements, tt.ID)
	if err := s.slots.ReplaceForTimetable(ctx, tt.ID, slots); err != nil {
		return s.finishFailed(ctx, tt, started, "persist_error", fmt.Sprintf("failed to persist slots: %v", err), err)
	}

	log := fmt.Sprintf("generated %d slots, objective %.1f", len(slots), result.Objective)
	if result.Status == scheduler.StatusTimedOut {
		log += " (best effort: time budget reached before the search completed)"
	}
	tt.Status = models.TimetableCompleted
	tt.GenerationLog = log
	tt.SolverStats, _ = json.Marshal(result.Stats)
	if err := s.timetables.UpdateStatus(ctx, tt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize timetable")
	}

	if s.registrar != nil {
		s.registrar.RegisterTimetable(tt.Department, tt.ID, slots)
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(string(result.Status), time.Since(started), result.Stats.Backtracks)
	}
	s.logger.Info("timetable generated",
		zap.String("timetable_id", tt.ID),
		zap.String("department", tt.Department),
		zap.String("solver_status", string(result.Status)),
		zap.Int("slots", len(slots)),
		zap.Float64("objective", result.Objective),
	)

	return &dto.GenerateTimetableResponse{
		TimetableID:   tt.ID,
		Name:          tt.Name,
		Department:    tt.Department,
		Status:        tt.Status,
		GenerationLog: tt.GenerationLog,
		SolverStats:   &result.Stats,
		Slots:         slots,
	}, nil
}

// finishFailed persists the failed state and returns both the response and
// the domain error describing why.
func (s *GenerationService) finishFailed(ctx context.Context, tt *models.DeptTimetable, started time.Time, outcome, log string, cause error) (*dto.GenerateTimetableResponse, error) {
	tt.Status = models.TimetableFailed
	tt.GenerationLog = log
	if err := s.timetables.UpdateStatus(ctx, tt); err != nil {
		s.logger.Error("failed to record failed generation", zap.String("timetable_id", tt.ID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcome, time.Since(started), 0)
	}
	s.logger.Warn("generation failed",
		zap.String("timetable_id", tt.ID),
		zap.String("department", tt.Department),
		zap.String("reason", log),
	)

	resp := &dto.GenerateTimetableResponse{
		TimetableID:   tt.ID,
		Name:          tt.Name,
		Department:    tt.Department,
		Status:        tt.Status,
		GenerationLog: tt.GenerationLog,
	}
	var modelErr *scheduler.ModelError
	if errors.As(cause, &modelErr) {
		return resp, appErrors.Wrap(cause, appErrors.ErrModel.Code, appErrors.ErrModel.Status, modelErr.Error())
	}
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		return resp, appErr
	}
	return resp, appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, log)
}
