package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/Shourya-pant/timetable-scheduler/pkg/errors"

	"github.com/Shourya-pant/timetable-scheduler/internal/coordinator"
	"github.com/Shourya-pant/timetable-scheduler/internal/dto"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
)

const (
	utilizationCacheKey = "reports:utilization"
	conflictsCacheKey   = "reports:conflicts"
	reportsCachePattern = "reports:*"
)

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type coordinatorObserver interface {
	ObserveReservationConflict()
	RecordCacheOperation(hit bool)
}

// CoordinatorService exposes the global coordinator over the API surface
// and layers report caching on top of it. Reservation state itself is never
// cached; only the derived reports are, and every mutation drops them.
type CoordinatorService struct {
	coord     *coordinator.Coordinator
	cache     reportCache
	cacheTTL  time.Duration
	metrics   coordinatorObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoordinatorService wires the coordinator facade. cache may be nil, in
// which case reports are always recomputed.
func NewCoordinatorService(
	coord *coordinator.Coordinator,
	cache reportCache,
	cacheTTL time.Duration,
	metrics coordinatorObserver,
	validate *validator.Validate,
	logger *zap.Logger,
) *CoordinatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CoordinatorService{
		coord:     coord,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Coordinator exposes the underlying coordinator for generation wiring.
func (s *CoordinatorService) Coordinator() *coordinator.Coordinator {
	return s.coord
}

// Initialize loads the shared classroom inventory, replacing prior state.
func (s *CoordinatorService) Initialize(ctx context.Context, req dto.InitializeGlobalRequest) (*dto.InitializeGlobalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid initialize request")
	}
	rooms := make([]models.Classroom, len(req.Classrooms))
	for i, room := range req.Classrooms {
		room.Shared = true
		rooms[i] = room
	}
	s.coord.Initialize(rooms)
	s.invalidateReports(ctx)
	return &dto.InitializeGlobalResponse{SharedClassrooms: len(rooms)}, nil
}

// Reserve claims shared slots for a registered timetable.
func (s *CoordinatorService) Reserve(ctx context.Context, req dto.ReserveSlotsRequest) (*dto.ReserveSlotsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reserve request")
	}
	if err := s.coord.ReserveSlots(req.Department, req.TimetableID, req.SlotIDs); err != nil {
		var conflict *coordinator.ReservationConflictError
		if errors.As(err, &conflict) {
			if s.metrics != nil {
				s.metrics.ObserveReservationConflict()
			}
			return nil, appErrors.Wrap(err, appErrors.ErrReservationConflict.Code, appErrors.ErrReservationConflict.Status, conflict.Error())
		}
		var unknown *coordinator.UnknownTimetableError
		if errors.As(err, &unknown) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, unknown.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reserve failed")
	}
	s.invalidateReports(ctx)
	return &dto.ReserveSlotsResponse{Reserved: true}, nil
}

// Release drops a department's reservations.
func (s *CoordinatorService) Release(ctx context.Context, req dto.ReleaseSlotsRequest) (*dto.ReleaseSlotsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid release request")
	}
	released := s.coord.ReleaseSlots(req.Department, req.TimetableID)
	s.invalidateReports(ctx)
	return &dto.ReleaseSlotsResponse{Released: released}, nil
}

// DetectConflicts scans for cross-department overlaps in shared classrooms.
func (s *CoordinatorService) DetectConflicts(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	conflicts := s.coord.DetectConflicts(req.Departments...)
	return &dto.DetectConflictsResponse{TotalConflicts: len(conflicts), Conflicts: conflicts}, nil
}

// Synchronize re-validates and re-reserves departments in order.
func (s *CoordinatorService) Synchronize(ctx context.Context, req dto.SynchronizeRequest) (*coordinator.SyncResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid synchronize request")
	}
	result := s.coord.SynchronizeDepartments(req.Departments)
	s.invalidateReports(ctx)
	return &result, nil
}

// SharedResources reports shared classroom availability over a window.
func (s *CoordinatorService) SharedResources(ctx context.Context, req dto.SharedResourcesRequest) (*dto.SharedResourcesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resources query")
	}
	if req.RoomType != "" && !req.RoomType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room type "+string(req.RoomType))
	}
	end := req.EndSlot
	if end <= req.StartSlot {
		end = req.StartSlot + 1
	}
	if end > scheduler.SlotsPerDay {
		end = scheduler.SlotsPerDay
	}
	resources := s.coord.SharedResources(req.Day, req.StartSlot, end, req.RoomType)
	return &dto.SharedResourcesResponse{
		Day:       req.Day,
		StartSlot: req.StartSlot,
		EndSlot:   end,
		Resources: resources,
	}, nil
}

// UtilizationReport returns cached occupancy statistics, recomputing on
// miss.
func (s *CoordinatorService) UtilizationReport(ctx context.Context) (*coordinator.UtilizationReport, error) {
	var cached coordinator.UtilizationReport
	if s.cacheGet(ctx, utilizationCacheKey, &cached) {
		return &cached, nil
	}
	report := s.coord.UtilizationReport()
	s.cacheSet(ctx, utilizationCacheKey, report)
	return &report, nil
}

// ConflictsReport returns the cached conflict summary, recomputing on miss.
func (s *CoordinatorService) ConflictsReport(ctx context.Context) (*coordinator.ConflictsReport, error) {
	var cached coordinator.ConflictsReport
	if s.cacheGet(ctx, conflictsCacheKey, &cached) {
		return &cached, nil
	}
	report := s.coord.ConflictsReport()
	s.cacheSet(ctx, conflictsCacheKey, report)
	return &report, nil
}

func (s *CoordinatorService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("report cache get failed", zap.String("key", key), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
	return hit
}

func (s *CoordinatorService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("report cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CoordinatorService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportsCachePattern); err != nil {
		s.logger.Warn("report cache invalidate failed", zap.Error(err))
	}
}
