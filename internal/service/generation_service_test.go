package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/Shourya-pant/timetable-scheduler/pkg/errors"

	"github.com/Shourya-pant/timetable-scheduler/internal/dto"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

type stubTimetableStore struct {
	mu      sync.Mutex
	records map[string]models.DeptTimetable
}

func newStubTimetableStore() *stubTimetableStore {
	return &stubTimetableStore{records: make(map[string]models.DeptTimetable)}
}

func (s *stubTimetableStore) Create(ctx context.Context, tt *models.DeptTimetable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	if tt.Status == "" {
		tt.Status = models.TimetableDraft
	}
	s.records[tt.ID] = *tt
	return nil
}

func (s *stubTimetableStore) GetByID(ctx context.Context, id string) (*models.DeptTimetable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt, ok := s.records[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &tt, nil
}

func (s *stubTimetableStore) UpdateStatus(ctx context.Context, tt *models.DeptTimetable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[tt.ID]
	if !ok {
		return appErrors.ErrNotFound
	}
	if !current.Status.CanTransition(tt.Status) {
		return appErrors.ErrConflict
	}
	s.records[tt.ID] = *tt
	return nil
}

func (s *stubTimetableStore) get(id string) models.DeptTimetable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type stubSlotStore struct {
	mu    sync.Mutex
	slots map[string][]models.ScheduledSlot
}

func newStubSlotStore() *stubSlotStore {
	return &stubSlotStore{slots: make(map[string][]models.ScheduledSlot)}
}

func (s *stubSlotStore) ReplaceForTimetable(ctx context.Context, timetableID string, slots []models.ScheduledSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[timetableID] = append([]models.ScheduledSlot(nil), slots...)
	return nil
}

func (s *stubSlotStore) ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduledSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[timetableID], nil
}

type stubRegistrar struct {
	mu         sync.Mutex
	department string
	timetable  string
	slots      int
}

func (s *stubRegistrar) RegisterTimetable(department, timetableID string, slots []models.ScheduledSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.department = department
	s.timetable = timetableID
	s.slots = len(slots)
}

func validRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		Name:       "CS week 1",
		Department: "cs",
		Sections: []models.Section{
			{ID: "sec-a", Code: "CS-A", Department: "cs", Strength: 40},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Name: "Rao", MaxHoursPerDay: 6},
		},
		Courses: []models.Course{
			{ID: "c-1", Name: "Algorithms", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 2, RoomType: models.RoomLecture},
		},
		Classrooms: []models.Classroom{
			{ID: "r-1", RoomID: "R101", RoomType: models.RoomLecture, Capacity: 60, Department: "cs"},
		},
		Assignments: []models.Assignment{
			{ID: "a-1", CourseID: "c-1", SectionID: "sec-a", TeacherID: "t-1"},
		},
	}
}

func newTestGenerationService(timetables *stubTimetableStore, slots *stubSlotStore, registrar *stubRegistrar) *GenerationService {
	return NewGenerationService(timetables, slots, registrar, nil, validator.New(), zap.NewNop(), GenerationConfig{
		TimeBudget: 5 * time.Second,
		Workers:    1,
	})
}

func TestGenerateCompleted(t *testing.T) {
	timetables := newStubTimetableStore()
	slots := newStubSlotStore()
	registrar := &stubRegistrar{}
	svc := newTestGenerationService(timetables, slots, registrar)

	resp, err := svc.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, models.TimetableCompleted, resp.Status)
	assert.Len(t, resp.Slots, 2)
	require.NotNil(t, resp.SolverStats)
	assert.Equal(t, 2, resp.SolverStats.Variables)

	stored := timetables.get(resp.TimetableID)
	assert.Equal(t, models.TimetableCompleted, stored.Status)
	assert.Contains(t, stored.GenerationLog, "generated 2 slots")

	persisted, err := slots.ListByTimetable(context.Background(), resp.TimetableID)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	assert.Equal(t, "cs", registrar.department)
	assert.Equal(t, resp.TimetableID, registrar.timetable)
	assert.Equal(t, 2, registrar.slots)
}

func TestGenerateModelError(t *testing.T) {
	timetables := newStubTimetableStore()
	svc := newTestGenerationService(timetables, newStubSlotStore(), &stubRegistrar{})

	req := validRequest()
	req.Teachers[0].DaysOff = []int{0, 1, 2, 3, 4}

	resp, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, models.TimetableFailed, resp.Status)
	assert.Contains(t, resp.GenerationLog, "model error")
	assert.Contains(t, resp.GenerationLog, "a-1")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MODEL_ERROR", appErr.Code)

	stored := timetables.get(resp.TimetableID)
	assert.Equal(t, models.TimetableFailed, stored.Status)
}

func TestGenerateInfeasible(t *testing.T) {
	timetables := newStubTimetableStore()
	svc := newTestGenerationService(timetables, newStubSlotStore(), &stubRegistrar{})

	// One teacher, one open slot, two sections that both need it.
	grid := make([][]bool, 5)
	for d := range grid {
		grid[d] = make([]bool, 10)
	}
	grid[0][0] = true
	req := validRequest()
	req.Teachers[0].Availability = grid
	req.Sections = append(req.Sections, models.Section{ID: "sec-b", Code: "CS-B", Department: "cs", Strength: 30})
	req.Courses = []models.Course{
		{ID: "c-1", Name: "Algorithms", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 1, RoomType: models.RoomLecture},
		{ID: "c-2", Name: "Databases", CourseType: models.CourseLecture, DurationMinutes: 55, SessionsPerWeek: 1, RoomType: models.RoomLecture},
	}
	req.Classrooms = append(req.Classrooms, models.Classroom{ID: "r-2", RoomID: "R102", RoomType: models.RoomLecture, Capacity: 60, Department: "cs"})
	req.Assignments = []models.Assignment{
		{ID: "a-1", CourseID: "c-1", SectionID: "sec-a", TeacherID: "t-1"},
		{ID: "a-2", CourseID: "c-2", SectionID: "sec-b", TeacherID: "t-1"},
	}

	resp, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, models.TimetableFailed, resp.Status)
	assert.Contains(t, resp.GenerationLog, "dominant constraint")
	assert.Contains(t, resp.GenerationLog, "teacher double-booking")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INFEASIBLE", appErr.Code)
}

func TestGenerateValidationError(t *testing.T) {
	timetables := newStubTimetableStore()
	svc := newTestGenerationService(timetables, newStubSlotStore(), &stubRegistrar{})

	req := validRequest()
	req.Department = ""

	resp, err := svc.Generate(context.Background(), req)
	assert.Nil(t, resp)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Empty(t, timetables.records, "invalid requests must not create records")
}

func TestGenerateAsync(t *testing.T) {
	timetables := newStubTimetableStore()
	slots := newStubSlotStore()
	registrar := &stubRegistrar{}
	svc := newTestGenerationService(timetables, slots, registrar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	resp, err := svc.GenerateAsync(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.TimetableDraft, resp.Status)

	require.Eventually(t, func() bool {
		return timetables.get(resp.TimetableID).Status == models.TimetableCompleted
	}, 5*time.Second, 20*time.Millisecond)

	persisted, err := slots.ListByTimetable(context.Background(), resp.TimetableID)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestGetTimetableNotFound(t *testing.T) {
	svc := newTestGenerationService(newStubTimetableStore(), newStubSlotStore(), &stubRegistrar{})
	_, err := svc.GetTimetable(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetTimetableParsesStats(t *testing.T) {
	timetables := newStubTimetableStore()
	svc := newTestGenerationService(timetables, newStubSlotStore(), &stubRegistrar{})

	generated, err := svc.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	fetched, err := svc.GetTimetable(context.Background(), generated.TimetableID)
	require.NoError(t, err)
	assert.Equal(t, models.TimetableCompleted, fetched.Status)
	require.NotNil(t, fetched.SolverStats)
	assert.Equal(t, 2, fetched.SolverStats.Variables)
	assert.Equal(t, "feasible", fetched.SolverStats.Status)
}
