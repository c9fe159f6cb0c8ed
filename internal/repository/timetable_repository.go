package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/Shourya-pant/timetable-scheduler/pkg/errors"

	"github.com/Shourya-pant/timetable-scheduler/internal/models"
)

// TimetableRepository manages persistence for department timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a new repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Create inserts a new timetable record, generating its ID when absent.
func (r *TimetableRepository) Create(ctx context.Context, tt *models.DeptTimetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now
	if tt.Status == "" {
		tt.Status = models.TimetableDraft
	}
	query := `INSERT INTO timetables (id, name, department, status, generation_log, solver_stats, created_at, updated_at)
VALUES (:id, :name, :department, :status, :generation_log, :solver_stats, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tt); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// GetByID fetches one timetable record.
func (r *TimetableRepository) GetByID(ctx context.Context, id string) (*models.DeptTimetable, error) {
	var tt models.DeptTimetable
	query := `SELECT id, name, department, status, generation_log, solver_stats, created_at, updated_at
FROM timetables WHERE id = $1`
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get timetable: %w", err)
	}
	return &tt, nil
}

// ListByDepartment lists a department's timetables, newest first.
func (r *TimetableRepository) ListByDepartment(ctx context.Context, department string) ([]models.DeptTimetable, error) {
	var rows []models.DeptTimetable
	query := `SELECT id, name, department, status, generation_log, solver_stats, created_at, updated_at
FROM timetables WHERE department = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, department); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return rows, nil
}

// UpdateStatus advances the lifecycle and records the solver outcome. The
// legal-transition check runs in SQL so concurrent writers cannot move a
// record backwards.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, tt *models.DeptTimetable) error {
	tt.UpdatedAt = time.Now().UTC()
	query := `UPDATE timetables
SET status = :status, generation_log = :generation_log, solver_stats = :solver_stats, updated_at = :updated_at
WHERE id = :id
  AND ((status = 'draft' AND :status = 'generating')
    OR (status = 'generating' AND :status IN ('completed', 'failed')))`
	res, err := r.db.NamedExecContext(ctx, query, tt)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrConflict
	}
	return nil
}
