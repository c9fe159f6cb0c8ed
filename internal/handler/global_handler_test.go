package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shourya-pant/timetable-scheduler/internal/coordinator"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/scheduler"
	"github.com/Shourya-pant/timetable-scheduler/internal/service"
)

func newGlobalRouter(t *testing.T) (*gin.Engine, *coordinator.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	coord := coordinator.New(zap.NewNop())
	svc := service.NewCoordinatorService(coord, nil, time.Minute, nil, validator.New(), zap.NewNop())

	r := gin.New()
	g := r.Group("/api/v1/global")
	h := NewGlobalHandler(svc)
	g.POST("/scheduler/initialize", h.Initialize)
	g.POST("/slots/reserve", h.Reserve)
	g.POST("/slots/release", h.Release)
	g.POST("/conflicts/detect", h.DetectConflicts)
	g.POST("/departments/synchronize", h.Synchronize)
	g.GET("/resources/shared", h.SharedResources)
	g.GET("/reports/utilization", h.UtilizationReport)
	g.GET("/reports/conflicts", h.ConflictsReport)
	return r, coord
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func auditorium() models.Classroom {
	return models.Classroom{ID: "r-aud", RoomID: "AUD", RoomType: models.RoomConference, Capacity: 200}
}

func registeredSlot(id string, day, slot int, dept string) models.ScheduledSlot {
	return models.ScheduledSlot{
		ID:           id,
		ClassroomID:  "r-aud",
		DayOfWeek:    day,
		StartTime:    scheduler.SlotTime(slot),
		EndTime:      scheduler.SessionEndTime(slot, 55),
		RoomID:       "AUD",
		Department:   dept,
		IsGlobalSlot: true,
	}
}

func TestGlobalEndpoints(t *testing.T) {
	r, coord := newGlobalRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/global/scheduler/initialize", gin.H{
		"shared_classrooms": []models.Classroom{auditorium()},
	})
	require.Equal(t, http.StatusOK, w.Code)

	coord.RegisterTimetable("cs", "tt-cs", []models.ScheduledSlot{registeredSlot("s-1", 0, 2, "cs")})
	coord.RegisterTimetable("ee", "tt-ee", []models.ScheduledSlot{registeredSlot("s-2", 0, 2, "ee")})

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/slots/reserve", gin.H{
		"department": "cs", "timetable_id": "tt-cs", "slot_ids": []string{"s-1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/slots/reserve", gin.H{
		"department": "ee", "timetable_id": "tt-ee", "slot_ids": []string{"s-2"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "RESERVATION_CONFLICT", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "cs")

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/conflicts/detect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detect struct {
		Data struct {
			TotalConflicts int `json:"total_conflicts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detect))
	assert.Equal(t, 1, detect.Data.TotalConflicts)

	w = doJSON(t, r, http.MethodGet, "/api/v1/global/resources/shared?day=0&start_slot=2&end_slot=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resources struct {
		Data struct {
			Resources []struct {
				Available bool   `json:"available"`
				HeldBy    string `json:"held_by"`
			} `json:"resources"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resources))
	require.Len(t, resources.Data.Resources, 1)
	assert.False(t, resources.Data.Resources[0].Available)
	assert.Equal(t, "cs", resources.Data.Resources[0].HeldBy)

	w = doJSON(t, r, http.MethodGet, "/api/v1/global/reports/utilization", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/global/reports/conflicts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/departments/synchronize", gin.H{
		"departments": []string{"cs", "ee"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var sync struct {
		Data struct {
			Synchronized []string `json:"departments_synchronized"`
			Failed       []string `json:"departments_failed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sync))
	assert.Equal(t, []string{"cs"}, sync.Data.Synchronized)
	assert.Equal(t, []string{"ee"}, sync.Data.Failed)

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/slots/release", gin.H{
		"department": "cs", "timetable_id": "tt-cs",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGlobalValidationErrors(t *testing.T) {
	r, _ := newGlobalRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/global/scheduler/initialize", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/global/slots/reserve", gin.H{"department": "cs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
