package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shourya-pant/timetable-scheduler/pkg/response"

	"github.com/Shourya-pant/timetable-scheduler/internal/dto"
	"github.com/Shourya-pant/timetable-scheduler/internal/service"
)

// TimetableHandler exposes generation and timetable read endpoints.
type TimetableHandler struct {
	service *service.GenerationService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.GenerationService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate runs a generation synchronously and returns the finished
// timetable. A failed run answers with HTTP 200 and the persisted failed
// record so the caller can read the generation log; only request-level
// problems produce an error envelope.
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil && result == nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GenerateAsync queues a generation run and answers immediately.
func (h *TimetableHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.GenerateAsync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result)
}

// Get returns one timetable record.
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.GetTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Slots returns the scheduled slots of one timetable.
func (h *TimetableHandler) Slots(c *gin.Context) {
	result, err := h.service.GetSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
