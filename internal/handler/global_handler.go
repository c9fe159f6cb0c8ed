package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shourya-pant/timetable-scheduler/pkg/response"

	"github.com/Shourya-pant/timetable-scheduler/internal/dto"
	"github.com/Shourya-pant/timetable-scheduler/internal/service"
)

// GlobalHandler exposes the cross-department coordinator endpoints.
type GlobalHandler struct {
	service *service.CoordinatorService
}

// NewGlobalHandler constructs a global coordinator handler.
func NewGlobalHandler(svc *service.CoordinatorService) *GlobalHandler {
	return &GlobalHandler{service: svc}
}

// Initialize loads the shared classroom inventory.
func (h *GlobalHandler) Initialize(c *gin.Context) {
	var req dto.InitializeGlobalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Initialize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reserve claims shared slots for a registered timetable.
func (h *GlobalHandler) Reserve(c *gin.Context) {
	var req dto.ReserveSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Release drops a department's reservations.
func (h *GlobalHandler) Release(c *gin.Context) {
	var req dto.ReleaseSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Release(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// DetectConflicts scans for shared-classroom overlaps.
func (h *GlobalHandler) DetectConflicts(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}
	}
	result, err := h.service.DetectConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Synchronize re-validates and re-reserves departments in order.
func (h *GlobalHandler) Synchronize(c *gin.Context) {
	var req dto.SynchronizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Synchronize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// SharedResources reports shared classroom availability over a window.
func (h *GlobalHandler) SharedResources(c *gin.Context) {
	var req dto.SharedResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.SharedResources(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// UtilizationReport returns occupancy statistics for shared rooms and
// teachers.
func (h *GlobalHandler) UtilizationReport(c *gin.Context) {
	result, err := h.service.UtilizationReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ConflictsReport returns the aggregated conflict summary.
func (h *GlobalHandler) ConflictsReport(c *gin.Context) {
	result, err := h.service.ConflictsReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
