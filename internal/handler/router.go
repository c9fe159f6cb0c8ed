package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API surface under /api/v1.
func RegisterRoutes(r gin.IRouter, timetables *TimetableHandler, global *GlobalHandler) {
	v1 := r.Group("/api/v1")

	tt := v1.Group("/timetables")
	tt.POST("/generate", timetables.Generate)
	tt.POST("/generate/async", timetables.GenerateAsync)
	tt.GET("/:id", timetables.Get)
	tt.GET("/:id/slots", timetables.Slots)

	g := v1.Group("/global")
	g.POST("/scheduler/initialize", global.Initialize)
	g.POST("/slots/reserve", global.Reserve)
	g.POST("/slots/release", global.Release)
	g.POST("/conflicts/detect", global.DetectConflicts)
	g.POST("/departments/synchronize", global.Synchronize)
	g.GET("/resources/shared", global.SharedResources)
	g.GET("/reports/utilization", global.UtilizationReport)
	g.GET("/reports/conflicts", global.ConflictsReport)
}
