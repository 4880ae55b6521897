package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/courseqa/internal/middleware"
)

type RouterDeps struct {
	Courses      *CourseHandler
	Documents    *DocumentHandler
	QA           *QAHandler
	Analytics    *AnalyticsHandler
	JWTSecret    []byte
	AskRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.GET("/courses", deps.Courses.List)
	authGroup.GET("/courses/:id", deps.Courses.Get)

	instructorGroup := authGroup.Group("")
	instructorGroup.Use(middleware.RequireRole(middleware.RoleInstructor))
	instructorGroup.POST("/courses", deps.Courses.Create)
	instructorGroup.PUT("/courses/:id", deps.Courses.Update)
	instructorGroup.DELETE("/courses/:id", deps.Courses.Delete)
	instructorGroup.GET("/analytics/overview", deps.Analytics.Overview)

	staffGroup := authGroup.Group("")
	staffGroup.Use(middleware.RequireRole(middleware.RoleTA, middleware.RoleInstructor))
	staffGroup.POST("/documents", deps.Documents.Upload)
	staffGroup.POST("/corrections", deps.QA.SubmitCorrection)
	staffGroup.GET("/qa-logs/flagged", deps.QA.ListFlagged)
	staffGroup.GET("/verified-answers", deps.QA.ListVerified)
	staffGroup.GET("/chat-logs/:course_id/:student_id", deps.Analytics.StudentHistory)
	staffGroup.GET("/analytics/student-counts", deps.Analytics.StudentCounts)

	authGroup.GET("/documents", deps.Documents.List)

	askGroup := authGroup.Group("")
	askGroup.Use(middleware.RateLimit(deps.AskRateLimit))
	askGroup.POST("/ask", deps.QA.Ask)

	authGroup.POST("/qa-logs/:id/rate", deps.QA.Rate)
	authGroup.GET("/qa-logs/mine", deps.Analytics.MyHistory)
}
