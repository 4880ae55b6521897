package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/courseqa/internal/pkg/errcode"
	"github.com/campusqa/courseqa/internal/pkg/response"
	"github.com/campusqa/courseqa/internal/service"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	sinceDays := 0
	if value := c.Query("days"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			sinceDays = parsed
		}
	}
	overview, err := h.analytics.Overview(c.Request.Context(), courseID, sinceDays)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, overview)
}

func (h *AnalyticsHandler) StudentHistory(c *gin.Context) {
	courseID := c.Param("course_id")
	studentID := c.Param("student_id")
	if courseID == "" || studentID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id and student_id required")
		return
	}
	limit, offset := pageParams(c)
	logs, err := h.analytics.StudentHistory(c.Request.Context(), courseID, studentID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"logs": logs})
}

func (h *AnalyticsHandler) StudentCounts(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	counts, err := h.analytics.StudentCounts(c.Request.Context(), courseID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"counts": counts})
}

func (h *AnalyticsHandler) MyHistory(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	limit, offset := pageParams(c)
	logs, err := h.analytics.StudentHistory(c.Request.Context(), courseID, getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"logs": logs})
}
