package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusqa/courseqa/internal/pkg/errcode"
	"github.com/campusqa/courseqa/internal/pkg/response"
	"github.com/campusqa/courseqa/internal/service"
)

type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type courseRequest struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req.Name, getUserID(c), req.SystemPrompt)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, course)
}

func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, course)
}

func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"courses": courses})
}

func (h *CourseHandler) Update(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), getUserID(c), req.Name, req.SystemPrompt)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, course)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id"), getUserID(c)); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
