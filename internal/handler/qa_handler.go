package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusqa/courseqa/internal/pkg/errcode"
	"github.com/campusqa/courseqa/internal/pkg/response"
	"github.com/campusqa/courseqa/internal/service"
)

type QAHandler struct {
	ask         *service.AskService
	feedback    *service.FeedbackService
	corrections *service.CorrectionService
}

func NewQAHandler(ask *service.AskService, feedback *service.FeedbackService, corrections *service.CorrectionService) *QAHandler {
	return &QAHandler{ask: ask, feedback: feedback, corrections: corrections}
}

type askRequest struct {
	CourseID string `json:"course_id"`
	Question string `json:"question"`
}

func (h *QAHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.CourseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	res, err := h.ask.Ask(c.Request.Context(), req.CourseID, getUserID(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"qa_log_id":    res.Log.ID,
		"answer":       res.Log.Answer,
		"citations":    res.Log.Citations,
		"sources_used": res.SourcesUsed,
		"confidence":   res.Log.Confidence,
	})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *QAHandler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	log, err := h.feedback.Rate(c.Request.Context(), c.Param("id"), getUserID(c), req.Rating)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"qa_log_id": log.ID, "rating": log.Rating, "status": log.Status})
}

type correctionRequest struct {
	CourseID string `json:"course_id"`
	QALogID  string `json:"qa_log_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *QAHandler) SubmitCorrection(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.CourseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	va, err := h.corrections.Submit(c.Request.Context(), req.CourseID, getUserID(c), req.QALogID, req.Question, req.Answer)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, va)
}

func (h *QAHandler) ListFlagged(c *gin.Context) {
	limit, offset := pageParams(c)
	logs, err := h.corrections.Flagged(c.Request.Context(), c.Query("course_id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"logs": logs})
}

func (h *QAHandler) ListVerified(c *gin.Context) {
	answers, err := h.corrections.VerifiedAnswers(c.Request.Context(), c.Query("course_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answers": answers})
}
