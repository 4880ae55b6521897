package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/courseqa/internal/pkg/errcode"
	"github.com/campusqa/courseqa/internal/pkg/response"
	"github.com/campusqa/courseqa/internal/service"
)

const maxUploadSize = 50 << 20

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	courseID := c.PostForm("course_id")
	kind := c.PostForm("document_type")
	if courseID == "" || kind == "" {
		response.Error(c, errcode.ErrInvalid, "course_id and document_type required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "cannot read upload")
		return
	}
	defer file.Close()

	doc, err := h.ingest.Upload(c.Request.Context(), courseID, fileHeader.Filename, kind, file, fileHeader.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, errcode.ErrInvalid, "course_id required")
		return
	}
	docs, err := h.ingest.ListDocuments(c.Request.Context(), courseID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func pageParams(c *gin.Context) (uint, uint) {
	limit, offset := uint(0), uint(0)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = uint(parsed)
		}
	}
	return limit, offset
}
