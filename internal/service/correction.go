package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusqa/courseqa/internal/ai"
	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

type verifiedAnswerWriter interface {
	Insert(ctx context.Context, va *model.VerifiedAnswer) error
	ListByCourse(ctx context.Context, courseID string) ([]model.VerifiedAnswer, error)
}

type qaLogUpdater interface {
	GetByID(ctx context.Context, logID string) (*model.QALog, error)
	UpdateStatus(ctx context.Context, logID string, status string) error
	ListByStatus(ctx context.Context, courseID string, status string, limit, offset uint) ([]model.QALog, error)
}

// CorrectionService lets TAs replace bad answers with verified ones. The
// verified answer enters retrieval immediately, so the next similar
// question is answered from it instead of the raw material.
type CorrectionService struct {
	courses  courseGetter
	verified verifiedAnswerWriter
	qaLogs   qaLogUpdater
	embedder queryEmbedder
}

func NewCorrectionService(courses courseGetter, verified verifiedAnswerWriter,
	qaLogs qaLogUpdater, embedder queryEmbedder) *CorrectionService {
	return &CorrectionService{
		courses:  courses,
		verified: verified,
		qaLogs:   qaLogs,
		embedder: embedder,
	}
}

// Submit stores a corrected answer. qaLogID is optional; when set, the
// referenced log moves to reviewed after the verified answer is in place.
// Embedding failure aborts the whole submission: a verified answer that
// retrieval can't find would silently never serve anyone.
func (s *CorrectionService) Submit(ctx context.Context, courseID, taID, qaLogID, question, answer string) (*model.VerifiedAnswer, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, fmt.Errorf("%w: question and answer are required", appErr.ErrInvalid)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	if qaLogID != "" {
		log, err := s.qaLogs.GetByID(ctx, qaLogID)
		if err != nil {
			return nil, err
		}
		if log.CourseID != courseID {
			return nil, fmt.Errorf("%w: qa log belongs to another course", appErr.ErrInvalid)
		}
	}
	logger := logutil.GetLogger(ctx).With(zap.String("course_id", courseID), zap.String("ta_id", taID))

	// The question text is what gets embedded: retrieval matches incoming
	// questions against corrected questions, not against answer prose.
	vec, err := s.embedder.EmbedOne(ctx, question, ai.TaskTypeQuery)
	if err != nil {
		logger.Error("failed to embed corrected question", zap.Error(err))
		return nil, err
	}

	va := &model.VerifiedAnswer{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Question:  question,
		Answer:    answer,
		Embedding: vec,
		CreatedBy: taID,
		Ctime:     time.Now().UnixMilli(),
	}
	if err := s.verified.Insert(ctx, va); err != nil {
		logger.Error("failed to store verified answer", zap.Error(err))
		return nil, err
	}

	if qaLogID != "" {
		if err := s.qaLogs.UpdateStatus(ctx, qaLogID, model.QALogStatusReviewed); err != nil {
			// The verified answer is already live; a stale flag is the
			// lesser failure.
			logger.Warn("verified answer stored but flag not cleared", zap.String("qa_log_id", qaLogID), zap.Error(err))
		}
	}
	logger.Info("correction accepted", zap.String("verified_answer_id", va.ID))
	return va, nil
}

// Flagged lists the course's answers awaiting TA review, newest first.
func (s *CorrectionService) Flagged(ctx context.Context, courseID string, limit, offset uint) ([]model.QALog, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.qaLogs.ListByStatus(ctx, courseID, model.QALogStatusFlagged, limit, offset)
}

// VerifiedAnswers lists the course's corrections, newest first.
func (s *CorrectionService) VerifiedAnswers(ctx context.Context, courseID string) ([]model.VerifiedAnswer, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.verified.ListByCourse(ctx, courseID)
}
