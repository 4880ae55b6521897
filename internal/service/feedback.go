package service

import (
	"context"
	"fmt"

	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

type qaLogRater interface {
	GetByID(ctx context.Context, logID string) (*model.QALog, error)
	Rate(ctx context.Context, logID string, rating int) error
}

// FeedbackService records student ratings on answers. A thumbs-down flags
// the answer for TA review.
type FeedbackService struct {
	qaLogs qaLogRater
}

func NewFeedbackService(qaLogs qaLogRater) *FeedbackService {
	return &FeedbackService{qaLogs: qaLogs}
}

func (s *FeedbackService) Rate(ctx context.Context, logID string, userID string, rating int) (*model.QALog, error) {
	if rating != model.RatingUp && rating != model.RatingDown {
		return nil, fmt.Errorf("%w: rating must be 1 or -1", appErr.ErrInvalid)
	}
	log, err := s.qaLogs.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	// Logs with no owner are rateable by anyone in the course; owned logs
	// only by their author.
	if log.UserID != nil && *log.UserID != userID {
		return nil, appErr.ErrForbidden
	}
	if err := s.qaLogs.Rate(ctx, logID, rating); err != nil {
		return nil, err
	}
	return s.qaLogs.GetByID(ctx, logID)
}
