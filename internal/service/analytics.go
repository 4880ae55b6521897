package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusqa/courseqa/internal/model"
	"github.com/campusqa/courseqa/internal/repo"
)

const topConceptsSample = 200

type qaLogReader interface {
	StatsByCourseSince(ctx context.Context, courseID string, since int64) (*repo.CourseStats, error)
	VolumeByDaySince(ctx context.Context, courseID string, since int64) ([]repo.DayCount, error)
	CountByUser(ctx context.Context, courseID string) ([]repo.UserCount, error)
	ListByCourseSince(ctx context.Context, courseID string, since int64, limit uint) ([]model.QALog, error)
	ListByCourseUser(ctx context.Context, courseID, userID string, limit, offset uint) ([]model.QALog, error)
}

// CourseOverview is the instructor dashboard payload.
type CourseOverview struct {
	CourseID       string          `json:"course_id"`
	SinceDays      int             `json:"since_days"`
	TotalQuestions int             `json:"total_questions"`
	Flagged        int             `json:"flagged"`
	Reviewed       int             `json:"reviewed"`
	RatedUp        int             `json:"rated_up"`
	RatedDown      int             `json:"rated_down"`
	AvgRating      *float64        `json:"avg_rating"`
	AvgConfidence  *float64        `json:"avg_confidence"`
	DailyVolume    []repo.DayCount `json:"daily_volume"`
	TopConcepts    []string        `json:"top_concepts,omitempty"`
}

// AnalyticsService aggregates qa activity per course.
type AnalyticsService struct {
	courses   courseGetter
	qaLogs    qaLogReader
	generator answerGenerator
}

func NewAnalyticsService(courses courseGetter, qaLogs qaLogReader, generator answerGenerator) *AnalyticsService {
	return &AnalyticsService{
		courses:   courses,
		qaLogs:    qaLogs,
		generator: generator,
	}
}

// Overview returns the course counters for the window. Concept extraction
// needs a model call and is best effort: its failure never fails the
// dashboard.
func (s *AnalyticsService) Overview(ctx context.Context, courseID string, sinceDays int) (*CourseOverview, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	if sinceDays <= 0 {
		sinceDays = 7
	}
	since := time.Now().AddDate(0, 0, -sinceDays).UnixMilli()
	stats, err := s.qaLogs.StatsByCourseSince(ctx, courseID, since)
	if err != nil {
		return nil, err
	}
	volume, err := s.qaLogs.VolumeByDaySince(ctx, courseID, since)
	if err != nil {
		return nil, err
	}
	overview := &CourseOverview{
		CourseID:       courseID,
		SinceDays:      sinceDays,
		TotalQuestions: stats.TotalQuestions,
		Flagged:        stats.Flagged,
		Reviewed:       stats.Reviewed,
		RatedUp:        stats.RatedUp,
		RatedDown:      stats.RatedDown,
		AvgRating:      stats.AvgRating,
		AvgConfidence:  stats.AvgConfidence,
		DailyVolume:    volume,
	}
	if concepts, err := s.topConcepts(ctx, courseID, since); err != nil {
		logutil.GetLogger(ctx).Warn("top concepts unavailable", zap.String("course_id", courseID), zap.Error(err))
	} else {
		overview.TopConcepts = concepts
	}
	return overview, nil
}

func (s *AnalyticsService) topConcepts(ctx context.Context, courseID string, since int64) ([]string, error) {
	if s.generator == nil {
		return nil, nil
	}
	logs, err := s.qaLogs.ListByCourseSince(ctx, courseID, since, topConceptsSample)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString("Below is a list of questions students asked in a course. ")
	sb.WriteString("Reply with the 5 most common concepts they struggle with, one per line, no numbering, nothing else.\n\n")
	for _, log := range logs {
		sb.WriteString("- ")
		sb.WriteString(log.Question)
		sb.WriteString("\n")
	}
	raw, err := s.generator.Generate(ctx, sb.String())
	if err != nil {
		return nil, err
	}
	var concepts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" {
			continue
		}
		concepts = append(concepts, line)
		if len(concepts) == 5 {
			break
		}
	}
	return concepts, nil
}

// StudentHistory lists one student's qa logs in a course. Used both for
// a student's own history and for staff reviewing a specific student.
func (s *AnalyticsService) StudentHistory(ctx context.Context, courseID, userID string, limit, offset uint) ([]model.QALog, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.qaLogs.ListByCourseUser(ctx, courseID, userID, limit, offset)
}

// StudentCounts returns per-student question counts for a course,
// most active first.
func (s *AnalyticsService) StudentCounts(ctx context.Context, courseID string) ([]repo.UserCount, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.qaLogs.CountByUser(ctx, courseID)
}
