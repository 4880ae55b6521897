package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
)

type fakeVerifiedWriter struct {
	mu       sync.Mutex
	inserted []*model.VerifiedAnswer
	err      error
}

func (f *fakeVerifiedWriter) Insert(ctx context.Context, va *model.VerifiedAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, va)
	return nil
}

func (f *fakeVerifiedWriter) ListByCourse(ctx context.Context, courseID string) ([]model.VerifiedAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.VerifiedAnswer
	for _, va := range f.inserted {
		if va.CourseID == courseID {
			out = append(out, *va)
		}
	}
	return out, nil
}

func flaggedLog(id string) *model.QALog {
	return &model.QALog{
		ID:       id,
		CourseID: "cs201",
		Question: "What is a heap?",
		Answer:   "wrong answer",
		Rating:   model.RatingDown,
		Status:   model.QALogStatusFlagged,
	}
}

func TestSubmitCorrectionStoresAndResolvesFlag(t *testing.T) {
	verified := &fakeVerifiedWriter{}
	logs := newFakeQALogs(flaggedLog("log-1"))
	emb := &fakeEmbedder{dim: 768}
	svc := NewCorrectionService(newFakeCourses(testCourse()), verified, logs, emb)

	va, err := svc.Submit(context.Background(), "cs201", "ta-1", "log-1",
		"What is a heap?", "A complete binary tree with the heap property.")
	require.NoError(t, err)
	require.Equal(t, "ta-1", va.CreatedBy)
	require.Len(t, va.Embedding, 768)
	require.Len(t, verified.inserted, 1)

	log, err := logs.GetByID(context.Background(), "log-1")
	require.NoError(t, err)
	require.Equal(t, model.QALogStatusReviewed, log.Status)
	// The question text, not the answer, is what got embedded.
	require.Equal(t, "RETRIEVAL_QUERY", emb.gotTask)
}

func TestSubmitCorrectionWithoutLog(t *testing.T) {
	verified := &fakeVerifiedWriter{}
	svc := NewCorrectionService(newFakeCourses(testCourse()), verified, newFakeQALogs(), &fakeEmbedder{dim: 768})

	va, err := svc.Submit(context.Background(), "cs201", "ta-1", "",
		"What is a stack?", "LIFO collection.")
	require.NoError(t, err)
	require.NotEmpty(t, va.ID)
	require.Len(t, verified.inserted, 1)
}

func TestSubmitCorrectionEmbedFailureAborts(t *testing.T) {
	verified := &fakeVerifiedWriter{}
	logs := newFakeQALogs(flaggedLog("log-1"))
	svc := NewCorrectionService(newFakeCourses(testCourse()), verified, logs, &fakeEmbedder{err: appErr.ErrUpstream})

	_, err := svc.Submit(context.Background(), "cs201", "ta-1", "log-1", "q", "a")
	require.ErrorIs(t, err, appErr.ErrUpstream)
	require.Empty(t, verified.inserted)
	log, _ := logs.GetByID(context.Background(), "log-1")
	require.Equal(t, model.QALogStatusFlagged, log.Status)
}

func TestSubmitCorrectionValidates(t *testing.T) {
	svc := NewCorrectionService(newFakeCourses(testCourse()), &fakeVerifiedWriter{}, newFakeQALogs(), &fakeEmbedder{dim: 768})

	_, err := svc.Submit(context.Background(), "cs201", "ta-1", "", "", "answer")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Submit(context.Background(), "cs201", "ta-1", "", "question", " ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSubmitCorrectionWrongCourseLog(t *testing.T) {
	other := flaggedLog("log-9")
	other.CourseID = "cs999"
	svc := NewCorrectionService(newFakeCourses(testCourse()), &fakeVerifiedWriter{}, newFakeQALogs(other), &fakeEmbedder{dim: 768})

	_, err := svc.Submit(context.Background(), "cs201", "ta-1", "log-9", "q", "a")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSubmitCorrectionAllowsDuplicates(t *testing.T) {
	verified := &fakeVerifiedWriter{}
	svc := NewCorrectionService(newFakeCourses(testCourse()), verified, newFakeQALogs(), &fakeEmbedder{dim: 768})

	_, err := svc.Submit(context.Background(), "cs201", "ta-1", "", "q", "first version")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "cs201", "ta-2", "", "q", "second version")
	require.NoError(t, err)
	require.Len(t, verified.inserted, 2)
}

func TestFlaggedListsOnlyFlagged(t *testing.T) {
	logs := newFakeQALogs(flaggedLog("log-1"), flaggedLog("log-2"))
	answered := flaggedLog("log-3")
	answered.Status = model.QALogStatusAnswered
	require.NoError(t, logs.Insert(context.Background(), answered))
	svc := NewCorrectionService(newFakeCourses(testCourse()), &fakeVerifiedWriter{}, logs, &fakeEmbedder{dim: 768})

	flagged, err := svc.Flagged(context.Background(), "cs201", 0, 0)
	require.NoError(t, err)
	require.Len(t, flagged, 2)
	for _, log := range flagged {
		require.Equal(t, model.QALogStatusFlagged, log.Status)
	}
}

func TestRateDownFlagsLog(t *testing.T) {
	log := flaggedLog("log-1")
	log.Status = model.QALogStatusAnswered
	log.Rating = 0
	userID := "student-1"
	log.UserID = &userID
	logs := newFakeQALogs(log)
	svc := NewFeedbackService(logs)

	updated, err := svc.Rate(context.Background(), "log-1", "student-1", model.RatingDown)
	require.NoError(t, err)
	require.Equal(t, model.RatingDown, updated.Rating)
	require.Equal(t, model.QALogStatusFlagged, updated.Status)
}

func TestRateRejectsOtherUsersLog(t *testing.T) {
	log := flaggedLog("log-1")
	owner := "student-1"
	log.UserID = &owner
	svc := NewFeedbackService(newFakeQALogs(log))

	_, err := svc.Rate(context.Background(), "log-1", "student-2", model.RatingUp)
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestRateValidatesValue(t *testing.T) {
	svc := NewFeedbackService(newFakeQALogs(flaggedLog("log-1")))
	_, err := svc.Rate(context.Background(), "log-1", "student-1", 5)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
