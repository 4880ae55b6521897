package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/repo"
	"github.com/campusqa/courseqa/test/testutil"
)

func TestDocumentStatusMachine(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	courses := repo.NewCourseRepo(db)
	documents := repo.NewDocumentRepo(db)
	ctx := context.Background()

	course := seedCourse(t, courses)
	doc := seedDocument(t, documents, course.ID, model.DocumentKindPDF, model.DocumentStatusPending)
	now := time.Now().UnixMilli()

	// pending -> processing -> completed
	require.NoError(t, documents.UpdateStatus(ctx, doc.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, now))
	require.NoError(t, documents.UpdateStatus(ctx, doc.ID,
		[]string{model.DocumentStatusProcessing}, model.DocumentStatusCompleted, now))

	// completed is terminal: claiming it again affects nothing.
	err := documents.UpdateStatus(ctx, doc.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	fetched, err := documents.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusCompleted, fetched.Status)

	// failed is terminal as well.
	failedDoc := seedDocument(t, documents, course.ID, model.DocumentKindPDF, model.DocumentStatusPending)
	require.NoError(t, documents.UpdateStatus(ctx, failedDoc.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, now))
	require.NoError(t, documents.UpdateStatus(ctx, failedDoc.ID,
		[]string{model.DocumentStatusProcessing}, model.DocumentStatusFailed, now))
	err = documents.UpdateStatus(ctx, failedDoc.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestFailStuckProcessing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	courses := repo.NewCourseRepo(db)
	documents := repo.NewDocumentRepo(db)
	ctx := context.Background()

	course := seedCourse(t, courses)
	stuck := seedDocument(t, documents, course.ID, model.DocumentKindPDF, model.DocumentStatusPending)
	fresh := seedDocument(t, documents, course.ID, model.DocumentKindPDF, model.DocumentStatusPending)

	now := time.Now().UnixMilli()
	old := now - int64(2*time.Hour/time.Millisecond)
	require.NoError(t, documents.UpdateStatus(ctx, stuck.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, old))
	require.NoError(t, documents.UpdateStatus(ctx, fresh.ID,
		[]string{model.DocumentStatusPending}, model.DocumentStatusProcessing, now))

	cutoff := now - int64(30*time.Minute/time.Millisecond)
	moved, err := documents.FailStuckProcessing(ctx, cutoff, now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, moved, int64(1))

	stuckDoc, err := documents.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusFailed, stuckDoc.Status)

	freshDoc, err := documents.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessing, freshDoc.Status)
}

func TestDocumentListByCourse(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	courses := repo.NewCourseRepo(db)
	documents := repo.NewDocumentRepo(db)
	ctx := context.Background()

	course := seedCourse(t, courses)
	seedDocument(t, documents, course.ID, model.DocumentKindPDF, model.DocumentStatusCompleted)
	seedDocument(t, documents, course.ID, model.DocumentKindVideo, model.DocumentStatusCompleted)

	docs, err := documents.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}
