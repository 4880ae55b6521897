package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/courseqa/internal/model"
	"github.com/campusqa/courseqa/internal/repo"
	"github.com/campusqa/courseqa/test/testutil"
)

func TestVerifiedAnswerSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	courses := repo.NewCourseRepo(db)
	verified := repo.NewVerifiedAnswerRepo(db)
	ctx := context.Background()

	course := seedCourse(t, courses)
	now := time.Now().UnixMilli()
	near := &model.VerifiedAnswer{
		ID: uuid.NewString(), CourseID: course.ID,
		Question: "What is a heap?", Answer: "A complete binary tree.",
		Embedding: basis(0), CreatedBy: "ta-1", Ctime: now,
	}
	far := &model.VerifiedAnswer{
		ID: uuid.NewString(), CourseID: course.ID,
		Question: "What is a graph?", Answer: "Nodes and edges.",
		Embedding: basis(1), CreatedBy: "ta-1", Ctime: now,
	}
	require.NoError(t, verified.Insert(ctx, near))
	require.NoError(t, verified.Insert(ctx, far))

	matches, err := verified.Search(ctx, course.ID, basis(0), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "What is a heap?", matches[0].Answer.Question)
	require.InDelta(t, 1.0, matches[0].Similarity, 1e-6)

	matches, err = verified.Search(ctx, course.ID, basis(0), 0)
	require.NoError(t, err)
	require.Nil(t, matches)
}

func TestVerifiedAnswerListAndDelete(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	courses := repo.NewCourseRepo(db)
	verified := repo.NewVerifiedAnswerRepo(db)
	ctx := context.Background()

	course := seedCourse(t, courses)
	va := &model.VerifiedAnswer{
		ID: uuid.NewString(), CourseID: course.ID,
		Question: "q", Answer: "a",
		Embedding: basis(0), CreatedBy: "ta-1", Ctime: time.Now().UnixMilli(),
	}
	require.NoError(t, verified.Insert(ctx, va))

	list, err := verified.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, verified.Delete(ctx, course.ID, va.ID))
	list, err = verified.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
