package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusqa/courseqa/internal/config"
	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/repo"
)

func testCourse() *model.Course {
	return &model.Course{
		ID:           "cs201",
		Name:         "Data Structures",
		InstructorID: "prof-1",
		SystemPrompt: "You are the CS201 assistant.",
	}
}

func chunkMatch(content, file string, page int, sim float64) repo.ChunkMatch {
	p := page
	return repo.ChunkMatch{
		Chunk:      model.Chunk{ID: "ch-" + file, Content: content, Page: &p},
		FileName:   file,
		Kind:       model.DocumentKindPDF,
		Similarity: sim,
	}
}

func newAskFixture(chunks *fakeChunkSearch, verified *fakeVerifiedSearch, gen *fakeGenerator) (*AskService, *fakeQALogs, *fakeEmbedder) {
	logs := newFakeQALogs()
	emb := &fakeEmbedder{dim: 768}
	svc := NewAskService(newFakeCourses(testCourse()), chunks, verified, emb, gen, logs, config.Defaults())
	return svc, logs, emb
}

func TestAskAnswersWithCitations(t *testing.T) {
	chunks := &fakeChunkSearch{matches: []repo.ChunkMatch{
		chunkMatch("A heap is a complete binary tree.", "trees.pdf", 12, 0.9),
	}}
	gen := &fakeGenerator{reply: "A heap is a complete binary tree [cite: S1].\nCONFIDENCE: 0.9"}
	svc, logs, emb := newAskFixture(chunks, &fakeVerifiedSearch{}, gen)

	res, err := svc.Ask(context.Background(), "cs201", "student-1", "What is a heap?")
	require.NoError(t, err)
	log := res.Log
	require.Equal(t, "A heap is a complete binary tree [cite: S1].", log.Answer)
	require.Len(t, log.Citations, 1)
	require.Equal(t, model.CitationTypePDF, log.Citations[0].Type)
	require.Equal(t, "trees.pdf", log.Citations[0].FileName)
	require.Equal(t, 12, *log.Citations[0].Page)
	require.NotNil(t, log.Confidence)
	require.Equal(t, 0.9, *log.Confidence)
	require.Equal(t, model.QALogStatusAnswered, log.Status)
	require.NotNil(t, log.UserID)
	require.Equal(t, "student-1", *log.UserID)
	require.Equal(t, 1, res.SourcesUsed)
	require.Len(t, logs.inserted, 1)
	require.Equal(t, "RETRIEVAL_QUERY", emb.gotTask)
	// Persona and question flow into the prompt.
	require.Contains(t, gen.gotPrompt, "You are the CS201 assistant.")
	require.Contains(t, gen.gotPrompt, "What is a heap?")
}

func TestAskEmptyContextSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{reply: "should never be used"}
	svc, logs, _ := newAskFixture(&fakeChunkSearch{}, &fakeVerifiedSearch{}, gen)

	res, err := svc.Ask(context.Background(), "cs201", "student-1", "What is a heap?")
	require.NoError(t, err)
	require.False(t, gen.called)
	require.Equal(t, NoContextAnswer, res.Log.Answer)
	require.Empty(t, res.Log.Citations)
	require.Nil(t, res.Log.Confidence)
	require.Zero(t, res.SourcesUsed)
	require.Len(t, logs.inserted, 1)
}

func TestAskVerifiedAnswerCited(t *testing.T) {
	verified := &fakeVerifiedSearch{matches: []repo.VerifiedMatch{{
		Answer:     model.VerifiedAnswer{Question: "What is a heap?", Answer: "A tree with the heap property."},
		Similarity: 0.95,
	}}}
	gen := &fakeGenerator{reply: "A tree with the heap property [cite: S1].\nCONFIDENCE: 1.0"}
	svc, _, _ := newAskFixture(&fakeChunkSearch{}, verified, gen)

	res, err := svc.Ask(context.Background(), "cs201", "student-1", "What is a heap?")
	require.NoError(t, err)
	require.Len(t, res.Log.Citations, 1)
	require.Equal(t, model.CitationTypeVerified, res.Log.Citations[0].Type)
	require.Equal(t, "What is a heap?", res.Log.Citations[0].Question)
	require.Equal(t, 1, res.SourcesUsed)
}

func TestAskValidatesQuestion(t *testing.T) {
	svc, logs, _ := newAskFixture(&fakeChunkSearch{}, &fakeVerifiedSearch{}, &fakeGenerator{})

	_, err := svc.Ask(context.Background(), "cs201", "student-1", "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Ask(context.Background(), "cs201", "student-1", strings.Repeat("x", maxQuestionLen+1))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Empty(t, logs.inserted)
}

func TestAskUnknownCourse(t *testing.T) {
	svc, _, emb := newAskFixture(&fakeChunkSearch{}, &fakeVerifiedSearch{}, &fakeGenerator{})

	_, err := svc.Ask(context.Background(), "nope", "student-1", "question?")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Zero(t, emb.callCount)
}

func TestAskClampsRetrievalK(t *testing.T) {
	chunks := &fakeChunkSearch{}
	logs := newFakeQALogs()
	cfg := config.Defaults()
	cfg.KChunks = 500
	svc := NewAskService(newFakeCourses(testCourse()), chunks, &fakeVerifiedSearch{},
		&fakeEmbedder{dim: 768}, &fakeGenerator{}, logs, cfg)

	_, err := svc.Ask(context.Background(), "cs201", "student-1", "question?")
	require.NoError(t, err)
	require.Equal(t, cfg.MaxK, chunks.gotK)
}

func TestAskEmbedFailureNoLog(t *testing.T) {
	svc, logs, _ := newAskFixture(&fakeChunkSearch{}, &fakeVerifiedSearch{}, &fakeGenerator{})
	embFail := &fakeEmbedder{err: appErr.ErrUpstream}
	svc.embedder = embFail

	_, err := svc.Ask(context.Background(), "cs201", "student-1", "question?")
	require.ErrorIs(t, err, appErr.ErrUpstream)
	require.Empty(t, logs.inserted)
}

func TestAskAnonymousUser(t *testing.T) {
	svc, logs, _ := newAskFixture(&fakeChunkSearch{}, &fakeVerifiedSearch{}, &fakeGenerator{})

	res, err := svc.Ask(context.Background(), "cs201", "", "question?")
	require.NoError(t, err)
	require.Nil(t, res.Log.UserID)
	require.Len(t, logs.inserted, 1)
}
