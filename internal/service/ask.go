package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusqa/courseqa/internal/ai"
	"github.com/campusqa/courseqa/internal/config"
	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/rag"
	"github.com/campusqa/courseqa/internal/repo"
)

// NoContextAnswer is returned verbatim when retrieval finds nothing. No
// model call happens in that case, so the reply is deterministic.
const NoContextAnswer = "I don't have enough information in the course materials to answer this question."

const maxQuestionLen = 2000

type chunkSearcher interface {
	Search(ctx context.Context, courseID string, query []float32, k int) ([]repo.ChunkMatch, error)
}

type verifiedSearcher interface {
	Search(ctx context.Context, courseID string, query []float32, k int) ([]repo.VerifiedMatch, error)
}

type queryEmbedder interface {
	EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error)
}

type answerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type qaLogWriter interface {
	Insert(ctx context.Context, log *model.QALog) error
}

// AskResult pairs the persisted log with answer metadata that lives only
// in the response. SourcesUsed counts the context items handed to the
// model, not the subset it ended up citing.
type AskResult struct {
	Log         *model.QALog
	SourcesUsed int
}

// AskService answers course questions from retrieved material only.
type AskService struct {
	courses   courseGetter
	chunks    chunkSearcher
	verified  verifiedSearcher
	embedder  queryEmbedder
	generator answerGenerator
	qaLogs    qaLogWriter
	cfg       config.RAGConfig
}

func NewAskService(courses courseGetter, chunks chunkSearcher, verified verifiedSearcher,
	embedder queryEmbedder, generator answerGenerator, qaLogs qaLogWriter, cfg config.RAGConfig) *AskService {
	return &AskService{
		courses:   courses,
		chunks:    chunks,
		verified:  verified,
		embedder:  embedder,
		generator: generator,
		qaLogs:    qaLogs,
		cfg:       cfg,
	}
}

func (s *AskService) Ask(ctx context.Context, courseID, userID, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	if len(question) > maxQuestionLen {
		return nil, fmt.Errorf("%w: question exceeds %d characters", appErr.ErrInvalid, maxQuestionLen)
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("course_id", courseID), zap.String("user_id", userID))

	queryVec, err := s.embedder.EmbedOne(ctx, question, ai.TaskTypeQuery)
	if err != nil {
		logger.Error("failed to embed question", zap.Error(err))
		return nil, err
	}

	kChunks, kVerified := s.clampK(s.cfg.KChunks), s.clampK(s.cfg.KVerified)
	var (
		wg          sync.WaitGroup
		chunkHits   []repo.ChunkMatch
		verifiedHit []repo.VerifiedMatch
		chunkErr    error
		verifiedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		chunkHits, chunkErr = s.chunks.Search(ctx, courseID, queryVec, kChunks)
	}()
	go func() {
		defer wg.Done()
		verifiedHit, verifiedErr = s.verified.Search(ctx, courseID, queryVec, kVerified)
	}()
	wg.Wait()
	if chunkErr != nil {
		return nil, chunkErr
	}
	if verifiedErr != nil {
		return nil, verifiedErr
	}

	assembled := rag.Assemble(toRetrievedChunks(chunkHits), toRetrievedAnswers(verifiedHit), s.cfg.ContextBudget)

	var parsed rag.ParsedAnswer
	if len(assembled.Items) == 0 {
		logger.Info("no retrieval context, returning canned answer")
		parsed = rag.ParsedAnswer{Answer: NoContextAnswer}
	} else {
		prompt := rag.BuildPrompt(course.SystemPrompt, assembled, question)
		raw, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			logger.Error("generation failed", zap.Error(err))
			return nil, err
		}
		parsed = rag.ParseAnswer(raw, assembled.Tags)
	}

	log := &model.QALog{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		Question:   question,
		Answer:     parsed.Answer,
		Citations:  parsed.Citations,
		Status:     model.QALogStatusAnswered,
		Confidence: parsed.Confidence,
		Ctime:      time.Now().UnixMilli(),
	}
	if userID != "" {
		log.UserID = &userID
	}
	if err := s.qaLogs.Insert(ctx, log); err != nil {
		logger.Error("failed to record qa log", zap.Error(err))
		return nil, err
	}
	return &AskResult{Log: log, SourcesUsed: len(assembled.Items)}, nil
}

func (s *AskService) clampK(k int) int {
	if k > s.cfg.MaxK {
		return s.cfg.MaxK
	}
	return k
}

func toRetrievedChunks(matches []repo.ChunkMatch) []rag.RetrievedChunk {
	out := make([]rag.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		rc := rag.RetrievedChunk{
			Content:    m.Chunk.Content,
			FileName:   m.FileName,
			Kind:       m.Kind,
			Similarity: m.Similarity,
		}
		if m.Chunk.Page != nil {
			rc.Page = *m.Chunk.Page
		}
		if m.Chunk.StartTime != nil {
			rc.Start = *m.Chunk.StartTime
		}
		if m.Chunk.EndTime != nil {
			rc.End = *m.Chunk.EndTime
		}
		out = append(out, rc)
	}
	return out
}

func toRetrievedAnswers(matches []repo.VerifiedMatch) []rag.RetrievedAnswer {
	out := make([]rag.RetrievedAnswer, 0, len(matches))
	for _, m := range matches {
		out = append(out, rag.RetrievedAnswer{
			Question:   m.Answer.Question,
			Answer:     m.Answer.Answer,
			Similarity: m.Similarity,
		})
	}
	return out
}
