package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusqa/courseqa/internal/ai"
	"github.com/campusqa/courseqa/internal/config"
	"github.com/campusqa/courseqa/internal/extract"
	"github.com/campusqa/courseqa/internal/filestore"
	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/rag"
)

type courseGetter interface {
	GetByID(ctx context.Context, courseID string) (*model.Course, error)
}

type documentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Document, error)
	UpdateStatus(ctx context.Context, docID string, from []string, to string, mtime int64) error
}

type chunkWriter interface {
	InsertForDocument(ctx context.Context, docID string, chunks []model.Chunk) error
}

type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// IngestService accepts uploaded course files and turns pdf and transcript
// uploads into embedded chunks. Extraction and embedding run in the
// background; the document row carries the progress through its status.
type IngestService struct {
	courses   courseGetter
	documents documentStore
	chunks    chunkWriter
	store     filestore.Store
	embedder  batchEmbedder
	cfg       config.RAGConfig
}

func NewIngestService(courses courseGetter, documents documentStore, chunks chunkWriter,
	store filestore.Store, embedder batchEmbedder, cfg config.RAGConfig) *IngestService {
	return &IngestService{
		courses:   courses,
		documents: documents,
		chunks:    chunks,
		store:     store,
		embedder:  embedder,
		cfg:       cfg,
	}
}

// Upload stores the file, records the document and kicks off background
// processing. Video uploads carry no extractable text, so they complete
// immediately and exist for citation metadata only.
func (s *IngestService) Upload(ctx context.Context, courseID, fileName, kind string, r filestore.ReadSeekCloser, size int64) (*model.Document, error) {
	if !model.ValidDocumentKind(kind) {
		return nil, fmt.Errorf("%w: document kind %q", appErr.ErrInvalid, kind)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", appErr.ErrInvalid)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	doc := &model.Document{
		ID:       uuid.NewString(),
		CourseID: courseID,
		FileName: fileName,
		Kind:     kind,
		Status:   model.DocumentStatusPending,
		Ctime:    now,
		Mtime:    now,
	}
	doc.StoragePath = doc.ID + path.Ext(fileName)
	if kind == model.DocumentKindVideo {
		doc.Status = model.DocumentStatusCompleted
	}

	if err := s.store.Save(ctx, doc.StoragePath, r, size); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorage, err)
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if kind != model.DocumentKindVideo {
		// Detached from the request: processing outlives the HTTP call.
		go s.process(context.WithoutCancel(ctx), doc.ID)
	}
	return doc, nil
}

// process runs the extract-chunk-embed pipeline for a pending document.
// Completed and failed are terminal: a failed document is re-ingested only
// by uploading it again, never by re-running in place.
func (s *IngestService) process(ctx context.Context, docID string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", docID))
	now := time.Now().UnixMilli()
	if err := s.documents.UpdateStatus(ctx, docID,
		[]string{model.DocumentStatusPending},
		model.DocumentStatusProcessing, now); err != nil {
		logger.Error("document not claimable for processing", zap.Error(err))
		return err
	}
	if err := s.runPipeline(ctx, docID); err != nil {
		logger.Error("document ingestion failed", zap.Error(err))
		failErr := s.documents.UpdateStatus(ctx, docID,
			[]string{model.DocumentStatusProcessing},
			model.DocumentStatusFailed, time.Now().UnixMilli())
		if failErr != nil {
			logger.Error("failed to mark document failed", zap.Error(failErr))
		}
		return err
	}
	if err := s.documents.UpdateStatus(ctx, docID,
		[]string{model.DocumentStatusProcessing},
		model.DocumentStatusCompleted, time.Now().UnixMilli()); err != nil {
		logger.Error("failed to mark document completed", zap.Error(err))
		return err
	}
	logger.Info("document ingestion completed")
	return nil
}

func (s *IngestService) runPipeline(ctx context.Context, docID string) error {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	reader, err := s.store.Open(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStorage, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStorage, err)
	}

	segments, err := s.extractSegments(doc.Kind, data)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		// Readable but empty source: the document completes with zero
		// chunks rather than failing.
		logutil.GetLogger(ctx).Info("document has no extractable text", zap.String("doc_id", doc.ID))
		return nil
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Content)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts, ai.TaskTypeDocument)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	chunks := make([]model.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunk := model.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    seg.Content,
			Embedding:  vectors[i],
			Ctime:      now,
		}
		switch doc.Kind {
		case model.DocumentKindPDF:
			page := seg.Page
			chunk.Page = &page
		case model.DocumentKindTranscript:
			start, end := seg.Start, seg.End
			chunk.StartTime = &start
			chunk.EndTime = &end
		}
		chunks = append(chunks, chunk)
	}
	return s.chunks.InsertForDocument(ctx, doc.ID, chunks)
}

func (s *IngestService) extractSegments(kind string, data []byte) ([]rag.Segment, error) {
	switch kind {
	case model.DocumentKindPDF:
		pages, err := extract.PDFPages(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		return rag.ChunkPages(pages, s.cfg.ChunkBudget, s.cfg.ChunkOverlap), nil
	case model.DocumentKindTranscript:
		cues, err := extract.ParseVTT(string(data))
		if err != nil {
			return nil, err
		}
		return rag.ChunkCues(cues, s.cfg.CueWindowSeconds, s.cfg.CueGapSeconds, s.cfg.ChunkBudget), nil
	default:
		return nil, fmt.Errorf("%w: kind %q has no extraction", appErr.ErrInvalid, kind)
	}
}

// ListDocuments returns the course's documents with their current status.
func (s *IngestService) ListDocuments(ctx context.Context, courseID string) ([]model.Document, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.documents.ListByCourse(ctx, courseID)
}
