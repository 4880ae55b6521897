package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/campusqa/courseqa/internal/filestore"
	"github.com/campusqa/courseqa/internal/model"
	appErr "github.com/campusqa/courseqa/internal/pkg/errors"
	"github.com/campusqa/courseqa/internal/repo"
)

type fakeCourses struct {
	byID map[string]*model.Course
}

func newFakeCourses(courses ...*model.Course) *fakeCourses {
	f := &fakeCourses{byID: make(map[string]*model.Course)}
	for _, c := range courses {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCourses) GetByID(ctx context.Context, courseID string) (*model.Course, error) {
	course, ok := f.byID[courseID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return course, nil
}

type fakeChunkSearch struct {
	matches []repo.ChunkMatch
	gotK    int
	err     error
}

func (f *fakeChunkSearch) Search(ctx context.Context, courseID string, query []float32, k int) ([]repo.ChunkMatch, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeVerifiedSearch struct {
	matches []repo.VerifiedMatch
	err     error
}

func (f *fakeVerifiedSearch) Search(ctx context.Context, courseID string, query []float32, k int) ([]repo.VerifiedMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	dim       int
	err       error
	batchErr  error
	gotTexts  []string
	gotTask   string
	callCount int
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.callCount++
	f.gotTask = taskType
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.callCount++
	f.gotTexts = texts
	f.gotTask = taskType
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

type fakeGenerator struct {
	reply     string
	err       error
	gotPrompt string
	called    bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.called = true
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeQALogs struct {
	mu       sync.Mutex
	inserted []*model.QALog
	statuses map[string]string
	byID     map[string]*model.QALog
}

func newFakeQALogs(logs ...*model.QALog) *fakeQALogs {
	f := &fakeQALogs{
		statuses: make(map[string]string),
		byID:     make(map[string]*model.QALog),
	}
	for _, log := range logs {
		f.byID[log.ID] = log
	}
	return f
}

func (f *fakeQALogs) Insert(ctx context.Context, log *model.QALog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, log)
	f.byID[log.ID] = log
	return nil
}

func (f *fakeQALogs) GetByID(ctx context.Context, logID string) (*model.QALog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.byID[logID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return log, nil
}

func (f *fakeQALogs) UpdateStatus(ctx context.Context, logID string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.byID[logID]
	if !ok {
		return appErr.ErrNotFound
	}
	log.Status = status
	f.statuses[logID] = status
	return nil
}

func (f *fakeQALogs) Rate(ctx context.Context, logID string, rating int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.byID[logID]
	if !ok {
		return appErr.ErrNotFound
	}
	log.Rating = rating
	if rating == model.RatingDown && log.Status != model.QALogStatusReviewed {
		log.Status = model.QALogStatusFlagged
	}
	return nil
}

func (f *fakeQALogs) ListByStatus(ctx context.Context, courseID string, status string, limit, offset uint) ([]model.QALog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QALog
	for _, log := range f.byID {
		if log.CourseID == courseID && log.Status == status {
			out = append(out, *log)
		}
	}
	return out, nil
}

type fakeDocuments struct {
	mu   sync.Mutex
	byID map[string]*model.Document
	// transitions records every status move, in order.
	transitions []string
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{byID: make(map[string]*model.Document)}
}

func (f *fakeDocuments) Create(ctx context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *doc
	f.byID[doc.ID] = &copied
	return nil
}

func (f *fakeDocuments) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.byID[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocuments) ListByCourse(ctx context.Context, courseID string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, doc := range f.byID {
		if doc.CourseID == courseID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocuments) UpdateStatus(ctx context.Context, docID string, from []string, to string, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.byID[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if doc.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErr.ErrNotFound
	}
	doc.Status = to
	doc.Mtime = mtime
	f.transitions = append(f.transitions, doc.Status)
	return nil
}

func (f *fakeDocuments) status(docID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.byID[docID]; ok {
		return doc.Status
	}
	return ""
}

type fakeChunkWriter struct {
	mu     sync.Mutex
	gotDoc string
	chunks []model.Chunk
	err    error
}

func (f *fakeChunkWriter) InsertForDocument(ctx context.Context, docID string, chunks []model.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.gotDoc = docID
	f.chunks = chunks
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (f *fakeStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

type memFile struct {
	*bytes.Reader
}

func newMemFile(data []byte) *memFile {
	return &memFile{Reader: bytes.NewReader(data)}
}

func (m *memFile) Close() error { return nil }
