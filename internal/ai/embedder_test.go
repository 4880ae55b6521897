package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

type fakeProvider struct {
	dim      int
	calls    [][]string
	failN    int
	failWith error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if f.failN > 0 {
		f.failN--
		return "", f.failWith
	}
	return "generated: " + prompt, nil
}

func (f *fakeProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.failN > 0 {
		f.failN--
		return nil, f.failWith
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec := make([]float32, f.dim)
		vec[0] = float32(len(text))
		out = append(out, vec)
	}
	return out, nil
}

func TestEmbedBatchPreservesOrderAcrossBatches(t *testing.T) {
	fake := &fakeProvider{dim: 4}
	e := NewEmbedder(fake, "embed-model", 4, 2, 0)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedBatch(context.Background(), texts, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	for i, text := range texts {
		require.Equal(t, float32(len(text)), vectors[i][0])
	}
	// maxBatch 2 over 5 inputs means 3 provider calls.
	require.Len(t, fake.calls, 3)
	require.Equal(t, []string{"a", "bb"}, fake.calls[0])
	require.Equal(t, []string{"eeeee"}, fake.calls[2])
}

func TestEmbedBatchCacheHitSkipsProvider(t *testing.T) {
	fake := &fakeProvider{dim: 4}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)

	_, err := e.EmbedBatch(context.Background(), []string{"same text"}, TaskTypeDocument)
	require.NoError(t, err)
	vectors, err := e.EmbedBatch(context.Background(), []string{"same text"}, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	require.Equal(t, float32(9), vectors[0][0])
}

func TestEmbedBatchCacheKeyedByTaskType(t *testing.T) {
	fake := &fakeProvider{dim: 4}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)

	_, err := e.EmbedBatch(context.Background(), []string{"text"}, TaskTypeDocument)
	require.NoError(t, err)
	_, err = e.EmbedBatch(context.Background(), []string{"text"}, TaskTypeQuery)
	require.NoError(t, err)
	require.Len(t, fake.calls, 2)
}

func TestEmbedBatchDimensionMismatch(t *testing.T) {
	fake := &fakeProvider{dim: 3}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)

	_, err := e.EmbedBatch(context.Background(), []string{"text"}, TaskTypeDocument)
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestEmbedBatchRetriesTransient(t *testing.T) {
	fake := &fakeProvider{dim: 4, failN: 2, failWith: apperr.Transient(errors.New("rate limited"))}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)

	vectors, err := e.EmbedBatch(context.Background(), []string{"text"}, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Len(t, fake.calls, 3)
}

func TestEmbedBatchNoRetryOnPermanentError(t *testing.T) {
	boom := errors.New("invalid api key")
	fake := &fakeProvider{dim: 4, failN: 5, failWith: boom}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)

	_, err := e.EmbedBatch(context.Background(), []string{"text"}, TaskTypeDocument)
	require.ErrorIs(t, err, boom)
	require.Len(t, fake.calls, 1)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	fake := &fakeProvider{dim: 4}
	e := NewEmbedder(fake, "embed-model", 4, 10, 0)
	vectors, err := e.EmbedBatch(context.Background(), nil, TaskTypeDocument)
	require.NoError(t, err)
	require.Nil(t, vectors)
	require.Empty(t, fake.calls)
}

func TestGeneratorRetriesTransient(t *testing.T) {
	fake := &fakeProvider{failN: 1, failWith: apperr.Transient(errors.New("overloaded"))}
	g := NewGenerator(fake, "gen-model", time.Second)

	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "generated: hello", text)
}

func TestGeneratorPermanentErrorFailsFast(t *testing.T) {
	boom := errors.New("bad request")
	fake := &fakeProvider{failN: 5, failWith: boom}
	g := NewGenerator(fake, "gen-model", time.Second)

	_, err := g.Generate(context.Background(), "hello")
	require.ErrorIs(t, err, boom)
}
