package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

const (
	embedCacheSize = 4096
	embedCacheTTL  = time.Hour

	retryAttempts = 3
	retryBaseWait = 500 * time.Millisecond
)

// Embedder turns text into fixed-dimension vectors via the configured
// provider, with request batching, an LRU cache and retry on transient
// upstream failures. Output order always matches input order.
type Embedder struct {
	provider IProvider
	model    string
	dim      int
	maxBatch int
	timeout  time.Duration
	cache    *expirable.LRU[string, []float32]
}

func NewEmbedder(p IProvider, model string, dim int, maxBatch int, timeout time.Duration) *Embedder {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &Embedder{
		provider: p,
		model:    model,
		dim:      dim,
		maxBatch: maxBatch,
		timeout:  timeout,
		cache:    expirable.NewLRU[string, []float32](embedCacheSize, nil, embedCacheTTL),
	}
}

func (e *Embedder) ModelName() string {
	return e.model
}

// EmbedBatch embeds all texts and returns one vector per input, in input
// order. Cached entries are served without a provider call; the rest go out
// in provider-sized batches. Any batch failure fails the whole call: callers
// depend on all-or-nothing results.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(e.cacheKey(taskType, text)); ok {
			result[i] = cloneVector(cached)
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) > 0 {
		logutil.GetLogger(ctx).Debug("embedding batch",
			zap.Int("total", len(texts)), zap.Int("cache_hits", len(texts)-len(missing)))
	}
	for start := 0; start < len(missing); start += e.maxBatch {
		end := start + e.maxBatch
		if end > len(missing) {
			end = len(missing)
		}
		batchIdx := missing[start:end]
		batchTexts := make([]string, 0, len(batchIdx))
		for _, i := range batchIdx {
			batchTexts = append(batchTexts, texts[i])
		}
		vectors, err := e.embedWithRetry(ctx, batchTexts, taskType)
		if err != nil {
			return nil, err
		}
		for j, i := range batchIdx {
			if len(vectors[j]) != e.dim {
				return nil, fmt.Errorf("embedding dimension %d, want %d: %w", len(vectors[j]), e.dim, apperr.ErrUpstream)
			}
			result[i] = vectors[j]
			e.cache.Add(e.cacheKey(taskType, texts[i]), cloneVector(vectors[j]))
		}
	}
	return result, nil
}

// EmbedOne is EmbedBatch for a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embedWithRetry(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			logutil.GetLogger(ctx).Warn("retrying embedding request",
				zap.Int("attempt", attempt+1), zap.Error(lastErr))
		}
		callCtx := ctx
		var cancel context.CancelFunc
		if e.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		}
		vectors, err := e.provider.Embed(callCtx, e.model, texts, taskType)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), len(texts))
			}
			return vectors, nil
		}
		if !apperr.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (e *Embedder) cacheKey(taskType, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "embed:" + e.model + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
