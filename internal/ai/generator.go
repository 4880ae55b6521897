package ai

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

// Generator produces completions for prompts via the configured provider,
// with a per-call timeout and retry on transient upstream failures.
type Generator struct {
	provider IProvider
	model    string
	timeout  time.Duration
}

func NewGenerator(p IProvider, model string, timeout time.Duration) *Generator {
	return &Generator{provider: p, model: model, timeout: timeout}
}

func (g *Generator) ModelName() string {
	return g.model
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
			logutil.GetLogger(ctx).Warn("retrying generation request",
				zap.Int("attempt", attempt+1), zap.Error(lastErr))
		}
		callCtx := ctx
		var cancel context.CancelFunc
		if g.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		text, err := g.provider.Generate(callCtx, g.model, prompt)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return text, nil
		}
		if !apperr.IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
