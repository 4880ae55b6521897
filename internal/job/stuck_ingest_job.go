package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type stuckDocumentFailer interface {
	FailStuckProcessing(ctx context.Context, cutoff int64, now int64) (int64, error)
}

// StuckIngestJob fails documents stuck in processing, e.g. after a crash
// mid-ingest. Failed documents stay retryable through the reprocess
// endpoint.
type StuckIngestJob struct {
	documents  stuckDocumentFailer
	stuckAfter time.Duration
}

func NewStuckIngestJob(documents stuckDocumentFailer, stuckAfter time.Duration) *StuckIngestJob {
	return &StuckIngestJob{documents: documents, stuckAfter: stuckAfter}
}

func (j *StuckIngestJob) Name() string {
	return "stuck_ingest_sweep"
}

func (j *StuckIngestJob) Run(ctx context.Context) error {
	if j.documents == nil || j.stuckAfter <= 0 {
		return nil
	}
	now := time.Now()
	cutoff := now.Add(-j.stuckAfter)
	moved, err := j.documents.FailStuckProcessing(ctx, cutoff.UnixMilli(), now.UnixMilli())
	if err != nil {
		return err
	}
	if moved > 0 {
		logutil.GetLogger(ctx).Warn("stuck documents failed", zap.Int64("count", moved))
	}
	return nil
}
