package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-harvest/internal/model"
)

// Ledger writes are best-effort: a broken ledger never stops the page loop.

func (p *Pipeline) startRun(ctx context.Context, kind model.RunKind) string {
	if p.ledger == nil {
		return ""
	}
	modelName := ""
	if kind != model.RunKindScrape {
		modelName = p.cfg.Model.Name
	}
	baseURL := ""
	if kind != model.RunKindProcess {
		baseURL = p.cfg.Scrape.BaseURL
	}

	run, err := p.ledger.CreateRun(ctx, kind, modelName, baseURL)
	if err != nil {
		zap.L().Warn("pipeline: failed to create run record", zap.Error(err))
		return ""
	}
	zap.L().Debug("pipeline: run started", zap.String("run_id", run.ID), zap.String("kind", string(kind)))
	return run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, runID string, runErr error) {
	if p.ledger == nil || runID == "" {
		return
	}
	status := model.RunStatusComplete
	msg := ""
	if runErr != nil {
		status = model.RunStatusFailed
		msg = runErr.Error()
	}
	// Record the final status even when ctx was cancelled.
	if err := p.ledger.FinishRun(context.WithoutCancel(ctx), runID, status, msg); err != nil {
		zap.L().Warn("pipeline: failed to finish run record", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) record(ctx context.Context, o *model.PageOutcome) {
	if p.ledger == nil || o.RunID == "" {
		return
	}
	if err := p.ledger.RecordPage(context.WithoutCancel(ctx), o); err != nil {
		zap.L().Warn("pipeline: failed to record page outcome",
			zap.Int("page", o.Index),
			zap.String("step", string(o.Step)),
			zap.Error(err),
		)
	}
}

func succeeded(o *model.PageOutcome, records int, start time.Time) *model.PageOutcome {
	o.Status = model.PageStatusOK
	o.Records = records
	o.DurationMs = time.Since(start).Milliseconds()
	return o
}

func failed(o *model.PageOutcome, err error, start time.Time) *model.PageOutcome {
	o.Status = model.PageStatusFailed
	o.ErrorKind = errorKind(err)
	o.ErrorCategory = classify(err)
	o.Error = err.Error()
	o.DurationMs = time.Since(start).Milliseconds()
	return o
}
