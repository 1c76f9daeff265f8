package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/repositories"
	"github.com/pulseboard/engine/pkg/retry"
)

// ClassifyWorker periodically retries classification for drafts the model
// never answered: those with no suggested member and no recorded verdict.
// The drafts table doubles as the work queue, so pending work survives
// restarts, and a stamped ClassifiedAt keeps an answered draft from being
// asked about again on every sweep.
type ClassifyWorker struct {
	drafts   repositories.DraftRepository
	router   QuickEntryService
	interval time.Duration
	delay    time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewClassifyWorker creates the worker. interval is the tick between sweeps;
// delay is how stale a draft must be before it is retried, which keeps the
// worker from racing a classification still running in the request path.
func NewClassifyWorker(
	drafts repositories.DraftRepository,
	router QuickEntryService,
	interval, delay time.Duration,
	logger *zap.Logger,
) *ClassifyWorker {
	return &ClassifyWorker{
		drafts:   drafts,
		router:   router,
		interval: interval,
		delay:    delay,
		retryCfg: retry.DefaultConfig(),
		logger:   logger,
	}
}

// Start launches the worker goroutine. It stops when ctx is canceled; Wait
// blocks until it has fully drained.
func (w *ClassifyWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info("classification worker started",
			zap.Duration("interval", w.interval),
			zap.Duration("delay", w.delay))

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("classification worker stopping")
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (w *ClassifyWorker) Wait() {
	w.wg.Wait()
}

// sweep retries each stale unclassified draft, one at a time.
func (w *ClassifyWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.delay)
	pending, err := w.drafts.ListPending(ctx, cutoff)
	if err != nil {
		w.logger.Error("listing pending drafts failed", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info("retrying classification", zap.Int("drafts", len(pending)))

	for _, draft := range pending {
		if ctx.Err() != nil {
			return
		}
		w.classifyOne(ctx, draft.ID)
	}
}

func (w *ClassifyWorker) classifyOne(ctx context.Context, draftID string) {
	err := retry.Do(ctx, w.retryCfg, func() error {
		result, err := w.router.ClassifyDraft(ctx, draftID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Draft was assigned or deleted since the sweep listed it.
				return nil
			}
			if retry.IsRetryable(err) {
				return err
			}
			w.logger.Warn("draft classification failed",
				zap.String("draft_id", draftID), zap.Error(err))
			return nil
		}

		if result.Status == "assigned" {
			w.logger.Info("draft auto-assigned",
				zap.String("draft_id", draftID),
				zap.String("member_id", result.Member.ID))
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("draft classification retries exhausted",
			zap.String("draft_id", draftID), zap.Error(err))
	}
}
