package worker

import (
	"context"
	"errors"
	"time"

	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/service/inbound"
	"go.uber.org/zap"
)

type ReportPuller interface {
	Pull(ctx context.Context, batchSize int) (model.ReportPullResult, error)
}

type PullSink interface {
	AcceptPull(ctx context.Context, res model.ReportPullResult) inbound.Summary
}

// Puller:
// - pulls the report every Interval,
// - pulls again right away while batches come back full,
// - hands every batch to the inbound pipeline.
type Puller struct {
	// Dependencies
	Source ReportPuller
	Sink   PullSink
	Log    *zap.Logger

	// Behavior
	Interval  time.Duration
	BatchSize int
	// MaxDrain caps back-to-back pulls within one tick.
	MaxDrain int
}

func NewPuller(source ReportPuller, sink PullSink, log *zap.Logger) *Puller {
	if log == nil {
		log = zap.NewNop()
	}

	return &Puller{
		Source:    source,
		Sink:      sink,
		Log:       log.Named("puller"),
		Interval:  30 * time.Second,
		BatchSize: 100,
		MaxDrain:  20,
	}
}

// Run pulls until ctx is cancelled.
func (w *Puller) Run(ctx context.Context) error {
	if w.Source == nil || w.Sink == nil {
		return errors.New("puller: source and sink are required")
	}
	if w.Interval <= 0 {
		w.Interval = 30 * time.Second
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 100
	}
	if w.MaxDrain <= 0 {
		w.MaxDrain = 1
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		w.Tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick drains the report once: it keeps pulling while the gateway returns
// full batches, up to MaxDrain pulls.
func (w *Puller) Tick(ctx context.Context) {
	for i := 0; i < w.MaxDrain; i++ {
		if ctx.Err() != nil {
			return
		}

		res, err := w.Source.Pull(ctx, w.BatchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.Log.Error("report pull failed", zap.Error(err))
			}
			return
		}

		if res.Status != model.PullStatusOK {
			w.Log.Error("report pull refused", zap.Int("status", res.Status))
			return
		}

		sum := w.Sink.AcceptPull(ctx, res)
		w.Log.Info("report batch processed",
			zap.Int("batch_size", res.BatchSize),
			zap.Int("accepted", sum.Accepted),
			zap.Int("duplicates", sum.Duplicates),
			zap.Int("failed", sum.Failed),
			zap.Int("item_errors", sum.ItemErrors))

		if res.BatchSize < w.BatchSize {
			return
		}
	}
}
