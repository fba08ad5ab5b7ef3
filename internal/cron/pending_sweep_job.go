package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

const (
	defaultSweepAge   = 15 * time.Minute
	defaultSweepBatch = 100
)

// PendingSweepJobParams configures the stale-transaction sweep.
type PendingSweepJobParams struct {
	Logger   *logger.Logger
	Payments pendingSweeper
	Age      time.Duration
	Batch    int
}

type pendingSweeper interface {
	SweepPending(ctx context.Context, age time.Duration, limit int) (int, error)
}

// NewPendingSweepJob builds the job that re-queries the gateway for
// transactions stuck in pending. Webhooks get lost; the sweep is the
// backstop that eventually settles every purchase.
func NewPendingSweepJob(params PendingSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments engine required")
	}
	age := params.Age
	if age <= 0 {
		age = defaultSweepAge
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &pendingSweepJob{
		logg:     params.Logger,
		payments: params.Payments,
		age:      age,
		batch:    batch,
	}, nil
}

type pendingSweepJob struct {
	logg     *logger.Logger
	payments pendingSweeper
	age      time.Duration
	batch    int
}

func (j *pendingSweepJob) Name() string { return "pending-sweep" }

func (j *pendingSweepJob) Run(ctx context.Context) error {
	settled, err := j.payments.SweepPending(ctx, j.age, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"min_age":      j.age.String(),
		"batch":        j.batch,
		"rows_settled": settled,
	})
	if err != nil {
		// Partial progress still counts; log it before surfacing the error.
		j.logg.Warn(logCtx, "pending sweep finished with errors")
		return fmt.Errorf("pending sweep: %w", err)
	}
	j.logg.Info(logCtx, "pending sweep complete")
	return nil
}
