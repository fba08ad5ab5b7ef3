package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type fakePurger struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakePurger) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func TestOTPCleanupJobPurges(t *testing.T) {
	purger := &fakePurger{deleted: 7}
	job, err := NewOTPCleanupJob(OTPCleanupJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Withdrawals: purger,
	})
	if err != nil {
		t.Fatalf("NewOTPCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("expected one purge, got %d", purger.calls)
	}
}

func TestOTPCleanupJobPropagatesErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("boom")}
	job, err := NewOTPCleanupJob(OTPCleanupJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Withdrawals: purger,
	})
	if err != nil {
		t.Fatalf("NewOTPCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
