package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type fakeExpirer struct {
	expired    int64
	err        error
	lastCutoff time.Time
	calls      int
}

func (f *fakeExpirer) ExpireSubscriptionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.lastCutoff = cutoff
	return f.expired, f.err
}

func TestSubscriptionExpiryJobUsesCurrentTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{expired: 2}
	jobIface, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Tenants: expirer,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionExpiryJob: %v", err)
	}
	job := jobIface.(*subscriptionExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !expirer.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, expirer.lastCutoff)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected one sweep, got %d", expirer.calls)
	}
}

func TestSubscriptionExpiryJobPropagatesErrors(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Tenants: expirer,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
