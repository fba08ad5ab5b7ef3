package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

// SubscriptionExpiryJobParams configures the subscription expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger  *logger.Logger
	Tenants subscriptionExpirer
}

type subscriptionExpirer interface {
	ExpireSubscriptionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewSubscriptionExpiryJob builds the job that flips past-due tenant
// subscriptions to expired.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		tenants: params.Tenants,
		now:     time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	tenants subscriptionExpirer
	now     func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	expired, err := j.tenants.ExpireSubscriptionsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("subscription expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_expired": expired,
	})
	j.logg.Info(logCtx, "subscription expiry complete")
	return nil
}
