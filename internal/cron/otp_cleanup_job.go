package cron

import (
	"context"
	"fmt"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

// OTPCleanupJobParams configures the withdrawal code cleanup.
type OTPCleanupJobParams struct {
	Logger      *logger.Logger
	Withdrawals otpPurger
}

type otpPurger interface {
	PurgeExpiredOTPs(ctx context.Context) (int64, error)
}

// NewOTPCleanupJob builds the job that deletes expired withdrawal
// confirmation codes.
func NewOTPCleanupJob(params OTPCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Withdrawals == nil {
		return nil, fmt.Errorf("withdrawal service required")
	}
	return &otpCleanupJob{logg: params.Logger, withdrawals: params.Withdrawals}, nil
}

type otpCleanupJob struct {
	logg        *logger.Logger
	withdrawals otpPurger
}

func (j *otpCleanupJob) Name() string { return "otp-cleanup" }

func (j *otpCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.withdrawals.PurgeExpiredOTPs(ctx)
	if err != nil {
		return fmt.Errorf("otp cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_deleted": deleted})
	j.logg.Info(logCtx, "otp cleanup complete")
	return nil
}
