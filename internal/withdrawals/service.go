package withdrawals

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/gateway"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

const otpDigits = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type payoutGateway interface {
	RequestPayout(ctx context.Context, req gateway.PaymentRequest) (gateway.Status, error)
	Currency() string
}

type tenantSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type otpMailer interface {
	SendWithdrawalOTP(ctx context.Context, tenant *models.Tenant, code string, amount int64) error
}

// ServiceParams groups dependencies for the withdrawal service.
type ServiceParams struct {
	DB      txRunner
	Repo    Repository
	Tenants tenantSource
	Gateway payoutGateway
	Notify  otpMailer
	Billing config.BillingConfig
	Logger  *logger.Logger
}

// Service moves tenant revenue out through mobile-money payouts. Every
// payout is OTP gated, and the pending row is inserted before the gateway
// call so concurrent confirmations see the reservation.
type Service struct {
	db      txRunner
	repo    Repository
	tenants tenantSource
	gateway payoutGateway
	notify  otpMailer
	billing config.BillingConfig
	logg    *logger.Logger
}

// NewService builds a withdrawal service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, stderrors.New("db runner is required")
	}
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Tenants == nil {
		return nil, stderrors.New("tenant source is required")
	}
	if params.Gateway == nil {
		return nil, stderrors.New("gateway client is required")
	}
	if params.Notify == nil {
		return nil, stderrors.New("notifier is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{
		db:      params.DB,
		repo:    params.Repo,
		tenants: params.Tenants,
		gateway: params.Gateway,
		notify:  params.Notify,
		billing: params.Billing,
		logg:    params.Logger,
	}, nil
}

// Available returns how much the tenant can withdraw right now:
// net settled revenue minus withdrawals that are pending or already paid.
func (s *Service) Available(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	revenue, err := s.repo.NetRevenue(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	held, err := s.repo.SumHeld(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return revenue - held, nil
}

// Initiate checks the balance and emails a confirmation code. The balance
// check here is a fast rejection; Confirm re-checks under the transaction.
func (s *Service) Initiate(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn string) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "withdrawal amount must be positive")
	}
	if strings.TrimSpace(msisdn) == "" {
		return errors.New(errors.CodeValidation, "msisdn is required")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return errors.New(errors.CodeNotFound, "tenant not found")
	}

	available, err := s.Available(ctx, tenantID)
	if err != nil {
		return err
	}
	if amount > available {
		return errors.New(errors.CodeStateConflict,
			fmt.Sprintf("requested %d exceeds available balance %d", amount, available))
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	otp := &models.WithdrawalOTP{
		TenantID:  tenantID,
		CodeHash:  hashOTP(code),
		ExpiresAt: time.Now().UTC().Add(s.billing.OTPTTL),
	}
	if err := s.repo.CreateOTP(ctx, otp); err != nil {
		return err
	}
	if err := s.notify.SendWithdrawalOTP(ctx, tenant, code, amount); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "could not deliver confirmation code")
	}
	return nil
}

// Confirm validates the OTP, reserves the amount as a pending withdrawal,
// and executes the synchronous payout. The reservation transaction locks
// the tenant row before summing, so concurrent confirms serialize and the
// second one sees the first reservation. The reservation commits before
// the gateway call; the payout verdict then settles the row.
func (s *Service) Confirm(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn, code string) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, errors.New(errors.CodeValidation, "withdrawal amount must be positive")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}

	now := time.Now().UTC()
	otp, err := s.repo.FindLiveOTP(ctx, tenantID, hashOTP(code), now)
	if err != nil {
		return nil, err
	}
	if otp == nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid or expired confirmation code")
	}
	burned, err := s.repo.MarkOTPUsed(ctx, otp.ID, now)
	if err != nil {
		return nil, err
	}
	if !burned {
		return nil, errors.New(errors.CodeUnauthorized, "confirmation code already used")
	}

	withdrawal := &models.Withdrawal{
		TenantID:  tenantID,
		Reference: "WDR" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")),
		Phone:     strings.TrimSpace(msisdn),
		Amount:    amount,
		Status:    enums.WithdrawalStatusPending,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockTenant(ctx, tenantID); err != nil {
			return err
		}
		revenue, err := repo.NetRevenue(ctx, tenantID)
		if err != nil {
			return err
		}
		held, err := repo.SumHeld(ctx, tenantID)
		if err != nil {
			return err
		}
		if amount > revenue-held {
			return errors.New(errors.CodeStateConflict,
				fmt.Sprintf("requested %d exceeds available balance %d", amount, revenue-held))
		}
		return repo.Create(ctx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	verdict, payoutErr := s.gateway.RequestPayout(ctx, gateway.PaymentRequest{
		Account:     tenant.GatewayAccount,
		Reference:   withdrawal.Reference,
		MSISDN:      withdrawal.Phone,
		Currency:    s.gateway.Currency(),
		Amount:      amount,
		Description: "Revenue withdrawal",
	})

	status := enums.WithdrawalStatusFailed
	if payoutErr == nil && verdict == gateway.StatusSuccess {
		status = enums.WithdrawalStatusSuccess
	}
	if _, err := s.repo.SetTerminal(ctx, withdrawal.ID, status); err != nil {
		return nil, err
	}
	withdrawal.Status = status

	logCtx := s.logg.WithReference(s.logg.WithTenantID(ctx, tenantID.String()), withdrawal.Reference)
	if payoutErr != nil {
		s.logg.Warn(logCtx, "payout rejected by gateway: "+payoutErr.Error())
		return withdrawal, errors.Wrap(errors.CodeDependency, payoutErr, "payout failed")
	}
	if status == enums.WithdrawalStatusFailed {
		s.logg.Warn(logCtx, "gateway declined payout")
	} else {
		s.logg.Info(logCtx, "payout completed")
	}
	return withdrawal, nil
}

// List returns a tenant's withdrawal history.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit)
}

// PurgeExpiredOTPs deletes dead confirmation codes. Called from cron.
func (s *Service) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredOTPs(ctx, time.Now().UTC())
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}
