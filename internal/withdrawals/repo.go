package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Repository handles withdrawal and OTP persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockTenant(ctx context.Context, tenantID uuid.UUID) error
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	SetTerminal(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus) (bool, error)
	SumHeld(ctx context.Context, tenantID uuid.UUID) (int64, error)
	NetRevenue(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Withdrawal, error)
	CreateOTP(ctx context.Context, otp *models.WithdrawalOTP) error
	FindLiveOTP(ctx context.Context, tenantID uuid.UUID, codeHash string, now time.Time) (*models.WithdrawalOTP, error)
	MarkOTPUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockTenant takes the tenant row lock. Confirmations sum revenue and
// holds under this lock, so two confirms for the same tenant cannot both
// read the balance before either reservation commits.
func (r *repository) LockTenant(ctx context.Context, tenantID uuid.UUID) error {
	var tenant models.Tenant
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", tenantID).
		First(&tenant).Error
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

// SetTerminal flips a pending withdrawal after the payout verdict.
func (r *repository) SetTerminal(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SumHeld totals withdrawals still counting against the balance. Failed
// payouts drop out so the money becomes withdrawable again.
func (r *repository) SumHeld(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ?", tenantID).
		Where("status IN ?", []enums.WithdrawalStatus{enums.WithdrawalStatusPending, enums.WithdrawalStatusSuccess}).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// NetRevenue totals settled sales after fees. Manual transactions are
// bookkeeping created outside the gateway and carry no withdrawable money.
func (r *repository) NetRevenue(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount - COALESCE(fee, 0)), 0)").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", enums.TransactionStatusSuccess).
		Where("NOT manual").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.Withdrawal
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CreateOTP(ctx context.Context, otp *models.WithdrawalOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(otp).Error
}

func (r *repository) FindLiveOTP(ctx context.Context, tenantID uuid.UUID, codeHash string, now time.Time) (*models.WithdrawalOTP, error) {
	var otp models.WithdrawalOTP
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code_hash = ?", tenantID, codeHash).
		Where("expires_at > ?", now).
		Where("used_at IS NULL").
		Order("created_at DESC").
		First(&otp).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

// MarkOTPUsed burns a code. The used_at IS NULL guard makes the burn
// single-winner under concurrent confirmations.
func (r *repository) MarkOTPUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawalOTP{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.WithdrawalOTP{})
	return res.RowsAffected, res.Error
}
