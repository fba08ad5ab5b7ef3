package smscredit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Repository handles SMS credit ledger persistence. Entries are append-only;
// the only mutation is the pending to terminal status flip on deposits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.SmsCreditEntry) error
	SumSpendable(ctx context.Context, tenantID uuid.UUID) (int64, error)
	FindByReference(ctx context.Context, reference string) (*models.SmsCreditEntry, error)
	ResolvePending(ctx context.Context, reference string, status enums.CreditEntryStatus) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SmsCreditEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.SmsCreditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// SumSpendable sums success entries, excluding subscription bookkeeping.
// Pending deposits are invisible until the gateway confirms them.
func (r *repository) SumSpendable(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.SmsCreditEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", enums.CreditEntryStatusSuccess).
		Where("type <> ?", enums.CreditEntryTypeSubscription).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.SmsCreditEntry, error) {
	var entry models.SmsCreditEntry
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ResolvePending flips a pending deposit to the given terminal status. The
// returned bool reports whether this call won the flip; a false result means
// the entry was missing or already terminal.
func (r *repository) ResolvePending(ctx context.Context, reference string, status enums.CreditEntryStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SmsCreditEntry{}).
		Where("reference = ?", reference).
		Where("status = ?", enums.CreditEntryStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SmsCreditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.SmsCreditEntry
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
