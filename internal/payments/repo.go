package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Repository handles transaction persistence. Terminal statuses are
// write-once: every status flip is a conditional update gated on the row
// still being pending, and the row count tells the caller whether it won.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	LockTenant(ctx context.Context, tenantID uuid.UUID) error
	MarkTerminal(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, fields map[string]any) (bool, error)
	ListByTenant(ctx context.Context, params ListQuery) ([]models.Transaction, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)
}

// ListQuery configures transaction list queries.
type ListQuery struct {
	TenantID uuid.UUID
	Status   *enums.TransactionStatus
	Limit    int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// FindForUpdate loads a transaction under a row lock so concurrent
// fulfillment paths serialize before reading the status.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// LockTenant takes the tenant row lock. The SMS ledger has no per-tenant
// row of its own, so fulfillments for the same tenant serialize here
// before reading the balance and writing the debit.
func (r *repository) LockTenant(ctx context.Context, tenantID uuid.UUID) error {
	var tenant models.Tenant
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", tenantID).
		First(&tenant).Error
}

// MarkTerminal flips a pending transaction to a terminal status, optionally
// setting extra columns in the same statement. Returns false when another
// path already settled the row.
func (r *repository) MarkTerminal(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByTenant(ctx context.Context, params ListQuery) ([]models.Transaction, error) {
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", params.TenantID).
		Order("created_at DESC").
		Limit(limit)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var out []models.Transaction
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingBefore returns stale pending transactions for reconciliation,
// oldest first.
func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.TransactionStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
