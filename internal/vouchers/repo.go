package vouchers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

// StockCount is the per-package voucher inventory view.
type StockCount struct {
	PackageID uuid.UUID `gorm:"column:package_id"`
	Unused    int64     `gorm:"column:unused"`
	Used      int64     `gorm:"column:used"`
}

// Repository handles voucher persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, batch []models.Voucher) error
	ClaimUnused(ctx context.Context, packageID uuid.UUID, usedBy string) (*models.Voucher, error)
	CountUnused(ctx context.Context, packageID uuid.UUID) (int64, error)
	StockByTenant(ctx context.Context, tenantID uuid.UUID) ([]StockCount, error)
	List(ctx context.Context, params ListQuery) ([]models.Voucher, error)
	ExistingCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error)
}

// ListQuery configures voucher list queries.
type ListQuery struct {
	TenantID  uuid.UUID
	PackageID *uuid.UUID
	Used      *bool
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a voucher repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, batch []models.Voucher) error {
	if len(batch) == 0 {
		return nil
	}
	for i := range batch {
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(batch, 500).Error
}

// claimLock skips rows held by a concurrent claimant. Plain FOR UPDATE
// under LIMIT 1 would hand a blocked claimant zero rows once the winner
// commits, mis-reporting remaining stock as exhausted.
var claimLock = clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}

// ClaimUnused locks the oldest unused voucher for the package and marks it
// used. Callers must run this inside the fulfillment transaction so the
// claim commits or rolls back with the rest of the purchase. Returns
// NOT_FOUND when the pool is exhausted.
func (r *repository) ClaimUnused(ctx context.Context, packageID uuid.UUID, usedBy string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Clauses(claimLock).
		Where("package_id = ? AND NOT is_used", packageID).
		Order("created_at ASC").
		First(&voucher).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "no unused vouchers for package")
		}
		return nil, err
	}

	now := time.Now().UTC()
	voucher.IsUsed = true
	voucher.UsedBy = &usedBy
	voucher.UsedAt = &now
	if err := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", voucher.ID).
		Updates(map[string]any{"is_used": true, "used_by": usedBy, "used_at": now}).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) CountUnused(ctx context.Context, packageID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("package_id = ? AND NOT is_used", packageID).
		Count(&count).Error
	return count, err
}

func (r *repository) StockByTenant(ctx context.Context, tenantID uuid.UUID) ([]StockCount, error) {
	var counts []StockCount
	err := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Select("package_id, SUM(CASE WHEN is_used THEN 0 ELSE 1 END) AS unused, SUM(CASE WHEN is_used THEN 1 ELSE 0 END) AS used").
		Where("tenant_id = ?", tenantID).
		Group("package_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.Voucher, error) {
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", params.TenantID).
		Order("created_at DESC").
		Limit(limit)
	if params.PackageID != nil {
		query = query.Where("package_id = ?", *params.PackageID)
	}
	if params.Used != nil {
		query = query.Where("is_used = ?", *params.Used)
	}
	var out []models.Voucher
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ExistingCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("tenant_id = ? AND code IN ?", tenantID, codes).
		Pluck("code", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}
