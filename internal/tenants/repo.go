package tenants

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Repository handles tenant and tenant-subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	CreateSubscription(ctx context.Context, sub *models.TenantSubscription) error
	UpdateSubscription(ctx context.Context, sub *models.TenantSubscription) error
	FindActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.TenantSubscription, error)
	ListSubscriptions(ctx context.Context, tenantID uuid.UUID) ([]models.TenantSubscription, error)
	ExpireSubscriptionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tenant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) List(ctx context.Context) ([]models.Tenant, error) {
	var out []models.Tenant
	if err := r.db.WithContext(ctx).
		Where("role = ?", enums.TenantRoleTenant).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *models.TenantSubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *models.TenantSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) FindActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.TenantSubscription, error) {
	var sub models.TenantSubscription
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, enums.SubscriptionStatusActive).
		Order("expires_at DESC").
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListSubscriptions(ctx context.Context, tenantID uuid.UUID) ([]models.TenantSubscription, error) {
	var out []models.TenantSubscription
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireSubscriptionsBefore flips active subscriptions whose expiry passed.
func (r *repository) ExpireSubscriptionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TenantSubscription{}).
		Where("status = ? AND expires_at < ?", enums.SubscriptionStatusActive, cutoff).
		Update("status", enums.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}
