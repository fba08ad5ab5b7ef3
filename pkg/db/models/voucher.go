package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a single-use access code. Codes are unique within a tenant,
// not globally. Once used a voucher never reverts.
type Voucher struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_vouchers_tenant_code"`
	PackageID uuid.UUID  `gorm:"column:package_id;type:uuid;not null;index"`
	Code      string     `gorm:"column:code;not null;uniqueIndex:idx_vouchers_tenant_code"`
	IsUsed    bool       `gorm:"column:is_used;not null;default:false"`
	UsedBy    *string    `gorm:"column:used_by"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
