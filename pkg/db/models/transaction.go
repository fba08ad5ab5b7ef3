package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Transaction is one purchase attempt. Reference is the externally visible
// idempotency key and never changes after creation. Status moves from
// pending to exactly one terminal value and is then immutable.
type Transaction struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference   string                  `gorm:"column:reference;not null;uniqueIndex"`
	TenantID    uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	PackageID   uuid.UUID               `gorm:"column:package_id;type:uuid;not null;index"`
	Phone       string                  `gorm:"column:phone;not null"`
	Amount      int64                   `gorm:"column:amount;not null"`
	Status      enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	VoucherCode *string                 `gorm:"column:voucher_code"`
	Fee         *int64                  `gorm:"column:fee"`
	Manual      bool                    `gorm:"column:manual;not null;default:false"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
