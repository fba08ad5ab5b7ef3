package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Withdrawal is a tenant payout request. Pending rows count against the
// available balance so concurrent confirmations cannot double-spend.
type Withdrawal struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index"`
	Reference string                 `gorm:"column:reference;not null;uniqueIndex"`
	Phone     string                 `gorm:"column:phone;not null"`
	Amount    int64                  `gorm:"column:amount;not null"`
	Fee       *int64                 `gorm:"column:fee"`
	Status    enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
