package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// SmsCreditEntry is an append-only signed delta against a tenant's SMS
// credit balance. Deposits are positive, usage negative, refunds positive.
// The spendable balance is the sum of entries in success status.
type SmsCreditEntry struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	Amount      int64                   `gorm:"column:amount;not null"`
	Type        enums.CreditEntryType   `gorm:"column:type;type:text;not null"`
	Status      enums.CreditEntryStatus `gorm:"column:status;type:text;not null;default:'success'"`
	Description string                  `gorm:"column:description;not null"`
	Reference   *string                 `gorm:"column:reference;uniqueIndex"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
