package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// TenantSubscription is a platform subscription managed by the superadmin.
type TenantSubscription struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;index"`
	Plan      string                   `gorm:"column:plan;not null"`
	Amount    int64                    `gorm:"column:amount;not null"`
	Status    enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ExpiresAt time.Time                `gorm:"column:expires_at;not null"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
