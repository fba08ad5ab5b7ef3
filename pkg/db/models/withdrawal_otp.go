package models

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalOTP is a short-lived one-time code gating payout confirmation.
// Only the SHA-256 digest of the code is stored.
type WithdrawalOTP struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	CodeHash  string     `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
