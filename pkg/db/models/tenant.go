package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// Tenant is a hotspot operator account. Superadmin rows administer the
// platform itself and never own packages or vouchers.
type Tenant struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string            `gorm:"column:name;not null" json:"name"`
	Email          string            `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Phone          string            `gorm:"column:phone;not null" json:"phone"`
	PasswordHash   string            `gorm:"column:password_hash;not null" json:"-"`
	Role           enums.TenantRole  `gorm:"column:role;type:text;not null;default:'tenant'" json:"role"`
	BillingType    enums.BillingType `gorm:"column:billing_type;type:text;not null;default:'commission'" json:"billing_type"`
	CommissionRate decimal.Decimal   `gorm:"column:commission_rate;type:numeric(5,2);not null;default:0" json:"commission_rate"`
	GatewayAccount string            `gorm:"column:gateway_account;not null" json:"gateway_account"`
	Active         bool              `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
