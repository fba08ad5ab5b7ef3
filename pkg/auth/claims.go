package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TenantID uuid.UUID
	Role     enums.TenantRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to tenant dashboards
// and the super-admin console.
type AccessTokenClaims struct {
	TenantID uuid.UUID        `json:"tenant_id"`
	Role     enums.TenantRole `json:"role"`
	jwt.RegisteredClaims
}

// IsSuperAdmin reports whether the token carries platform-operator rights.
func (c *AccessTokenClaims) IsSuperAdmin() bool {
	return c.Role == enums.TenantRoleSuperAdmin
}
