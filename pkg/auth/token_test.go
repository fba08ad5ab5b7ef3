package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "hotspotbill",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	tenantID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		TenantID: tenantID,
		Role:     enums.TenantRoleTenant,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.TenantID != tenantID {
		t.Fatalf("expected tenant_id %s, got %s", tenantID, claims.TenantID)
	}
	if claims.Role != enums.TenantRoleTenant {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.IsSuperAdmin() {
		t.Fatal("tenant token must not be super admin")
	}
	if strings.TrimSpace(claims.ID) == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestMintAccessTokenRejectsInvalidPayload(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.TenantRoleTenant}); err == nil {
		t.Fatal("expected error for missing tenant id")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{TenantID: uuid.New(), Role: "ghost"}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		TenantID: uuid.New(),
		Role:     enums.TenantRoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.ExpirationMinutes = 1
	issued := time.Now().UTC().Add(-time.Hour)

	token, err := MintAccessToken(cfg, issued, AccessTokenPayload{
		TenantID: uuid.New(),
		Role:     enums.TenantRoleTenant,
		JTI:      "refresh-session",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail strict parse")
	}
	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if claims.ID != "refresh-session" {
		t.Fatalf("unexpected jti %q", claims.ID)
	}
}
