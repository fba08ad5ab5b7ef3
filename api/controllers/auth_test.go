package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/internal/tenants"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

type fakeAuthService struct {
	pair     *tenants.TokenPair
	tenant   *models.Tenant
	loginErr error

	loggedOut []string
	passwords []string
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*tenants.TokenPair, *models.Tenant, error) {
	if f.loginErr != nil {
		return nil, nil, f.loginErr
	}
	return f.pair, f.tenant, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*tenants.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.pair, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, accessID string) error {
	f.loggedOut = append(f.loggedOut, accessID)
	return nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, tenantID uuid.UUID, current, next string) error {
	f.passwords = append(f.passwords, next)
	return nil
}

func TestAuthLoginReturnsTokensAndProfile(t *testing.T) {
	svc := &fakeAuthService{
		pair: &tenants.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		tenant: &models.Tenant{
			ID:           uuid.New(),
			Name:         "Kampala Hotspot",
			Email:        "owner@example.com",
			PasswordHash: "$argon2id$secret",
			Role:         enums.TenantRoleTenant,
			BillingType:  enums.BillingTypeCommission,
		},
	}

	body := `{"email":"owner@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	raw := resp.Body.String()
	if !strings.Contains(raw, `"access_token":"access"`) {
		t.Fatalf("missing access token in %s", raw)
	}
	if strings.Contains(raw, "argon2id") {
		t.Fatalf("password hash leaked in login response: %s", raw)
	}
}

func TestAuthLoginBadCredentials(t *testing.T) {
	svc := &fakeAuthService{loginErr: errors.New(errors.CodeUnauthorized, "invalid credentials")}

	body := `{"email":"owner@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLoginRejectsMalformedEmail(t *testing.T) {
	svc := &fakeAuthService{}
	body := `{"email":"not-an-email","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRefreshNeedsBearerToken(t *testing.T) {
	svc := &fakeAuthService{pair: &tenants.TokenPair{AccessToken: "a", RefreshToken: "b"}}

	body := `{"refresh_token":"old-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer expired-access")
	resp = httptest.NewRecorder()
	AuthRefresh(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestChangePasswordRequiresContextTenant(t *testing.T) {
	svc := &fakeAuthService{}
	body := `{"current_password":"hunter22","new_password":"longerpass"}`
	req := httptest.NewRequest(http.MethodPost, "/me/password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	ChangePassword(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without tenant context got %d", resp.Code)
	}
	if len(svc.passwords) != 0 {
		t.Fatalf("password change must not reach the service")
	}
}
