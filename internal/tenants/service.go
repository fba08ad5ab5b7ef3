package tenants

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ssewanyana/hotspotbill-backend/pkg/auth"
	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
	"github.com/ssewanyana/hotspotbill-backend/pkg/security"
)

const tempPasswordLength = 12

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type ledgerWriter interface {
	Create(ctx context.Context, entry *models.SmsCreditEntry) error
}

// ServiceParams groups dependencies for the tenant service.
type ServiceParams struct {
	Repo     Repository
	Sessions sessionManager
	Ledger   ledgerWriter
	Mail     mailSender
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
}

// Service covers tenant authentication and superadmin administration.
type Service struct {
	repo     Repository
	sessions sessionManager
	ledger   ledgerWriter
	mail     mailSender
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService builds a tenant service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Sessions == nil {
		return nil, stderrors.New("session manager is required")
	}
	if params.Ledger == nil {
		return nil, stderrors.New("ledger writer is required")
	}
	if params.Mail == nil {
		return nil, stderrors.New("mail sender is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{
		repo:     params.Repo,
		sessions: params.Sessions,
		ledger:   params.Ledger,
		mail:     params.Mail,
		jwt:      params.JWT,
		password: params.Password,
		logg:     params.Logger,
	}, nil
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *models.Tenant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	tenant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil {
		return nil, nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}
	if !tenant.Active {
		return nil, nil, errors.New(errors.CodeForbidden, "account is deactivated")
	}
	ok, err := security.VerifyPassword(password, tenant.PasswordHash)
	if err != nil || !ok {
		return nil, nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.issueTokens(ctx, tenant)
	if err != nil {
		return nil, nil, err
	}
	return pair, tenant, nil
}

// Refresh rotates the refresh session and issues a new token pair. The
// expired access token is accepted only to recover the session identifier.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwt, accessToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid access token")
	}
	tenant, err := s.repo.FindByID(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !tenant.Active {
		return nil, errors.New(errors.CodeUnauthorized, "account unavailable")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid refresh token")
	}
	access, err := auth.MintAccessToken(s.jwt, time.Now().UTC(), auth.AccessTokenPayload{
		TenantID: tenant.ID,
		Role:     tenant.Role,
		JTI:      newAccessID,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the refresh session behind an access token.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	return s.sessions.Revoke(ctx, accessID)
}

// CreateTenantInput is the superadmin onboarding payload.
type CreateTenantInput struct {
	Name           string          `json:"name" validate:"required,min=2,max=120"`
	Email          string          `json:"email" validate:"required,email"`
	Phone          string          `json:"phone" validate:"required,min=9,max=15"`
	GatewayAccount string          `json:"gateway_account" validate:"required"`
	BillingType    string          `json:"billing_type" validate:"required,oneof=commission flat"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// CreateTenant onboards a hotspot operator with a generated temporary
// password, which is emailed and returned exactly once.
func (s *Service) CreateTenant(ctx context.Context, input CreateTenantInput) (*models.Tenant, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", errors.New(errors.CodeConflict, "email already registered")
	}

	billingType := enums.BillingType(input.BillingType)
	if !billingType.IsValid() {
		return nil, "", errors.New(errors.CodeValidation, "invalid billing type")
	}
	if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, "", errors.New(errors.CodeValidation, "commission rate must be between 0 and 100")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, "", err
	}
	hash, err := security.HashPassword(tempPassword, s.password)
	if err != nil {
		return nil, "", err
	}

	tenant := &models.Tenant{
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		Phone:          strings.TrimSpace(input.Phone),
		PasswordHash:   hash,
		Role:           enums.TenantRoleTenant,
		BillingType:    billingType,
		CommissionRate: input.CommissionRate,
		GatewayAccount: strings.TrimSpace(input.GatewayAccount),
		Active:         true,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, "", err
	}

	if err := s.mail.Send(ctx, tenant.Email, "Your hotspot billing account",
		fmt.Sprintf("Your account is ready. Temporary password: %s", tempPassword)); err != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenant.ID.String()), "onboarding email failed: "+err.Error())
	}
	return tenant, tempPassword, nil
}

// UpdateTenantInput is the superadmin tenant update payload.
type UpdateTenantInput struct {
	Name           *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Phone          *string          `json:"phone" validate:"omitempty,min=9,max=15"`
	GatewayAccount *string          `json:"gateway_account"`
	BillingType    *string          `json:"billing_type" validate:"omitempty,oneof=commission flat"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	Active         *bool            `json:"active"`
}

func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, input UpdateTenantInput) (*models.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}

	if input.Name != nil {
		tenant.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		tenant.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.GatewayAccount != nil {
		tenant.GatewayAccount = strings.TrimSpace(*input.GatewayAccount)
	}
	if input.BillingType != nil {
		billingType := enums.BillingType(*input.BillingType)
		if !billingType.IsValid() {
			return nil, errors.New(errors.CodeValidation, "invalid billing type")
		}
		tenant.BillingType = billingType
	}
	if input.CommissionRate != nil {
		if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New(errors.CodeValidation, "commission rate must be between 0 and 100")
		}
		tenant.CommissionRate = *input.CommissionRate
	}
	if input.Active != nil {
		tenant.Active = *input.Active
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}
	return tenant, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.repo.List(ctx)
}

// FindByID satisfies the lookup interfaces other services depend on.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangePassword lets an authenticated tenant replace their password.
func (s *Service) ChangePassword(ctx context.Context, tenantID uuid.UUID, current, next string) error {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return errors.New(errors.CodeNotFound, "tenant not found")
	}
	ok, err := security.VerifyPassword(current, tenant.PasswordHash)
	if err != nil || !ok {
		return errors.New(errors.CodeUnauthorized, "current password is incorrect")
	}
	if len(next) < 8 {
		return errors.New(errors.CodeValidation, "password must be at least 8 characters")
	}
	hash, err := security.HashPassword(next, s.password)
	if err != nil {
		return err
	}
	tenant.PasswordHash = hash
	return s.repo.Update(ctx, tenant)
}

// CreateSubscriptionInput is the superadmin subscription payload.
type CreateSubscriptionInput struct {
	Plan     string `json:"plan" validate:"required,max=60"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Duration int    `json:"duration_days" validate:"required,gt=0"`
}

// CreateSubscription records a platform subscription and mirrors the charge
// as a subscription-type ledger entry, which stays out of spendable credit.
func (s *Service) CreateSubscription(ctx context.Context, tenantID uuid.UUID, input CreateSubscriptionInput) (*models.TenantSubscription, error) {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}

	sub := &models.TenantSubscription{
		TenantID:  tenantID,
		Plan:      strings.TrimSpace(input.Plan),
		Amount:    input.Amount,
		Status:    enums.SubscriptionStatusActive,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, input.Duration),
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.ledger.Create(ctx, &models.SmsCreditEntry{
		TenantID:    tenantID,
		Amount:      -input.Amount,
		Type:        enums.CreditEntryTypeSubscription,
		Status:      enums.CreditEntryStatusSuccess,
		Description: fmt.Sprintf("subscription charge: %s", sub.Plan),
	}); err != nil {
		s.logg.Error(s.logg.WithTenantID(ctx, tenantID.String()), "subscription ledger entry failed", err)
	}
	return sub, nil
}

func (s *Service) ListSubscriptions(ctx context.Context, tenantID uuid.UUID) ([]models.TenantSubscription, error) {
	return s.repo.ListSubscriptions(ctx, tenantID)
}

func (s *Service) issueTokens(ctx context.Context, tenant *models.Tenant) (*TokenPair, error) {
	accessID := uuid.NewString()
	access, err := auth.MintAccessToken(s.jwt, time.Now().UTC(), auth.AccessTokenPayload{
		TenantID: tenant.ID,
		Role:     tenant.Role,
		JTI:      accessID,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
