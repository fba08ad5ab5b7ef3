package smscredit

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/gateway"
)

// DepositReferencePrefix marks gateway references that belong to SMS credit
// top-ups. The webhook and poll paths use it to route confirmations to the
// ledger instead of the voucher flow.
const DepositReferencePrefix = "SMS"

// NewDepositReference generates a prefixed ledger reference.
func NewDepositReference() string {
	return DepositReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// IsDepositReference reports whether a gateway reference belongs to a top-up.
func IsDepositReference(reference string) bool {
	return strings.HasPrefix(reference, DepositReferencePrefix)
}

type paymentRequester interface {
	RequestPayment(ctx context.Context, req gateway.PaymentRequest) error
	Currency() string
}

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo    Repository
	Tenants tenantFinder
	Gateway paymentRequester
}

// Service maintains per-tenant SMS credit balances.
type Service struct {
	repo    Repository
	tenants tenantFinder
	gateway paymentRequester
}

// NewService builds a ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Tenants == nil {
		return nil, stderrors.New("tenant finder is required")
	}
	if params.Gateway == nil {
		return nil, stderrors.New("gateway client is required")
	}
	return &Service{repo: params.Repo, tenants: params.Tenants, gateway: params.Gateway}, nil
}

// Balance returns the spendable credit for a tenant.
func (s *Service) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repo.SumSpendable(ctx, tenantID)
}

// BalanceInTx reads the balance through the caller's transaction so the
// fulfillment pre-check and the later debit observe the same ledger.
func (s *Service) BalanceInTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	return s.repo.WithTx(tx).SumSpendable(ctx, tenantID)
}

// FindDeposit looks a top-up entry up by gateway reference.
func (s *Service) FindDeposit(ctx context.Context, reference string) (*models.SmsCreditEntry, error) {
	return s.repo.FindByReference(ctx, reference)
}

// ReserveAndDebit re-reads the balance inside the caller's transaction and
// records a usage entry when the tenant can cover the cost. The caller
// holds the fulfillment transaction and the tenant row lock, so the read
// and the insert are atomic with the rest of the purchase and concurrent
// fulfillments for the same tenant cannot jointly overdraw the ledger.
func (s *Service) ReserveAndDebit(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, cost int64, description string) error {
	if cost <= 0 {
		return errors.New(errors.CodeValidation, "debit cost must be positive")
	}
	repo := s.repo.WithTx(tx)
	balance, err := repo.SumSpendable(ctx, tenantID)
	if err != nil {
		return err
	}
	if balance < cost {
		return errors.New(errors.CodeStateConflict, fmt.Sprintf("insufficient sms credit: have %d, need %d", balance, cost))
	}
	return repo.Create(ctx, &models.SmsCreditEntry{
		TenantID:    tenantID,
		Amount:      -cost,
		Type:        enums.CreditEntryTypeUsage,
		Status:      enums.CreditEntryStatusSuccess,
		Description: description,
	})
}

// Refund compensates a prior debit, typically after a failed SMS delivery.
// Refunds are always allowed regardless of current balance.
func (s *Service) Refund(ctx context.Context, tenantID uuid.UUID, amount int64, description string) error {
	if amount <= 0 {
		return errors.New(errors.CodeValidation, "refund amount must be positive")
	}
	return s.repo.Create(ctx, &models.SmsCreditEntry{
		TenantID:    tenantID,
		Amount:      amount,
		Type:        enums.CreditEntryTypeRefund,
		Status:      enums.CreditEntryStatusSuccess,
		Description: description,
	})
}

// DepositPending records a pending top-up and asks the gateway to collect it
// from the tenant's msisdn. The deposit only becomes spendable once the
// gateway confirms via webhook or polling.
func (s *Service) DepositPending(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn string) (*models.SmsCreditEntry, error) {
	if amount <= 0 {
		return nil, errors.New(errors.CodeValidation, "deposit amount must be positive")
	}
	if strings.TrimSpace(msisdn) == "" {
		return nil, errors.New(errors.CodeValidation, "msisdn is required")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}

	reference := NewDepositReference()
	entry := &models.SmsCreditEntry{
		TenantID:    tenantID,
		Amount:      amount,
		Type:        enums.CreditEntryTypeDeposit,
		Status:      enums.CreditEntryStatusPending,
		Description: fmt.Sprintf("sms credit top-up via %s", msisdn),
		Reference:   &reference,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	err = s.gateway.RequestPayment(ctx, gateway.PaymentRequest{
		Account:     tenant.GatewayAccount,
		Reference:   reference,
		MSISDN:      msisdn,
		Currency:    s.gateway.Currency(),
		Amount:      amount,
		Description: "SMS credit top-up",
	})
	if err != nil {
		if _, resolveErr := s.repo.ResolvePending(ctx, reference, enums.CreditEntryStatusFailed); resolveErr != nil {
			return nil, resolveErr
		}
		entry.Status = enums.CreditEntryStatusFailed
		return entry, errors.Wrap(errors.CodeDependency, err, "gateway rejected top-up request")
	}
	return entry, nil
}

// ResolveDeposit flips a pending deposit after a gateway verdict. Replays
// against an already terminal entry are no-ops.
func (s *Service) ResolveDeposit(ctx context.Context, reference string, success bool) error {
	if !IsDepositReference(reference) {
		return errors.New(errors.CodeValidation, "not a top-up reference")
	}
	entry, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.New(errors.CodeNotFound, "top-up reference not found")
	}
	status := enums.CreditEntryStatusFailed
	if success {
		status = enums.CreditEntryStatusSuccess
	}
	if _, err := s.repo.ResolvePending(ctx, reference, status); err != nil {
		return err
	}
	return nil
}

// DepositStatus returns the current state of a top-up for tenant polling.
func (s *Service) DepositStatus(ctx context.Context, tenantID uuid.UUID, reference string) (*models.SmsCreditEntry, error) {
	entry, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.TenantID != tenantID {
		return nil, errors.New(errors.CodeNotFound, "top-up reference not found")
	}
	return entry, nil
}

// ListEntries returns recent ledger activity for a tenant.
func (s *Service) ListEntries(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SmsCreditEntry, error) {
	return s.repo.List(ctx, tenantID, limit)
}
