package smscredit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	pkgerrors "github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/gateway"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []*models.SmsCreditEntry
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, entry *models.SmsCreditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeRepo) SumSpendable(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, e := range f.entries {
		if e.TenantID != tenantID || e.Status != enums.CreditEntryStatusSuccess {
			continue
		}
		if e.Type == enums.CreditEntryTypeSubscription {
			continue
		}
		total += e.Amount
	}
	return total, nil
}

func (f *fakeRepo) FindByReference(ctx context.Context, reference string) (*models.SmsCreditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Reference != nil && *e.Reference == reference {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ResolvePending(ctx context.Context, reference string, status enums.CreditEntryStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Reference != nil && *e.Reference == reference && e.Status == enums.CreditEntryStatusPending {
			e.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SmsCreditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SmsCreditEntry
	for _, e := range f.entries {
		if e.TenantID == tenantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeTenants struct {
	tenant *models.Tenant
}

func (f *fakeTenants) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, nil
}

type fakeGateway struct {
	err      error
	requests []gateway.PaymentRequest
}

func (f *fakeGateway) RequestPayment(ctx context.Context, req gateway.PaymentRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

func (f *fakeGateway) Currency() string { return "UGX" }

func newTestService(t *testing.T, repo *fakeRepo, tenant *models.Tenant, gw *fakeGateway) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Tenants: &fakeTenants{tenant: tenant},
		Gateway: gw,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestReserveAndDebitInsufficientBalance(t *testing.T) {
	repo := &fakeRepo{}
	tenant := &models.Tenant{ID: uuid.New(), GatewayAccount: "ACC1"}
	svc := newTestService(t, repo, tenant, &fakeGateway{})
	ctx := context.Background()

	_ = repo.Create(ctx, &models.SmsCreditEntry{
		TenantID: tenant.ID, Amount: 20,
		Type: enums.CreditEntryTypeDeposit, Status: enums.CreditEntryStatusSuccess,
	})

	err := svc.ReserveAndDebit(ctx, nil, tenant.ID, 35, "voucher sms")
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, _ := repo.SumSpendable(ctx, tenant.ID)
	if balance != 20 {
		t.Fatalf("failed debit must not touch the ledger, balance %d", balance)
	}
}

func TestReserveAndDebitRecordsUsage(t *testing.T) {
	repo := &fakeRepo{}
	tenant := &models.Tenant{ID: uuid.New(), GatewayAccount: "ACC1"}
	svc := newTestService(t, repo, tenant, &fakeGateway{})
	ctx := context.Background()

	_ = repo.Create(ctx, &models.SmsCreditEntry{
		TenantID: tenant.ID, Amount: 100,
		Type: enums.CreditEntryTypeDeposit, Status: enums.CreditEntryStatusSuccess,
	})

	if err := svc.ReserveAndDebit(ctx, nil, tenant.ID, 35, "voucher sms ABC123"); err != nil {
		t.Fatalf("reserve and debit: %v", err)
	}
	balance, _ := repo.SumSpendable(ctx, tenant.ID)
	if balance != 65 {
		t.Fatalf("expected balance 65 after debit, got %d", balance)
	}

	if err := svc.Refund(ctx, tenant.ID, 35, "sms delivery failed for ABC123"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	balance, _ = repo.SumSpendable(ctx, tenant.ID)
	if balance != 100 {
		t.Fatalf("refund should restore balance to 100, got %d", balance)
	}
}

func TestDepositPendingRequestsGatewayCollection(t *testing.T) {
	repo := &fakeRepo{}
	tenant := &models.Tenant{ID: uuid.New(), GatewayAccount: "ACC9"}
	gw := &fakeGateway{}
	svc := newTestService(t, repo, tenant, gw)
	ctx := context.Background()

	entry, err := svc.DepositPending(ctx, tenant.ID, 5000, "256700000001")
	if err != nil {
		t.Fatalf("deposit pending: %v", err)
	}
	if entry.Status != enums.CreditEntryStatusPending {
		t.Fatalf("expected pending entry, got %s", entry.Status)
	}
	if entry.Reference == nil || !strings.HasPrefix(*entry.Reference, DepositReferencePrefix) {
		t.Fatalf("expected SMS-prefixed reference, got %v", entry.Reference)
	}
	if len(gw.requests) != 1 {
		t.Fatalf("expected one gateway request, got %d", len(gw.requests))
	}
	if gw.requests[0].Account != "ACC9" || gw.requests[0].Amount != 5000 {
		t.Fatalf("unexpected gateway request %+v", gw.requests[0])
	}

	balance, _ := repo.SumSpendable(ctx, tenant.ID)
	if balance != 0 {
		t.Fatalf("pending deposit must not be spendable, got %d", balance)
	}

	if err := svc.ResolveDeposit(ctx, *entry.Reference, true); err != nil {
		t.Fatalf("resolve deposit: %v", err)
	}
	balance, _ = repo.SumSpendable(ctx, tenant.ID)
	if balance != 5000 {
		t.Fatalf("confirmed deposit should be spendable, got %d", balance)
	}
}

func TestDepositPendingGatewayRejectionFailsEntry(t *testing.T) {
	repo := &fakeRepo{}
	tenant := &models.Tenant{ID: uuid.New(), GatewayAccount: "ACC9"}
	gw := &fakeGateway{err: fmt.Errorf("provider down")}
	svc := newTestService(t, repo, tenant, gw)
	ctx := context.Background()

	entry, err := svc.DepositPending(ctx, tenant.ID, 5000, "256700000001")
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil || entry.Status != enums.CreditEntryStatusFailed {
		t.Fatalf("expected failed entry, got %+v", entry)
	}
	balance, _ := repo.SumSpendable(ctx, tenant.ID)
	if balance != 0 {
		t.Fatalf("rejected deposit must not be spendable, got %d", balance)
	}
}

func TestResolveDepositUnknownReference(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &models.Tenant{ID: uuid.New()}, &fakeGateway{})

	err := svc.ResolveDeposit(context.Background(), "SMSUNKNOWN", true)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	err = svc.ResolveDeposit(context.Background(), "HSB-123", true)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non top-up reference, got %v", err)
	}
}
