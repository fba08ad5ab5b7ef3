package payments

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/internal/smscredit"
	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/gateway"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
	"github.com/ssewanyana/hotspotbill-backend/pkg/metrics"
)

// PurchaseReferencePrefix marks gateway references created for voucher
// purchases, as opposed to the SMS-prefixed top-up references.
const PurchaseReferencePrefix = "TXN"

// NewPurchaseReference generates a transaction reference.
func NewPurchaseReference() string {
	return PurchaseReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	RequestPayment(ctx context.Context, req gateway.PaymentRequest) error
	CheckStatus(ctx context.Context, account, reference string) (gateway.Status, error)
	Currency() string
}

type creditLedger interface {
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	BalanceInTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
	ReserveAndDebit(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, cost int64, description string) error
	Refund(ctx context.Context, tenantID uuid.UUID, amount int64, description string) error
	ResolveDeposit(ctx context.Context, reference string, success bool) error
	FindDeposit(ctx context.Context, reference string) (*models.SmsCreditEntry, error)
}

type voucherAllocator interface {
	Claim(ctx context.Context, tx *gorm.DB, packageID uuid.UUID, usedBy string) (*models.Voucher, error)
}

type packageSource interface {
	FindAnyByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
}

type tenantSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type notifier interface {
	SendVoucherSMS(ctx context.Context, msisdn, code, packageName, validity string) error
	NotifySale(ctx context.Context, tenant *models.Tenant, packageName string, amount int64, voucherCode string)
	NotifyLowBalance(ctx context.Context, tenant *models.Tenant, balance int64)
}

// ServiceParams groups dependencies for the payment engine.
type ServiceParams struct {
	DB       txRunner
	Repo     Repository
	Packages packageSource
	Tenants  tenantSource
	Vouchers voucherAllocator
	Credits  creditLedger
	Gateway  gatewayClient
	Notify   notifier
	Metrics  *metrics.PaymentMetrics
	Billing  config.BillingConfig
	Logger   *logger.Logger
}

// Service drives purchases from initiation through confirmation to voucher
// delivery. Confirmation is dual path: the gateway webhook and status
// polling race, and fulfillment must happen exactly once no matter which
// path wins or how often either replays.
type Service struct {
	db       txRunner
	repo     Repository
	packages packageSource
	tenants  tenantSource
	vouchers voucherAllocator
	credits  creditLedger
	gateway  gatewayClient
	notify   notifier
	metrics  *metrics.PaymentMetrics
	billing  config.BillingConfig
	logg     *logger.Logger
}

// NewService builds the payment engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, stderrors.New("db runner is required")
	}
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Packages == nil {
		return nil, stderrors.New("package source is required")
	}
	if params.Tenants == nil {
		return nil, stderrors.New("tenant source is required")
	}
	if params.Vouchers == nil {
		return nil, stderrors.New("voucher allocator is required")
	}
	if params.Credits == nil {
		return nil, stderrors.New("credit ledger is required")
	}
	if params.Gateway == nil {
		return nil, stderrors.New("gateway client is required")
	}
	if params.Notify == nil {
		return nil, stderrors.New("notifier is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{
		db:       params.DB,
		repo:     params.Repo,
		packages: params.Packages,
		tenants:  params.Tenants,
		vouchers: params.Vouchers,
		credits:  params.Credits,
		gateway:  params.Gateway,
		notify:   params.Notify,
		metrics:  params.Metrics,
		billing:  params.Billing,
		logg:     params.Logger,
	}, nil
}

// PurchaseInput starts a voucher purchase from the captive portal.
type PurchaseInput struct {
	PackageID uuid.UUID `json:"package_id" validate:"required"`
	Phone     string    `json:"phone" validate:"required,min=9,max=15"`
}

// InitiatePurchase records a pending transaction and asks the gateway to
// collect the package price from the buyer's msisdn.
func (s *Service) InitiatePurchase(ctx context.Context, input PurchaseInput) (*models.Transaction, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, errors.New(errors.CodeValidation, "phone is required")
	}

	pkg, err := s.packages.FindAnyByID(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New(errors.CodeNotFound, "package not found")
	}
	tenant, err := s.tenants.FindByID(ctx, pkg.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !tenant.Active {
		return nil, errors.New(errors.CodeStateConflict, "tenant is not accepting purchases")
	}

	txn := &models.Transaction{
		Reference: NewPurchaseReference(),
		TenantID:  pkg.TenantID,
		PackageID: pkg.ID,
		Phone:     phone,
		Amount:    pkg.Price,
		Status:    enums.TransactionStatusPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}

	err = s.gateway.RequestPayment(ctx, gateway.PaymentRequest{
		Account:     tenant.GatewayAccount,
		Reference:   txn.Reference,
		MSISDN:      phone,
		Currency:    s.gateway.Currency(),
		Amount:      pkg.Price,
		Description: fmt.Sprintf("Voucher purchase: %s", pkg.Name),
	})
	if err != nil {
		if _, markErr := s.repo.MarkTerminal(ctx, txn.ID, enums.TransactionStatusFailed, nil); markErr != nil {
			return nil, markErr
		}
		txn.Status = enums.TransactionStatusFailed
		s.metrics.IncFailed("initiate")
		return txn, errors.Wrap(errors.CodeDependency, err, "gateway rejected payment request")
	}
	return txn, nil
}

// WebhookInput is the gateway's confirmation callback payload.
type WebhookInput struct {
	Reference  string `json:"reference" validate:"required"`
	Status     string `json:"status"`
	ItemStatus string `json:"item_status"`
}

// HandleWebhook routes a gateway confirmation. SMS-prefixed references
// settle credit top-ups, everything else settles voucher purchases.
// Replays against terminal rows and unrecognized statuses are acknowledged
// without effect.
func (s *Service) HandleWebhook(ctx context.Context, input WebhookInput) error {
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return errors.New(errors.CodeValidation, "reference is required")
	}
	verdict := gateway.NormalizeStatus(input.Status, input.ItemStatus)
	logCtx := s.logg.WithReference(ctx, reference)

	if smscredit.IsDepositReference(reference) {
		if verdict == gateway.StatusPending {
			s.logg.Info(logCtx, "ignoring non-terminal top-up webhook")
			return nil
		}
		return s.credits.ResolveDeposit(ctx, reference, verdict == gateway.StatusSuccess)
	}

	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return err
	}
	if txn == nil {
		return errors.New(errors.CodeNotFound, "unknown payment reference")
	}
	if txn.Status.IsTerminal() {
		s.logg.Info(logCtx, "webhook replay on settled transaction")
		return nil
	}

	switch verdict {
	case gateway.StatusSuccess:
		_, err := s.fulfill(ctx, txn, "webhook")
		return err
	case gateway.StatusFailed:
		return s.markFailed(ctx, txn, "webhook")
	default:
		s.logg.Info(logCtx, "ignoring webhook with unrecognized status")
		return nil
	}
}

// PollStatus reconciles one purchase against the gateway. Terminal rows
// short-circuit without a gateway call; transient gateway errors leave the
// row pending for a later attempt.
func (s *Service) PollStatus(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, errors.New(errors.CodeNotFound, "unknown payment reference")
	}
	if txn.Status.IsTerminal() {
		return txn, nil
	}

	tenant, err := s.tenants.FindByID(ctx, txn.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeInternal, "transaction has no tenant")
	}

	verdict, err := s.gateway.CheckStatus(ctx, tenant.GatewayAccount, reference)
	if err != nil {
		s.logg.Warn(s.logg.WithReference(ctx, reference), "status check failed, leaving transaction pending: "+err.Error())
		return txn, nil
	}

	switch verdict {
	case gateway.StatusSuccess:
		return s.fulfill(ctx, txn, "poll")
	case gateway.StatusFailed:
		if err := s.markFailed(ctx, txn, "poll"); err != nil {
			return nil, err
		}
		return s.repo.FindByReference(ctx, reference)
	default:
		return txn, nil
	}
}

// PollTopup reconciles an SMS credit top-up against the gateway.
func (s *Service) PollTopup(ctx context.Context, tenantID uuid.UUID, reference string) (*models.SmsCreditEntry, error) {
	entry, err := s.credits.FindDeposit(ctx, reference)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.TenantID != tenantID {
		return nil, errors.New(errors.CodeNotFound, "top-up reference not found")
	}
	if entry.Status != enums.CreditEntryStatusPending {
		return entry, nil
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeNotFound, "tenant not found")
	}

	verdict, err := s.gateway.CheckStatus(ctx, tenant.GatewayAccount, reference)
	if err != nil {
		s.logg.Warn(s.logg.WithReference(ctx, reference), "top-up status check failed: "+err.Error())
		return entry, nil
	}
	if verdict == gateway.StatusPending {
		return entry, nil
	}
	if err := s.credits.ResolveDeposit(ctx, reference, verdict == gateway.StatusSuccess); err != nil {
		return nil, err
	}
	return s.credits.FindDeposit(ctx, reference)
}

// SweepPending reconciles transactions stuck pending longer than age by
// running each through the poll path. Returns how many rows were examined.
func (s *Service) SweepPending(ctx context.Context, age time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	stale, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	var errs error
	for _, txn := range stale {
		if _, err := s.PollStatus(ctx, txn.Reference); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sweep %s: %w", txn.Reference, err))
		}
	}
	return len(stale), errs
}

// ListTransactions returns a tenant's purchase history.
func (s *Service) ListTransactions(ctx context.Context, params ListQuery) ([]models.Transaction, error) {
	return s.repo.ListByTenant(ctx, params)
}

// errAlreadySettled aborts a fulfillment transaction that lost the race.
var errAlreadySettled = stderrors.New("transaction already settled")

type fulfillOutcome struct {
	status      enums.TransactionStatus
	voucherCode string
	fee         int64
	debited     bool
	outOfStock  bool
}

// fulfill settles a confirmed payment. The whole settlement runs in one
// database transaction: the status flip, the voucher claim, and the SMS
// debit commit together or not at all. The pending-status row count on the
// final update guarantees at-most-once execution even when the webhook and
// poll paths race.
func (s *Service) fulfill(ctx context.Context, txn *models.Transaction, path string) (*models.Transaction, error) {
	pkg, err := s.packages.FindAnyByID(ctx, txn.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New(errors.CodeInternal, "transaction references missing package")
	}
	tenant, err := s.tenants.FindByID(ctx, txn.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New(errors.CodeInternal, "transaction references missing tenant")
	}

	var outcome fulfillOutcome
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindForUpdate(ctx, txn.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status.IsTerminal() {
			return errAlreadySettled
		}

		// Transaction row first, then tenant row. Fulfillments for the
		// same tenant on different purchases contend here, so the
		// balance read and the debit below stay serialized per tenant.
		if err := repo.LockTenant(ctx, txn.TenantID); err != nil {
			return err
		}

		balance, err := s.credits.BalanceInTx(ctx, tx, txn.TenantID)
		if err != nil {
			return err
		}
		if balance < s.billing.SMSCostPerVoucher {
			won, err := repo.MarkTerminal(ctx, txn.ID, enums.TransactionStatusFailedLowSMS, nil)
			if err != nil {
				return err
			}
			if !won {
				return errAlreadySettled
			}
			outcome = fulfillOutcome{status: enums.TransactionStatusFailedLowSMS}
			return nil
		}

		fee := computeFee(tenant, txn.Amount)
		fields := map[string]any{"fee": fee}

		voucher, err := s.vouchers.Claim(ctx, tx, txn.PackageID, txn.Phone)
		if err != nil {
			if typed := errors.As(err); typed != nil && typed.Code() == errors.CodeNotFound {
				won, markErr := repo.MarkTerminal(ctx, txn.ID, enums.TransactionStatusSuccess, fields)
				if markErr != nil {
					return markErr
				}
				if !won {
					return errAlreadySettled
				}
				outcome = fulfillOutcome{status: enums.TransactionStatusSuccess, fee: fee, outOfStock: true}
				return nil
			}
			return err
		}

		debitDesc := fmt.Sprintf("voucher sms for %s (%s)", voucher.Code, txn.Reference)
		if err := s.credits.ReserveAndDebit(ctx, tx, txn.TenantID, s.billing.SMSCostPerVoucher, debitDesc); err != nil {
			return err
		}

		fields["voucher_code"] = voucher.Code
		won, err := repo.MarkTerminal(ctx, txn.ID, enums.TransactionStatusSuccess, fields)
		if err != nil {
			return err
		}
		if !won {
			return errAlreadySettled
		}
		outcome = fulfillOutcome{
			status:      enums.TransactionStatusSuccess,
			voucherCode: voucher.Code,
			fee:         fee,
			debited:     true,
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, errAlreadySettled) {
			return s.repo.FindByReference(ctx, txn.Reference)
		}
		return nil, err
	}

	s.afterFulfill(ctx, txn, tenant, pkg, outcome, path)
	return s.repo.FindByReference(ctx, txn.Reference)
}

// afterFulfill runs the edge effects of a committed settlement. Nothing in
// here can undo the transaction; SMS delivery failure is compensated with a
// ledger refund instead.
func (s *Service) afterFulfill(ctx context.Context, txn *models.Transaction, tenant *models.Tenant, pkg *models.Package, outcome fulfillOutcome, path string) {
	logCtx := s.logg.WithReference(s.logg.WithTenantID(ctx, tenant.ID.String()), txn.Reference)

	if outcome.status == enums.TransactionStatusFailedLowSMS {
		s.metrics.IncLowSMS(path)
		s.logg.Warn(logCtx, "payment confirmed but tenant has insufficient sms credit")
		balance, err := s.credits.Balance(ctx, tenant.ID)
		if err == nil {
			s.notify.NotifyLowBalance(ctx, tenant, balance)
		}
		return
	}

	s.metrics.IncFulfilled(path)
	if outcome.outOfStock {
		s.metrics.IncOutOfStock()
		s.logg.Error(logCtx, "payment collected with no voucher in stock", nil)
	}

	if outcome.debited {
		if err := s.notify.SendVoucherSMS(ctx, txn.Phone, outcome.voucherCode, pkg.Name, pkg.Validity); err != nil {
			s.logg.Warn(logCtx, "voucher sms failed, refunding debit: "+err.Error())
			refundDesc := fmt.Sprintf("sms delivery failed for %s (%s)", outcome.voucherCode, txn.Reference)
			if refundErr := s.credits.Refund(ctx, tenant.ID, s.billing.SMSCostPerVoucher, refundDesc); refundErr != nil {
				s.logg.Error(logCtx, "compensating refund failed", refundErr)
			} else {
				s.metrics.IncSMSRefund()
			}
		}
	}

	s.notify.NotifySale(ctx, tenant, pkg.Name, txn.Amount, outcome.voucherCode)

	balance, err := s.credits.Balance(ctx, tenant.ID)
	if err == nil && balance <= s.billing.LowBalanceThreshold {
		s.notify.NotifyLowBalance(ctx, tenant, balance)
	}
}

func (s *Service) markFailed(ctx context.Context, txn *models.Transaction, path string) error {
	won, err := s.repo.MarkTerminal(ctx, txn.ID, enums.TransactionStatusFailed, nil)
	if err != nil {
		return err
	}
	if won {
		s.metrics.IncFailed(path)
		s.logg.Info(s.logg.WithReference(ctx, txn.Reference), "transaction marked failed")
	}
	return nil
}

// computeFee derives the platform's cut. Commission tenants pay a
// percentage per sale; flat-rate tenants settle via subscription instead.
func computeFee(tenant *models.Tenant, amount int64) int64 {
	if tenant.BillingType != enums.BillingTypeCommission {
		return 0
	}
	fee := decimal.NewFromInt(amount).
		Mul(tenant.CommissionRate).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return fee.IntPart()
}
