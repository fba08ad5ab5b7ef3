package stats

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/internal/vouchers"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

type stockSource interface {
	Stock(ctx context.Context, tenantID uuid.UUID) ([]vouchers.StockCount, error)
}

type creditSource interface {
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// Dashboard is the tenant overview returned by the stats endpoint.
type Dashboard struct {
	Today       RevenueSummary        `json:"today"`
	Period      RevenueSummary        `json:"period"`
	ByStatus    []StatusCount         `json:"by_status"`
	ByDay       []DailyRevenue        `json:"by_day"`
	Stock       []vouchers.StockCount `json:"stock"`
	SmsBalance  int64                 `json:"sms_balance"`
	PeriodStart time.Time             `json:"period_start"`
	PeriodEnd   time.Time             `json:"period_end"`
}

// ServiceParams groups dependencies for the stats service.
type ServiceParams struct {
	Repo    Repository
	Stock   stockSource
	Credits creditSource
}

// Service assembles tenant reporting.
type Service struct {
	repo    Repository
	stock   stockSource
	credits creditSource
}

// NewService builds a stats service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Stock == nil {
		return nil, stderrors.New("stock source is required")
	}
	if params.Credits == nil {
		return nil, stderrors.New("credit source is required")
	}
	return &Service{repo: params.Repo, stock: params.Stock, credits: params.Credits}, nil
}

// Dashboard builds the tenant overview for the trailing period.
func (s *Service) Dashboard(ctx context.Context, tenantID uuid.UUID, days int) (*Dashboard, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -days)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	today, err := s.repo.Revenue(ctx, tenantID, dayStart, now)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "could not total today's revenue")
	}
	period, err := s.repo.Revenue(ctx, tenantID, periodStart, now)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "could not total period revenue")
	}
	byStatus, err := s.repo.CountByStatus(ctx, tenantID, periodStart)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "could not count transactions")
	}
	byDay, err := s.repo.RevenueByDay(ctx, tenantID, periodStart)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "could not build daily revenue")
	}
	stock, err := s.stock.Stock(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "could not count voucher stock")
	}
	balance, err := s.credits.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Today:       today,
		Period:      period,
		ByStatus:    byStatus,
		ByDay:       byDay,
		Stock:       stock,
		SmsBalance:  balance,
		PeriodStart: periodStart,
		PeriodEnd:   now,
	}, nil
}

// Revenue exposes the raw revenue summary for an arbitrary window.
func (s *Service) Revenue(ctx context.Context, tenantID uuid.UUID, since, until time.Time) (RevenueSummary, error) {
	if !until.After(since) {
		return RevenueSummary{}, errors.New(errors.CodeValidation, "period end must come after period start")
	}
	return s.repo.Revenue(ctx, tenantID, since, until)
}
