package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

// RevenueSummary totals settled sales over a period. Net is what the
// tenant can actually withdraw from the period's sales.
type RevenueSummary struct {
	Gross int64 `gorm:"column:gross" json:"gross"`
	Fees  int64 `gorm:"column:fees" json:"fees"`
	Net   int64 `gorm:"column:net" json:"net"`
	Sales int64 `gorm:"column:sales" json:"sales"`
}

// StatusCount is the number of transactions in one status.
type StatusCount struct {
	Status enums.TransactionStatus `gorm:"column:status" json:"status"`
	Count  int64                   `gorm:"column:count" json:"count"`
}

// DailyRevenue is one day's settled revenue.
type DailyRevenue struct {
	Day   string `gorm:"column:day" json:"day"`
	Net   int64  `gorm:"column:net" json:"net"`
	Sales int64  `gorm:"column:sales" json:"sales"`
}

// Repository aggregates transaction rows for reporting.
type Repository interface {
	Revenue(ctx context.Context, tenantID uuid.UUID, since, until time.Time) (RevenueSummary, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]StatusCount, error)
	RevenueByDay(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]DailyRevenue, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stats repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Revenue counts settled gateway sales only. Manual transactions are
// bookkeeping entries and carry no money, so they are excluded everywhere
// revenue is reported.
func (r *repository) Revenue(ctx context.Context, tenantID uuid.UUID, since, until time.Time) (RevenueSummary, error) {
	var out RevenueSummary
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS gross, COALESCE(SUM(COALESCE(fee, 0)), 0) AS fees, COALESCE(SUM(amount - COALESCE(fee, 0)), 0) AS net, COUNT(*) AS sales").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", enums.TransactionStatusSuccess).
		Where("NOT manual").
		Where("created_at >= ? AND created_at < ?", since, until).
		Scan(&out).Error
	return out, err
}

func (r *repository) CountByStatus(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Where("created_at >= ?", since).
		Group("status").
		Scan(&out).Error
	return out, err
}

func (r *repository) RevenueByDay(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]DailyRevenue, error) {
	var out []DailyRevenue
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("DATE(created_at) AS day, COALESCE(SUM(amount - COALESCE(fee, 0)), 0) AS net, COUNT(*) AS sales").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", enums.TransactionStatusSuccess).
		Where("NOT manual").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&out).Error
	return out, err
}
