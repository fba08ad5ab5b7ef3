package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stats_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func int64Ptr(v int64) *int64 { return &v }

func seedTransaction(t *testing.T, db *gorm.DB, txn models.Transaction) {
	t.Helper()
	txn.ID = uuid.New()
	txn.Reference = "TXN" + uuid.NewString()
	if txn.PackageID == uuid.Nil {
		txn.PackageID = uuid.New()
	}
	if txn.Phone == "" {
		txn.Phone = "256700000001"
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if !txn.CreatedAt.IsZero() {
		// autoCreateTime overwrites the seeded timestamp, put it back.
		if err := db.Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Update("created_at", txn.CreatedAt).Error; err != nil {
			t.Fatalf("backdate transaction: %v", err)
		}
	}
}

func TestRevenueUsesNetOfFeesAndSkipsManual(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()
	now := time.Now().UTC()

	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 1000, Fee: int64Ptr(100),
		Status: enums.TransactionStatusSuccess,
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 2000,
		Status: enums.TransactionStatusSuccess,
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 9000, Manual: true,
		Status: enums.TransactionStatusSuccess,
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 9000,
		Status: enums.TransactionStatusFailed,
	})

	summary, err := repo.Revenue(context.Background(), tenantID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if summary.Gross != 3000 || summary.Fees != 100 || summary.Net != 2900 || summary.Sales != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRevenueRespectsWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()
	now := time.Now().UTC()

	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 1000,
		Status:    enums.TransactionStatusSuccess,
		CreatedAt: now.AddDate(0, 0, -40),
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 2000,
		Status:    enums.TransactionStatusSuccess,
		CreatedAt: now.AddDate(0, 0, -1),
	})

	summary, err := repo.Revenue(context.Background(), tenantID, now.AddDate(0, 0, -30), now)
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if summary.Net != 2000 || summary.Sales != 1 {
		t.Fatalf("expected only the recent sale, got %+v", summary)
	}
}

func TestCountByStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()
	now := time.Now().UTC()

	seedTransaction(t, db, models.Transaction{TenantID: tenantID, Amount: 1000, Status: enums.TransactionStatusSuccess})
	seedTransaction(t, db, models.Transaction{TenantID: tenantID, Amount: 1000, Status: enums.TransactionStatusSuccess})
	seedTransaction(t, db, models.Transaction{TenantID: tenantID, Amount: 1000, Status: enums.TransactionStatusFailedLowSMS})
	seedTransaction(t, db, models.Transaction{TenantID: uuid.New(), Amount: 1000, Status: enums.TransactionStatusFailed})

	counts, err := repo.CountByStatus(context.Background(), tenantID, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}
	got := map[enums.TransactionStatus]int64{}
	for _, row := range counts {
		got[row.Status] = row.Count
	}
	if got[enums.TransactionStatusSuccess] != 2 {
		t.Fatalf("expected 2 success, got %+v", got)
	}
	if got[enums.TransactionStatusFailedLowSMS] != 1 {
		t.Fatalf("expected 1 failed_low_sms, got %+v", got)
	}
	if got[enums.TransactionStatusFailed] != 0 {
		t.Fatalf("other tenant rows leaked: %+v", got)
	}
}

func TestRevenueByDayGroupsAndOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 1000, Fee: int64Ptr(100),
		Status: enums.TransactionStatusSuccess, CreatedAt: yesterday,
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 500,
		Status: enums.TransactionStatusSuccess, CreatedAt: yesterday,
	})
	seedTransaction(t, db, models.Transaction{
		TenantID: tenantID, Amount: 2000,
		Status: enums.TransactionStatusSuccess, CreatedAt: now,
	})

	days, err := repo.RevenueByDay(context.Background(), tenantID, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("revenue by day: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Net != 1400 || days[0].Sales != 2 {
		t.Fatalf("unexpected first day: %+v", days[0])
	}
	if days[1].Net != 2000 || days[1].Sales != 1 {
		t.Fatalf("unexpected second day: %+v", days[1])
	}
}
