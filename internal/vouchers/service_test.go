package vouchers

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	pkgerrors "github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

type fakeVoucherRepo struct {
	existing map[string]bool
	created  []models.Voucher
}

func (f *fakeVoucherRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeVoucherRepo) CreateBatch(ctx context.Context, batch []models.Voucher) error {
	f.created = append(f.created, batch...)
	return nil
}

func (f *fakeVoucherRepo) ClaimUnused(ctx context.Context, packageID uuid.UUID, usedBy string) (*models.Voucher, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no unused vouchers for package")
}

func (f *fakeVoucherRepo) CountUnused(ctx context.Context, packageID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeVoucherRepo) StockByTenant(ctx context.Context, tenantID uuid.UUID) ([]StockCount, error) {
	return nil, nil
}

func (f *fakeVoucherRepo) List(ctx context.Context, params ListQuery) ([]models.Voucher, error) {
	return nil, nil
}

func (f *fakeVoucherRepo) ExistingCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error) {
	var out []string
	for _, code := range codes {
		if f.existing[code] {
			out = append(out, code)
		}
	}
	return out, nil
}

type fakePackages struct {
	pkg *models.Package
}

func (f *fakePackages) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Package, error) {
	if f.pkg != nil && f.pkg.ID == id && f.pkg.TenantID == tenantID {
		return f.pkg, nil
	}
	return nil, nil
}

func newImportService(t *testing.T, repo *fakeVoucherRepo, pkg *models.Package) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Packages: &fakePackages{pkg: pkg}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestImportCSVSkipsExistingCodes(t *testing.T) {
	tenantID := uuid.New()
	pkg := &models.Package{ID: uuid.New(), TenantID: tenantID, Name: "Daily", Price: 1000}
	repo := &fakeVoucherRepo{existing: map[string]bool{"TAKEN": true}}
	svc := newImportService(t, repo, pkg)

	csv := "code\nFRESH1\nTAKEN\nFRESH2\n"
	result, err := svc.ImportCSV(context.Background(), tenantID, pkg.ID, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", result.Imported)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "TAKEN" {
		t.Fatalf("expected TAKEN skipped, got %v", result.Skipped)
	}
	for _, v := range repo.created {
		if v.TenantID != tenantID || v.PackageID != pkg.ID {
			t.Fatalf("voucher created with wrong owner: %+v", v)
		}
	}
}

func TestImportCSVRejectsDuplicateInFile(t *testing.T) {
	tenantID := uuid.New()
	pkg := &models.Package{ID: uuid.New(), TenantID: tenantID}
	svc := newImportService(t, &fakeVoucherRepo{}, pkg)

	_, err := svc.ImportCSV(context.Background(), tenantID, pkg.ID, strings.NewReader("AAA\nAAA\n"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportCSVUnknownPackage(t *testing.T) {
	svc := newImportService(t, &fakeVoucherRepo{}, nil)

	_, err := svc.ImportCSV(context.Background(), uuid.New(), uuid.New(), strings.NewReader("AAA\n"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestImportCSVEmptyFile(t *testing.T) {
	tenantID := uuid.New()
	pkg := &models.Package{ID: uuid.New(), TenantID: tenantID}
	svc := newImportService(t, &fakeVoucherRepo{}, pkg)

	_, err := svc.ImportCSV(context.Background(), tenantID, pkg.ID, strings.NewReader("code\n\n"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
