package vouchers

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

const maxImportRows = 10000

type packageFinder interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Package, error)
}

// ServiceParams groups dependencies for the voucher service.
type ServiceParams struct {
	Repo     Repository
	Packages packageFinder
}

// Service manages voucher inventory for tenants. Allocation during
// fulfillment goes through the repository directly so it shares the
// payment transaction.
type Service struct {
	repo     Repository
	packages packageFinder
}

// NewService builds a voucher service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Packages == nil {
		return nil, stderrors.New("package finder is required")
	}
	return &Service{repo: params.Repo, packages: params.Packages}, nil
}

// ImportResult summarizes a CSV bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ImportCSV loads voucher codes from a one-code-per-row CSV. A header row
// named "code" is tolerated. Codes already present for the tenant are
// reported back as skipped rather than failing the whole batch.
func (s *Service) ImportCSV(ctx context.Context, tenantID, packageID uuid.UUID, reader io.Reader) (*ImportResult, error) {
	pkg, err := s.packages.FindByID(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New(errors.CodeNotFound, "package not found")
	}

	codes, err := parseCodes(reader)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, errors.New(errors.CodeValidation, "csv contains no voucher codes")
	}

	existing, err := s.repo.ExistingCodes(ctx, tenantID, codes)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, code := range existing {
		taken[code] = true
	}

	var batch []models.Voucher
	var skipped []string
	for _, code := range codes {
		if taken[code] {
			skipped = append(skipped, code)
			continue
		}
		taken[code] = true
		batch = append(batch, models.Voucher{
			TenantID:  tenantID,
			PackageID: packageID,
			Code:      code,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	return &ImportResult{Imported: len(batch), Skipped: skipped}, nil
}

// Claim allocates one voucher inside the provided transaction.
func (s *Service) Claim(ctx context.Context, tx *gorm.DB, packageID uuid.UUID, usedBy string) (*models.Voucher, error) {
	return s.repo.WithTx(tx).ClaimUnused(ctx, packageID, usedBy)
}

// Stock returns per-package inventory counts for a tenant.
func (s *Service) Stock(ctx context.Context, tenantID uuid.UUID) ([]StockCount, error) {
	return s.repo.StockByTenant(ctx, tenantID)
}

// List returns vouchers matching the query.
func (s *Service) List(ctx context.Context, params ListQuery) ([]models.Voucher, error) {
	return s.repo.List(ctx, params)
}

func parseCodes(reader io.Reader) ([]string, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	seen := make(map[string]bool)
	var codes []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "malformed csv")
		}
		if len(record) == 0 {
			continue
		}
		code := strings.TrimSpace(record[0])
		if code == "" || strings.EqualFold(code, "code") {
			continue
		}
		if seen[code] {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("duplicate code %q in csv", code))
		}
		seen[code] = true
		codes = append(codes, code)
		if len(codes) > maxImportRows {
			return nil, errors.New(errors.CodeValidation, fmt.Sprintf("import exceeds %d rows", maxImportRows))
		}
	}
	return codes, nil
}
