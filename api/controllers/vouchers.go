package controllers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/internal/vouchers"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

const maxImportUpload = 2 << 20 // 2 MiB, far above the row limit

type voucherService interface {
	ImportCSV(ctx context.Context, tenantID, packageID uuid.UUID, reader io.Reader) (*vouchers.ImportResult, error)
	Stock(ctx context.Context, tenantID uuid.UUID) ([]vouchers.StockCount, error)
	List(ctx context.Context, params vouchers.ListQuery) ([]models.Voucher, error)
}

// ImportVouchers ingests a CSV of codes. The file arrives either as a
// multipart "file" field or as the raw request body with Content-Type
// text/csv; package_id comes from the form or the query string.
func ImportVouchers(svc voucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reader, packageIDRaw, err := importPayload(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		packageID, err := uuid.Parse(strings.TrimSpace(packageIDRaw))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "package_id must be a uuid"))
			return
		}

		result, err := svc.ImportCSV(r.Context(), tenantID, packageID, reader)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func importPayload(r *http.Request) (io.Reader, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportUpload); err != nil {
			return nil, "", errors.Wrap(errors.CodeValidation, err, "invalid multipart upload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.Wrap(errors.CodeValidation, err, "missing file field")
		}
		return file, r.FormValue("package_id"), nil
	}
	return io.LimitReader(r.Body, maxImportUpload), r.URL.Query().Get("package_id"), nil
}

func VoucherStock(svc voucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stock, err := svc.Stock(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

func ListVouchers(svc voucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := vouchers.ListQuery{TenantID: tenantID, Limit: limit}
		if raw := strings.TrimSpace(r.URL.Query().Get("package_id")); raw != "" {
			packageID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "package_id must be a uuid"))
				return
			}
			query.PackageID = &packageID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("used")); raw != "" {
			used := raw == "true"
			query.Used = &used
		}

		list, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
