package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/enums"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type transactionLister interface {
	ListTransactions(ctx context.Context, params payments.ListQuery) ([]models.Transaction, error)
}

func ListTransactions(svc transactionLister, logg *logger.Logger) http.HandlerFunc {
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

		query := payments.ListQuery{TenantID: tenantID, Limit: limit}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseTransactionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "unknown status filter"))
				return
			}
			query.Status = &status
		}

		list, err := svc.ListTransactions(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
