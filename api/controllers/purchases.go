package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type purchaseService interface {
	InitiatePurchase(ctx context.Context, input payments.PurchaseInput) (*models.Transaction, error)
	PollStatus(ctx context.Context, reference string) (*models.Transaction, error)
}

type purchaseView struct {
	Reference   string  `json:"reference"`
	Status      string  `json:"status"`
	Amount      int64   `json:"amount"`
	VoucherCode *string `json:"voucher_code,omitempty"`
}

func purchaseViewOf(txn *models.Transaction) purchaseView {
	return purchaseView{
		Reference:   txn.Reference,
		Status:      string(txn.Status),
		Amount:      txn.Amount,
		VoucherCode: txn.VoucherCode,
	}
}

// InitiatePurchase starts a voucher purchase from the captive portal. The
// buyer approves the charge on their handset, so the response is always a
// pending reference the portal polls afterwards.
func InitiatePurchase(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body payments.PurchaseInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.InitiatePurchase(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, purchaseViewOf(txn))
	}
}

// PurchaseStatus is the captive portal's poll endpoint. Polling a pending
// reference re-queries the gateway, so a lost webhook cannot strand a
// paid-for voucher.
func PurchaseStatus(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "missing reference"))
			return
		}

		txn, err := svc.PollStatus(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchaseViewOf(txn))
	}
}
