package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type creditService interface {
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	DepositPending(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn string) (*models.SmsCreditEntry, error)
	ListEntries(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SmsCreditEntry, error)
}

type topupPoller interface {
	PollTopup(ctx context.Context, tenantID uuid.UUID, reference string) (*models.SmsCreditEntry, error)
}

type topupRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Phone  string `json:"phone" validate:"required,min=9,max=15"`
}

func CreditBalance(svc creditService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.Balance(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"balance": balance})
	}
}

// InitiateTopup starts a credit purchase. Credit only becomes spendable
// once the gateway confirms the payment.
func InitiateTopup(svc creditService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body topupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.DepositPending(r.Context(), tenantID, body.Amount, body.Phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, entry)
	}
}

// TopupStatus polls a pending top-up against the gateway.
func TopupStatus(svc topupPoller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "missing reference"))
			return
		}
		entry, err := svc.PollTopup(r.Context(), tenantID, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func ListCreditEntries(svc creditService, logg *logger.Logger) http.HandlerFunc {
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
		entries, err := svc.ListEntries(r.Context(), tenantID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
