package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type withdrawalService interface {
	Available(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Initiate(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn string) error
	Confirm(ctx context.Context, tenantID uuid.UUID, amount int64, msisdn, code string) (*models.Withdrawal, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Withdrawal, error)
}

type withdrawalRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Phone  string `json:"phone" validate:"required,min=9,max=15"`
}

type withdrawalConfirmRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Phone  string `json:"phone" validate:"required,min=9,max=15"`
	Code   string `json:"code" validate:"required,len=6"`
}

func WithdrawalBalance(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available, err := svc.Available(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"available": available})
	}
}

// InitiateWithdrawal checks the balance and emails a one-time code.
func InitiateWithdrawal(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body withdrawalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Initiate(r.Context(), tenantID, body.Amount, body.Phone); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "confirmation_sent"})
	}
}

// ConfirmWithdrawal burns the one-time code and executes the payout.
func ConfirmWithdrawal(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body withdrawalConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawal, err := svc.Confirm(r.Context(), tenantID, body.Amount, body.Phone, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal)
	}
}

func ListWithdrawals(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.List(r.Context(), tenantID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
