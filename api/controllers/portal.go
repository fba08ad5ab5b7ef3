package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type portalGate interface {
	Grant(ctx context.Context, tenantID uuid.UUID, station string, ttl time.Duration) error
	Active(ctx context.Context, tenantID uuid.UUID, station string) (bool, error)
	Revoke(ctx context.Context, tenantID uuid.UUID, station string) error
}

type portalGrantRequest struct {
	Station    string `json:"station" validate:"required"`
	TTLSeconds int    `json:"ttl_seconds" validate:"omitempty,gt=0"`
}

type portalRevokeRequest struct {
	Station string `json:"station" validate:"required"`
}

// PortalCheck tells the captive portal whether a station already holds a
// live session. Public: the router NAS calls this before redirecting to
// the buy page.
func PortalCheck(gate portalGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuidParam(r, "tenantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := gate.Active(r.Context(), tenantID, r.URL.Query().Get("station"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": active})
	}
}

// PortalGrant opens a session for a station, refreshing the window when
// one already exists.
func PortalGrant(gate portalGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body portalGrantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ttl := time.Duration(body.TTLSeconds) * time.Second
		if err := gate.Grant(r.Context(), tenantID, body.Station, ttl); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "granted"})
	}
}

// PortalRevoke drops a station's session before its TTL lapses.
func PortalRevoke(gate portalGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body portalRevokeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := gate.Revoke(r.Context(), tenantID, body.Station); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}
