package webhooks

import (
	"context"
	"net/http"

	"github.com/ssewanyana/hotspotbill-backend/api/responses"
	"github.com/ssewanyana/hotspotbill-backend/api/validators"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type confirmationHandler interface {
	HandleWebhook(ctx context.Context, input payments.WebhookInput) error
}

// GatewayWebhook receives payment confirmations. The gateway retries on
// non-2xx, so anything that is handled, already settled, or intentionally
// ignored must acknowledge with 200; only malformed payloads get a 4xx.
func GatewayWebhook(svc confirmationHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body payments.WebhookInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleWebhook(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
	}
}
