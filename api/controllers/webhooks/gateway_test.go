package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type fakeConfirmationHandler struct {
	inputs []payments.WebhookInput
	err    error
}

func (f *fakeConfirmationHandler) HandleWebhook(ctx context.Context, input payments.WebhookInput) error {
	f.inputs = append(f.inputs, input)
	return f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-webhooks", Output: io.Discard})
}

func TestGatewayWebhookAcknowledges(t *testing.T) {
	handler := &fakeConfirmationHandler{}
	body := `{"reference":"TXN7F3A","status":"SUCCESSFUL"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	GatewayWebhook(handler, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(handler.inputs) != 1 || handler.inputs[0].Reference != "TXN7F3A" {
		t.Fatalf("unexpected inputs %v", handler.inputs)
	}
	if !strings.Contains(resp.Body.String(), "acknowledged") {
		t.Fatalf("expected acknowledgement body got %s", resp.Body.String())
	}
}

func TestGatewayWebhookRejectsMalformedPayload(t *testing.T) {
	handler := &fakeConfirmationHandler{}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	GatewayWebhook(handler, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(handler.inputs) != 0 {
		t.Fatalf("handler must not run on malformed payload")
	}
}

func TestGatewayWebhookSurfacesValidationError(t *testing.T) {
	handler := &fakeConfirmationHandler{err: errors.New(errors.CodeValidation, "reference is required")}
	body := `{"reference":"TXN7F3A","status":"SUCCESSFUL"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	GatewayWebhook(handler, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
