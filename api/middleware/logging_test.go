package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

func TestLoggingRecordsStatusAndPassesResponseThrough(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected handler status to pass through, got %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	line := buf.String()
	if !strings.Contains(line, `"status":418`) {
		t.Fatalf("completion log missing status: %s", line)
	}
	if !strings.Contains(line, `"path":"/brew"`) {
		t.Fatalf("completion log missing path: %s", line)
	}
	if !strings.Contains(line, `"bytes":15`) {
		t.Fatalf("completion log missing byte count: %s", line)
	}
}

func TestLoggingDefaultsImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler returns without writing anything.
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/silent", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 in completion log: %s", buf.String())
	}
}
