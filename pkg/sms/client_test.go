package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
)

func testConfig(baseURL string) config.SMSConfig {
	return config.SMSConfig{
		BaseURL:  baseURL,
		Username: "portal",
		Password: "secret",
		Sender:   "HOTSPOT",
		Timeout:  2 * time.Second,
	}
}

func TestSendPostsCredentialsAndMessage(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	if err := client.Send(context.Background(), "256700000001", "Your voucher code is ABC123"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Username != "portal" || got.Password != "secret" {
		t.Errorf("credentials not forwarded: %+v", got)
	}
	if got.Numbers != "256700000001" {
		t.Errorf("unexpected numbers field %q", got.Numbers)
	}
	if got.Message != "Your voucher code is ABC123" {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestSendErrorBodyFailsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"invalid credentials"}`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	if err := client.Send(context.Background(), "256700000001", "hello"); err == nil {
		t.Fatal("expected error from error body")
	}
}

func TestSendNon2xxFailsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	if err := client.Send(context.Background(), "256700000001", "hello"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestSendPlainTextOKAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	if err := client.Send(context.Background(), "256700000001", "hello"); err != nil {
		t.Fatalf("plain-text OK should be accepted, got %v", err)
	}
}
