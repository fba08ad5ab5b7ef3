package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
)

func TestSendPostsMessage(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer mail-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := New(config.MailConfig{
		BaseURL: srv.URL,
		APIKey:  "mail-key",
		From:    "billing@hotspot.example",
		Timeout: 2 * time.Second,
	})
	err := client.Send(context.Background(), "owner@tenant.example", "Withdrawal code", "Your code is 482913")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.From != "billing@hotspot.example" || got.To != "owner@tenant.example" {
		t.Errorf("addresses not forwarded: %+v", got)
	}
	if got.Subject != "Withdrawal code" {
		t.Errorf("unexpected subject %q", got.Subject)
	}
}

func TestSendRejectionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(config.MailConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err := client.Send(context.Background(), "a@b.c", "subject", "body"); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestSendNoBaseURLIsNoop(t *testing.T) {
	client := New(config.MailConfig{Timeout: 2 * time.Second})
	if err := client.Send(context.Background(), "a@b.c", "subject", "body"); err != nil {
		t.Fatalf("unconfigured client should drop silently, got %v", err)
	}
}
