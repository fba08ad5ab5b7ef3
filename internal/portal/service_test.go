package portal

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	pkgerrors "github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

type storedGrant struct {
	value string
	ttl   time.Duration
}

type fakeStore struct {
	grants map[string]storedGrant
}

func newFakeStore() *fakeStore {
	return &fakeStore{grants: make(map[string]storedGrant)}
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.grants[key] = storedGrant{value: value.(string), ttl: ttl}
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.grants[key]
	return ok, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.grants, key)
	}
	return nil
}

func (f *fakeStore) PortalSessionKey(tenantID, station string) string {
	return strings.Join([]string{"hsb", "portal", tenantID, station}, ":")
}

func newService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:  store,
		Portal: config.PortalConfig{SessionTTL: 24 * time.Hour},
		Logger: logger.New(logger.Options{ServiceName: "portal-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGrantThenActive(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store)
	ctx := context.Background()
	tenantID := uuid.New()

	if err := svc.Grant(ctx, tenantID, "aa:bb:cc:dd:ee:ff", time.Hour); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Station lookup is case-insensitive.
	active, err := svc.Active(ctx, tenantID, "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !active {
		t.Fatal("granted station must be active")
	}

	active, err = svc.Active(ctx, tenantID, "11:22:33:44:55:66")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("unknown station must not be active")
	}

	active, err = svc.Active(ctx, uuid.New(), "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("sessions must be scoped per tenant")
	}
}

func TestGrantDefaultsTTL(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store)
	tenantID := uuid.New()

	if err := svc.Grant(context.Background(), tenantID, "aa:bb:cc:dd:ee:ff", 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	grant, ok := store.grants[store.PortalSessionKey(tenantID.String(), "AA:BB:CC:DD:EE:FF")]
	if !ok {
		t.Fatal("grant not stored")
	}
	if grant.ttl != 24*time.Hour {
		t.Fatalf("expected configured ttl, got %s", grant.ttl)
	}
}

func TestGrantRejectsEmptyStation(t *testing.T) {
	svc := newService(t, newFakeStore())

	err := svc.Grant(context.Background(), uuid.New(), "   ", time.Hour)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store := newFakeStore()
	svc := newService(t, store)
	ctx := context.Background()
	tenantID := uuid.New()

	if err := svc.Grant(ctx, tenantID, "aa:bb:cc:dd:ee:ff", time.Hour); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.Revoke(ctx, tenantID, "aa:bb:cc:dd:ee:ff"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	active, err := svc.Active(ctx, tenantID, "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("revoked station must not be active")
	}
}
