package portal

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
)

// sessionStore is the slice of the redis client the gate needs.
type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PortalSessionKey(tenantID, station string) string
}

// ServiceParams groups dependencies for the portal session gate.
type ServiceParams struct {
	Store  sessionStore
	Portal config.PortalConfig
	Logger *logger.Logger
}

// Service tracks which stations currently hold internet access. Grants
// live in redis under a TTL so they evict themselves; nothing is kept in
// process memory.
type Service struct {
	store  sessionStore
	portal config.PortalConfig
	logg   *logger.Logger
}

// NewService builds a portal session gate.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, stderrors.New("session store is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{
		store:  params.Store,
		portal: params.Portal,
		logg:   params.Logger,
	}, nil
}

// Grant opens a session for the station. A zero ttl falls back to the
// configured default; re-granting refreshes the window.
func (s *Service) Grant(ctx context.Context, tenantID uuid.UUID, station string, ttl time.Duration) error {
	station, err := normalizeStation(station)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.portal.SessionTTL
	}
	expiresAt := time.Now().UTC().Add(ttl)
	key := s.store.PortalSessionKey(tenantID.String(), station)
	if err := s.store.Set(ctx, key, expiresAt.Format(time.RFC3339), ttl); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "could not store portal session")
	}
	logCtx := s.logg.WithTenantID(ctx, tenantID.String())
	s.logg.Info(logCtx, "portal session granted to "+station+" until "+expiresAt.Format(time.RFC3339))
	return nil
}

// Active reports whether the station still holds a live session.
func (s *Service) Active(ctx context.Context, tenantID uuid.UUID, station string) (bool, error) {
	station, err := normalizeStation(station)
	if err != nil {
		return false, err
	}
	active, err := s.store.Exists(ctx, s.store.PortalSessionKey(tenantID.String(), station))
	if err != nil {
		return false, errors.Wrap(errors.CodeDependency, err, "could not read portal session")
	}
	return active, nil
}

// Revoke drops the station's session ahead of its TTL.
func (s *Service) Revoke(ctx context.Context, tenantID uuid.UUID, station string) error {
	station, err := normalizeStation(station)
	if err != nil {
		return err
	}
	if err := s.store.Del(ctx, s.store.PortalSessionKey(tenantID.String(), station)); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "could not revoke portal session")
	}
	return nil
}

// normalizeStation canonicalizes a station identifier, typically a MAC
// address, so grant and check agree on the key.
func normalizeStation(station string) (string, error) {
	station = strings.ToUpper(strings.TrimSpace(station))
	if station == "" {
		return "", errors.New(errors.CodeValidation, "station identifier is required")
	}
	return station, nil
}
