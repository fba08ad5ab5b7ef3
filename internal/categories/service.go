package categories

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
)

// ServiceParams groups dependencies for the category service.
type ServiceParams struct {
	Repo Repository
}

// Service manages portal package categories.
type Service struct {
	repo Repository
}

// NewService builds a category service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "category name is required")
	}
	category := &models.Category{TenantID: tenantID, Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) Rename(ctx context.Context, tenantID, id uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "category name is required")
	}
	category, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, errors.New(errors.CodeNotFound, "category not found")
	}
	category.Name = name
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.New(errors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *Service) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]models.Category, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}
