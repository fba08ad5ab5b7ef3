package packages

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ssewanyana/hotspotbill-backend/pkg/db/models"
	"github.com/ssewanyana/hotspotbill-backend/pkg/errors"
	"github.com/ssewanyana/hotspotbill-backend/pkg/types"
)

type categoryFinder interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error)
}

// ServiceParams groups dependencies for the package service.
type ServiceParams struct {
	Repo       Repository
	Categories categoryFinder
}

// Service manages sellable access plans.
type Service struct {
	repo       Repository
	categories categoryFinder
}

// NewService builds a package service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Categories == nil {
		return nil, stderrors.New("category finder is required")
	}
	return &Service{repo: params.Repo, categories: params.Categories}, nil
}

// CreateInput carries a new package definition.
type CreateInput struct {
	Name       string     `json:"name" validate:"required,min=2,max=120"`
	Price      int64      `json:"price" validate:"required,gt=0"`
	Validity   string     `json:"validity" validate:"required,max=60"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// UpdateInput carries a partial package update. CategoryID distinguishes
// absent from explicit null so a package can be detached from its category.
type UpdateInput struct {
	Name       *string            `json:"name" validate:"omitempty,min=2,max=120"`
	Price      *int64             `json:"price" validate:"omitempty,gt=0"`
	Validity   *string            `json:"validity" validate:"omitempty,max=60"`
	CategoryID types.NullableUUID `json:"category_id"`
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*models.Package, error) {
	if input.CategoryID != nil {
		if err := s.requireCategory(ctx, tenantID, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	pkg := &models.Package{
		TenantID:   tenantID,
		CategoryID: input.CategoryID,
		Name:       strings.TrimSpace(input.Name),
		Price:      input.Price,
		Validity:   strings.TrimSpace(input.Validity),
	}
	if err := s.repo.Create(ctx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateInput) (*models.Package, error) {
	pkg, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New(errors.CodeNotFound, "package not found")
	}

	if input.Name != nil {
		pkg.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		pkg.Price = *input.Price
	}
	if input.Validity != nil {
		pkg.Validity = strings.TrimSpace(*input.Validity)
	}
	if input.CategoryID.Valid {
		if input.CategoryID.Value != nil {
			if err := s.requireCategory(ctx, tenantID, *input.CategoryID.Value); err != nil {
				return nil, err
			}
		}
		pkg.CategoryID = input.CategoryID.Value
	}

	if err := s.repo.Update(ctx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.New(errors.CodeNotFound, "package not found")
	}
	return nil
}

func (s *Service) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Package, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]models.Package, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *Service) requireCategory(ctx context.Context, tenantID, categoryID uuid.UUID) error {
	category, err := s.categories.FindByID(ctx, tenantID, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return errors.New(errors.CodeValidation, "category does not belong to tenant")
	}
	return nil
}
