package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

const (
	cacheTTL     = 2 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Service struct {
	repo         repository.MedicationRepository
	pharmacyRepo repository.PharmacyRepository
	cache        *gocache.Cache
}

func NewService(repo repository.MedicationRepository, pharmacyRepo repository.PharmacyRepository) *Service {
	return &Service{
		repo:         repo,
		pharmacyRepo: pharmacyRepo,
		cache:        gocache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID, req *model.CreateMedicationRequest) (*model.Medication, error) {
	if !actor.Role.IsPharmacyStaff() && actor.Role != model.RoleSuperAdmin {
		return nil, apperrors.Forbidden("only pharmacy staff may manage the catalog", nil)
	}
	if !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("catalog belongs to another pharmacy", nil)
	}

	pharmacy, err := s.pharmacyRepo.Get(ctx, pharmacyID)
	if err != nil {
		return nil, apperrors.NotFound("pharmacy", err)
	}
	if pharmacy.Status != model.PharmacyStatusApproved {
		return nil, apperrors.Conflict("pharmacy is not approved", nil)
	}

	medication := &model.Medication{
		PharmacyID:           pharmacyID,
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Price:                req.Price,
		StockQuantity:        req.StockQuantity,
		RequiresPrescription: req.RequiresPrescription,
		ImageURL:             req.ImageURL,
	}

	if err := s.repo.Create(ctx, medication); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.cache.Flush()
	return medication, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	if cached, found := s.cache.Get(id.String()); found {
		return cached.(*model.Medication), nil
	}

	medication, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("medication", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	s.cache.Set(id.String(), medication, gocache.DefaultExpiration)
	return medication, nil
}

func (s *Service) List(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateMedicationRequest) (*model.Medication, error) {
	medication, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("medication", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	if !actor.CanActFor(medication.PharmacyID) {
		return nil, apperrors.Forbidden("medication belongs to another pharmacy", nil)
	}

	if req.Name != nil {
		medication.Name = *req.Name
	}
	if req.Description != nil {
		medication.Description = *req.Description
	}
	if req.Category != nil {
		medication.Category = *req.Category
	}
	if req.Price != nil {
		medication.Price = *req.Price
	}
	if req.StockQuantity != nil {
		medication.StockQuantity = *req.StockQuantity
	}
	if req.RequiresPrescription != nil {
		medication.RequiresPrescription = *req.RequiresPrescription
	}
	if req.ImageURL != nil {
		medication.ImageURL = req.ImageURL
	}

	if err := s.repo.Update(ctx, medication); err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}

	s.cache.Delete(id.String())
	return medication, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	medication, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("medication", err)
	}
	if err != nil {
		return fmt.Errorf("failed to get medication: %w", err)
	}

	if !actor.CanActFor(medication.PharmacyID) {
		return apperrors.Forbidden("medication belongs to another pharmacy", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	s.cache.Delete(id.String())
	return nil
}
