package pharmacy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	"github.com/pharmalink/marketplace-api/internal/service/notification"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

type Service struct {
	repo     repository.PharmacyRepository
	userRepo repository.UserRepository
	eventSvc *event.Service
	notifSvc notification.Service
}

func NewService(repo repository.PharmacyRepository, userRepo repository.UserRepository,
	eventSvc *event.Service, notifSvc notification.Service) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		eventSvc: eventSvc,
		notifSvc: notifSvc,
	}
}

// Register creates a PENDING pharmacy owned by the acting pharmacy admin and
// binds the owner to it.
func (s *Service) Register(ctx context.Context, actor model.Actor, req *model.CreatePharmacyRequest) (*model.Pharmacy, error) {
	if actor.Role != model.RolePharmacyAdmin {
		return nil, apperrors.Forbidden("only pharmacy admins may register a pharmacy", nil)
	}

	if existing, _ := s.repo.GetByOwner(ctx, actor.UserID); existing != nil {
		return nil, apperrors.Conflict("owner already has a pharmacy", nil)
	}

	pharmacy := &model.Pharmacy{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Status:  model.PharmacyStatusPending,
		OwnerID: actor.UserID,
	}

	if err := s.repo.Create(ctx, pharmacy); err != nil {
		return nil, fmt.Errorf("failed to create pharmacy: %w", err)
	}

	owner, err := s.userRepo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	owner.PharmacyID = &pharmacy.ID
	if err := s.userRepo.Update(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to bind owner to pharmacy: %w", err)
	}

	return pharmacy, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	pharmacy, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("pharmacy", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pharmacy: %w", err)
	}
	return pharmacy, nil
}

func (s *Service) List(ctx context.Context, filters *model.PharmacyFilters) ([]*model.Pharmacy, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePharmacyRequest) (*model.Pharmacy, error) {
	pharmacy, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanActFor(pharmacy.ID) {
		return nil, apperrors.Forbidden("pharmacy belongs to another owner", nil)
	}

	if req.Name != nil {
		pharmacy.Name = *req.Name
	}
	if req.Address != nil {
		pharmacy.Address = *req.Address
	}
	if req.Phone != nil {
		pharmacy.Phone = *req.Phone
	}
	if req.Email != nil {
		pharmacy.Email = *req.Email
	}

	if err := s.repo.Update(ctx, pharmacy); err != nil {
		return nil, fmt.Errorf("failed to update pharmacy: %w", err)
	}
	return pharmacy, nil
}

// UpdateStatus applies a super-admin review decision. The pharmacy status
// machine rejects anything but PENDING->{APPROVED,REJECTED} and
// APPROVED<->SUSPENDED.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, target model.PharmacyStatus) (*model.Pharmacy, error) {
	if actor.Role != model.RoleSuperAdmin {
		return nil, apperrors.Forbidden("only super admins may review pharmacies", nil)
	}

	pharmacy, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !pharmacy.Status.CanTransitionTo(target) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("illegal pharmacy transition %s -> %s", pharmacy.Status, target), nil)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update pharmacy status: %w", err)
	}

	_ = s.eventSvc.Emit(ctx, model.EventPharmacyStatusChanged, updated)

	if s.notifSvc != nil {
		_ = s.notifSvc.SendPharmacyDecision(ctx, updated.Email, updated.Name, string(target))
	}

	return updated, nil
}

// ListCouriers returns the pharmacy's courier roster, optionally restricted
// to active couriers (the set eligible for delivery assignment).
func (s *Service) ListCouriers(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID, activeOnly bool) ([]*model.User, error) {
	if !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("pharmacy belongs to another owner", nil)
	}
	return s.userRepo.ListCouriers(ctx, pharmacyID, activeOnly)
}

// ListEmployees returns staff and couriers attached to the pharmacy.
func (s *Service) ListEmployees(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID) ([]*model.User, error) {
	if !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("pharmacy belongs to another owner", nil)
	}
	return s.userRepo.List(ctx, &model.UserFilters{PharmacyID: &pharmacyID})
}
