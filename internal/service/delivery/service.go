package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	"github.com/pharmalink/marketplace-api/internal/workflow"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

type Service struct {
	repo      repository.DeliveryRepository
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	eventSvc  *event.Service
	metrics   *metrics.Metrics
}

func NewService(repo repository.DeliveryRepository, orderRepo repository.OrderRepository,
	userRepo repository.UserRepository, eventSvc *event.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		eventSvc:  eventSvc,
		metrics:   m,
	}
}

// Assign is the staff path to ASSIGNED: staff picks one courier from the
// pharmacy's active roster for a READY order.
func (s *Service) Assign(ctx context.Context, actor model.Actor, orderID, courierID uuid.UUID) (*model.Delivery, error) {
	if !actor.Role.IsPharmacyStaff() && actor.Role != model.RoleSuperAdmin {
		return nil, apperrors.Forbidden("only pharmacy staff may assign deliveries", nil)
	}

	order, err := s.orderRepo.Get(ctx, orderID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !actor.CanActFor(order.PharmacyID) {
		return nil, apperrors.Forbidden("order belongs to another pharmacy", nil)
	}

	courier, err := s.userRepo.Get(ctx, courierID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("courier", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get courier: %w", err)
	}
	if !courier.Role.IsCourier() || !courier.IsActive {
		return nil, apperrors.BadRequest("courier is not an active delivery user", nil)
	}

	delivery, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil && err != repository.ErrNotFound {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if err == repository.ErrNotFound {
		delivery = nil
	}

	if err := workflow.ValidateAssignment(order, delivery); err != nil {
		return nil, err
	}

	if delivery == nil {
		now := time.Now()
		delivery = &model.Delivery{
			OrderID:    order.ID,
			PharmacyID: order.PharmacyID,
			CourierID:  &courierID,
			Status:     model.DeliveryStatusAssigned,
			Address:    order.DeliveryAddress,
			AssignedAt: &now,
		}
		if err := s.repo.Create(ctx, delivery); err != nil {
			return nil, fmt.Errorf("failed to create delivery: %w", err)
		}
	} else {
		claimed, err := s.repo.Claim(ctx, delivery.ID, courierID)
		if err == repository.ErrAlreadyClaimed {
			return nil, apperrors.Conflict("delivery already has a courier", err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assign delivery: %w", err)
		}
		delivery = claimed
	}

	s.metrics.DeliveryAssignments.WithLabelValues("staff").Inc()
	_ = s.eventSvc.Emit(ctx, model.EventDeliveryAssigned, delivery)
	return delivery, nil
}

// Accept is the courier self-service path to ASSIGNED. The claim is atomic
// at the store: of two racing couriers exactly one wins, the loser gets a
// conflict and must refresh its available list.
func (s *Service) Accept(ctx context.Context, actor model.Actor, deliveryID uuid.UUID) (*model.Delivery, error) {
	if !actor.Role.IsCourier() {
		return nil, apperrors.Forbidden("only couriers may accept deliveries", nil)
	}

	delivery, err := s.repo.Claim(ctx, deliveryID, actor.UserID)
	if err == repository.ErrAlreadyClaimed {
		s.metrics.DeliveryAcceptConflict.Inc()
		return nil, apperrors.Conflict("delivery is no longer available", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept delivery: %w", err)
	}

	s.metrics.DeliveryAssignments.WithLabelValues("courier").Inc()
	_ = s.eventSvc.Emit(ctx, model.EventDeliveryAssigned, delivery)
	return delivery, nil
}

// Transition moves a delivery along ASSIGNED -> IN_TRANSIT -> DELIVERED.
// Only the assigned courier may drive it; RETURNED stays admin-only.
func (s *Service) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, target model.DeliveryStatus) (*model.Delivery, error) {
	delivery, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("delivery", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	if err := workflow.ValidateDeliveryTransition(actor, delivery, target); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, delivery.Status, target)
	if err == repository.ErrStaleStatus {
		return nil, apperrors.Conflict("delivery status changed, refresh and retry", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery status: %w", err)
	}

	// Keep the order in step with its delivery.
	switch target {
	case model.DeliveryStatusInTransit:
		s.syncOrderStatus(ctx, updated.OrderID, model.OrderStatusReady, model.OrderStatusDelivering)
	case model.DeliveryStatusDelivered:
		s.syncOrderStatus(ctx, updated.OrderID, model.OrderStatusDelivering, model.OrderStatusDelivered)
	}

	_ = s.eventSvc.Emit(ctx, model.EventDeliveryStatusChanged, updated)
	return updated, nil
}

func (s *Service) syncOrderStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus) {
	// The order may already have been moved by staff; a stale update here
	// is not an error.
	_, _ = s.orderRepo.UpdateStatus(ctx, orderID, from, to)
}

// ListAvailable returns the pharmacy's pool of claimable deliveries.
func (s *Service) ListAvailable(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID) ([]*model.Delivery, error) {
	if !actor.Role.IsCourier() && !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("deliveries belong to another pharmacy", nil)
	}
	return s.repo.ListAvailable(ctx, pharmacyID)
}

// ListMine returns the acting courier's deliveries.
func (s *Service) ListMine(ctx context.Context, actor model.Actor) ([]*model.Delivery, error) {
	if !actor.Role.IsCourier() {
		return nil, apperrors.Forbidden("only couriers have a delivery list", nil)
	}
	return s.repo.ListByCourier(ctx, actor.UserID)
}

func (s *Service) ListForPharmacy(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID, filters *model.DeliveryFilters) ([]*model.Delivery, error) {
	if !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("deliveries belong to another pharmacy", nil)
	}
	if filters == nil {
		filters = &model.DeliveryFilters{}
	}
	filters.PharmacyID = &pharmacyID
	return s.repo.List(ctx, filters)
}
