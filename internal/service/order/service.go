package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	"github.com/pharmalink/marketplace-api/internal/workflow"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

type Service struct {
	repo           repository.OrderRepository
	medicationRepo repository.MedicationRepository
	deliveryRepo   repository.DeliveryRepository
	eventSvc       *event.Service
	metrics        *metrics.Metrics
}

func NewService(repo repository.OrderRepository, medicationRepo repository.MedicationRepository,
	deliveryRepo repository.DeliveryRepository, eventSvc *event.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:           repo,
		medicationRepo: medicationRepo,
		deliveryRepo:   deliveryRepo,
		eventSvc:       eventSvc,
		metrics:        m,
	}
}

// Create prices the requested items from the catalog and stores the order
// in PENDING. The total is always computed here from current prices; the
// client never supplies it.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.MedicationID
	}

	medications, err := s.medicationRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load medications: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Medication, len(medications))
	for _, m := range medications {
		byID[m.ID] = m
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		medication, ok := byID[item.MedicationID]
		if !ok {
			return nil, apperrors.NotFound("medication", nil)
		}
		if medication.PharmacyID != req.PharmacyID {
			return nil, apperrors.BadRequest("medication belongs to another pharmacy", nil)
		}
		if medication.StockQuantity < item.Quantity {
			return nil, apperrors.Conflict(
				fmt.Sprintf("insufficient stock for %s", medication.Name), nil)
		}
		items = append(items, model.OrderItem{
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
			Price:        medication.Price,
		})
	}

	order := &model.Order{
		PharmacyID:      req.PharmacyID,
		PatientID:       patientID,
		Status:          model.OrderStatusPending,
		DeliveryAddress: req.DeliveryAddress,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Items:           items,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		if err := s.medicationRepo.AdjustStock(ctx, item.MedicationID, -item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	_ = s.eventSvc.Emit(ctx, model.EventOrderCreated, order)
	return order, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if actor.Role == model.RolePatient && order.PatientID != actor.UserID {
		return nil, apperrors.Forbidden("order belongs to another patient", nil)
	}
	if actor.Role.IsPharmacyStaff() && !actor.CanActFor(order.PharmacyID) {
		return nil, apperrors.Forbidden("order belongs to another pharmacy", nil)
	}
	return order, nil
}

// Transition moves the order to the target status. The workflow table is
// consulted first so illegal requests never reach the database; the update
// itself is conditional on the expected current status, and a concurrent
// transition surfaces as a conflict with the order left untouched.
func (s *Service) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, target model.OrderStatus) (*model.OrderResponse, error) {
	order, err := s.repo.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := workflow.ValidateOrderTransition(actor, order, target); err != nil {
		s.metrics.OrderTransitionRejected.WithLabelValues(string(order.Status), string(target)).Inc()
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, order.Status, target)
	if err == repository.ErrStaleStatus {
		return nil, apperrors.Conflict("order status changed, refresh and retry", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.metrics.OrderTransitions.WithLabelValues(string(order.Status), string(target)).Inc()
	_ = s.eventSvc.Emit(ctx, model.EventOrderStatusChanged, updated)

	resp := &model.OrderResponse{Order: updated}

	switch target {
	case model.OrderStatusReady:
		// Ensure a PENDING delivery exists so the order shows up in the
		// couriers' available pool, and nudge staff toward assignment.
		if _, err := s.deliveryRepo.GetByOrder(ctx, id); err == repository.ErrNotFound {
			delivery := &model.Delivery{
				OrderID:    updated.ID,
				PharmacyID: updated.PharmacyID,
				Status:     model.DeliveryStatusPending,
				Address:    updated.DeliveryAddress,
			}
			if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
				return nil, fmt.Errorf("failed to create delivery: %w", err)
			}
		}
		resp.NextAction = "assign_delivery"
	case model.OrderStatusCancelled:
		// Return reserved stock.
		for _, item := range updated.Items {
			_ = s.medicationRepo.AdjustStock(ctx, item.MedicationID, item.Quantity)
		}
	}

	return resp, nil
}

func (s *Service) ListForPharmacy(ctx context.Context, actor model.Actor, pharmacyID uuid.UUID, filters *model.OrderFilters) ([]*model.Order, error) {
	if !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("orders belong to another pharmacy", nil)
	}
	if filters == nil {
		filters = &model.OrderFilters{}
	}
	filters.PharmacyID = &pharmacyID
	return s.repo.List(ctx, filters)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.OrderFilters) ([]*model.Order, error) {
	if filters == nil {
		filters = &model.OrderFilters{}
	}
	filters.PatientID = &patientID
	return s.repo.List(ctx, filters)
}
