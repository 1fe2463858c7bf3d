package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

type Service struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	gateway     Gateway
	eventSvc    *event.Service
	metrics     *metrics.Metrics
}

func NewService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository,
	gateway Gateway, eventSvc *event.Service, m *metrics.Metrics) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		eventSvc:    eventSvc,
		metrics:     m,
	}
}

// Process charges the patient's mobile-money account for one or more orders
// and records the result. The orders must all belong to the paying patient.
func (s *Service) Process(ctx context.Context, actor *model.Actor, req *model.ProcessPaymentRequest) (*model.Payment, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.Forbidden("only patients can make payments", nil)
	}

	var total float64
	orderIDs := make([]string, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		order, err := s.orderRepo.Get(ctx, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return nil, apperrors.NotFound("order", err)
			}
			return nil, fmt.Errorf("failed to get order: %w", err)
		}
		if order.PatientID != actor.UserID {
			return nil, apperrors.Forbidden("order belongs to another patient", nil)
		}
		total += order.TotalAmount
		orderIDs = append(orderIDs, id.String())
	}

	payment := &model.Payment{
		PatientID:   actor.UserID,
		OrderIDs:    orderIDs,
		Amount:      total,
		Method:      req.Method,
		Status:      model.PaymentStatusPending,
		PhoneNumber: req.PhoneNumber,
	}
	payment.ID = uuid.New()
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	start := time.Now()
	reference, err := s.gateway.Charge(ctx, req.PhoneNumber, total, payment.ID.String())
	s.metrics.PaymentLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		payment.Status = model.PaymentStatusFailed
		if uerr := s.paymentRepo.Update(ctx, payment); uerr != nil {
			return nil, fmt.Errorf("failed to record payment failure: %w", uerr)
		}
		s.metrics.PaymentsProcessed.WithLabelValues(string(req.Method), string(model.PaymentStatusFailed)).Inc()
		return nil, apperrors.BadRequest("payment was declined", err)
	}

	payment.Status = model.PaymentStatusCompleted
	payment.Reference = &reference
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	s.metrics.PaymentsProcessed.WithLabelValues(string(req.Method), string(model.PaymentStatusCompleted)).Inc()

	_ = s.eventSvc.Emit(ctx, model.EventPaymentProcessed, map[string]interface{}{
		"payment_id": payment.ID,
		"patient_id": payment.PatientID,
		"order_ids":  payment.OrderIDs,
		"amount":     payment.Amount,
		"status":     payment.Status,
	})

	return payment, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("payment", err)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if actor.Role == model.RolePatient && payment.PatientID != actor.UserID {
		return nil, apperrors.Forbidden("payment belongs to another patient", nil)
	}
	return payment, nil
}

func (s *Service) ListMine(ctx context.Context, actor *model.Actor) ([]*model.Payment, error) {
	payments, err := s.paymentRepo.ListByPatient(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
