package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/notification"
	"github.com/pharmalink/marketplace-api/pkg/logger"
	"github.com/pharmalink/marketplace-api/pkg/messaging"
)

// OrderNotifier consumes published order events and emails the patient on
// status changes. It runs in the worker process, downstream of the outbox.
type OrderNotifier struct {
	broker   messaging.Broker
	userRepo repository.UserRepository
	notifSvc notification.Service
	logger   *logger.Logger
}

func NewOrderNotifier(broker messaging.Broker, userRepo repository.UserRepository,
	notifSvc notification.Service, logger *logger.Logger) *OrderNotifier {
	return &OrderNotifier{
		broker:   broker,
		userRepo: userRepo,
		notifSvc: notifSvc,
		logger:   logger,
	}
}

func (n *OrderNotifier) Start(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, messaging.ChannelOrderEvents)
	if err != nil {
		return fmt.Errorf("failed to subscribe to order events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			if err := n.handle(ctx, raw); err != nil {
				n.logger.Error(err, "Failed to handle order event")
			}
		}
	}
}

type orderEvent struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Status    string    `json:"status"`
}

func (n *OrderNotifier) handle(ctx context.Context, raw []byte) error {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.Type != model.EventOrderStatusChanged {
		return nil
	}

	var event orderEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("failed to decode order payload: %w", err)
	}

	patient, err := n.userRepo.Get(ctx, event.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient: %w", err)
	}

	return n.notifSvc.SendOrderStatusUpdate(ctx, patient.Email, event.ID.String(), event.Status)
}
