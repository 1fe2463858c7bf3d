// Package event writes domain events to the transactional outbox. The
// outbox worker picks them up and publishes to the message broker, so
// request handling never blocks on the broker being reachable.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
)

type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

// Emit records an event for asynchronous publication. Failures are returned
// to the caller, who decides whether the surrounding operation should fail;
// status transitions treat emission as best-effort.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return s.repo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	})
}
