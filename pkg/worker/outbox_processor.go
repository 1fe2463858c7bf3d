package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/pkg/logger"
	"github.com/pharmalink/marketplace-api/pkg/messaging"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize       int
	PollInterval    time.Duration
	RetentionDays   int
	CleanupInterval time.Duration
}

// OutboxProcessor drains pending outbox rows and publishes them to the
// broker. Rows are locked per batch so several workers can run side by side.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 30
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		case <-cleanup.C:
			deleted, err := p.repo.DeleteProcessedBefore(ctx, p.config.RetentionDays)
			if err != nil {
				p.logger.Error(err, "Failed to clean up processed events")
				continue
			}
			if deleted > 0 {
				p.logger.Info("Cleaned up processed events", "deleted", deleted)
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	message := messaging.Message{
		Type:    event.EventType,
		Payload: event.Payload,
	}

	if err := p.broker.Publish(ctx, channelFor(event.EventType), message); err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			p.logger.Error(markErr, "Failed to mark event failed", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// channelFor routes an event to its broker channel by type prefix.
func channelFor(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "delivery."):
		return messaging.ChannelDeliveryEvents
	case strings.HasPrefix(eventType, "pharmacy."):
		return messaging.ChannelPharmacyEvents
	default:
		return messaging.ChannelOrderEvents
	}
}
