package broker

import (
	"context"
	"fmt"

	"mithril/internal/dto"
)

// Publisher is the full event surface the modules publish through. Both the
// Kafka-backed EventPublisher and NopPublisher satisfy it.
type Publisher interface {
	PublishMovementRecorded(ctx context.Context, event dto.MovementRecordedEvent) error
	PublishLowStock(ctx context.Context, event dto.LowStockEvent) error
	PublishComponentAllocated(ctx context.Context, event dto.ComponentAllocatedEvent) error
	PublishAllocationReturned(ctx context.Context, event dto.AllocationReturnedEvent) error
	PublishBomCostsCalculated(ctx context.Context, event dto.BomCostsCalculatedEvent) error
}

// EventPublisher publishes the core's domain events, keyed by component or
// BOM so consumers see per-entity ordering.
type EventPublisher struct {
	producer *Producer
}

func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (ep *EventPublisher) PublishMovementRecorded(ctx context.Context, event dto.MovementRecordedEvent) error {
	key := fmt.Sprintf("component-%d", event.ComponentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

func (ep *EventPublisher) PublishLowStock(ctx context.Context, event dto.LowStockEvent) error {
	key := fmt.Sprintf("component-%d", event.ComponentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

func (ep *EventPublisher) PublishComponentAllocated(ctx context.Context, event dto.ComponentAllocatedEvent) error {
	key := fmt.Sprintf("component-%d", event.ComponentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

func (ep *EventPublisher) PublishAllocationReturned(ctx context.Context, event dto.AllocationReturnedEvent) error {
	key := fmt.Sprintf("component-%d", event.ComponentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

func (ep *EventPublisher) PublishBomCostsCalculated(ctx context.Context, event dto.BomCostsCalculatedEvent) error {
	key := fmt.Sprintf("bom-%d", event.BomID)
	return ep.producer.PublishEvent(ctx, key, event)
}
