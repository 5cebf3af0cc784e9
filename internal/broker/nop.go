package broker

import (
	"context"

	"mithril/internal/dto"
)

// NopPublisher stands in when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishMovementRecorded(context.Context, dto.MovementRecordedEvent) error {
	return nil
}

func (NopPublisher) PublishLowStock(context.Context, dto.LowStockEvent) error {
	return nil
}

func (NopPublisher) PublishComponentAllocated(context.Context, dto.ComponentAllocatedEvent) error {
	return nil
}

func (NopPublisher) PublishAllocationReturned(context.Context, dto.AllocationReturnedEvent) error {
	return nil
}

func (NopPublisher) PublishBomCostsCalculated(context.Context, dto.BomCostsCalculatedEvent) error {
	return nil
}
