package in

import (
	"context"

	"mobtime/internal/modules/plugin/dto"
)

// Usecase manages rotation hook plugins.
type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	// Publish fans the event out to every enabled subscriber and returns one
	// result per plugin in manifest order.
	Publish(ctx context.Context, input dto.PublishInput) ([]dto.DeliveryResult, error)
}
