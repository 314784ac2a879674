package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mobtime/internal/modules/plugin/dto"
	pluginin "mobtime/internal/modules/plugin/port/in"
	"mobtime/internal/modules/plugin/service"
	apperrors "mobtime/internal/platform/errors"
)

// Interactor exposes the plugin service through the inbound port and
// normalises publish requests coming from the CLI and the TUI.
type Interactor struct {
	svc *service.PluginService
	now func() time.Time
}

func NewInteractor(svc *service.PluginService) pluginin.Usecase {
	return &Interactor{svc: svc, now: time.Now}
}

func (i *Interactor) List(ctx context.Context) ([]dto.PluginInfo, error) { return i.svc.List(ctx) }

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

// Publish fills in a missing timestamp and rejects unknown kinds as invalid
// input before any plugin is started.
func (i *Interactor) Publish(ctx context.Context, input dto.PublishInput) ([]dto.DeliveryResult, error) {
	input.Kind = strings.ToLower(strings.TrimSpace(input.Kind))
	input.Message = strings.TrimSpace(input.Message)
	switch input.Kind {
	case dto.KindRotation, dto.KindNotification:
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", apperrors.ErrInvalidInput, input.Kind)
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = i.now()
	}
	return i.svc.Publish(ctx, input)
}
