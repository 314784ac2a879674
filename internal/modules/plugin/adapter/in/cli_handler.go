package in

import (
	"context"
	"fmt"
	"strings"

	"mobtime/internal/modules/plugin/dto"
	pluginin "mobtime/internal/modules/plugin/port/in"
)

const defaultPingMessage = "ping from mobtime"

type CLIHandler struct {
	usecase pluginin.Usecase
}

func NewCLIHandler(usecase pluginin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

// Doctor returns every result and, when any plugin is unhealthy, an error
// naming them so the command exits non-zero.
func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	results, err := h.usecase.Doctor(ctx)
	if err != nil {
		return nil, err
	}
	var failing []string
	for _, r := range results {
		if !r.Healthy() {
			failing = append(failing, r.Name)
		}
	}
	if len(failing) > 0 {
		return results, fmt.Errorf("unhealthy plugins: %s", strings.Join(failing, ", "))
	}
	return results, nil
}

// Ping sends a notification event to every subscribed plugin.
func (h CLIHandler) Ping(ctx context.Context, message string) ([]dto.DeliveryResult, error) {
	if strings.TrimSpace(message) == "" {
		message = defaultPingMessage
	}
	return h.usecase.Publish(ctx, dto.PublishInput{Kind: dto.KindNotification, Message: message})
}
