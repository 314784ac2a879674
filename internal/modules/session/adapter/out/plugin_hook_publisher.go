package out

import (
	"context"
	"log/slog"
	"sync"
	"time"

	plugindto "mobtime/internal/modules/plugin/dto"
	pluginin "mobtime/internal/modules/plugin/port/in"
	"mobtime/internal/modules/session/domain"
	sessionout "mobtime/internal/modules/session/port/out"
)

const hookDeliveryTimeout = 10 * time.Second

// PluginHookPublisher hands session events to the plugin module in the
// background so plugin start-up never stalls the session. Wait blocks until
// in-flight deliveries finish.
type PluginHookPublisher struct {
	plugins pluginin.Usecase
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewPluginHookPublisher(plugins pluginin.Usecase, logger *slog.Logger) *PluginHookPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PluginHookPublisher{plugins: plugins, logger: logger}
}

var _ sessionout.HookPublisher = (*PluginHookPublisher)(nil)

func (p *PluginHookPublisher) PublishRotation(ctx context.Context, rotated domain.Rotated) error {
	p.publish(ctx, plugindto.PublishInput{
		Kind:           plugindto.KindRotation,
		OccurredAt:     rotated.At,
		Previous:       rotated.Previous,
		Next:           rotated.Next,
		ElapsedSeconds: rotated.ElapsedSeconds,
	})
	return nil
}

func (p *PluginHookPublisher) PublishNotification(ctx context.Context, notification domain.PostNotification) error {
	p.publish(ctx, plugindto.PublishInput{
		Kind:       plugindto.KindNotification,
		OccurredAt: notification.At,
		Message:    notification.Message,
	})
	return nil
}

func (p *PluginHookPublisher) Wait() {
	p.wg.Wait()
}

func (p *PluginHookPublisher) publish(ctx context.Context, input plugindto.PublishInput) {
	if p.plugins == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookDeliveryTimeout)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		results, err := p.plugins.Publish(ctx, input)
		if err != nil {
			p.logger.Warn("publish hook", "kind", input.Kind, "error", err)
			return
		}
		for _, result := range results {
			if result.Error != "" {
				p.logger.Warn("hook delivery failed", "plugin", result.Plugin, "kind", input.Kind, "error", result.Error)
			}
		}
	}()
}
