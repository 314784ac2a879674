package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	pluginrpc "mobtime/internal/modules/plugin/adapter/out/rpc"
	"mobtime/internal/modules/plugin/domain"
	pluginout "mobtime/internal/modules/plugin/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const defaultStartTimeout = 3 * time.Second

// GRPCHost launches the plugin binary for every call and kills it when the
// call returns. Hooks fire once per rotation, so a resident process would
// mostly sit idle.
type GRPCHost struct {
	logger       hclog.Logger
	startTimeout time.Duration
}

func NewGRPCHost(logger hclog.Logger) pluginout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{logger: logger, startTimeout: defaultStartTimeout}
}

func (h *GRPCHost) Describe(ctx context.Context, manifest domain.Manifest) (domain.Descriptor, error) {
	var out domain.Descriptor
	err := h.call(ctx, manifest, func(ctx context.Context, client pluginrpc.HookClient) error {
		d, err := client.Describe(ctx)
		if err != nil {
			return fmt.Errorf("describe: %w", err)
		}
		out = domain.Descriptor{Name: d.Name, Version: d.Version}
		for _, kind := range d.Events {
			out.Events = append(out.Events, domain.Kind(kind))
		}
		return nil
	})
	return out, err
}

func (h *GRPCHost) Deliver(ctx context.Context, manifest domain.Manifest, event domain.Event) (domain.Receipt, error) {
	var out domain.Receipt
	err := h.call(ctx, manifest, func(ctx context.Context, client pluginrpc.HookClient) error {
		r, err := client.Deliver(ctx, &pluginrpc.Event{
			Kind:           string(event.Kind),
			OccurredAt:     event.OccurredAt.UTC().Format(time.RFC3339),
			Previous:       event.Previous,
			Next:           event.Next,
			ElapsedSeconds: int32(event.ElapsedSeconds),
			Message:        event.Message,
		})
		if err != nil {
			return fmt.Errorf("deliver %s: %w", event.Kind, err)
		}
		out = domain.Receipt{Accepted: r.Accepted, Detail: r.Detail}
		return nil
	})
	return out, err
}

// call starts the plugin, runs fn under the manifest's call timeout unless
// ctx already carries a deadline, and always kills the process.
func (h *GRPCHost) call(ctx context.Context, manifest domain.Manifest, fn func(context.Context, pluginrpc.HookClient) error) error {
	cmd := exec.Command(manifest.Binary, manifest.Args...)
	cmd.Env = append(os.Environ(), "MOBTIME_PLUGIN_NAME="+manifest.Name)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginSet(nil),
		Cmd:              cmd,
		Managed:          true,
		StartTimeout:     h.startTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})
	defer client.Kill()

	protocol, err := client.Client()
	if err != nil {
		return fmt.Errorf("start plugin %s: %w", manifest.Name, err)
	}
	raw, err := protocol.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		return fmt.Errorf("dispense plugin %s: %w", manifest.Name, err)
	}
	hook, ok := raw.(pluginrpc.HookClient)
	if !ok {
		return fmt.Errorf("plugin %s: unexpected client %T", manifest.Name, raw)
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		callCtx, cancel = context.WithTimeout(ctx, manifest.CallTimeout())
	}
	defer cancel()

	err = fn(callCtx, hook)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", domain.ErrPluginTimeout, manifest.Name, manifest.CallTimeout())
	}
	return err
}
