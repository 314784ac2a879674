// Command reference is a minimal mobtime hook plugin. It accepts rotation
// and notification events and appends one line per event to the file named
// by MOBTIME_HOOK_LOG, if set.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	pluginrpc "mobtime/internal/modules/plugin/adapter/out/rpc"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const version = "1.0.0"

type hook struct {
	logger  hclog.Logger
	logPath string
	mu      sync.Mutex
}

func (h *hook) Describe(context.Context, *pluginrpc.DescribeRequest) (*pluginrpc.Descriptor, error) {
	return &pluginrpc.Descriptor{
		Name:    "reference",
		Version: version,
		Events:  []string{"rotation", "notification"},
	}, nil
}

func (h *hook) Deliver(_ context.Context, ev *pluginrpc.Event) (*pluginrpc.Receipt, error) {
	line, ok := format(ev)
	if !ok {
		return &pluginrpc.Receipt{Detail: "unknown kind: " + ev.Kind}, nil
	}
	h.logger.Info("hook event", "kind", ev.Kind, "plugin", os.Getenv("MOBTIME_PLUGIN_NAME"))
	if err := h.record(line); err != nil {
		return &pluginrpc.Receipt{Detail: err.Error()}, nil
	}
	return &pluginrpc.Receipt{Accepted: true, Detail: "logged"}, nil
}

func format(ev *pluginrpc.Event) (string, bool) {
	switch ev.Kind {
	case "rotation":
		return fmt.Sprintf("%s rotation %s -> %s after %ds", ev.OccurredAt, ev.Previous, ev.Next, ev.ElapsedSeconds), true
	case "notification":
		return fmt.Sprintf("%s notification %q", ev.OccurredAt, ev.Message), true
	}
	return "", false
}

func (h *hook) record(line string) error {
	if h.logPath == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	f, err := os.OpenFile(h.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open hook log: %w", err)
	}
	_, werr := fmt.Fprintln(f, line)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write hook log: %w", werr)
	}
	return nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "reference",
		Output:     os.Stderr,
		Level:      hclog.Info,
		JSONFormat: true,
	})
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginSet(&hook{logger: logger, logPath: os.Getenv("MOBTIME_HOOK_LOG")}),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
