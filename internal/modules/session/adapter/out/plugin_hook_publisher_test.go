package out_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plugindto "mobtime/internal/modules/plugin/dto"
	sessionadapter "mobtime/internal/modules/session/adapter/out"
	"mobtime/internal/modules/session/domain"
)

type capturePlugins struct {
	mu     sync.Mutex
	inputs []plugindto.PublishInput
	err    error
}

func (c *capturePlugins) List(context.Context) ([]plugindto.PluginInfo, error)     { return nil, nil }
func (c *capturePlugins) Doctor(context.Context) ([]plugindto.DoctorResult, error) { return nil, nil }

func (c *capturePlugins) Publish(_ context.Context, input plugindto.PublishInput) ([]plugindto.DeliveryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
	return []plugindto.DeliveryResult{{Plugin: "p", Error: "boom"}}, c.err
}

func TestPluginHookPublisherMapsEvents(t *testing.T) {
	t.Parallel()
	plugins := &capturePlugins{}
	publisher := sessionadapter.NewPluginHookPublisher(plugins, nil)
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.PublishRotation(ctx, domain.Rotated{Previous: "alice", Next: "bob", ElapsedSeconds: 42, At: at}))
	require.NoError(t, publisher.PublishNotification(ctx, domain.PostNotification{Message: "bob, you're up! Time to rotate.", At: at}))
	// deliveries outlive the caller's context
	cancel()
	publisher.Wait()

	require.Len(t, plugins.inputs, 2)
	byKind := map[string]plugindto.PublishInput{}
	for _, in := range plugins.inputs {
		byKind[in.Kind] = in
	}
	assert.Equal(t, "alice", byKind["rotation"].Previous)
	assert.Equal(t, "bob", byKind["rotation"].Next)
	assert.Equal(t, 42, byKind["rotation"].ElapsedSeconds)
	assert.Equal(t, at, byKind["rotation"].OccurredAt)
	assert.Equal(t, "bob, you're up! Time to rotate.", byKind["notification"].Message)
	assert.Equal(t, at, byKind["notification"].OccurredAt)
}

func TestPluginHookPublisherSwallowsErrors(t *testing.T) {
	t.Parallel()
	plugins := &capturePlugins{err: errors.New("manifest unreadable")}
	publisher := sessionadapter.NewPluginHookPublisher(plugins, nil)

	assert.NoError(t, publisher.PublishNotification(context.Background(), domain.PostNotification{Message: "Time to rotate!"}))
	publisher.Wait()
	assert.Len(t, plugins.inputs, 1)

	nilPublisher := sessionadapter.NewPluginHookPublisher(nil, nil)
	assert.NoError(t, nilPublisher.PublishNotification(context.Background(), domain.PostNotification{Message: "Time to rotate!"}))
	nilPublisher.Wait()
}
