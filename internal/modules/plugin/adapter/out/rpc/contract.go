// Package rpc is the wire contract between mobtime and hook plugins: a
// hand-written gRPC service that exchanges JSON documents, served through
// hashicorp/go-plugin.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey = "hook"

	serviceName    = "mobtime.hook.v1.Hook"
	codecName      = "json"
	methodDescribe = "/" + serviceName + "/Describe"
	methodDeliver  = "/" + serviceName + "/Deliver"
)

// HandshakeConfig must match on both sides; bump ProtocolVersion on any
// incompatible message change.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  2,
	MagicCookieKey:   "MOBTIME_HOOK_PLUGIN",
	MagicCookieValue: "b1d1f2a4-rotate",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type DescribeRequest struct{}

type Descriptor struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Events  []string `json:"events"`
}

// Event carries a rotation or a notification. OccurredAt is RFC 3339.
type Event struct {
	Kind           string `json:"kind"`
	OccurredAt     string `json:"occurred_at"`
	Previous       string `json:"previous,omitempty"`
	Next           string `json:"next,omitempty"`
	ElapsedSeconds int32  `json:"elapsed_seconds"`
	Message        string `json:"message,omitempty"`
}

type Receipt struct {
	Accepted bool   `json:"accepted"`
	Detail   string `json:"detail"`
}

// HookServer is implemented by plugin binaries.
type HookServer interface {
	Describe(ctx context.Context, in *DescribeRequest) (*Descriptor, error)
	Deliver(ctx context.Context, in *Event) (*Receipt, error)
}

// HookClient is what the host dispenses from a running plugin.
type HookClient interface {
	Describe(ctx context.Context) (*Descriptor, error)
	Deliver(ctx context.Context, in *Event) (*Receipt, error)
}

type hookClient struct {
	conn grpc.ClientConnInterface
}

func NewHookClient(conn grpc.ClientConnInterface) HookClient {
	return &hookClient{conn: conn}
}

func (c *hookClient) Describe(ctx context.Context) (*Descriptor, error) {
	return invoke[Descriptor](ctx, c.conn, methodDescribe, &DescribeRequest{})
}

func (c *hookClient) Deliver(ctx context.Context, in *Event) (*Receipt, error) {
	return invoke[Receipt](ctx, c.conn, methodDeliver, in)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// unary adapts a typed handler to grpc.MethodHandler, honouring any
// server interceptor.
func unary[Req any](fullMethod string, call func(context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("%s: unexpected request %T", fullMethod, req)
			}
			return call(ctx, typed)
		})
	}
}

func RegisterHookServer(registrar grpc.ServiceRegistrar, impl HookServer) {
	registrar.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*HookServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Describe",
				Handler: unary(methodDescribe, func(ctx context.Context, in *DescribeRequest) (any, error) {
					return impl.Describe(ctx, in)
				}),
			},
			{
				MethodName: "Deliver",
				Handler: unary(methodDeliver, func(ctx context.Context, in *Event) (any, error) {
					return impl.Deliver(ctx, in)
				}),
			},
		},
		Metadata: "mobtime/hook/v1/hook.proto",
	}, impl)
}

// GRPCPlugin plugs the Hook service into go-plugin. Impl is only set on the
// plugin side.
type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl HookServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterHookServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewHookClient(conn), nil
}

// PluginSet is the plugin map for both the host (impl nil) and the plugin.
func PluginSet(impl HookServer) plugin.PluginSet {
	return plugin.PluginSet{PluginMapKey: &GRPCPlugin{Impl: impl}}
}
