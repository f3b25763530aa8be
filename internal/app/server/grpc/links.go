package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name. The messages are
// protobuf well-known types, so no generated code is needed.
const ServiceName = "shortener.v1.Links"

const (
	shortenMethod = "/" + ServiceName + "/Shorten"
	resolveMethod = "/" + ServiceName + "/Resolve"
)

// LinksServer is the server API of shortener.v1.Links.
type LinksServer interface {
	// Shorten takes the original URL and returns {original_url, short_url}.
	Shorten(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Resolve takes an identifier and returns the redirect target.
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

func RegisterLinksServer(s grpc.ServiceRegistrar, srv LinksServer) {
	s.RegisterService(&LinksServiceDesc, srv)
}

func linksShortenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinksServer).Shorten(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: shortenMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinksServer).Shorten(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func linksResolveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinksServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: resolveMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinksServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// LinksServiceDesc describes shortener.v1.Links for grpc.Server.
var LinksServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinksServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    linksShortenHandler,
		},
		{
			MethodName: "Resolve",
			Handler:    linksResolveHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortener/v1/links.proto",
}

// LinksClient calls shortener.v1.Links.
type LinksClient struct {
	cc grpc.ClientConnInterface
}

func NewLinksClient(cc grpc.ClientConnInterface) *LinksClient {
	return &LinksClient{cc: cc}
}

func (c *LinksClient) Shorten(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, shortenMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LinksClient) Resolve(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, resolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
