package intercepters

import (
	"context"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

type contextKey string

const RealIPKey contextKey = "real-ip"

// RealIP returns the client address stored by RealIPInterceptor.
func RealIP(ctx context.Context) string {
	ip, _ := ctx.Value(RealIPKey).(string)
	return ip
}

// RealIPInterceptor stores the client address, from x-real-ip metadata or
// the transport peer, in the context and in the request log fields.
func RealIPInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	ip := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 {
			ip = ips[0]
		}
	}
	if ip == "" {
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			ip = p.Addr.String()
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
		}
	}

	if ip != "" {
		ctx = context.WithValue(ctx, RealIPKey, ip)
		ctx = logging.InjectFields(ctx, logging.Fields{"peer.real_ip", ip})
	}
	return handler(ctx, req)
}
