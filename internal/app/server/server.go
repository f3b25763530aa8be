// Package server wires the HTTP router and binds the listening socket.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http/pprof"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/handler"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/middleware"
)

// RouterOptions configures Init.
type RouterOptions struct {
	Pages         fs.FS
	IndexPath     string
	TrustedSubnet *net.IPNet
	EnablePprof   bool
}

// Init builds the chi router serving the public routes and the /internal
// ops routes.
func Init(svc service.LinkServiceIface, opts RouterOptions, logger *zap.Logger) *chi.Mux {
	get := handler.NewGet(svc, opts.Pages, opts.IndexPath, logger)
	shorten := handler.NewShorten(svc, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithGzip)

	r.Get("/", get.Index)
	r.Get("/new/*", shorten.Shorten)
	r.Get("/{shortID}", get.ByShort)

	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.WithTrustedSubnet(opts.TrustedSubnet))

		r.Get("/ping", get.Ping)
		r.Handle("/metrics", promhttp.Handler())

		if opts.EnablePprof {
			r.HandleFunc("/debug/pprof/*", pprof.Index)
			r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			r.HandleFunc("/debug/pprof/profile", pprof.Profile)
			r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		}
	})

	r.MethodNotAllowed(handler.MethodNotAllowed)
	r.NotFound(handler.NotFound)

	return r
}

// Listen binds host:port. When the port is taken it tries the next one,
// up to maxAttempts ports in total; 0 means no limit.
func Listen(host string, port, maxAttempts int, logger *zap.Logger) (net.Listener, error) {
	for attempt := 1; ; attempt++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))

		lis, err := net.Listen("tcp", addr)
		if err == nil {
			return lis, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen %s: %w", addr, err)
		}
		if (maxAttempts > 0 && attempt >= maxAttempts) || port >= 65535 {
			return nil, fmt.Errorf("listen %s after %d attempts: %w", addr, attempt, err)
		}

		logger.Warn("port in use, trying next", zap.Int("port", port), zap.Int("next", port+1))
		port++
	}
}
