// Package app assembles the shortener from its options: store, services,
// HTTP and gRPC servers, and runs it until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/atinyakov/shortlink/internal/app/server"
	grpcserver "github.com/atinyakov/shortlink/internal/app/server/grpc"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/config"
	"github.com/atinyakov/shortlink/internal/repository"
	"github.com/atinyakov/shortlink/internal/storage"
	"github.com/atinyakov/shortlink/internal/worker"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	insertQueueSize = 256
)

type App struct {
	logger *zap.Logger
	store  storage.Store
	worker *worker.InsertWorker

	http    *http.Server
	httpLis net.Listener
	useTLS  bool

	grpc    *grpcserver.Server
	grpcLis net.Listener
}

// Run builds the application and serves until ctx is cancelled.
func Run(ctx context.Context, opts *config.Options, logger *zap.Logger) error {
	a, err := New(ctx, opts, logger)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// New opens the store and binds the listeners. Nothing is served until Run.
func New(ctx context.Context, opts *config.Options, logger *zap.Logger) (*App, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	store, err := repository.Open(connectCtx, opts.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{logger: logger, store: store}
	if err := a.init(opts); err != nil {
		a.closeAll()
		return nil, err
	}
	return a, nil
}

func (a *App) init(opts *config.Options) error {
	source, err := service.SourceByName(opts.IDSource)
	if err != nil {
		return err
	}
	var (
		finder  service.IDFinder = a.store
		svcOpts []service.LinkServiceOption
	)
	if opts.AsyncInsert {
		a.worker = worker.NewInsertWorker(a.logger, a.store, insertQueueSize)
		finder = service.Layered(a.worker, a.store)
		svcOpts = append(svcOpts, service.WithWriter(a.worker))
	}

	gen := service.NewIDGenerator(finder, a.logger,
		service.WithLength(opts.IDLength),
		service.WithAttempts(opts.IDAttempts),
		service.WithMaxEscalations(opts.IDMaxEscalations),
		service.WithSource(source),
	)
	svc := service.NewLinkService(a.store, gen, a.logger, svcOpts...)

	var subnet *net.IPNet
	if opts.TrustedSubnet != "" {
		if _, subnet, err = net.ParseCIDR(opts.TrustedSubnet); err != nil {
			return fmt.Errorf("trusted subnet: %w", err)
		}
	}

	pages, indexName, err := pagesFS(opts.IndexPath)
	if err != nil {
		return err
	}

	router := server.Init(svc, server.RouterOptions{
		Pages:         pages,
		IndexPath:     indexName,
		TrustedSubnet: subnet,
		EnablePprof:   opts.EnablePprof,
	}, a.logger)

	a.http = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if opts.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:      autocert.DirCache(opts.CertCacheDir),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(opts.TLSHosts...),
		}
		a.http.TLSConfig = manager.TLSConfig()
		a.useTLS = true
	}

	a.httpLis, err = server.Listen(opts.Host, opts.Port, opts.MaxPortAttempts, a.logger)
	if err != nil {
		return err
	}

	if opts.GRPCPort > 0 {
		a.grpcLis, err = net.Listen("tcp", net.JoinHostPort(opts.Host, strconv.Itoa(opts.GRPCPort)))
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		a.grpc = grpcserver.New(svc, a.publicURL(opts.PublicURL), a.logger)
	}

	return nil
}

// pagesFS serves the landing page from the directory containing path.
func pagesFS(path string) (fs.FS, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("index path: %w", err)
	}
	return os.DirFS(filepath.Dir(abs)), filepath.Base(abs), nil
}

func (a *App) publicURL(configured string) string {
	if configured != "" {
		return configured
	}
	scheme := "http"
	if a.useTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://localhost:%d", scheme, a.Addr().(*net.TCPAddr).Port)
}

// Addr is the bound HTTP address.
func (a *App) Addr() net.Addr {
	return a.httpLis.Addr()
}

// Run serves HTTP, and gRPC when enabled, until ctx is cancelled or a
// server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.worker != nil {
		go a.worker.Run(ctx)
	}

	go func() {
		a.logger.Info("Server is running", zap.String("addr", a.Addr().String()), zap.Bool("tls", a.useTLS))

		var err error
		if a.useTLS {
			err = a.http.ServeTLS(a.httpLis, "", "")
		} else {
			err = a.http.Serve(a.httpLis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpc != nil {
		go func() {
			if err := a.grpc.Serve(a.grpcLis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case runErr = <-errCh:
		a.logger.Error("server failed, shutting down", zap.Error(runErr))
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(ctx); err != nil {
		a.logger.Error("http shutdown", zap.Error(err))
	}
	if a.grpc != nil {
		a.grpc.GracefulStop()
	}
	if a.worker != nil {
		if err := a.worker.Stop(ctx); err != nil {
			a.logger.Error("insert worker did not drain", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("store close", zap.Error(err))
	}
}

// closeAll releases what New managed to acquire before failing.
func (a *App) closeAll() {
	if a.httpLis != nil {
		_ = a.httpLis.Close()
	}
	if a.grpcLis != nil {
		_ = a.grpcLis.Close()
	}
	_ = a.store.Close()
}
