package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app"
	"github.com/atinyakov/shortlink/internal/config"
	"github.com/atinyakov/shortlink/internal/logger"
)

var buildVersion string
var buildDate string
var buildCommit string

func buildInfo(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func main() {
	fmt.Printf("Build version: %s\n", buildInfo(buildVersion))
	fmt.Printf("Build date: %s\n", buildInfo(buildDate))
	fmt.Printf("Build commit: %s\n", buildInfo(buildCommit))

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		zap.Must(zap.NewProduction()).Fatal("shortener failed", zap.Error(err))
	}
}

func run(args []string) error {
	options, err := config.Parse(args)
	if err != nil {
		return err
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Log.Info("starting shortener",
		zap.String("version", buildInfo(buildVersion)),
		zap.Int("port", options.Port),
		zap.Bool("async_insert", options.AsyncInsert),
		zap.Int("grpc_port", options.GRPCPort),
	)

	if err := app.Run(ctx, options, log.Log); err != nil {
		return err
	}

	log.Log.Info("shortener stopped")
	return nil
}
