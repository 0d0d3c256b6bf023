package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/config"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, flags := newFlags(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		report(stderr, err)
		return 1
	}

	if opts.version {
		fmt.Fprintf(stdout, "web-command version %s\n", version)
		return 0
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		report(stderr, err)
		return 1
	}
	opts.apply(flags, cfg)

	if err := cfg.Validate(); err != nil {
		report(stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		report(stderr, err)
		return 1
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	r := relay.New(cfg.RelayOptions(stdout, stdin), relay.DefaultSpawn, logger.Named("relay"), metrics)

	srv, err := server.NewServer(cfg, r, metrics, logger.Named("server"), version)
	if err != nil {
		report(stderr, err)
		return 1
	}
	// Bind before spawning anything so a busy port fails fast.
	if err := srv.Listen(); err != nil {
		report(stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Listening on "+srv.Addr()+"...", zap.Strings("command", cfg.Relay.Command))
	r.Start(ctx)
	err = srv.Run(ctx)
	r.Stop()

	if err != nil {
		logger.Error("Server failed", zap.Error(err))
		report(stderr, err)
		return 1
	}
	return 0
}

// report prints err to w, rewording errors users hit from the command line.
func report(w io.Writer, err error) {
	msg := err.Error()
	if errors.Is(err, config.ErrNegativeWaitTime) {
		msg = "Wait time must be non-negative"
	}
	fmt.Fprintf(w, "ERROR: %s\n", msg)
}
