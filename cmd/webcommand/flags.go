package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/GriffinCanCode/webcommand/internal/infrastructure/config"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/logging"
)

type options struct {
	host             string
	port             int
	suppressOutput   bool
	logLevel         string
	logDev           bool
	waitTime         int
	bufferSize       int
	configPath       string
	allowClientInput bool
	staticDir        string
	version          bool
}

func newFlags(stderr io.Writer) (*options, *pflag.FlagSet) {
	def := config.Default()
	o := &options{}

	fs := pflag.NewFlagSet("web-command", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	// Everything after the first positional argument belongs to the command.
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Output a command to a web browser.\n\nUsage:\n  web-command [flags] [--] [COMMAND [ARGS...]]\n\nFlags:\n")
		fmt.Fprint(stderr, fs.FlagUsages())
	}

	fs.StringVarP(&o.host, "host", "a", def.Server.Host, "host to bind to")
	fs.IntVarP(&o.port, "port", "p", def.Server.Port, "port to bind to")
	fs.BoolVarP(&o.suppressOutput, "suppress-output", "s", false, "suppress output")
	fs.StringVarP(&o.logLevel, "log-level", "l", def.Logging.Level,
		"log level ("+strings.Join(logging.Levels, ", ")+")")
	fs.BoolVar(&o.logDev, "log-dev", false, "human-readable console logs")
	fs.IntVarP(&o.waitTime, "wait-time", "w", def.Relay.WaitTime, "seconds to wait before restarting command")
	fs.IntVarP(&o.bufferSize, "buffer-size", "b", def.Relay.BufferSize, "bytes of output replayed to new viewers")
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML or TOML config file")
	fs.BoolVar(&o.allowClientInput, "allow-client-input", false, "forward viewer keystrokes to the command")
	fs.StringVar(&o.staticDir, "static-dir", "", "serve the client from this directory")
	fs.BoolVarP(&o.version, "version", "V", false, "show version and exit")

	return o, fs
}

// apply copies explicitly set flags and positional arguments over cfg.
func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("host") {
		cfg.Server.Host = o.host
	}
	if fs.Changed("port") {
		cfg.Server.Port = o.port
	}
	if fs.Changed("suppress-output") {
		cfg.Relay.SuppressOutput = o.suppressOutput
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if fs.Changed("log-dev") {
		cfg.Logging.Development = o.logDev
	}
	if fs.Changed("wait-time") {
		cfg.Relay.WaitTime = o.waitTime
	}
	if fs.Changed("buffer-size") {
		cfg.Relay.BufferSize = o.bufferSize
	}
	if fs.Changed("allow-client-input") {
		cfg.Relay.AllowClientInput = o.allowClientInput
	}
	if fs.Changed("static-dir") {
		cfg.Web.StaticDir = o.staticDir
	}
	if args := fs.Args(); len(args) > 0 {
		cfg.Relay.Command = args
	}
}
