// Command dittoreg is the host environment for the file metadata registry.
//
// It loads configuration, opens the configured record store, attaches the
// caller identity (--as) and the current time to every operation and prints
// the outcome. Exit status is 0 on success (including false outcomes such as
// an unauthorized update), 1 on usage, configuration or store errors and 2
// when the identifier space is exhausted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/config"
	"github.com/marmos91/dittoreg/pkg/registry"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK        = 0
	exitFailure   = 1
	exitExhausted = 2
)

const usage = `Usage: dittoreg [--config PATH] [--output text|json|yaml] <command> [flags]

Commands:
  init     [--force] [--path PATH]             write a default config file
  create   --as ID --name N [--kind K] [--size S] [--description D]
  read     ID                                  print a record
  update   --as ID --id N --name N [--kind K] [--size S] [--description D]
  delete   --as ID --id N
  shell    --as ID                             interactive session
  export   [--format json|yaml|xdr]            snapshot the registry
  import   KEY                                 replace the registry with a snapshot
  version
`

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	store  record.Store
	reg    *registry.Registry
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	output string
	now    func() time.Time
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one dittoreg invocation and returns its exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("dittoreg", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }

	configPath := global.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/dittoreg/config.yaml)")
	output := global.String("output", "text", "Output format (text, json, yaml)")
	logLevel := global.String("log-level", "", "Override the configured log level")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if global.NArg() == 0 {
		global.Usage()
		return exitFailure
	}

	command, rest := global.Arg(0), global.Args()[1:]

	switch *output {
	case "text", "json", "yaml":
	default:
		_, _ = fmt.Fprintf(stderr, "unknown output format %q\n", *output)
		return exitFailure
	}

	// Commands that need no store
	switch command {
	case "version":
		_, _ = fmt.Fprintf(stdout, "dittoreg %s\n", version)
		return exitOK
	case "init":
		return runInit(rest, stdout, stderr)
	case "help":
		global.Usage()
		return exitOK
	}

	handler, ok := commands[command]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		global.Usage()
		return exitFailure
	}

	a, err := newApp(ctx, *configPath, *logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.close()

	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	a.output = *output

	return a.exitCode(handler(ctx, a, rest))
}

// newApp loads configuration, configures logging and metrics and opens the
// record store.
func newApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		return nil, err
	}

	recordMetrics := config.InitializeMetrics(cfg)

	store, err := config.CreateRecordStore(ctx, &cfg.Store)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	logger.Debug("Opened %s record store", cfg.Store.Type)

	return &app{
		cfg:   cfg,
		store: store,
		reg:   registry.New(store, registry.WithMetrics(recordMetrics)),
		now:   time.Now,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close record store: %v", err)
	}
	_ = logger.Close()
}

// call stamps an operation with the caller and the current time.
func (a *app) call(caller record.Identity) registry.Call {
	return registry.Call{Caller: caller, Timestamp: a.now()}
}

// exitCode maps a command error to the process exit status.
func (a *app) exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, registry.ErrIDSpaceExhausted):
		logger.Error("Fatal: %v", err)
		_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitExhausted
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	default:
		_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitFailure
	}
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	path := fs.String("path", "", "Write the config file here instead of the default location")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	written := *path
	var err error
	if written == "" {
		written, err = config.InitConfig(*force)
	} else {
		err = config.InitConfigToPath(written, *force)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	_, _ = fmt.Fprintf(stdout, "Configuration written to %s\n", written)
	return exitOK
}
