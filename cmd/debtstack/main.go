package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	backend "github.com/debtstack-ai/debtstack/pkg/backend"
	chat "github.com/debtstack-ai/debtstack/pkg/chat"
	google "github.com/debtstack-ai/debtstack/pkg/provider/google"
	validator "github.com/go-playground/validator/v10"
	tint "github.com/lmittmann/tint"
	otel "go.opentelemetry.io/otel"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debugging
	Debug   bool `name:"debug" help:"Enable debug output"`
	Verbose bool `name:"verbose" help:"Enable verbose output"`

	// HTTP server and client
	HTTP struct {
		Addr    string        `name:"addr" env:"DEBTSTACK_ADDR" default:"localhost:8084" help:"Server listen address, or the address a client connects to" validate:"required,hostname_port"`
		Prefix  string        `name:"prefix" default:"/api" help:"Path prefix for the API"`
		Origin  string        `name:"origin" default:"" help:"Cross-origin protection (CSRF) origin. Empty string for same-origin only, '*' to allow all origins"`
		Timeout time.Duration `name:"timeout" default:"30s" help:"Timeout for outbound requests" validate:"gte=0"`
	} `embed:"" prefix:"http."`

	// Context
	ctx      context.Context
	logger   *slog.Logger
	tracer   trace.Tracer
	execName string
}

type CLI struct {
	Globals
	ServerCommands
	ClientCommands
	ResearchCommands
	VersionCommands
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	validate = validator.New()
)

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	// Create a cli parser
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("DebtStack chat gateway"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"model":      google.DefaultModel,
			"backend":    backend.DefaultEndpoint,
			"max_rounds": fmt.Sprint(chat.DefaultMaxRounds),
		},
	)

	// Create a context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx
	cli.Globals.execName = execName()

	// Create a logger
	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	cli.Globals.logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(cli.Globals.logger)

	// Spans go to the global provider, which is a no-op until one is installed
	cli.Globals.tracer = otel.Tracer(cli.Globals.execName)

	// Check the global flags
	cmd.FatalIfErrorf(checkConfig(&cli.Globals.HTTP))

	// Run the command
	if err := cmd.Run(&cli.Globals); err != nil {
		cmd.FatalIfErrorf(err)
		return
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	} else {
		return filepath.Base(name)
	}
}

// checkConfig validates a flag struct, reporting the first failing field
func checkConfig(v any) error {
	if err := validate.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return fmt.Errorf("invalid value %q for %s (%s)", fmt.Sprint(errs[0].Value()), errs[0].Field(), errs[0].Tag())
		}
		return err
	}
	return nil
}
