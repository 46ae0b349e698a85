package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	// Packages
	auth "github.com/debtstack-ai/debtstack/pkg/auth"
	chat "github.com/debtstack-ai/debtstack/pkg/chat"
	edgar "github.com/debtstack-ai/debtstack/pkg/edgar"
	httphandler "github.com/debtstack-ai/debtstack/pkg/httphandler"
	metrics "github.com/debtstack-ai/debtstack/pkg/metrics"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	store "github.com/debtstack-ai/debtstack/pkg/store"
	version "github.com/debtstack-ai/debtstack/pkg/version"
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	RunServer RunServer `cmd:"" name:"run" help:"Run server." group:"SERVER"`
}

type RunServer struct {
	Model    `embed:""`
	Research `embed:""`

	// Backend and storage
	BackendURL  string `name:"backend-url" env:"DEBTSTACK_API_URL" default:"${backend}" help:"DebtStack data API endpoint" validate:"url"`
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" help:"PostgreSQL connection URL for accounts. Accounts are kept in memory when empty"`

	// Sessions
	SessionKey string   `name:"session-key" env:"CLERK_JWT_KEY" help:"PEM encoded public key which signs session tokens. Account endpoints are disabled when empty"`
	Parties    []string `name:"session-party" env:"CLERK_AUTHORIZED_PARTIES" help:"Origins allowed as the authorized party of a session token"`

	// Chat
	MaxRounds int     `name:"max-rounds" default:"${max_rounds}" help:"Maximum model rounds for each chat request" validate:"gte=1"`
	RateLimit float64 `name:"rate-limit" default:"1" help:"Chat requests per second for each API key, zero to disable" validate:"gte=0"`
	RateBurst int     `name:"rate-burst" default:"5" help:"Chat request burst for each API key" validate:"gte=1"`

	// TLS server options
	TLS struct {
		ServerName string `name:"name" help:"TLS server name"`
		CertFile   string `name:"cert" help:"TLS certificate file"`
		KeyFile    string `name:"key" help:"TLS key file"`
	} `embed:"" prefix:"tls."`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	connectTimeout = 10 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServer) Run(ctx *Globals) error {
	if err := checkConfig(cmd); err != nil {
		return err
	}

	// Metrics are shared by the manager and the request middleware
	stats := metrics.New()

	// The model
	generator, model, err := cmd.generator(ctx)
	if err != nil {
		return err
	}

	// The research tool needs a user agent for the SEC
	var researcher *edgar.Researcher
	var tickers *edgar.TickerCache
	if cmd.SECUserAgent != "" {
		if researcher, tickers, err = cmd.researcher(ctx, &cmd.Model); err != nil {
			return err
		}
	} else {
		ctx.logger.Warn("SEC user agent is not set, filing research is disabled")
	}

	// The tools
	toolkit, err := newToolkit(ctx, cmd.BackendURL, researcher)
	if err != nil {
		return err
	}

	// The chat manager
	manager, err := chat.New(
		chat.WithGenerator(generator, model),
		chat.WithToolkit(toolkit),
		chat.WithMaxRounds(cmd.MaxRounds),
		chat.WithLogger(ctx.logger),
		chat.WithMetrics(stats),
		chat.WithTracer(ctx.tracer),
	)
	if err != nil {
		return err
	}

	// Accounts
	service := httphandler.Service{
		Manager: manager,
		Metrics: stats,
	}
	if cmd.RateLimit > 0 {
		service.Limiter = httphandler.NewLimiter(cmd.RateLimit, cmd.RateBurst)
	}
	if cmd.SessionKey != "" {
		verifier, err := auth.NewVerifier(cmd.SessionKey, auth.WithAuthorizedParties(cmd.Parties...))
		if err != nil {
			return fmt.Errorf("failed to read session key: %w", err)
		}
		users, release, err := cmd.userStore(ctx)
		if err != nil {
			return err
		}
		defer release()
		service.Users = users
		service.Verifier = verifier
	} else {
		ctx.logger.Warn("session key is not set, account endpoints are disabled")
	}

	// Serve, and load the ticker table in the background so the first
	// research call does not wait for it
	group, groupctx := errgroup.WithContext(ctx.ctx)
	group.Go(func() error {
		return cmd.Serve(ctx, service, version.Version())
	})
	if tickers != nil {
		group.Go(func() error {
			if err := tickers.Refresh(groupctx); err != nil {
				ctx.logger.Warn("ticker table not loaded", "error", err)
			} else {
				ctx.logger.Info("ticker table loaded", "tickers", tickers.Len())
			}
			return nil
		})
	}
	return group.Wait()
}

// Serve creates the httpserver instance and blocks until context
// cancellation (e.g. SIGINT).
func (cmd *RunServer) Serve(ctx *Globals, service httphandler.Service, versionTag string) error {
	// Create middleware
	middleware := []httprouter.HTTPMiddlewareFunc{
		httphandler.LoggingMiddleware(ctx.logger, service.Metrics),
	}

	// Create the TLS config if TLS options are provided
	var tlsConfig *tls.Config
	if cmd.TLS.CertFile != "" || cmd.TLS.KeyFile != "" {
		var pemData [][]byte
		for _, path := range []string{cmd.TLS.CertFile, cmd.TLS.KeyFile} {
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read TLS file: %w", err)
			}
			pemData = append(pemData, data)
		}
		var err error
		tlsConfig, err = httpserver.TLSConfig(cmd.TLS.ServerName, false, pemData...)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	// Create the HTTP router
	router, err := httprouter.NewRouter(ctx.ctx, ctx.HTTP.Prefix, ctx.HTTP.Origin, "DebtStack Chat", versionTag, middleware...)
	if err != nil {
		return err
	} else if err := httphandler.RegisterHandlers(service, router, true); err != nil {
		return err
	}

	// Create the server
	httpserver, err := httpserver.New(ctx.HTTP.Addr, router, tlsConfig)
	if err != nil {
		return err
	}

	// Run the server
	ctx.logger.Info("started", "name", ctx.execName, "version", versionTag, "addr", ctx.HTTP.Addr)
	if err := httpserver.Run(ctx.ctx); err != nil {
		return err
	}

	// Return success
	ctx.logger.Info("stopped", "name", ctx.execName, "version", versionTag)
	return nil
}

// userStore returns the account store, in PostgreSQL when a database is
// configured and in memory otherwise, with a function to release it
func (cmd *RunServer) userStore(ctx *Globals) (schema.UserStore, func(), error) {
	if cmd.DatabaseURL == "" {
		ctx.logger.Warn("database is not set, accounts are kept in memory")
		return store.NewMemoryUserStore(), func() {}, nil
	}
	pgctx, cancel := context.WithTimeout(ctx.ctx, connectTimeout)
	defer cancel()
	users, err := store.NewPostgresUserStore(pgctx, cmd.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return users, users.Close, nil
}
