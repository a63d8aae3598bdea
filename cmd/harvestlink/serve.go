package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harvestlink/marketplace/internal/api"
	"github.com/harvestlink/marketplace/internal/api/handler"
	"github.com/harvestlink/marketplace/internal/api/metrics"
	"github.com/harvestlink/marketplace/internal/api/middleware"
	"github.com/harvestlink/marketplace/internal/core/ports"
	"github.com/harvestlink/marketplace/internal/core/security"
	"github.com/harvestlink/marketplace/internal/core/service"
	"github.com/harvestlink/marketplace/internal/core/verifier"
	"github.com/harvestlink/marketplace/internal/infrastructure/cache/memory"
	"github.com/harvestlink/marketplace/internal/infrastructure/config"
	redisstore "github.com/harvestlink/marketplace/internal/infrastructure/db/redis"
	"github.com/harvestlink/marketplace/internal/infrastructure/managedauth"
	"github.com/harvestlink/marketplace/internal/infrastructure/oidc"
	"github.com/harvestlink/marketplace/internal/infrastructure/queue"
	"github.com/harvestlink/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the store schema before serving")

	return cmd
}

// setup loads and validates configuration and initialises the logger.
func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	ephemeral, err := cfg.Validate()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "harvestlink",
	})
	if ephemeral {
		log.Warn().Msg("SESSION_SECRET not set, using an ephemeral secret; sessions end on restart")
	}
	return cfg, log, nil
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	codec, err := security.NewCodec(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()
	if migrate || cfg.Store.Driver == "mongo" {
		if err := store.migrate(ctx); err != nil {
			return err
		}
	}

	readiness := map[string]handler.Pinger{}
	if store.pinger != nil {
		readiness[cfg.Store.Driver] = store.pinger
	}

	var limits ports.RateLimitStore
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		readiness["redis"] = redisstore.Pinger{Client: rdb}
		limits = redisstore.NewRateLimitStore(rdb)
	default:
		log.Warn().Msg("in-memory rate limiting is per replica")
		limits = memory.NewRateLimitStore()
	}

	chainCfg := verifier.ChainConfig{
		ProviderIssuer: cfg.ProviderA.Issuer,
		ProviderMarker: cfg.ProviderB.Marker,
	}
	if cfg.Managed.Enabled() {
		chainCfg.Managed = managedauth.NewClient(managedauth.Config{
			URL:     cfg.Managed.URL,
			APIKey:  cfg.Managed.APIKey,
			Timeout: cfg.Managed.Timeout,
		})
	}
	if cfg.ProviderA.Discovery {
		remote, err := oidc.NewVerifier(ctx, oidc.Config{Issuer: cfg.ProviderA.Issuer, ClientID: cfg.ProviderA.ClientID})
		if err != nil {
			return err
		}
		chainCfg.ProviderRemote = remote
	}

	resolver := verifier.NewResolver(
		logger.Component("verifier"),
		verifier.NewChain(codec, store.repo, chainCfg),
		verifier.WithObserver(metrics.ObserveVerification),
	)
	log.Info().Interface("methods", resolver.Methods()).Msg("verifier chain ready")

	dispatcher := queue.NewDispatcher(
		cfg.Queue.Workers,
		service.NewLoginRecorder(store.repo, logger.Component("login-recorder")),
		logger.Component("login-queue"),
		queue.WithDropHook(metrics.LoginEventsDroppedTotal.Inc),
	)

	authService := service.NewAuthService(store.repo, codec, security.NewHasher(), logger.Component("auth"),
		service.WithRateLimiter(service.NewRateLimiter(limits, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)),
		service.WithLoginEvents(dispatcher),
	)

	proxies, err := cfg.HTTP.ProxyRanges()
	if err != nil {
		return err
	}
	e := api.NewRouter(api.Deps{
		Resolver:       resolver,
		AuthService:    authService,
		Cookie:         middleware.SessionCookie{Secure: cfg.IsProduction()},
		Readiness:      readiness,
		Log:            logger.Component("http"),
		TrustedProxies: proxies,
	})

	// Workers outlive the server so queued events drain after the last request.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(workerCtx)
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorkers()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
