package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/claims"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/config"
	ssoctrl "github.com/sinaneshat/billing-dashboard-sub005/internal/http/controllers/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/http/router"
	ssosvc "github.com/sinaneshat/billing-dashboard-sub005/internal/http/services/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/identity"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/metrics"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/observability/logger"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/rate"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/redirect"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/session"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/pg"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/token"
	migrations "github.com/sinaneshat/billing-dashboard-sub005/migrations/postgres"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "ssod",
		Short: "SSO token-exchange service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to YAML config")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply embedded schema migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			return migrate(configPath, action)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(configPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "ssod",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheClient, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()

	store, err := pg.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	sessions := session.NewService(cacheClient, session.CookieConfig{
		Name:     cfg.Auth.Session.CookieName,
		Domain:   cfg.Auth.Session.Domain,
		SameSite: cfg.Auth.Session.SameSite,
		Secure:   cfg.Auth.Session.Secure,
	}, cfg.SessionTTL())

	var verifier token.Verifier
	switch cfg.SSO.TokenShape {
	case "compact":
		verifier = token.NewCompactVerifier([]byte(cfg.SSO.HMACSecret))
	default:
		verifier = token.NewJWSVerifier([]byte(cfg.SSO.HMACSecret))
	}

	service := ssosvc.NewExchangeService(ssosvc.Deps{
		Verifier:     verifier,
		Validator:    claims.NewValidator(cfg.SSO.ExpectedIssuer, claims.ClockSkewPolicy{AllowExpired: cfg.SSO.AllowExpiredTokens}),
		Provisioner:  identity.New(store, sessions, []byte(cfg.SSO.CredentialSecret)),
		Redirects:    redirect.New(cfg.Redirect.BaseURL, cfg.Redirect.PlansPath),
		StoreTimeout: cfg.StoreTimeout(),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.NewWindowLimiter(cacheClient, "rl:sso", cfg.Rate.Limit, cfg.RateWindow())
	}

	handler := router.New(router.Deps{
		SSO:      ssoctrl.NewController(service, sessions),
		Store:    store,
		Cache:    cacheClient,
		Limiter:  limiter,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.String("token_shape", cfg.SSO.TokenShape),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", logger.Err(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

func migrate(configPath, action string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return fmt.Errorf("unknown action %q, use up or down", action)
	}

	files, err := listEmbedded(suffix)
	if err != nil {
		return err
	}
	if action == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	for _, f := range files {
		b, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		fmt.Printf("OK %s\n", f)
	}
	return nil
}

func listEmbedded(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, migrations.Dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, migrations.Dir+"/"+e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
