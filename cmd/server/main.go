package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"vinculacion/internal/biometrics"
	"vinculacion/internal/callbackauth"
	"vinculacion/internal/corebanking"
	"vinculacion/internal/enrollment/handler"
	enrollmentmetrics "vinculacion/internal/enrollment/metrics"
	"vinculacion/internal/enrollment/service"
	"vinculacion/internal/enrollment/store"
	"vinculacion/internal/notify"
	"vinculacion/internal/platform/cache"
	"vinculacion/internal/platform/config"
	"vinculacion/internal/platform/httpserver"
	"vinculacion/internal/platform/kafka"
	"vinculacion/internal/platform/logger"
	"vinculacion/internal/platform/metrics"
	"vinculacion/internal/platform/postgres"
	"vinculacion/internal/platform/redis"
	"vinculacion/pkg/platform/middleware/accesslog"
	"vinculacion/pkg/platform/middleware/metadata"
	"vinculacion/pkg/platform/middleware/ratelimit"
	"vinculacion/pkg/platform/middleware/requestid"
	"vinculacion/pkg/platform/middleware/requesttime"
)

// main wires the enrollment workflow to its stores and vendors and serves it
// until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := buildService(cfg, infra, log)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	limiter := ratelimit.New(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	h := handler.New(svc, callbackauth.New(cfg.Callback), log,
		handler.WithPublicMiddleware(limiter.Middleware),
		handler.WithDebugRoutes(cfg.Debug),
	)

	clientIP, err := metadata.NewResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	srv := httpserver.New(cfg.Server.Addr, newRouter(log, h, clientIP, infra.checks(), metrics.New()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting vinculacion", "addr", cfg.Server.Addr, "debug", cfg.Debug)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newRouter mounts the enrollment API under /api/vinculacion behind the
// shared middleware chain.
func newRouter(log *slog.Logger, h *handler.Handler, clientIP *metadata.Resolver, checks map[string]func(context.Context) error, observer accesslog.Observer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientIP.Middleware)
	r.Use(accesslog.Recover(log))
	r.Use(accesslog.Middleware(log, observer))

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/vinculacion", h.Register)
	return r
}

// infra holds the connections opened at startup. Optional backends are nil
// when not configured.
type infra struct {
	db       *sql.DB
	oracle   *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := &infra{}
	db, err := postgres.Open(startCtx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	out.db = db
	if db != nil && cfg.Postgres.Migrate {
		if err := store.Migrate(startCtx, db); err != nil {
			out.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory store")
	}

	if out.redis, err = redis.New(startCtx, cfg.Redis); err != nil {
		out.Close()
		return nil, err
	}
	if out.producer, err = kafka.NewProducer(startCtx, cfg.Kafka.Brokers, cfg.Kafka.CompletionTopic); err != nil {
		out.Close()
		return nil, err
	}
	if out.oracle, err = corebanking.OpenOracle(cfg.Oracle); err != nil {
		out.Close()
		return nil, err
	}
	if out.oracle == nil {
		log.Warn("ORACLE_HOST not set, core-banking checks will fail")
	}
	return out, nil
}

func (i *infra) Close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.oracle != nil {
		_ = i.oracle.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func (i *infra) checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if i.db != nil {
		checks["postgres"] = i.db.PingContext
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health
	}
	return checks
}

func buildService(cfg config.Config, in *infra, log *slog.Logger) (*service.Service, error) {
	var (
		records service.RecordStore
		logs    service.LogStore
	)
	if in.db != nil {
		pg := store.NewPostgres(in.db)
		records, logs = pg, pg
	} else {
		mem := store.NewMemory()
		records, logs = mem, mem
	}

	var tokens corebanking.TokenCache = cache.NewMemory(nil)
	if in.redis != nil {
		tokens = cache.NewRedis(in.redis.Client)
	}

	notifiers := notify.Multi{notify.NewWebhook(cfg.Notify, notify.WithWebhookLogger(log))}
	if in.producer != nil {
		notifiers = append(notifiers, notify.NewEvent(in.producer, log))
	}

	core := corebanking.NewClient(corebanking.NewOracleProcedures(in.oracle),
		corebanking.WithProcedureTimeout(cfg.Oracle.ProcedureTimeout),
		corebanking.WithDryRun(cfg.VerificationDryRun()),
		corebanking.WithClientLogger(log),
	)
	agile := corebanking.NewAgileClient(cfg.Agile, tokens,
		corebanking.WithAgileDryRun(cfg.AgileDryRun()),
		corebanking.WithAgileLogger(log),
	)
	builder := corebanking.NewPayloadBuilder(cfg.Agile,
		corebanking.NewBranchCatalog(cfg.Agile.Branches, cfg.Agile.DefaultBranchCode))

	return service.New(records, logs, biometrics.New(cfg.Biometrics, biometrics.WithLogger(log)), core,
		service.WithLogger(log),
		service.WithMetrics(enrollmentmetrics.New()),
		service.WithAgile(agile, builder),
		service.WithNotifier(notifiers),
		service.WithMaxBiometricAttempts(cfg.Workflow.MaxBiometricAttempts),
		service.WithCoreBankingLink(cfg.Workflow.CoreBankingLinkBase),
		service.WithBatch(cfg.Workflow.BatchDefaultLimit, cfg.Workflow.BatchWorkers),
	)
}
