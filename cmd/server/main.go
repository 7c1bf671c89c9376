// Command server wires the vault core behind an HTTP API. Business logic
// lives in internal packages; main only assembles dependencies and owns the
// process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"vaultcore/internal/audit"
	"vaultcore/internal/jwttoken"
	"vaultcore/internal/platform/config"
	"vaultcore/internal/platform/httpserver"
	"vaultcore/internal/platform/logger"
	platformredis "vaultcore/internal/platform/redis"
	"vaultcore/internal/vault/handler"
	"vaultcore/internal/vault/lock"
	vaultmetrics "vaultcore/internal/vault/metrics"
	"vaultcore/internal/vault/seal"
	"vaultcore/internal/vault/service"
	ledgerstore "vaultcore/internal/vault/store/ledger"
	subjectstore "vaultcore/internal/vault/store/subject"
	"vaultcore/migrations"
	"vaultcore/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sealer, err := seal.New(cfg.SealKey)
	if err != nil {
		log.Error("invalid seal key", "error", err)
		os.Exit(1)
	}

	// Storage: postgres when configured, in-memory otherwise. The in-memory
	// stores exist for local development and tests, not production.
	var (
		subjects   subjectstore.Store
		ledger     ledgerstore.Store
		auditStore audit.Store
		txRunner   tx.Runner
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		subjects = subjectstore.NewPostgres(db)
		ledger = ledgerstore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		txRunner = tx.NewSQLRunner(db)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		subjects = subjectstore.NewInMemory()
		ledger = ledgerstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		txRunner = tx.NewNoopRunner()
	}

	// Onboarding lock: redis when configured so multiple replicas serialize
	// a scope's write path, in-process otherwise.
	var locker lock.Locker
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient.Client, lock.WithTTL(cfg.LockTTL))
	} else {
		log.Warn("REDIS_URL not set, using in-process locks")
		locker = lock.NewInMemory()
	}

	publisher := audit.NewPublisher(auditStore)

	group, groupCtx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		worker := audit.NewWorker(publisher.Inbox(), sink, log)
		group.Go(func() error { return worker.Run(groupCtx) })
	} else {
		log.Warn("KAFKA_BROKERS not set, audit events are stored but not streamed")
	}

	metrics := vaultmetrics.New()
	jwtService := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	vault := service.New(subjects, ledger, locker, sealer,
		service.WithAudit(publisher),
		service.WithMetrics(metrics),
		service.WithTxRunner(txRunner),
		service.WithLogger(log),
	)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(vault, jwtService, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting vault server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return httpserver.Shutdown(srv)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
