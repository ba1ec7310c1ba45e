// cmd/certd/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rkbisoi/applus-backend-demo/internal/audit"
	"github.com/rkbisoi/applus-backend-demo/internal/common/config"
	"github.com/rkbisoi/applus-backend-demo/internal/common/database"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/common/observability"
	"github.com/rkbisoi/applus-backend-demo/internal/lifecycle"
	"github.com/rkbisoi/applus-backend-demo/internal/notify"
	"github.com/rkbisoi/applus-backend-demo/internal/storage"
	"github.com/rkbisoi/applus-backend-demo/internal/validation"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting certificate pipeline service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Store ---
	var store storage.Store
	switch cfg.Storage.Backend {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Storage.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}

		pgStore := storage.NewPostgresStore(pg, log)
		if err := pgStore.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		store = pgStore
		zapLog.Info("PostgreSQL store ready")
	default:
		store, err = storage.NewJSONStore(cfg.Storage.DataDir, log)
		if err != nil {
			zapLog.Fatal("json store init failed", zap.Error(err))
		}
		zapLog.Info("JSON store ready", zap.String("dataDir", cfg.Storage.DataDir))
	}
	defer store.Close()

	// --- Init Redis certificate cache (optional) ---
	var cache *storage.CertificateCache
	if cfg.Storage.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Storage.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		cache = storage.NewCertificateCache(redis, config.GetDuration(cfg.Storage.Redis.CacheTTL), log)
		zapLog.Info("Redis certificate cache ready")
	}

	// --- Init Elasticsearch audit indexer (optional) ---
	var indexer *audit.Indexer
	if cfg.Storage.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Storage.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		indexer = audit.NewIndexer(esClient, cfg.Storage.Elasticsearch.AuditIndex, log)
		zapLog.Info("Elasticsearch audit indexer ready",
			zap.String("index", cfg.Storage.Elasticsearch.AuditIndex))
	}

	// --- Init notifier (optional) ---
	var notifier *notify.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = notify.New(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		zapLog.Info("Notifier ready", zap.String("region", cfg.Notifications.AWS.Region))
	}

	// --- Wire the pipeline ---
	trail := audit.NewTrail(store, indexer, log)
	engine := validation.NewEngine(validation.Config{
		WeightFunctional:  cfg.Validation.WeightFunctional,
		WeightPerformance: cfg.Validation.WeightPerformance,
		WeightSecurity:    cfg.Validation.WeightSecurity,
		ApproveScore:      cfg.Validation.ApproveScore,
		MinPassingScore:   cfg.Validation.MinPassingScore,
	}, log).WithObservability(obs)

	controller := lifecycle.NewController(store, trail, engine, cache, notifier, cfg.Pipeline, log)

	zapLog.Info("Certificate pipeline ready")

	// --- Diagnostics server: metrics, health, pprof ---
	go func() {
		http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			stats, err := store.Statistics(r.Context())
			if err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(stats)
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Diagnostics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Diagnostics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, waiting for in-flight pipelines...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := controller.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Shutdown timed out with pipelines still running", zap.Error(err))
	}

	zapLog.Info("Certificate pipeline stopped gracefully")
}
