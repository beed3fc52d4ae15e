// cmd/hirebot/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hirebot/internal/attachments"
	"hirebot/internal/common/aws"
	"hirebot/internal/common/config"
	"hirebot/internal/common/database"
	httpclient "hirebot/internal/common/http"
	"hirebot/internal/common/logger"
	"hirebot/internal/common/observability"
	"hirebot/internal/completion"
	"hirebot/internal/engine"
	"hirebot/internal/notify"
	"hirebot/internal/questionset"
	"hirebot/internal/scoring"
	"hirebot/internal/search"
	"hirebot/internal/storage"
	"hirebot/internal/store"
	"hirebot/internal/transport"
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

	zapLog.Info("Starting hirebot...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("hirebot")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	scoreRepo := scoring.NewRepository(pg.GetDB())
	if err := scoreRepo.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("score schema migration failed", zap.Error(err))
	}

	// --- Init Elasticsearch with retry (optional) ---
	var indexer *search.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = search.NewIndexer(esClient, cfg.Database.Elasticsearch.IndexName, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Stores and registry ---
	questionSets := store.NewQuestionSetStore(redis.GetClient())
	sessions := store.NewSessionStore(redis.GetClient())
	jobs := store.NewJobStore(redis.GetClient())

	registry, err := questionset.NewRegistry(questionSets, sessions, log)
	if err != nil {
		zapLog.Fatal("registry init failed", zap.Error(err))
	}
	if _, err := registry.EnsureDefault(ctx); err != nil {
		zapLog.Fatal("default question set seeding failed", zap.Error(err))
	}

	files := storage.NewOSFileStore(cfg.Storage.UploadsDir, log)

	// --- Notification clients (optional) ---
	var emailSender notify.EmailSender
	var smsSender notify.SMSSender
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		if cfg.Notifications.Email.Enabled {
			ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client init failed", zap.Error(err))
			}
			emailSender = ses
		}
		if cfg.Notifications.SMS.Enabled {
			sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client init failed", zap.Error(err))
			}
			smsSender = sns
		}
	}
	notifier := notify.New(emailSender, smsSender, notify.Config{
		EmailEnabled:   cfg.Notifications.Email.Enabled,
		FromEmail:      cfg.Notifications.Email.FromEmail,
		SMSEnabled:     cfg.Notifications.SMS.Enabled,
		ScoreThreshold: cfg.Notifications.SMS.ScoreThreshold,
	}, log)

	// --- Scoring and completion pipeline ---
	scorer := scoring.NewClient(scoring.ClientConfig{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Model:       cfg.APIs.GenAI.Model,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries:  cfg.APIs.GenAI.MaxRetries,
		Temperature: cfg.APIs.GenAI.Temperature,
	}, log)

	var applicationIndexer completion.ApplicationIndexer
	if indexer != nil {
		applicationIndexer = indexer
	}
	trigger := completion.NewTrigger(files, scorer, scoreRepo, notifier, applicationIndexer, jobs, log)

	// --- Transport and engine ---
	tg := transport.NewTelegram(cfg.Telegram, log)
	downloader := httpclient.NewClient(config.GetDuration(cfg.Telegram.RequestTimeout))
	attach := attachments.NewHandler(tg, downloader, files, sessions, cfg.Storage.MaxFileBytes, log)

	conv := engine.New(registry, sessions, jobs, files, attach, trigger, cfg.Telegram.AdminIDs, log)
	tg.OnTextMessage(conv.HandleText)
	tg.OnDocumentMessage(conv.HandleDocument)

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	zapLog.Info("hirebot is ready, polling for events")
	if err := tg.Run(ctx); err != nil && ctx.Err() == nil {
		zapLog.Fatal("transport loop failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
