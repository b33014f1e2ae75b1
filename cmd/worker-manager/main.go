// cmd/worker-manager/main.go
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

	"talentrank-workers/internal/bias"
	"talentrank-workers/internal/common/aws"
	"talentrank-workers/internal/common/camunda"
	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/database"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/observability"
	"talentrank-workers/internal/notify"
	"talentrank-workers/internal/ranking"
	"talentrank-workers/internal/scoring"
	"talentrank-workers/internal/store"
	"talentrank-workers/pkg/registry"

	// Scoring Workers (3)
	gcs "talentrank-workers/internal/workers/scoring/get-composite-score"
	rc "talentrank-workers/internal/workers/scoring/rank-candidates"
	tm "talentrank-workers/internal/workers/scoring/train-models"

	// Bias Audit Workers (1)
	gbr "talentrank-workers/internal/workers/bias/generate-bias-report"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Activity Registry ---
	activities, err := registry.LoadRegistry(registry.DefaultPath)
	if err != nil {
		zapLog.Warn("activity registry not loaded", zap.Error(err))
	} else {
		zapLog.Info("activity registry loaded",
			zap.String("version", activities.Version),
			zap.Int("activities", len(activities.Activities)),
		)
		for taskType, wcfg := range cfg.Workers {
			if wcfg.Enabled && activities.FindByTaskType(taskType) == nil {
				zapLog.Warn("enabled worker missing from activity registry", zap.String("taskType", taskType))
			}
		}
	}

	// --- Build Scoring Pipeline ---

	// All four providers register regardless of availability, so the
	// configured weights keep their meaning in composite confidence even
	// when a provider is down.
	providerRegistry := scoring.NewRegistry(cfg.Scoring.Weights)
	providerRegistry.Register(scoring.NewKeywordScorer())

	modelStore := store.NewModelStore(pg.DB, log)

	trainedScorer := scoring.NewTrainedModelScorer()
	if version, payload, err := modelStore.LoadLatest(ctx); err != nil {
		zapLog.Warn("trained model lookup failed, starting untrained", zap.Error(err))
	} else if payload != nil {
		var ensemble scoring.Ensemble
		if err := json.Unmarshal(payload, &ensemble); err != nil {
			zapLog.Warn("trained model artifact corrupt, starting untrained",
				zap.Int("version", version), zap.Error(err))
		} else {
			trainedScorer.Swap(&ensemble)
			zapLog.Info("trained model loaded", zap.Int("version", version))
		}
	}
	providerRegistry.Register(trainedScorer)

	skillGraph := scoring.DefaultSkillGraph()
	if cfg.Scoring.Ontology.GraphFile != "" {
		skillGraph, err = scoring.LoadSkillGraph(cfg.Scoring.Ontology.GraphFile)
		if err != nil {
			zapLog.Fatal("skill graph load failed", zap.Error(err))
		}
	}
	providerRegistry.Register(scoring.NewOntologyScorer(skillGraph, cfg.Scoring.Ontology.MaxDepth))

	contextualScorer, err := scoring.NewContextualScorer(cfg.Scoring.Contextual, log)
	if err != nil {
		zapLog.Fatal("contextual scorer init failed", zap.Error(err))
	}
	providerRegistry.Register(contextualScorer)

	scoreCache := scoring.NewScoreCache(redis.Client, cfg.Scoring.CacheTTL, log)
	aggregator := scoring.NewAggregator(providerRegistry, scoreCache, log)

	candidates := store.NewCandidateStore(pg.DB)
	jobs := store.NewJobStore(pg.DB)
	applications := store.NewApplicationStore(pg.DB)
	engine := ranking.NewEngine(aggregator, candidates, jobs, applications, cfg.Scoring.Parallelism, log)

	history := store.NewRankingHistory(esClient.Client, cfg.Database.Elasticsearch.HistoryIndex, log)

	auditor := bias.NewAuditor(cfg.Bias, log)
	reportGenerator := bias.NewReportGenerator(history, candidates, auditor, cfg.Bias, log)

	var notifier *notify.Notifier
	if cfg.Notifications.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		notifier = notify.NewNotifier(cfg.Notifications, sesClient, snsClient, log)
		zapLog.Info("bias alerting enabled", zap.String("region", cfg.Notifications.AWSRegion))
	} else {
		notifier = notify.NewNotifier(cfg.Notifications, nil, nil, log)
	}

	// --- START: Register ALL 4 Workers ---
	var workers []*camunda.CamundaWorker

	// --- 1. Scoring Workers (3) ---
	if cfg.Workers[rc.TaskType].Enabled {
		handler := rc.NewHandler(
			workerConfig(rc.LoadConfig(), cfg.Workers[rc.TaskType]),
			engine, history, log,
		)
		workers = append(workers,
			startWorker(zeebeClient, rc.TaskType, cfg.Workers[rc.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[gcs.TaskType].Enabled {
		handler := gcs.NewHandler(
			workerConfigScore(gcs.LoadConfig(), cfg.Workers[gcs.TaskType]),
			engine, log,
		)
		workers = append(workers,
			startWorker(zeebeClient, gcs.TaskType, cfg.Workers[gcs.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[tm.TaskType].Enabled {
		handler := tm.NewHandler(
			workerConfigTrain(tm.LoadConfig(), cfg.Workers[tm.TaskType]),
			modelStore, trainedScorer, log,
		)
		workers = append(workers,
			startWorker(zeebeClient, tm.TaskType, cfg.Workers[tm.TaskType], handler.Handle, zapLog))
	}

	// --- 2. Bias Audit Workers (1) ---
	if cfg.Workers[gbr.TaskType].Enabled {
		handler := gbr.NewHandler(
			workerConfigReport(gbr.LoadConfig(), cfg.Workers[gbr.TaskType]),
			reportGenerator, notifier, log,
		)
		workers = append(workers,
			startWorker(zeebeClient, gbr.TaskType, cfg.Workers[gbr.TaskType], handler.Handle, zapLog))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			checks := map[string]string{}
			ready := true
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				checks["zeebe"] = err.Error()
				ready = false
			}
			if err := pg.Ping(r.Context()); err != nil {
				checks["postgres"] = err.Error()
				ready = false
			}
			if ready {
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "ready",
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(checks)
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// Worker packages ship sensible timeout defaults; the config file only
// overrides them when it sets an explicit value.

func workerConfig(base *rc.Config, wcfg config.WorkerConfig) *rc.Config {
	if wcfg.Timeout > 0 {
		base.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return base
}

func workerConfigScore(base *gcs.Config, wcfg config.WorkerConfig) *gcs.Config {
	if wcfg.Timeout > 0 {
		base.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return base
}

func workerConfigTrain(base *tm.Config, wcfg config.WorkerConfig) *tm.Config {
	if wcfg.Timeout > 0 {
		base.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return base
}

func workerConfigReport(base *gbr.Config, wcfg config.WorkerConfig) *gbr.Config {
	if wcfg.Timeout > 0 {
		base.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return base
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.CamundaWorker {
	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 10
	}
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return camunda.NewWorker(client.GetClient(), taskType, maxJobs, timeout, handlerFunc, log)
}
