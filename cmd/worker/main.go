package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/stockpilot-erp/stockpilot/internal/app"
	"github.com/stockpilot-erp/stockpilot/internal/catalog"
	"github.com/stockpilot-erp/stockpilot/internal/contacts"
	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/platform/cache"
	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
	"github.com/stockpilot-erp/stockpilot/internal/reorder"
	"github.com/stockpilot-erp/stockpilot/internal/saleshist"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
	"github.com/stockpilot-erp/stockpilot/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	catalogRepo := catalog.NewRepository(pool)
	contactsRepo := contacts.NewRepository(pool)
	salesRepo := saleshist.NewRepository(pool)
	purchasingRepo := purchasing.NewRepository(pool)

	reorderRepo := reorder.NewRepository(pool)
	reportCache := reorder.NewReportCache(redisClient, cfg.ReportCacheTTL)
	reorderService := reorder.NewService(reorderRepo, catalogRepo, contactsRepo, salesRepo, purchasingRepo, auditLogger, reportCache, logger)

	checkHandler := jobs.NewReorderCheckHandler(reorderService, metrics, logger)

	var cron []jobs.CronRegistration
	for _, orgID := range cfg.ReorderCheckOrgs {
		task, err := jobs.NewReorderCheckTask(jobs.ReorderCheckPayload{OrgID: orgID, Trigger: "scheduled"})
		if err != nil {
			logger.Error("build reorder check task", slog.Int64("org_id", orgID), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.ReorderCron,
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReorderCheck, Handler: checkHandler},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
