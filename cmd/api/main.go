package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civicpulse/internal/api/http"
	"github.com/spec-kit/civicpulse/internal/api/http/handlers"
	"github.com/spec-kit/civicpulse/internal/auth"
	"github.com/spec-kit/civicpulse/internal/config"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/observability"
	"github.com/spec-kit/civicpulse/internal/persistence"
	"github.com/spec-kit/civicpulse/internal/realtime"
	"github.com/spec-kit/civicpulse/internal/repository"
	"github.com/spec-kit/civicpulse/internal/service"
	"github.com/spec-kit/civicpulse/internal/vitality"
	"github.com/spec-kit/civicpulse/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logger.Fatal("failed to create upload dir", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	officialRepo := repository.NewOfficialRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	voteRepo := repository.NewVoteRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	statusRepo := repository.NewStatusUpdateRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	badgeRepo := repository.NewBadgeRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(logger)

	thresholds := vitality.Thresholds{
		Local:    cfg.Vitality.LocalThreshold,
		State:    cfg.Vitality.StateThreshold,
		National: cfg.Vitality.NationalThreshold,
	}
	sideEffects := vitality.NewSideEffects(
		statusRepo,
		badgeRepo,
		events.NewPublisherAdapter(dispatcher),
		thresholds,
		vitality.BadgePolicy{SupportThreshold: cfg.Vitality.BadgeSupportThreshold},
		logger,
	)
	updater := vitality.NewUpdater(vitality.UpdaterDeps{
		Ledger:     voteRepo,
		Issues:     issueRepo,
		Effects:    sideEffects,
		Population: cfg.Vitality.PopulationFor,
		Thresholds: thresholds,
		Logger:     logger,
		Metrics:    metrics,
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		OfficialRepo:      officialRepo,
		PasswordResetRepo: resetRepo,
	})
	userService := service.NewUserService(userRepo, activityRepo, badgeRepo)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:        issueRepo,
		CommentRepo:      commentRepo,
		StatusUpdateRepo: statusRepo,
		ActivityRepo:     activityRepo,
		Dispatcher:       dispatcher,
		Cache:            redis,
		Vitality:         cfg.Vitality,
		Logger:           logger,
	})
	voteService := service.NewVoteService(service.VoteDependencies{
		VoteRepo:     voteRepo,
		ActivityRepo: activityRepo,
		Updater:      updater,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo:  commentRepo,
		IssueRepo:    issueRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		AnalyticsRepo: analyticsRepo,
		IssueRepo:     issueRepo,
		VoteRepo:      voteRepo,
		BadgeRepo:     badgeRepo,
		Cache:         redis,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(dispatcher, hub, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, officialRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService, analyticsService),
		Issues:         handlers.NewIssuesHandler(issueService, voteService, cfg.Upload),
		Comments:       handlers.NewCommentsHandler(commentService),
		Government:     handlers.NewGovernmentHandler(authService, issueService, analyticsService),
		Realtime:       handlers.NewRealtimeHandler(hub),
		AuthMiddleware: authMiddleware,
		UploadDir:      cfg.Upload.Dir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
