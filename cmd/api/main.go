package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/supportdesk/ticketd/internal/api/http"
	"github.com/supportdesk/ticketd/internal/api/http/handlers"
	"github.com/supportdesk/ticketd/internal/auth"
	"github.com/supportdesk/ticketd/internal/config"
	"github.com/supportdesk/ticketd/internal/events"
	"github.com/supportdesk/ticketd/internal/observability"
	"github.com/supportdesk/ticketd/internal/persistence"
	"github.com/supportdesk/ticketd/internal/repository"
	"github.com/supportdesk/ticketd/internal/service"
	"github.com/supportdesk/ticketd/internal/ticketcode"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	eventRepo := repository.NewTicketEventRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	priorityRepo := repository.NewPriorityRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher()
	events.RegisterLogObserver(dispatcher, logger)
	events.RegisterFanOutObserver(dispatcher, redis, cfg.Redis.EventsChannel, logger)

	generator := ticketcode.NewGenerator(ticketRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		EventRepo:      eventRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		PriorityRepo:   priorityRepo,
		CategoryRepo:   categoryRepo,
		UserRepo:       userRepo,
		TxManager:      txManager,
		Generator:      generator,
		Dispatcher:     dispatcher,
	})
	bulkService := service.NewBulkService(service.BulkDependencies{
		TicketRepo: ticketRepo,
		EventRepo:  eventRepo,
		UserRepo:   userRepo,
		TxManager:  txManager,
		Dispatcher: dispatcher,
	})
	statsService := service.NewStatsService(ticketRepo, priorityRepo)
	authService := service.NewAuthService(cfg.Auth, userRepo)
	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, bulkService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
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
