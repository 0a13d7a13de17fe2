package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/configs"
	"github.com/roastparty/server/internal/infrastructure/env"
	"github.com/roastparty/server/internal/infrastructure/events"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/messaging"
	"github.com/roastparty/server/internal/infrastructure/ratelimiter"
	"github.com/roastparty/server/internal/infrastructure/tracing"
	"github.com/roastparty/server/internal/infrastructure/ws"
	"github.com/roastparty/server/internal/persistence/db"
	"github.com/roastparty/server/internal/persistence/inmemory"
	"github.com/roastparty/server/internal/persistence/repository"
	"github.com/roastparty/server/internal/presence"
	"github.com/roastparty/server/internal/presentation/api"
	"github.com/roastparty/server/internal/presentation/handler/health"
	"github.com/roastparty/server/internal/presentation/handler/rooms"
	"github.com/roastparty/server/internal/service"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(logging.NewDefaultConfig())

	cfg, err := configs.Load(configs.DetermineConfigPath())
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := tracing.Init(ctx)
	if err != nil {
		logger.Warn(logging.General, logging.Startup, "tracing disabled", map[logging.ExtraKey]any{
			"errorMessage": err.Error(),
		})
	} else {
		defer shutdownTracing(context.Background())
	}

	var (
		roomRepo        domain.RoomRepository
		participantRepo domain.ParticipantRepository
		messageRepo     domain.MessageRepository
		txRunner        domain.TxRunner
		healthChecks    []health.Check
	)

	switch cfg.Store.Backend {
	case "mongo":
		mongoCfg := db.NewMongoConfig()
		mongo, err := db.Connect(ctx, mongoCfg)
		if err != nil {
			logger.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongo.Close(context.Background())

		if err := mongo.EnsureIndexes(ctx); err != nil {
			logger.Fatalf("failed to ensure indexes: %v", err)
		}

		roomRepo = repository.NewMongoRoomRepository(mongo.Database)
		participantRepo = repository.NewMongoParticipantRepository(mongo.Database)
		messageRepo = repository.NewMongoMessageRepository(mongo.Database)
		txRunner = repository.NewMongoTxRunner(mongo.Client)

		healthChecks = append(healthChecks, health.Check{
			Name: "mongo",
			Probe: func(ctx context.Context) error {
				return mongo.Client.Ping(ctx, readpref.Primary())
			},
		})

	case "memory":
		store := inmemory.NewStore()
		roomRepo = store.Rooms()
		participantRepo = store.Participants()
		messageRepo = store.Messages()
		txRunner = store.Tx()

	default:
		logger.Fatalf("unknown store backend %q", cfg.Store.Backend)
	}

	var rabbit *messaging.RabbitMQ
	if uri := env.GetString("RABBITMQ_URI", ""); uri != "" {
		rabbit, err = messaging.NewRabbitMQ(uri, logger)
		if err != nil {
			logger.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbit.Close()
	} else {
		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq disabled, no uri configured", nil)
	}

	core := ws.NewCore(messageRepo, cfg.Rooms.MessageHistoryLimit, logger)

	var publisher service.EventPublisher = events.NopPublisher{}
	var announcer *events.Announcer
	if rabbit != nil {
		publisher = events.NewRoomPublisher(rabbit, logger)
		announcer = events.NewAnnouncer(messageRepo, core, rabbit, logger)
	} else {
		announcer = events.NewAnnouncer(messageRepo, core, nil, logger)
	}

	roomService := service.NewRoomService(roomRepo, participantRepo, messageRepo, txRunner, announcer, publisher, logger)
	core.AttachRooms(roomService)

	tracker := presence.NewTracker(core, logger)
	core.AttachTracker(tracker)

	go core.Run()
	defer core.Stop()

	if rabbit != nil {
		consumer := events.NewRoomConsumer(rabbit, logger)
		if err := consumer.Start(); err != nil {
			logger.Fatalf("failed to start room consumer: %v", err)
		}
	}

	scheduler := service.NewCleanupScheduler(roomService, participantRepo, messageRepo, logger, service.CleanupConfig{
		ExpirySweepInterval:   cfg.Cleanup.ExpirySweepInterval,
		ActivitySweepInterval: cfg.Cleanup.ActivitySweepInterval,
		ShortInactivity:       cfg.Cleanup.ShortInactivity,
		LongInactivity:        cfg.Cleanup.LongInactivity,
		MessageRetention:      cfg.Cleanup.MessageRetention,
	})
	scheduler.Start()
	defer scheduler.Stop()

	cache := ratelimiter.NewInMemoryCache(cfg.RateLimiter.CacheTTL)
	defer cache.Close()
	limiter := ratelimiter.New(cache, cfg.RateLimiter.MaxRatePerSecond, cfg.RateLimiter.MaxBurst, cfg.RateLimiter.SourceHeaderKey)

	app := api.NewApplication(
		cfg,
		logger,
		rooms.NewHandler(roomService, logger),
		health.NewHandler(healthChecks...),
		core,
		limiter,
		scheduler,
	)

	if err := app.Run(ctx); err != nil {
		logger.Fatalf("server stopped with error: %v", err)
	}

	logger.Info(logging.General, logging.Shutdown, "server stopped", nil)
}
