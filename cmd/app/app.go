package app

import (
	"context"

	"postfeed/internal/config"
	"postfeed/internal/database"
	"postfeed/internal/notify"
	"postfeed/internal/repository"
	"postfeed/internal/service"
	"postfeed/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Application struct {
	DB       *database.DB
	Storage  *storage.MinIOClient
	Hub      *notify.Hub
	Relay    *notify.RedisPublisher
	Services *service.Service

	redis  *redis.Client
	logger *zap.Logger
}

// App connects the stores and wires the services. Without a redis address
// events go straight to the local hub.
func App(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Application {
	// connection DB
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to postgres: %s", err.Error())
	}

	// connection MinIO
	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		logger.Sugar().Fatalf("failed to initialize minio: %s", err.Error())
	}

	application := &Application{
		DB:      db,
		Storage: minioClient,
		Hub:     notify.NewHub(logger),
		logger:  logger,
	}

	var publisher notify.Publisher = application.Hub

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Sugar().Fatalf("failed to ping redis: %s", err.Error())
		}
		logger.Sugar().Infof("connected to redis(%s)", cfg.Redis.Addr)

		application.redis = rdb
		application.Relay = notify.NewRedisPublisher(rdb, cfg.Redis.Channel, application.Hub, logger)
		publisher = application.Relay
	}

	// enabling dependencies
	repo := repository.NewRepository(db.DB)
	application.Services = service.NewService(repo, cfg, minioClient, publisher, logger)

	return application
}

func (a *Application) Close() {
	if err := a.Hub.Close(); err != nil {
		a.logger.Sugar().Errorf("failed to close hub: %s", err.Error())
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Sugar().Errorf("failed to close redis: %s", err.Error())
		}
	}

	if err := a.DB.CloseDB(); err != nil {
		a.logger.Sugar().Errorf("failed to close postgres: %s", err.Error())
	}
}
