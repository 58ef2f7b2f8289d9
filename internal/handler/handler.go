package handlers

import (
	"context"

	"postfeed/internal/config"
	"postfeed/internal/service"
	"postfeed/internal/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handlers struct {
	PostService   service.PostService
	AuthService   service.AuthService
	HealthService service.HealthService
	Storage       storage.Storage
	Cfg           *config.Config
	Validate      *validator.Validate
	Logger        *zap.Logger
}

func NewHandlers(services *service.Service, images storage.Storage, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		PostService:   services.Post,
		AuthService:   services.Auth,
		HealthService: services.Health,
		Storage:       images,
		Cfg:           cfg,
		Validate:      validator.New(),
		Logger:        logger,
	}
}

type contextKey string

const actorKey contextKey = "actorID"

// WithActor stores the verified actor id on the request context.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

func ActorFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorKey).(string)
	return actorID, ok && actorID != ""
}
