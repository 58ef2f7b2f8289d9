package service

import (
	"postfeed/internal/config"
	"postfeed/internal/notify"
	"postfeed/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	Post   PostService
	Auth   AuthService
	Health HealthService
}

func NewService(rep *repository.Repository, cfg *config.Config, images ImageStore, publisher notify.Publisher, logger *zap.Logger) *Service {
	return &Service{
		Post:   NewPostService(rep.Post, rep.User, images, publisher, logger),
		Auth:   NewAuthService(rep.User, cfg, logger),
		Health: NewHealthService(rep.Schema),
	}
}
