package service

import (
	"context"

	"postfeed/internal/repository"
)

type HealthService interface {
	CountTables(ctx context.Context) (int, error)
}

type healthService struct {
	schemaRepo repository.SchemaRepository
}

func NewHealthService(schemaRepo repository.SchemaRepository) HealthService {
	return &healthService{schemaRepo: schemaRepo}
}

func (h *healthService) CountTables(ctx context.Context) (int, error) {
	count, err := h.schemaRepo.CountTables(ctx)
	if err != nil {
		return 0, storageError("database is unavailable", err)
	}

	return count, nil
}
