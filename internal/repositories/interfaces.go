package repositories

import (
	"context"

	"github.com/chrisdamba/parksim/internal/models"
)

type LotStateRepository interface {
	EnsureSchema(ctx context.Context) error
	BulkCreate(ctx context.Context, states []models.LotStateEvent) error
	Count(ctx context.Context) (int, error)
}

type SnapshotRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, snapshot models.SnapshotEvent) error
	Count(ctx context.Context) (int, error)
}
