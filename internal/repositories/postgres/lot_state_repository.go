package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/jackc/pgx/v5"
)

var lotStateColumns = []string{
	"snapshot_id", "sequence", "recorded_at", "lot_id", "name", "lat", "lon",
	"total_spaces", "available_spaces", "status", "price_per_hour", "distance", "occupancy_rate",
}

type LotStateRepository struct {
	db DBTX
}

func NewLotStateRepository(db DBTX) *LotStateRepository {
	return &LotStateRepository{db: db}
}

func (r *LotStateRepository) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS lot_states (
            snapshot_id      TEXT NOT NULL,
            sequence         BIGINT NOT NULL,
            recorded_at      TIMESTAMPTZ NOT NULL,
            lot_id           TEXT NOT NULL,
            name             TEXT NOT NULL,
            lat              DOUBLE PRECISION,
            lon              DOUBLE PRECISION,
            total_spaces     INTEGER NOT NULL,
            available_spaces INTEGER NOT NULL,
            status           TEXT NOT NULL,
            price_per_hour   DOUBLE PRECISION NOT NULL,
            distance         INTEGER NOT NULL,
            occupancy_rate   DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (snapshot_id, lot_id)
        )
    `
	_, err := r.db.Exec(ctx, query)
	return err
}

func (r *LotStateRepository) BulkCreate(ctx context.Context, states []models.LotStateEvent) error {
	if len(states) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"lot_states"},
		lotStateColumns,
		pgx.CopyFromSlice(len(states), func(i int) ([]any, error) {
			s := states[i]
			return []any{
				s.SnapshotID,
				s.Sequence,
				unixMilli(s.Timestamp),
				s.LotID,
				s.Name,
				s.Lat,
				s.Lon,
				s.TotalSpaces,
				s.AvailableSpaces,
				s.Status,
				s.PricePerHour,
				s.Distance,
				s.OccupancyRate,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy lot states: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *LotStateRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM lot_states").Scan(&count)
	return count, err
}
