package postgres

import (
	"context"
	"time"

	"github.com/chrisdamba/parksim/internal/models"
)

type SnapshotRepository struct {
	db DBTX
}

func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS feed_snapshots (
            snapshot_id      TEXT PRIMARY KEY,
            sequence         BIGINT NOT NULL,
            published_at     TIMESTAMPTZ NOT NULL,
            total_lots       INTEGER NOT NULL,
            available_lots   INTEGER NOT NULL,
            limited_lots     INTEGER NOT NULL,
            full_lots        INTEGER NOT NULL,
            total_spaces     BIGINT NOT NULL,
            available_spaces BIGINT NOT NULL,
            nearest_lot_ids  TEXT[] NOT NULL
        )
    `
	_, err := r.db.Exec(ctx, query)
	return err
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot models.SnapshotEvent) error {
	query := `
        INSERT INTO feed_snapshots (
            snapshot_id, sequence, published_at, total_lots, available_lots,
            limited_lots, full_lots, total_spaces, available_spaces, nearest_lot_ids
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, string_to_array($10, ','))
        ON CONFLICT (snapshot_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query,
		snapshot.SnapshotID,
		snapshot.Sequence,
		unixMilli(snapshot.Timestamp),
		snapshot.TotalLots,
		snapshot.AvailableLots,
		snapshot.LimitedLots,
		snapshot.FullLots,
		snapshot.TotalSpaces,
		snapshot.AvailableSpaces,
		snapshot.NearestLotIDs,
	)
	return err
}

func (r *SnapshotRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM feed_snapshots").Scan(&count)
	return count, err
}

func unixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
