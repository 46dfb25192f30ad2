package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/chrisdamba/parksim/internal/repositories"
	"github.com/chrisdamba/parksim/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

// PostgresOutput records every published snapshot for downstream analysis.
// Nothing is read back by the simulator.
type PostgresOutput struct {
	pool      *pgxpool.Pool
	lotStates repositories.LotStateRepository
	snapshots repositories.SnapshotRepository
}

func NewPostgresOutput(ctx context.Context, config *models.DatabaseConfig) (*PostgresOutput, error) {
	pool, err := pgxpool.New(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	p := NewPostgresOutputFromRepositories(
		postgres.NewLotStateRepository(pool),
		postgres.NewSnapshotRepository(pool),
	)
	p.pool = pool

	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func NewPostgresOutputFromRepositories(lotStates repositories.LotStateRepository, snapshots repositories.SnapshotRepository) *PostgresOutput {
	return &PostgresOutput{lotStates: lotStates, snapshots: snapshots}
}

func (p *PostgresOutput) EnsureSchema(ctx context.Context) error {
	if err := p.lotStates.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create lot_states table: %w", err)
	}
	if err := p.snapshots.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create feed_snapshots table: %w", err)
	}
	return nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch topic {
	case models.TopicLotStates:
		var state models.LotStateEvent
		if err := json.Unmarshal(msg, &state); err != nil {
			return err
		}
		if err := p.lotStates.BulkCreate(ctx, []models.LotStateEvent{state}); err != nil {
			return fmt.Errorf("failed to insert into lot_states: %w", err)
		}
	case models.TopicSnapshots:
		var snapshot models.SnapshotEvent
		if err := json.Unmarshal(msg, &snapshot); err != nil {
			return err
		}
		if err := p.snapshots.Create(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to insert into feed_snapshots: %w", err)
		}
	default:
		return fmt.Errorf("unknown topic: %s", topic)
	}
	return nil
}

// WriteBatch inserts all lot states of one snapshot in a single copy.
func (p *PostgresOutput) WriteBatch(topic string, msgs [][]byte) error {
	if topic != models.TopicLotStates {
		for _, msg := range msgs {
			if err := p.WriteMessage(topic, msg); err != nil {
				return err
			}
		}
		return nil
	}

	states := make([]models.LotStateEvent, 0, len(msgs))
	for _, msg := range msgs {
		var state models.LotStateEvent
		if err := json.Unmarshal(msg, &state); err != nil {
			return err
		}
		states = append(states, state)
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.lotStates.BulkCreate(ctx, states); err != nil {
		return fmt.Errorf("failed to insert into lot_states: %w", err)
	}
	return nil
}

// Close logs how many rows the tables hold and releases the pool.
func (p *PostgresOutput) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	states, err := p.lotStates.Count(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to count lot_states")
	}
	snapshots, err := p.snapshots.Count(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to count feed_snapshots")
	}
	logrus.WithFields(logrus.Fields{
		"lot_states":     states,
		"feed_snapshots": snapshots,
	}).Info("postgres output closed")

	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
