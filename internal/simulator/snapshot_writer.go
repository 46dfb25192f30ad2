package simulator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrisdamba/parksim/internal/models"
)

// BatchWriter is implemented by destinations that can store a snapshot's
// lot states in one call.
type BatchWriter interface {
	WriteBatch(topic string, msgs [][]byte) error
}

// SnapshotWriter serializes published snapshots into lot state and
// snapshot summary messages. Its Handle method is a SnapshotHandler.
type SnapshotWriter struct {
	output   OutputDestination
	nearestK int
}

func NewSnapshotWriter(output OutputDestination, nearestK int) *SnapshotWriter {
	return &SnapshotWriter{output: output, nearestK: nearestK}
}

func (w *SnapshotWriter) Handle(snapshot models.FeedSnapshot) error {
	if snapshot.Loading {
		return nil
	}

	states := models.NewLotStateEvents(snapshot)
	msgs := make([][]byte, 0, len(states))
	for _, state := range states {
		msg, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to serialize lot %s: %w", state.LotID, err)
		}
		msgs = append(msgs, msg)
	}

	var errs []error
	if bw, ok := w.output.(BatchWriter); ok {
		if err := bw.WriteBatch(models.TopicLotStates, msgs); err != nil {
			errs = append(errs, err)
		}
	} else {
		for _, msg := range msgs {
			if err := w.output.WriteMessage(models.TopicLotStates, msg); err != nil {
				errs = append(errs, err)
			}
		}
	}

	summary, err := json.Marshal(models.NewSnapshotEvent(snapshot, Nearest(snapshot, w.nearestK)))
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot %d: %w", snapshot.Sequence, err)
	}
	if err := w.output.WriteMessage(models.TopicSnapshots, summary); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (w *SnapshotWriter) Close() error {
	return w.output.Close()
}
