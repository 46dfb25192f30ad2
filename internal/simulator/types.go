package simulator

import (
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/parksim/internal/models"
)

// rowPrototype returns a pointer to the row type written for topic; the
// parquet writer derives its schema from the struct tags.
func rowPrototype(topic string) (interface{}, error) {
	switch topic {
	case models.TopicLotStates:
		return new(models.LotStateEvent), nil
	case models.TopicSnapshots:
		return new(models.SnapshotEvent), nil
	}
	return nil, fmt.Errorf("unknown topic: %s", topic)
}

// decodeRow turns a serialized message back into the typed row for topic.
func decodeRow(topic string, msg []byte) (interface{}, error) {
	switch topic {
	case models.TopicLotStates:
		var row models.LotStateEvent
		if err := json.Unmarshal(msg, &row); err != nil {
			return nil, err
		}
		return row, nil
	case models.TopicSnapshots:
		var row models.SnapshotEvent
		if err := json.Unmarshal(msg, &row); err != nil {
			return nil, err
		}
		return row, nil
	}
	return nil, fmt.Errorf("unknown topic: %s", topic)
}

func rowTimestamp(msg []byte) (int64, error) {
	var base struct {
		Timestamp *int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		return 0, err
	}
	if base.Timestamp == nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return *base.Timestamp, nil
}
