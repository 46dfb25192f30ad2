package models

import (
	"strings"
)

const (
	TopicLotStates = "lot_state_events"
	TopicSnapshots = "snapshot_events"
)

// LotStateEvent is one lot's state within a published snapshot.
type LotStateEvent struct {
	Timestamp       int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	SnapshotID      string  `json:"snapshotId" parquet:"name=snapshotId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Sequence        int64   `json:"sequence" parquet:"name=sequence,type=INT64"`
	LotID           string  `json:"lotId" parquet:"name=lotId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Name            string  `json:"name" parquet:"name=name,type=BYTE_ARRAY,convertedtype=UTF8"`
	Lat             float64 `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon             float64 `json:"lon" parquet:"name=lon,type=DOUBLE"`
	TotalSpaces     int32   `json:"totalSpaces" parquet:"name=totalSpaces,type=INT32"`
	AvailableSpaces int32   `json:"availableSpaces" parquet:"name=availableSpaces,type=INT32"`
	Status          string  `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	PricePerHour    float64 `json:"pricePerHour" parquet:"name=pricePerHour,type=DOUBLE"`
	Distance        int32   `json:"distance" parquet:"name=distance,type=INT32"`
	OccupancyRate   float64 `json:"occupancyRate" parquet:"name=occupancyRate,type=DOUBLE"`
}

// SnapshotEvent summarizes a published snapshot.
type SnapshotEvent struct {
	Timestamp       int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	SnapshotID      string `json:"snapshotId" parquet:"name=snapshotId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Sequence        int64  `json:"sequence" parquet:"name=sequence,type=INT64"`
	TotalLots       int32  `json:"totalLots" parquet:"name=totalLots,type=INT32"`
	AvailableLots   int32  `json:"availableLots" parquet:"name=availableLots,type=INT32"`
	LimitedLots     int32  `json:"limitedLots" parquet:"name=limitedLots,type=INT32"`
	FullLots        int32  `json:"fullLots" parquet:"name=fullLots,type=INT32"`
	TotalSpaces     int64  `json:"totalSpaces" parquet:"name=totalSpaces,type=INT64"`
	AvailableSpaces int64  `json:"availableSpaces" parquet:"name=availableSpaces,type=INT64"`
	NearestLotIDs   string `json:"nearestLotIds" parquet:"name=nearestLotIds,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func NewLotStateEvents(snapshot FeedSnapshot) []LotStateEvent {
	ts := snapshot.Timestamp.UnixMilli()
	events := make([]LotStateEvent, 0, len(snapshot.Lots))
	for _, lot := range snapshot.Lots {
		events = append(events, LotStateEvent{
			Timestamp:       ts,
			SnapshotID:      snapshot.ID,
			Sequence:        int64(snapshot.Sequence),
			LotID:           lot.ID,
			Name:            lot.Name,
			Lat:             lot.Location.Lat,
			Lon:             lot.Location.Lon,
			TotalSpaces:     int32(lot.TotalSpaces),
			AvailableSpaces: int32(lot.AvailableSpaces),
			Status:          lot.Status.String(),
			PricePerHour:    lot.PricePerHour,
			Distance:        int32(lot.Distance),
			OccupancyRate:   lot.OccupancyRate(),
		})
	}
	return events
}

// NewSnapshotEvent builds the summary row. nearest is the ranked view at
// publish time.
func NewSnapshotEvent(snapshot FeedSnapshot, nearest []ParkingLot) SnapshotEvent {
	event := SnapshotEvent{
		Timestamp:  snapshot.Timestamp.UnixMilli(),
		SnapshotID: snapshot.ID,
		Sequence:   int64(snapshot.Sequence),
		TotalLots:  int32(len(snapshot.Lots)),
	}
	for _, lot := range snapshot.Lots {
		switch lot.Status {
		case StatusAvailable:
			event.AvailableLots++
		case StatusLimited:
			event.LimitedLots++
		case StatusFull:
			event.FullLots++
		}
		event.TotalSpaces += int64(lot.TotalSpaces)
		event.AvailableSpaces += int64(lot.AvailableSpaces)
	}

	ids := make([]string, len(nearest))
	for i, lot := range nearest {
		ids[i] = lot.ID
	}
	event.NearestLotIDs = strings.Join(ids, ",")
	return event
}
