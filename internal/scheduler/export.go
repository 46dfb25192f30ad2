package scheduler

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chrisdamba/parksim/internal/cloudwriter"
	"github.com/chrisdamba/parksim/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SnapshotSource is anything that can hand out the latest snapshot.
type SnapshotSource interface {
	Read() models.FeedSnapshot
}

// Exporter periodically writes the latest snapshot as a JSON object. Runs
// that would overlap a slow upload are skipped.
type Exporter struct {
	source  SnapshotSource
	factory cloudwriter.CloudWriterFactory
	bucket  string
	prefix  string

	mu           sync.Mutex
	lastSequence uint64
	cron         *cron.Cron
}

func NewExporter(source SnapshotSource, factory cloudwriter.CloudWriterFactory, bucket, prefix string) *Exporter {
	return &Exporter{
		source:  source,
		factory: factory,
		bucket:  bucket,
		prefix:  prefix,
	}
}

// ObjectPath is where the snapshot with the given sequence is written.
func (e *Exporter) ObjectPath(sequence uint64) string {
	return fmt.Sprintf("%s/snapshot-%010d.json", e.prefix, sequence)
}

// Export writes the current snapshot unless it is still loading or was
// already exported. It reports whether an object was written.
func (e *Exporter) Export() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.source.Read()
	if snapshot.Loading || snapshot.Sequence == e.lastSequence {
		return false, nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	w, err := e.factory.NewWriter(e.bucket, e.ObjectPath(snapshot.Sequence))
	if err != nil {
		return false, fmt.Errorf("failed to create writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return false, err
	}
	if err := w.Close(); err != nil {
		return false, err
	}

	e.lastSequence = snapshot.Sequence
	return true, nil
}

// Start schedules Export using a standard cron spec or descriptor such as
// "@every 1m".
func (e *Exporter) Start(spec string) error {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		written, err := e.Export()
		if err != nil {
			logrus.WithError(err).Warn("snapshot export failed")
			return
		}
		if written {
			logrus.Debug("snapshot exported")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}

	e.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running export to finish.
func (e *Exporter) Stop() {
	if e.cron == nil {
		return
	}
	<-e.cron.Stop().Done()
}
