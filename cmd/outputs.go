package cmd

import (
	"fmt"

	"github.com/chrisdamba/parksim/internal/cloudwriter"
	"github.com/chrisdamba/parksim/internal/models"
	"github.com/chrisdamba/parksim/internal/scheduler"
	"github.com/chrisdamba/parksim/internal/simulator"
	"github.com/sirupsen/logrus"
)

// attachOutputs subscribes the configured sink and starts the export
// schedule. The returned func releases both; call it after the simulator
// has stopped.
func attachOutputs(sim *simulator.Simulator, cfg *models.Config) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	out, err := simulator.NewOutputDestination(cfg)
	if err != nil {
		return nil, err
	}
	if out != nil {
		writer := simulator.NewSnapshotWriter(out, cfg.NearestK)
		sub := sim.Subscribe(writer.Handle)
		closers = append(closers, func() {
			sim.Unsubscribe(sub)
			if err := writer.Close(); err != nil {
				logrus.WithError(err).Warn("error closing output")
			}
		})
		logrus.Infof("Writing snapshots to %s output", cfg.OutputDestination)
	}

	if cfg.ExportSchedule != "" {
		exporter, err := newExporter(sim, cfg)
		if err != nil {
			closeAll()
			return nil, err
		}
		if err := exporter.Start(cfg.ExportSchedule); err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, exporter.Stop)
		logrus.Infof("Exporting snapshots on schedule %q", cfg.ExportSchedule)
	}

	return closeAll, nil
}

func newExporter(sim *simulator.Simulator, cfg *models.Config) (*scheduler.Exporter, error) {
	switch cfg.CloudStorage.Provider {
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 writer factory: %w", err)
		}
		factory.ContentType = "application/json"
		return scheduler.NewExporter(sim, factory, cfg.CloudStorage.BucketName, cfg.OutputFolder), nil
	case "":
		factory := cloudwriter.NewLocalWriterFactory(cfg.OutputPath)
		return scheduler.NewExporter(sim, factory, cfg.OutputFolder, "snapshots"), nil
	}
	return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
}
