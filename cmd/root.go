package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/chrisdamba/parksim/internal/simulator"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	ticks   int
)

var rootCmd = &cobra.Command{
	Use:   "parksim",
	Short: "Simulates live occupancy for a set of parking facilities",
	Long: `parksim keeps a synthetic, continuously changing occupancy feed for a set of
parking lots, ranks the nearest lots with free spaces and ships every snapshot
to the configured output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runSimulation(ctx, cfg, ticks)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./parksim.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	flags := rootCmd.PersistentFlags()
	flags.Int("tick-interval-ms", models.DefaultTickIntervalMs, "Milliseconds between occupancy updates")
	flags.Int("warmup-ms", models.DefaultWarmupMs, "Milliseconds before the first snapshot is published")
	flags.Int("perturbation-min", models.DefaultPerturbationMin, "Lowest per-tick change in available spaces")
	flags.Int("perturbation-max", models.DefaultPerturbationMax, "Highest per-tick change in available spaces")
	flags.Float64("limited-threshold-ratio", models.DefaultLimitedThresholdRatio, "Free share below which a lot is limited")
	flags.Int("distance-scale", models.DefaultDistanceScale, "Multiplier applied to grid distances")
	flags.Int("nearest-k", models.DefaultNearestK, "Number of lots in the nearest view")
	flags.Int64("seed", models.DefaultSeed, "Random seed for simulation")
	flags.String("seed-file", "", "YAML file with the lot catalog")
	flags.Int("extra-lots", 0, "Number of generated lots added to the catalog")
	flags.String("output-destination", models.OutputNone, "Output: none, console, json, csv, parquet, kafka, postgres")
	flags.String("output-path", ".", "Base path for file outputs")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.String("export-schedule", "", "Cron spec for periodic snapshot export, e.g. @every 1m")

	rootCmd.Flags().IntVar(&ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")

	bindFlags(flags)
}

// bindFlags maps kebab-case flags onto the snake_case config keys.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		cobra.CheckErr(viper.BindPFlag(key, f))
	})
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
	}
}

func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logrus.Infof("Using config file: %s", used)
	}
	return cfg, nil
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// runSimulation runs until ctx is cancelled or, with maxTicks > 0, until
// that many ticks have been published after warmup.
func runSimulation(ctx context.Context, cfg *models.Config, maxTicks int) error {
	sim, err := simulator.NewSimulator(cfg)
	if err != nil {
		return err
	}

	closeOutputs, err := attachOutputs(sim, cfg)
	if err != nil {
		return err
	}
	defer closeOutputs()

	finished := make(chan struct{})
	if maxTicks > 0 {
		bar := progressbar.Default(int64(maxTicks), "simulating")
		target := uint64(maxTicks) + 1 // sequence 1 is the warmup snapshot
		sim.Subscribe(func(s models.FeedSnapshot) error {
			if s.Sequence > 1 {
				_ = bar.Add(1)
			}
			if s.Sequence == target {
				close(finished)
			}
			return nil
		})
	}

	if err := sim.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-finished:
	case <-sim.Done():
	}
	sim.Stop()

	for _, lot := range sim.Nearest(0) {
		logrus.WithFields(logrus.Fields{
			"id":        lot.ID,
			"distance":  lot.Distance,
			"available": lot.AvailableSpaces,
			"status":    lot.Status,
		}).Infof("nearest: %s", lot.Name)
	}
	logrus.Infof("Simulation stopped at snapshot %d", sim.Read().Sequence)
	return sim.Err()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
