package models

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultTickIntervalMs        = 5000
	DefaultWarmupMs              = 1000
	DefaultPerturbationMin       = -2
	DefaultPerturbationMax       = 2
	DefaultLimitedThresholdRatio = 0.3
	DefaultObserverTop           = 40
	DefaultObserverLeft          = 50
	DefaultDistanceScale         = 13
	DefaultNearestK              = 3
	DefaultSeed                  = 42
)

const (
	OutputNone     = "none"
	OutputConsole  = "console"
	OutputJSON     = "json"
	OutputCSV      = "csv"
	OutputParquet  = "parquet"
	OutputKafka    = "kafka"
	OutputPostgres = "postgres"
)

// RandomSource draws the per-tick perturbations. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	TickIntervalMs        int          `mapstructure:"tick_interval_ms"`
	WarmupMs              int          `mapstructure:"warmup_ms"`
	PerturbationMin       int          `mapstructure:"perturbation_min"`
	PerturbationMax       int          `mapstructure:"perturbation_max"`
	LimitedThresholdRatio float64      `mapstructure:"limited_threshold_ratio"`
	Observer              GridPosition `mapstructure:"observer"`
	DistanceScale         int          `mapstructure:"distance_scale"`
	NearestK              int          `mapstructure:"nearest_k"`
	Seed                  int64        `mapstructure:"seed"`

	// RandomSource overrides the seeded default. It is never decoded from
	// configuration files.
	RandomSource RandomSource `mapstructure:"-"`

	// seed data
	Lots      []LotSeed `mapstructure:"lots"`
	SeedFile  string    `mapstructure:"seed_file"`
	ExtraLots int       `mapstructure:"extra_lots"`

	OutputDestination string             `mapstructure:"output_destination"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix  string             `mapstructure:"kafka_topic_prefix"`
	SessionTimeoutMs  int                `mapstructure:"session_timeout_ms"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	Database          DatabaseConfig     `mapstructure:"database"`
	ExportSchedule    string             `mapstructure:"export_schedule"`

	HTTPAddr string `mapstructure:"http_addr"`
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns a config populated with every default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields. Zero values count as unset: a perturbation
// range of [0, 0], an observer at (0, 0) and a distance scale of 0 all fall
// back to the defaults.
func (cfg *Config) SetDefaults() {
	if cfg.TickIntervalMs == 0 {
		cfg.TickIntervalMs = DefaultTickIntervalMs
	}
	if cfg.WarmupMs == 0 {
		cfg.WarmupMs = DefaultWarmupMs
	}
	if cfg.PerturbationMin == 0 && cfg.PerturbationMax == 0 {
		cfg.PerturbationMin = DefaultPerturbationMin
		cfg.PerturbationMax = DefaultPerturbationMax
	}
	if cfg.LimitedThresholdRatio == 0 {
		cfg.LimitedThresholdRatio = DefaultLimitedThresholdRatio
	}
	if cfg.Observer == (GridPosition{}) {
		cfg.Observer = GridPosition{Top: DefaultObserverTop, Left: DefaultObserverLeft}
	}
	if cfg.DistanceScale == 0 {
		cfg.DistanceScale = DefaultDistanceScale
	}
	if cfg.NearestK == 0 {
		cfg.NearestK = DefaultNearestK
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.OutputDestination == "" {
		cfg.OutputDestination = OutputNone
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "."
	}
	if cfg.OutputFolder == "" {
		cfg.OutputFolder = "output"
	}
	if cfg.KafkaTopicPrefix == "" {
		cfg.KafkaTopicPrefix = "parking"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks engine parameters. Seed lots are validated by the
// registry when it is built.
func (cfg *Config) Validate() error {
	switch {
	case cfg.TickIntervalMs <= 0:
		return &InvalidConfigError{Field: "tick_interval_ms", Reason: "must be positive"}
	case cfg.WarmupMs <= 0:
		return &InvalidConfigError{Field: "warmup_ms", Reason: "must be positive"}
	case cfg.PerturbationMin > cfg.PerturbationMax:
		return &InvalidConfigError{Field: "perturbation_min", Reason: "must not exceed perturbation_max"}
	case cfg.LimitedThresholdRatio <= 0 || cfg.LimitedThresholdRatio >= 1:
		return &InvalidConfigError{Field: "limited_threshold_ratio", Reason: "must be within (0, 1)"}
	case cfg.DistanceScale < 0:
		return &InvalidConfigError{Field: "distance_scale", Reason: "must not be negative"}
	case cfg.NearestK <= 0:
		return &InvalidConfigError{Field: "nearest_k", Reason: "must be positive"}
	case cfg.ExtraLots < 0:
		return &InvalidConfigError{Field: "extra_lots", Reason: "must not be negative"}
	}

	switch cfg.OutputDestination {
	case OutputNone, OutputConsole, OutputJSON, OutputCSV, OutputParquet:
	case OutputKafka:
		if cfg.KafkaBrokerList == "" {
			return &InvalidConfigError{Field: "kafka_broker_list", Reason: "is required for kafka output"}
		}
	case OutputPostgres:
		if cfg.Database.URL == "" {
			return &InvalidConfigError{Field: "database.url", Reason: "is required for postgres output"}
		}
	default:
		return &InvalidConfigError{Field: "output_destination", Reason: fmt.Sprintf("unknown destination %q", cfg.OutputDestination)}
	}
	return nil
}

// LoadConfig initializes and reads the configuration using Viper. An empty
// cfgFile falls back to ./parksim.yaml when present; env vars prefixed with
// PARKSIM_ override file values.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("parksim")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("parksim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			dc.DecodeHook,
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	config.SetDefaults()
	return &config, nil
}
