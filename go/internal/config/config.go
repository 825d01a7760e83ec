// Package config assembles the server configuration from an optional YAML
// file, an optional .env file and DRAFTROOM_* environment variables, in that
// order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DRAFTROOM"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Draft   DraftConfig   `yaml:"draft"`
	Gateway GatewayConfig `yaml:"gateway"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	NATS    NATSConfig    `yaml:"nats"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

type DraftConfig struct {
	MinParticipants   int           `yaml:"min_participants" split_words:"true"`
	RobotPickDelay    time.Duration `yaml:"robot_pick_delay" split_words:"true"`
	TimerTickInterval time.Duration `yaml:"timer_tick_interval" split_words:"true"`
	InboxSize         int           `yaml:"inbox_size" split_words:"true"`
	SweepInterval     time.Duration `yaml:"sweep_interval" split_words:"true"`
	CallTimeout       time.Duration `yaml:"call_timeout" split_words:"true"`
	// AutoPick names the strategy used on timeouts and robot turns.
	AutoPick   string `yaml:"auto_pick" split_words:"true"`
	RandomSeed int64  `yaml:"random_seed" split_words:"true"`
	// Sport picks a builtin team catalog; CatalogFile overrides it.
	Sport       string `yaml:"sport"`
	CatalogFile string `yaml:"catalog_file" split_words:"true"`
}

type GatewayConfig struct {
	WriteTimeout      time.Duration `yaml:"write_timeout" split_words:"true"`
	ReadTimeout       time.Duration `yaml:"read_timeout" split_words:"true"`
	PingInterval      time.Duration `yaml:"ping_interval" split_words:"true"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" split_words:"true"`
	MaxMissedPongs    int           `yaml:"max_missed_pongs" split_words:"true"`
	SendBufferSize    int           `yaml:"send_buffer_size" split_words:"true"`
	PickRate          float64       `yaml:"pick_rate" split_words:"true"`
	PickBurst         int           `yaml:"pick_burst" split_words:"true"`
}

// StorageConfig selects where leagues, teams and drafts live.
type StorageConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver"`
	// DSN overrides the DB_* settings when set.
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type EventsConfig struct {
	BufferSize int           `yaml:"buffer_size" split_words:"true"`
	MaxRetries int           `yaml:"max_retries" split_words:"true"`
	RetryDelay time.Duration `yaml:"retry_delay" split_words:"true"`
}

type NATSConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	StreamName    string        `yaml:"stream_name" split_words:"true"`
	SubjectPrefix string        `yaml:"subject_prefix" split_words:"true"`
	MaxAge        time.Duration `yaml:"max_age" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Draft: DraftConfig{
			MinParticipants:   2,
			RobotPickDelay:    3 * time.Second,
			TimerTickInterval: time.Second,
			InboxSize:         64,
			SweepInterval:     time.Minute,
			CallTimeout:       2 * time.Second,
			AutoPick:          orchestrator.StrategyBestRanked,
			Sport:             "nfl",
		},
		Gateway: GatewayConfig{
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       60 * time.Second,
			PingInterval:      30 * time.Second,
			HeartbeatInterval: 15 * time.Second,
			MaxMissedPongs:    3,
			SendBufferSize:    256,
			PickRate:          5,
			PickBurst:         5,
		},
		Storage: StorageConfig{
			Driver:  "memory",
			Migrate: true,
		},
		Events: EventsConfig{
			BufferSize: 1024,
			MaxRetries: 3,
			RetryDelay: 100 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			StreamName:    "DRAFT_EVENTS",
			SubjectPrefix: "draft.events",
			MaxAge:        7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load builds the configuration. path may be empty; envFiles that do not
// exist are skipped.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is required")
	case c.Draft.MinParticipants < 1:
		return fmt.Errorf("draft.min_participants must be positive, got %d", c.Draft.MinParticipants)
	case c.Draft.RobotPickDelay <= 0:
		return fmt.Errorf("draft.robot_pick_delay must be positive, got %s", c.Draft.RobotPickDelay)
	case c.Draft.TimerTickInterval < 0:
		return fmt.Errorf("draft.timer_tick_interval cannot be negative, got %s", c.Draft.TimerTickInterval)
	case c.Draft.Sport == "" && c.Draft.CatalogFile == "":
		return errors.New("draft.sport or draft.catalog_file is required")
	case c.Gateway.MaxMissedPongs < 1:
		return fmt.Errorf("gateway.max_missed_pongs must be positive, got %d", c.Gateway.MaxMissedPongs)
	case c.Gateway.PickRate <= 0 || c.Gateway.PickBurst < 1:
		return errors.New("gateway.pick_rate and gateway.pick_burst must be positive")
	case c.Storage.Driver != "memory" && c.Storage.Driver != "postgres":
		return fmt.Errorf("storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	case c.NATS.Enabled && c.NATS.URL == "":
		return errors.New("nats.url is required when nats is enabled")
	}
	if _, err := orchestrator.StrategyByName(c.Draft.AutoPick, c.Draft.RandomSeed); err != nil {
		return fmt.Errorf("draft.auto_pick: %w", err)
	}
	return nil
}

// PostgresDSN returns Storage.DSN or, when empty, the DSN built from DB_*.
func (c Config) PostgresDSN() (string, error) {
	if c.Storage.DSN != "" {
		return c.Storage.DSN, nil
	}
	db, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		return "", err
	}
	return db.DSN(), nil
}
