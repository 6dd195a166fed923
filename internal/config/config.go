package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pixil98/go-errors"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Network  NetworkConfig  `toml:"network"`
	Tick     TickConfig     `toml:"tick"`
	World    WorldConfig    `toml:"world"`
	Content  ContentConfig  `toml:"content"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Relay    RelayConfig    `toml:"relay"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress        string        `toml:"bind_address"`
	WSPath             string        `toml:"ws_path"`
	InQueueSize        int           `toml:"in_queue_size"`
	OutQueueSize       int           `toml:"out_queue_size"`
	MaxMessagesPerTick int           `toml:"max_messages_per_tick"`
	ReadTimeout        time.Duration `toml:"read_timeout"`
	WriteTimeout       time.Duration `toml:"write_timeout"`
	HandshakeTimeout   time.Duration `toml:"handshake_timeout"`
	MessagesPerSecond  int           `toml:"messages_per_second"` // 0 = unlimited
	MaxSendFailures    int           `toml:"max_send_failures"`   // consecutive failed sends before the session is dropped
	MaxMessageBytes    int64         `toml:"max_message_bytes"`
}

type TickConfig struct {
	RateHz int `toml:"rate_hz"`
}

// Interval returns the tick period derived from RateHz.
func (c TickConfig) Interval() time.Duration {
	if c.RateHz <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.RateHz)
}

type WorldConfig struct {
	CellSize             float64 `toml:"cell_size"`
	MaxSpeed             float64 `toml:"max_speed"`      // world units per second
	SpeedSlack           float64 `toml:"speed_slack"`    // extra distance tolerated per move
	MaxCoordinate        float64 `toml:"max_coordinate"` // bound on every axis of a position
	MaxEnergy            int     `toml:"max_energy"`
	EnergyRegenPerSecond int     `toml:"energy_regen_per_second"`
	ScriptsDir           string  `toml:"scripts_dir"`
}

type ContentConfig struct {
	Skills  string `toml:"skills"`
	Puzzles string `toml:"puzzles"`
}

// maxCellIndex keeps grid coordinates exactly representable as float64 and
// well inside int64.
const maxCellIndex = 1 << 53

const (
	AuthModeOpen     = "open"
	AuthModeDatabase = "database"
)

type AuthConfig struct {
	Mode               string `toml:"mode"`
	AutoCreateAccounts bool   `toml:"auto_create_accounts"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type RelayConfig struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	Embedded      bool   `toml:"embedded"` // start an in-process NATS server
	EmbeddedPort  int    `toml:"embedded_port"`
	SubjectPrefix string `toml:"subject_prefix"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays TOML data onto the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Tick.RateHz <= 0 {
		el.Add(fmt.Errorf("tick.rate_hz must be positive"))
	}
	if c.World.CellSize <= 0 {
		el.Add(fmt.Errorf("world.cell_size must be positive"))
	}
	if c.World.MaxSpeed <= 0 {
		el.Add(fmt.Errorf("world.max_speed must be positive"))
	}
	if c.World.SpeedSlack < 0 {
		el.Add(fmt.Errorf("world.speed_slack must not be negative"))
	}
	if c.World.MaxCoordinate <= 0 {
		el.Add(fmt.Errorf("world.max_coordinate must be positive"))
	} else if c.World.CellSize > 0 && c.World.MaxCoordinate/c.World.CellSize >= maxCellIndex {
		el.Add(fmt.Errorf("world.max_coordinate / world.cell_size must stay below %g", float64(maxCellIndex)))
	}
	if c.World.MaxEnergy < 0 {
		el.Add(fmt.Errorf("world.max_energy must not be negative"))
	}
	if c.Network.InQueueSize <= 0 || c.Network.OutQueueSize <= 0 {
		el.Add(fmt.Errorf("network queue sizes must be positive"))
	}
	if c.Network.MaxMessagesPerTick <= 0 {
		el.Add(fmt.Errorf("network.max_messages_per_tick must be positive"))
	}
	if c.Network.MaxSendFailures <= 0 {
		el.Add(fmt.Errorf("network.max_send_failures must be positive"))
	}

	switch c.Auth.Mode {
	case AuthModeOpen:
	case AuthModeDatabase:
		if c.Database.DSN == "" {
			el.Add(fmt.Errorf("database.dsn is required when auth.mode is %q", AuthModeDatabase))
		}
	default:
		el.Add(fmt.Errorf("unknown auth.mode %q", c.Auth.Mode))
	}

	if c.Relay.Enabled && c.Relay.URL == "" && !c.Relay.Embedded {
		el.Add(fmt.Errorf("relay requires url or embedded"))
	}

	return el.Err()
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "realmsync",
		},
		Network: NetworkConfig{
			BindAddress:        "0.0.0.0:7300",
			WSPath:             "/ws",
			InQueueSize:        128,
			OutQueueSize:       256,
			MaxMessagesPerTick: 32,
			ReadTimeout:        60 * time.Second,
			WriteTimeout:       10 * time.Second,
			HandshakeTimeout:   10 * time.Second,
			MessagesPerSecond:  120,
			MaxSendFailures:    3,
			MaxMessageBytes:    64 * 1024,
		},
		Tick: TickConfig{
			RateHz: 60,
		},
		World: WorldConfig{
			CellSize:             1000,
			MaxSpeed:             800,
			SpeedSlack:           100,
			MaxCoordinate:        1e9,
			MaxEnergy:            100,
			EnergyRegenPerSecond: 5,
			ScriptsDir:           "scripts",
		},
		Content: ContentConfig{
			Skills:  "data/skills.yaml",
			Puzzles: "data/puzzles.yaml",
		},
		Auth: AuthConfig{
			Mode:               AuthModeOpen,
			AutoCreateAccounts: true,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Relay: RelayConfig{
			SubjectPrefix: "realmsync.events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
