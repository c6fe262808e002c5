package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/civlobby/internal/api"
	"github.com/mcoot/civlobby/internal/factory"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/realtime"
	"github.com/mcoot/civlobby/internal/services/auth"
	"github.com/mcoot/civlobby/internal/services/rooms"
	mongostorage "github.com/mcoot/civlobby/internal/storage/mongo"
	redisstorage "github.com/mcoot/civlobby/internal/storage/redis"
)

// EnvPrefix prefixes every environment override, e.g. CIVLOBBY_SERVER_PORT
const EnvPrefix = "CIVLOBBY"

// FileEnv names the environment variable holding an optional YAML config path
const FileEnv = "CIVLOBBY_CONFIG"

// Config is the server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Rooms    RoomsConfig    `mapstructure:"rooms"`
	Fanout   FanoutConfig   `mapstructure:"fanout"`
	Sessions SessionsConfig `mapstructure:"sessions"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	RoomTTL      time.Duration `mapstructure:"room_ttl"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RoomsConfig struct {
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
	InviteCodeLength int           `mapstructure:"invite_code_length"`
	BotStrategy      string        `mapstructure:"bot_strategy"`
}

type FanoutConfig struct {
	QueueSize      int           `mapstructure:"queue_size"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
	KeepAlive      time.Duration `mapstructure:"keepalive"`
}

type SessionsConfig struct {
	Duration        time.Duration `mapstructure:"duration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func setDefaults(v *viper.Viper) {
	server := api.DefaultServerConfig()
	v.SetDefault("server.host", server.Host)
	v.SetDefault("server.port", server.Port)
	v.SetDefault("server.read_timeout", server.ReadTimeout)
	v.SetDefault("server.write_timeout", server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", server.ShutdownTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	redis := redisstorage.DefaultConfig()
	mongo := mongostorage.DefaultConfig()
	v.SetDefault("storage.type", factory.StorageTypeMemory)
	v.SetDefault("storage.redis.url", redis.URL)
	v.SetDefault("storage.redis.pool_size", redis.PoolSize)
	v.SetDefault("storage.redis.min_idle_conns", redis.MinIdleConns)
	v.SetDefault("storage.redis.room_ttl", redis.RoomTTL)
	v.SetDefault("storage.redis.max_retries", redis.MaxRetries)
	v.SetDefault("storage.mongo.uri", mongo.URI)
	v.SetDefault("storage.mongo.database", mongo.Database)
	v.SetDefault("storage.mongo.connect_timeout", mongo.ConnectTimeout)

	roomsCfg := rooms.DefaultConfig()
	v.SetDefault("rooms.command_timeout", roomsCfg.CommandTimeout)
	v.SetDefault("rooms.invite_code_length", roomsCfg.InviteCodeLength)
	v.SetDefault("rooms.bot_strategy", model.BotStrategyRandom)

	push := realtime.DefaultServerConfig()
	v.SetDefault("fanout.queue_size", realtime.DefaultFanoutConfig().QueueSize)
	v.SetDefault("fanout.send_buffer_size", push.SendBufferSize)
	v.SetDefault("fanout.keepalive", push.KeepAlive)

	v.SetDefault("sessions.duration", auth.DefaultConfig().SessionDuration)
	v.SetDefault("sessions.cleanup_interval", 10*time.Minute)
}

// Load reads defaults, then the optional YAML file named by CIVLOBBY_CONFIG,
// then CIVLOBBY_* environment variables
func Load() (*Config, error) {
	return load(os.Getenv(FileEnv))
}

func load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short aliases for the common connection strings
	_ = v.BindEnv("storage.redis.url", EnvPrefix+"_STORAGE_REDIS_URL", EnvPrefix+"_REDIS_URL")
	_ = v.BindEnv("storage.mongo.uri", EnvPrefix+"_STORAGE_MONGO_URI", EnvPrefix+"_MONGO_URI")

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.Type {
	case factory.StorageTypeMemory, factory.StorageTypeRedis, factory.StorageTypeMongo:
	default:
		errs = append(errs, fmt.Errorf("storage.type %q must be memory, redis or mongo", c.Storage.Type))
	}
	if !model.ValidBotStrategy(c.Rooms.BotStrategy) {
		errs = append(errs, fmt.Errorf("rooms.bot_strategy %q must be one of %v", c.Rooms.BotStrategy, model.ValidBotStrategies()))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger builds the process logger writing to stdout
func (l LogConfig) NewLogger() *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// APIServer returns the HTTP server settings
func (c *Config) APIServer() api.ServerConfig {
	return api.ServerConfig{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}
}

// Factory returns the application wiring settings
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		AuthConfig: auth.Config{SessionDuration: c.Sessions.Duration},
		RoomsConfig: rooms.Config{
			CommandTimeout:   c.Rooms.CommandTimeout,
			InviteCodeLength: c.Rooms.InviteCodeLength,
		},
		FanoutConfig: realtime.FanoutConfig{QueueSize: c.Fanout.QueueSize},
		PushConfig: realtime.ServerConfig{
			SendBufferSize: c.Fanout.SendBufferSize,
			KeepAlive:      c.Fanout.KeepAlive,
		},
		Logger:      logger,
		StorageType: c.Storage.Type,
		BotStrategy: c.Rooms.BotStrategy,
	}

	switch c.Storage.Type {
	case factory.StorageTypeRedis:
		cfg.RedisConfig = &redisstorage.Config{
			URL:          c.Storage.Redis.URL,
			PoolSize:     c.Storage.Redis.PoolSize,
			MinIdleConns: c.Storage.Redis.MinIdleConns,
			RoomTTL:      c.Storage.Redis.RoomTTL,
			MaxRetries:   c.Storage.Redis.MaxRetries,
		}
	case factory.StorageTypeMongo:
		cfg.MongoConfig = &mongostorage.Config{
			URI:            c.Storage.Mongo.URI,
			Database:       c.Storage.Mongo.Database,
			ConnectTimeout: c.Storage.Mongo.ConnectTimeout,
		}
	}
	return cfg
}
