// Package config loads settings from an optional YAML file, SENTINEL_*
// environment variables and a few conventional unprefixed variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/core"
	"github.com/baxromumarov/job-sentinel/internal/notify"
	"github.com/baxromumarov/job-sentinel/internal/store"
)

const envPrefix = "SENTINEL"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	AI        AIConfig        `mapstructure:"ai"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port" validate:"min=1,max=65535"`
	WebDir string `mapstructure:"web_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type AIConfig struct {
	Provider          string       `mapstructure:"provider" validate:"omitempty,oneof=gemini mock"`
	APIKey            string       `mapstructure:"api_key"`
	Models            ModelsConfig `mapstructure:"models"`
	RequestsPerMinute int          `mapstructure:"requests_per_minute" validate:"min=1"`
}

type ModelsConfig struct {
	Profile string `mapstructure:"profile" validate:"required"`
	Scout   string `mapstructure:"scout" validate:"required"`
	Critic  string `mapstructure:"critic" validate:"required"`
}

type MonitorConfig struct {
	OrgPause   time.Duration `mapstructure:"org_pause" validate:"gt=0"`
	CycleDelay time.Duration `mapstructure:"cycle_delay" validate:"gt=0"`
}

type StorageConfig struct {
	Backend     string   `mapstructure:"backend" validate:"oneof=file sqlite postgres s3"`
	Key         string   `mapstructure:"key" validate:"required"`
	Path        string   `mapstructure:"path"`
	DatabaseURL string   `mapstructure:"database_url" validate:"required_if=Backend postgres"`
	S3          S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type WatchlistConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

type NotifyConfig struct {
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id" validate:"required_with=Token"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	models := ai.DefaultModels()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.web_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.models.profile", models.Profile)
	v.SetDefault("ai.models.scout", models.Scout)
	v.SetDefault("ai.models.critic", models.Critic)
	v.SetDefault("ai.requests_per_minute", 30)
	v.SetDefault("monitor.org_pause", core.DefaultOrgPause)
	v.SetDefault("monitor.cycle_delay", core.DefaultCycleDelay)
	v.SetDefault("storage.backend", store.BackendFile)
	v.SetDefault("storage.key", core.DefaultStorageKey)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("watchlist.seed_file", "")
	v.SetDefault("notify.amqp.url", "")
	v.SetDefault("notify.amqp.exchange", notify.DefaultExchange)
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and the environment apply.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"ai.api_key":           "GEMINI_API_KEY",
		"storage.database_url": "DATABASE_URL",
		"server.port":          "PORT",
	} {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		slog.Debug("using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Storage.Backend == store.BackendS3 && c.Storage.S3.Bucket == "" {
		return errors.New("invalid configuration: storage.s3.bucket is required for the s3 backend")
	}
	return nil
}

func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c Config) StoreConfig() store.Config {
	return store.Config{
		Backend:     c.Storage.Backend,
		Path:        c.Storage.Path,
		DatabaseURL: c.Storage.DatabaseURL,
		S3: store.S3Config{
			Bucket:    c.Storage.S3.Bucket,
			Prefix:    c.Storage.S3.Prefix,
			Region:    c.Storage.S3.Region,
			Endpoint:  c.Storage.S3.Endpoint,
			AccessKey: c.Storage.S3.AccessKey,
			SecretKey: c.Storage.S3.SecretKey,
		},
	}
}

func (c Config) AIClientConfig() ai.Config {
	return ai.Config{
		Provider: c.AI.Provider,
		APIKey:   c.AI.APIKey,
		Models: ai.Models{
			Profile: c.AI.Models.Profile,
			Scout:   c.AI.Models.Scout,
			Critic:  c.AI.Models.Critic,
		},
		RequestsPerMinute: c.AI.RequestsPerMinute,
	}
}

func (c Config) NotifierConfig() notify.Config {
	return notify.Config{
		AMQP: notify.AMQPConfig{
			URL:      c.Notify.AMQP.URL,
			Exchange: c.Notify.AMQP.Exchange,
		},
		Telegram: notify.TelegramConfig{
			Token:  c.Notify.Telegram.Token,
			ChatID: c.Notify.Telegram.ChatID,
		},
	}
}
