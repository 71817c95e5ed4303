package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0"

// DefaultMirrors are the audio hosts tried in order for every chapter.
var DefaultMirrors = []string{
	"https://files01.tokybook.com/audio/",
	"https://files02.tokybook.com/audio/",
}

type Config struct {
	Mirrors               []string `mapstructure:"mirrors"`
	TracksIdentifier      string   `mapstructure:"tracks_identifier"`
	OutputDir             string   `mapstructure:"output_dir"`
	Extension             string   `mapstructure:"extension"`
	ChunkSize             int      `mapstructure:"chunk_size"`
	ClientTimeout         string   `mapstructure:"client_timeout"` // Go duration string like "10s"
	PageTimeout           string   `mapstructure:"page_timeout"`
	PageRetries           int      `mapstructure:"page_retries"`
	PauseKey              string   `mapstructure:"pause_key"`
	PollInterval          string   `mapstructure:"poll_interval"`
	ProgressInterval      string   `mapstructure:"progress_interval"`
	Order                 string   `mapstructure:"order"` // "reverse" or "forward"
	UserAgent             string   `mapstructure:"user_agent"`
	ProxyConnectionString string   `mapstructure:"proxy_connection_string"`
	LogLevel              string   `mapstructure:"log_level"`
	SentryDSN             string   `mapstructure:"sentry_dsn"`
	Cache                 struct {
		Provider string `mapstructure:"provider"` // "memory" or "redis"
		Size     int    `mapstructure:"size"`
		TTL      string `mapstructure:"ttl"`
		Redis    struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    false,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	SetLogLevel(config.LogLevel)
	globalConfig = config
	logger.Debug().Msg("Configuration loaded successfully")
}

func setDefaults() {
	viper.SetDefault("mirrors", DefaultMirrors)
	viper.SetDefault("tracks_identifier", "tracks")
	viper.SetDefault("output_dir", "MP3")
	viper.SetDefault("extension", ".mp3")
	viper.SetDefault("chunk_size", 1024)
	viper.SetDefault("client_timeout", "10s")
	viper.SetDefault("page_timeout", "30s")
	viper.SetDefault("page_retries", 2)
	viper.SetDefault("pause_key", "p")
	viper.SetDefault("poll_interval", "100ms")
	viper.SetDefault("progress_interval", "500ms")
	viper.SetDefault("order", "reverse")
	viper.SetDefault("user_agent", DefaultUserAgent)
	viper.SetDefault("proxy_connection_string", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("sentry_dsn", "")
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 32)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.redis.address", "")
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.address", "localhost")
	viper.SetDefault("metrics.port", 9090)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if len(config.Mirrors) == 0 {
		config.Mirrors = append([]string(nil), DefaultMirrors...)
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1024
	}

	return &config, nil
}

// SetLogLevel parses level and applies it to the global logger, keeping
// info when the value is empty or invalid.
func SetLogLevel(level string) {
	parsed := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			parsed = l
		} else {
			logger.Warn().Str("invalid_level", level).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(parsed)
	logger = logger.Level(parsed)
}

// ParseDuration parses a Go duration string from the config, logging and
// returning fallback when it is empty or malformed.
func ParseDuration(field, raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn().Err(err).Str("field", field).Str("value", raw).Dur("fallback", fallback).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
