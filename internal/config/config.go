package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Language string       `yaml:"language" mapstructure:"language"`
	Engine   EngineConfig `yaml:"engine" mapstructure:"engine"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
	Batch    BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig    `yaml:"log" mapstructure:"log"`
}

// EngineConfig selects and configures the OCR engine backend.
type EngineConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Tesseract TesseractConfig `yaml:"tesseract" mapstructure:"tesseract"`
	Remote    RemoteConfig    `yaml:"remote" mapstructure:"remote"`
}

// TesseractConfig configures the local Tesseract backend.
type TesseractConfig struct {
	TessdataPrefix string `yaml:"tessdata_prefix" mapstructure:"tessdata_prefix"`
	PageSegMode    int    `yaml:"page_seg_mode" mapstructure:"page_seg_mode"`
}

// RemoteConfig configures the HTTP backend that talks to another docr server.
type RemoteConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst          int      `yaml:"burst" mapstructure:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	APIKey         string   `yaml:"api_key" mapstructure:"api_key"`
}

// BatchConfig configures multi-file recognition.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("docr")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("language", "en")
	v.SetDefault("engine.provider", "tesseract")
	v.SetDefault("engine.tesseract.tessdata_prefix", "")
	v.SetDefault("engine.tesseract.page_seg_mode", 3)
	v.SetDefault("engine.remote.base_url", "")
	v.SetDefault("engine.remote.api_key", "")
	v.SetDefault("engine.remote.timeout_secs", 60)
	v.SetDefault("engine.remote.max_attempts", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.api_key", "")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Engine.Provider {
	case "tesseract", "":
	case "remote":
		if c.Engine.Remote.BaseURL == "" {
			problems = append(problems, "engine.remote.base_url is required for the remote provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("engine.provider %q is not supported", c.Engine.Provider))
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must not be negative")
		}
		if c.Server.MaxUploadMB <= 0 {
			problems = append(problems, "server.max_upload_mb must be positive")
		}
	case "batch":
		if c.Batch.Concurrency <= 0 {
			problems = append(problems, "batch.concurrency must be positive")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
