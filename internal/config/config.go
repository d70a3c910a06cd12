package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	Photometry PhotometryConfig `yaml:"photometry" mapstructure:"photometry"`
	Sweep      SweepConfig      `yaml:"sweep" mapstructure:"sweep"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the results database and scene cache.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RenderConfig holds image-synthesis service settings.
type RenderConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PhotometryConfig holds detection-pipeline service settings.
type PhotometryConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// SweepConfig configures sweep execution. MaxMatchDistance is the positional
// tolerance for pairing a detection with a ground-truth star; it has no
// default and must be set in the config file, environment or sweep file.
type SweepConfig struct {
	Workers          int     `yaml:"workers" mapstructure:"workers"`
	MaxMatchDistance float64 `yaml:"max_match_distance" mapstructure:"max_match_distance"`
	SceneCacheHours  int     `yaml:"scene_cache_hours" mapstructure:"scene_cache_hours"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASTROBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "astrobench.db")
	v.SetDefault("render.base_url", "http://localhost:8091")
	v.SetDefault("render.rps", 2.0)
	v.SetDefault("photometry.base_url", "http://localhost:8092")
	v.SetDefault("photometry.rps", 4.0)
	v.SetDefault("sweep.workers", 4)
	v.SetDefault("sweep.scene_cache_hours", 168)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
