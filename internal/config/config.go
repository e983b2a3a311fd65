package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every pipeline setting. Values come from defaults, an
// optional nbastats.yaml in the working directory, and NBASTATS_* env
// vars, in increasing precedence; per-subcommand flags override the lot.
type Config struct {
	DataDir   string `mapstructure:"data_dir"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	StartYear int `mapstructure:"start_year"`
	EndYear   int `mapstructure:"end_year"`

	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
	RedisURL          string        `mapstructure:"redis_url"`
	PageCacheTTL      time.Duration `mapstructure:"page_cache_ttl"`

	PlayerDB   string `mapstructure:"player_db"`
	MinHistory int    `mapstructure:"min_history"`

	PostgresDSN string `mapstructure:"postgres_dsn"`
	HTTPPort    string `mapstructure:"http_port"`

	// NameOverrides maps garbled source spellings to canonical player
	// names, applied before metadata lookup. The default entry covers a
	// known encoding defect in historical pages.
	NameOverrides map[string]string `mapstructure:"name_overrides"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("nbastats")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("data_dir", "data")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("start_year", 1992)
	v.SetDefault("end_year", 2022)
	v.SetDefault("requests_per_second", 0.5)
	v.SetDefault("user_agent", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("page_cache_ttl", 24*time.Hour)
	v.SetDefault("player_db", "data/players.db")
	v.SetDefault("min_history", 20)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("http_port", "8080")
	v.SetDefault("name_overrides", map[string]string{
		"Peja StojakoviÄ": "Peja Stojaković",
	})

	v.SetEnvPrefix("NBASTATS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
