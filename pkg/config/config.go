package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	SQLite  SQLiteConfig
	Results ResultsConfig
	Seed    SeedConfig
	LLM     LLMConfig
	Logging LoggingConfig
}

type AppConfig struct {
	Name    string
	Version string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

// ResultsConfig holds the process-wide result-count caps. MaxResults is the
// normal-mode cap; MaxVoiceResults is the hard ceiling applied whenever the
// caller signals voice mode.
type ResultsConfig struct {
	MaxResults      int
	MaxVoiceResults int
}

// SeedConfig controls the deterministic mock-data seeder that populates the
// record store on first start.
type SeedConfig struct {
	Customers  int
	Tickets    int
	MetricDays int
	Seed       int64
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/data-connector")

	viper.SetEnvPrefix("DATA_CONNECTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "Universal Data Connector")
	viper.SetDefault("app.version", "1.0.0")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/connector.db")

	viper.SetDefault("results.maxResults", 10)
	viper.SetDefault("results.maxVoiceResults", 5)

	viper.SetDefault("seed.customers", 50)
	viper.SetDefault("seed.tickets", 50)
	viper.SetDefault("seed.metricDays", 30)
	viper.SetDefault("seed.seed", 42)

	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
