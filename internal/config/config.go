package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the ambient settings read from the environment. Server
// parameters (address, port, language, output path) live in Params.
type Config struct {
	App     AppConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: .env ignored: %v", err)
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("MINDMAP_ENV", "development"),
			LogFilePath: getEnv("MINDMAP_LOG_FILE", "mindmap.log"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
