// /internal/config/config.go
package config

import (
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

type Config struct {
	FeedURL      string   `env:"FEED_URL"`
	FeedToken    string   `env:"FEED_TOKEN"`
	StoragePath  string   `env:"STORAGE_PATH" envDefault:"datastore.json"`
	Prefixes     []string `env:"COMMAND_PREFIXES" envSeparator:"," envDefault:"!"`
	ScheduleFile string   `env:"SCHEDULE_FILE" envDefault:"schedule.yaml"`
	BotLogin     string   `env:"BOT_LOGIN"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	if cfg.FeedURL == "" {
		log.Fatal("FEED_URL is not set")
	}

	return cfg
}
