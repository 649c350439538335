package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	DeveloperID           string   `env:"DEVELOPER_ID"`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	SunoAPIKey string `env:"SUNO_API_KEY,required"`
	SunoAPIURL string `env:"SUNO_API_URL" envDefault:"https://api.suno.ai/v1"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	MaxGenerationWait time.Duration `env:"MAX_GENERATION_WAIT" envDefault:"5m"`
	PollBackoffMin    time.Duration `env:"POLL_BACKOFF_MIN" envDefault:"2s"`
	PollBackoffMax    time.Duration `env:"POLL_BACKOFF_MAX" envDefault:"15s"`
	PollRetries       int           `env:"POLL_RETRIES" envDefault:"3"`

	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`
	SearchLimit int           `env:"SEARCH_LIMIT" envDefault:"10"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("[ERR] Failed to parse config: %v", err)
	}
	return cfg
}
