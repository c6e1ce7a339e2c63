// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfigurationMissing is returned when a required setting is absent.
var ErrConfigurationMissing = errors.New("configuration missing")

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`
	DeveloperID   string `env:"DEVELOPER_ID"`

	SoundsDir   string `env:"SOUNDS_DIR" envDefault:"sounds"`
	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	TransientRoomTTL    time.Duration `env:"TRANSIENT_ROOM_TTL" envDefault:"30s"`
	VoiceConnectTimeout time.Duration `env:"VOICE_CONNECT_TIMEOUT" envDefault:"30s"`
	ReplyTTL            time.Duration `env:"REPLY_TTL" envDefault:"10s"`

	CommandRate  float64 `env:"COMMAND_RATE" envDefault:"0.5"`
	CommandBurst int     `env:"COMMAND_BURST" envDefault:"3"`

	StatusAddr string `env:"STATUS_ADDR"`

	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("%w: DISCORD_TOKEN is not set", ErrConfigurationMissing)
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}

	return &cfg, nil
}
