package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the bot and the dashboard read from the environment.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// StoragePath is the JSON datastore used for per-guild command history.
	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	// HistoryDBPath is the SQLite database holding the play history.
	HistoryDBPath string `env:"HISTORY_DB_PATH" envDefault:"quaver.db"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	DashboardAddr string `env:"DASHBOARD_ADDR" envDefault:":8787"`

	InitSlashCommands bool `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

// New loads configuration from .env (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DashboardConfig is the subset the standalone dashboard binary needs;
// it works without a Discord token.
type DashboardConfig struct {
	HistoryDBPath string `env:"HISTORY_DB_PATH" envDefault:"quaver.db"`
	DashboardAddr string `env:"DASHBOARD_ADDR" envDefault:":8787"`
}

// NewDashboard loads the dashboard configuration.
func NewDashboard() (*DashboardConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg := &DashboardConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SpotifyEnabled reports whether Spotify credentials are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
