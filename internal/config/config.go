package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Emby server
	EmbyHost   string
	EmbyPort   int
	EmbyUseSSL bool
	EmbyAPIKey string

	// Poll intervals (seconds)
	SessionsPollSeconds    int
	RecordingsPollSeconds  int
	ServerStatsPollSeconds int
	LibraryPollSeconds     int

	// Per-poll timeout (seconds); a poll exceeding it is abandoned
	PollTimeoutSeconds int

	// Entity toggles
	EnableSessionPlayers   bool
	EnableRecordings       bool
	EnableActiveStreams    bool
	EnableMultisession     bool
	EnableBandwidth        bool
	EnableTranscoding      bool
	EnableServerStats      bool
	EnableLibraryStats     bool
	EnableLatestMovies     bool
	EnableLatestEpisodes   bool
	EnableUpcomingEpisodes bool

	// Server
	ServerPort string

	// Paths
	StateFile string // $CONFIG_DIR/embywatch.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("EMBY_PORT", 8096)
	viper.SetDefault("EMBY_USE_SSL", false)
	viper.SetDefault("SESSIONS_POLL_SECONDS", 10)
	viper.SetDefault("RECORDINGS_POLL_SECONDS", 60)
	viper.SetDefault("SERVER_STATS_POLL_SECONDS", 60)
	viper.SetDefault("LIBRARY_POLL_SECONDS", 900)
	viper.SetDefault("POLL_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ENABLE_SESSION_PLAYERS", true)
	viper.SetDefault("ENABLE_RECORDINGS", true)
	viper.SetDefault("ENABLE_ACTIVE_STREAMS", true)
	viper.SetDefault("ENABLE_MULTISESSION", true)
	viper.SetDefault("ENABLE_BANDWIDTH", true)
	viper.SetDefault("ENABLE_TRANSCODING", true)
	viper.SetDefault("ENABLE_SERVER_STATS", true)
	viper.SetDefault("ENABLE_LIBRARY_STATS", true)
	viper.SetDefault("ENABLE_LATEST_MOVIES", true)
	viper.SetDefault("ENABLE_LATEST_EPISODES", true)
	viper.SetDefault("ENABLE_UPCOMING_EPISODES", true)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "embywatch")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		EmbyHost:   viper.GetString("EMBY_HOST"),
		EmbyPort:   viper.GetInt("EMBY_PORT"),
		EmbyUseSSL: viper.GetBool("EMBY_USE_SSL"),
		EmbyAPIKey: viper.GetString("EMBY_API_KEY"),

		SessionsPollSeconds:    viper.GetInt("SESSIONS_POLL_SECONDS"),
		RecordingsPollSeconds:  viper.GetInt("RECORDINGS_POLL_SECONDS"),
		ServerStatsPollSeconds: viper.GetInt("SERVER_STATS_POLL_SECONDS"),
		LibraryPollSeconds:     viper.GetInt("LIBRARY_POLL_SECONDS"),
		PollTimeoutSeconds:     viper.GetInt("POLL_TIMEOUT_SECONDS"),

		EnableSessionPlayers:   viper.GetBool("ENABLE_SESSION_PLAYERS"),
		EnableRecordings:       viper.GetBool("ENABLE_RECORDINGS"),
		EnableActiveStreams:    viper.GetBool("ENABLE_ACTIVE_STREAMS"),
		EnableMultisession:     viper.GetBool("ENABLE_MULTISESSION"),
		EnableBandwidth:        viper.GetBool("ENABLE_BANDWIDTH"),
		EnableTranscoding:      viper.GetBool("ENABLE_TRANSCODING"),
		EnableServerStats:      viper.GetBool("ENABLE_SERVER_STATS"),
		EnableLibraryStats:     viper.GetBool("ENABLE_LIBRARY_STATS"),
		EnableLatestMovies:     viper.GetBool("ENABLE_LATEST_MOVIES"),
		EnableLatestEpisodes:   viper.GetBool("ENABLE_LATEST_EPISODES"),
		EnableUpcomingEpisodes: viper.GetBool("ENABLE_UPCOMING_EPISODES"),

		ServerPort: viper.GetString("SERVER_PORT"),

		StateFile: filepath.Join(configDir, "embywatch.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if config.EmbyHost == "" {
		return nil, fmt.Errorf("EMBY_HOST is required")
	}
	if config.EmbyAPIKey == "" {
		return nil, fmt.Errorf("EMBY_API_KEY is required")
	}

	return config, nil
}

// SessionsEnabled reports whether any session-derived entity is on; the
// session poll only runs when at least one consumer exists.
func (c *Config) SessionsEnabled() bool {
	return c.EnableSessionPlayers || c.EnableActiveStreams || c.EnableMultisession ||
		c.EnableBandwidth || c.EnableTranscoding
}

// LibraryEnabled reports whether any library-derived entity is on
func (c *Config) LibraryEnabled() bool {
	return c.EnableLibraryStats || c.EnableLatestMovies ||
		c.EnableLatestEpisodes || c.EnableUpcomingEpisodes
}
