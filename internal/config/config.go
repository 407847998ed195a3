// ABOUTME: Runtime configuration
// ABOUTME: Defaults, .env and LYRICS_* environment fallbacks, cobra flags and validation
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds settings for the player, the library command and the lyrics server
type Config struct {
	MusicDir  string `validate:"omitempty,dir"`
	LyricsDir string `validate:"required"`

	ServerURL string `validate:"omitempty,url"`
	Discover  bool

	DatabaseURL   string `validate:"required_with=DatabaseToken,omitempty,url"`
	DatabaseToken string

	RedisURL      string `validate:"omitempty,url"`
	RedisPassword string
	CacheTTL      time.Duration `validate:"gte=0"`

	LogFile  string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
	LogJSON  bool
	NoTUI    bool

	SampleRate       int           `validate:"oneof=22050 32000 44100 48000"`
	PositionInterval time.Duration `validate:"min=10ms,max=1s"`
	SeekStep         time.Duration `validate:"gt=0"`

	Listen string `validate:"required"`
	Name   string `validate:"required,max=63"`
	MDNS   bool
}

// Default returns the built-in defaults overridden by .env and the environment
func Default() Config {
	_ = godotenv.Load()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return Config{
		MusicDir:         env("LYRICS_MUSIC_DIR", ""),
		LyricsDir:        env("LYRICS_DIR", "lyrics"),
		ServerURL:        env("LYRICS_SERVER_URL", ""),
		Discover:         envBool("LYRICS_DISCOVER", false),
		DatabaseURL:      env("LYRICS_DATABASE_URL", ""),
		DatabaseToken:    env("LYRICS_DATABASE_TOKEN", ""),
		RedisURL:         env("LYRICS_REDIS_URL", ""),
		RedisPassword:    env("LYRICS_REDIS_PASSWORD", ""),
		CacheTTL:         envDuration("LYRICS_CACHE_TTL", time.Hour),
		LogFile:          env("LYRICS_LOG_FILE", "resonate-lyrics.log"),
		LogLevel:         env("LYRICS_LOG_LEVEL", "info"),
		LogJSON:          envBool("LYRICS_LOG_JSON", false),
		SampleRate:       envInt("LYRICS_SAMPLE_RATE", 44100),
		PositionInterval: envDuration("LYRICS_POSITION_INTERVAL", 50*time.Millisecond),
		SeekStep:         envDuration("LYRICS_SEEK_STEP", 5*time.Second),
		Listen:           env("LYRICS_LISTEN", ":8927"),
		Name:             env("LYRICS_NAME", hostname+"-lyrics"),
		MDNS:             envBool("LYRICS_MDNS", true),
	}
}

// BindStoreFlags registers the lyrics store and logging flags
func BindStoreFlags(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	f.StringVar(&cfg.LyricsDir, "lyrics-dir", cfg.LyricsDir, "Directory for .lrc/.txt lyrics files")
	f.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "libsql database URL (overrides --lyrics-dir)")
	f.StringVar(&cfg.DatabaseToken, "db-token", cfg.DatabaseToken, "libsql auth token")
	f.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for caching lyrics")
	f.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	f.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Lyrics cache lifetime (0 = no expiry)")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	f.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Write JSON log lines")
}

// BindPlayerFlags registers the flags of the player and library commands
func BindPlayerFlags(cmd *cobra.Command, cfg *Config) {
	BindStoreFlags(cmd, cfg)

	f := cmd.Flags()
	f.StringVar(&cfg.MusicDir, "music", cfg.MusicDir, "Music directory to play")
	f.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Lyrics server URL (overrides local stores)")
	f.BoolVar(&cfg.Discover, "discover", cfg.Discover, "Find a lyrics server via mDNS")
	f.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, stream logs instead")
	f.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Audio output sample rate")
	f.DurationVar(&cfg.PositionInterval, "position-interval", cfg.PositionInterval, "Playback position polling interval")
	f.DurationVar(&cfg.SeekStep, "seek-step", cfg.SeekStep, "Seek distance for arrow keys")
}

// BindServerFlags registers the lyrics server flags
func BindServerFlags(cmd *cobra.Command, cfg *Config) {
	BindStoreFlags(cmd, cfg)

	f := cmd.Flags()
	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "Listen address")
	f.StringVar(&cfg.Name, "name", cfg.Name, "Server name for mDNS")
	f.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "Advertise via mDNS")
}

// Validate checks field constraints. requireMusic is set by commands that
// read the music library.
func (c *Config) Validate(requireMusic bool) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %s", formatErrors(err))
	}
	if requireMusic && c.MusicDir == "" {
		return errors.New("invalid configuration: a music directory is required (--music or LYRICS_MUSIC_DIR)")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid configuration: listen address %q: %w", c.Listen, err)
	}
	return nil
}

func formatErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
