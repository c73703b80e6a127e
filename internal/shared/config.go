package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Resolver    ResolverConfig    `toml:"resolver"`
	Credentials CredentialsConfig `toml:"credentials"`
	Journal     JournalConfig     `toml:"journal"`
}

// ResolverConfig contains cover resolution settings.
type ResolverConfig struct {
	CoversDir    string  `toml:"covers_dir"`
	Placeholder  string  `toml:"placeholder"`
	DelaySeconds float64 `toml:"delay_seconds"`
}

// Delay returns the pause between outbound provider calls as a [time.Duration].
func (r ResolverConfig) Delay() time.Duration {
	return time.Duration(r.DelaySeconds * float64(time.Second))
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	LastFM  LastFMConfig  `toml:"lastfm"`
	Discogs DiscogsConfig `toml:"discogs"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// LastFMConfig contains the Last.fm API key.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// DiscogsConfig contains the Discogs personal access token.
type DiscogsConfig struct {
	Token string `toml:"token"`
}

// JournalConfig contains resolution journal database settings.
type JournalConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays provider credentials from the process environment.
// Environment variables win over file values, so secrets can stay out of
// config.toml entirely.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Credentials.LastFM.APIKey = v
	}
	if v := os.Getenv("DISCOGS_API_TOKEN"); v != "" {
		c.Credentials.Discogs.Token = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, os.ErrExist)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
