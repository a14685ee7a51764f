package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPath = "configs/nuggets.toml"

	MaxPlayersLimit = 26
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Gold    GoldConfig    `toml:"gold"`
	Scripts ScriptsConfig `toml:"scripts"`
}

type ServerConfig struct {
	Name          string `toml:"name"`
	Port          int    `toml:"port"`
	WebPort       int    `toml:"web_port"`
	Ping          bool   `toml:"ping"`
	MaxPlayers    int    `toml:"max_players"`
	MaxNameLength int    `toml:"max_name_length"`
	BansFile      string `toml:"bans_file"`

	// logging configuration
	LogToFile bool `toml:"log_to_file"`
}

type GoldConfig struct {
	Total    int `toml:"total"`
	MinPiles int `toml:"min_piles"`
	MaxPiles int `toml:"max_piles"`
}

type ScriptsConfig struct {
	Gamemode string `toml:"gamemode"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func LoadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "nuggets"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 32887
	}
	if c.Server.MaxPlayers == 0 {
		c.Server.MaxPlayers = MaxPlayersLimit
	}
	if c.Server.MaxNameLength == 0 {
		c.Server.MaxNameLength = 50
	}

	// gold defaults
	if c.Gold.Total == 0 {
		c.Gold.Total = 250
	}
	if c.Gold.MinPiles == 0 {
		c.Gold.MinPiles = 10
	}
	if c.Gold.MaxPiles == 0 {
		c.Gold.MaxPiles = 30
	}
}

func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server name cannot be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.Ping && c.Server.Port == 65535 {
		return fmt.Errorf("ping responder needs port+1, port %d is too high", c.Server.Port)
	}

	if c.Server.WebPort < 0 || c.Server.WebPort > 65535 {
		return fmt.Errorf("invalid web_port: %d", c.Server.WebPort)
	}

	if c.Server.MaxPlayers <= 0 || c.Server.MaxPlayers > MaxPlayersLimit {
		return fmt.Errorf("max_players must be between 1 and %d", MaxPlayersLimit)
	}

	if c.Server.MaxNameLength <= 0 {
		return fmt.Errorf("max_name_length must be positive")
	}

	if c.Gold.MinPiles <= 0 || c.Gold.MinPiles > c.Gold.MaxPiles {
		return fmt.Errorf("gold piles must satisfy 1 <= min_piles <= max_piles, got %d..%d", c.Gold.MinPiles, c.Gold.MaxPiles)
	}

	if c.Gold.Total < c.Gold.MaxPiles {
		return fmt.Errorf("gold total %d cannot fill %d piles", c.Gold.Total, c.Gold.MaxPiles)
	}

	return nil
}
