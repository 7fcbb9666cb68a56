package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vegaslive/server/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Table  TableSettings  `hcl:"table,block"`
	Redis  *RedisSettings `hcl:"redis,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// TableSettings configures the single shared table
type TableSettings struct {
	BetFloor        int64 `hcl:"bet_floor,optional"`
	BetCap          int64 `hcl:"bet_cap,optional"`
	StartingBalance int64 `hcl:"starting_balance,optional"`
	TotalCards      int   `hcl:"total_cards,optional"`
	HandSize        int   `hcl:"hand_size,optional"`
	Bots            int   `hcl:"bots,optional"`
}

// RedisSettings enables the Redis-backed store when present
type RedisSettings struct {
	Address  string `hcl:"address"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
	Prefix   string `hcl:"prefix,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "vegaslive-server.log",
		},
		Table: TableSettings{
			BetFloor:        10,
			BetCap:          200,
			StartingBalance: 10000,
			TotalCards:      5,
			HandSize:        6,
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Missing file falls back to defaults
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = defaults.Server.LogFile
	}
	if config.Table.BetFloor == 0 {
		config.Table.BetFloor = defaults.Table.BetFloor
	}
	if config.Table.BetCap == 0 {
		config.Table.BetCap = defaults.Table.BetCap
	}
	if config.Table.StartingBalance == 0 {
		config.Table.StartingBalance = defaults.Table.StartingBalance
	}
	if config.Table.TotalCards == 0 {
		config.Table.TotalCards = defaults.Table.TotalCards
	}
	if config.Table.HandSize == 0 {
		config.Table.HandSize = defaults.Table.HandSize
	}
	if config.Redis != nil && config.Redis.Prefix == "" {
		config.Redis.Prefix = "vegaslive"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Table.BetFloor <= 0 {
		return fmt.Errorf("table: bet floor must be positive")
	}
	if c.Table.BetCap < c.Table.BetFloor {
		return fmt.Errorf("table: bet cap must be at least the bet floor")
	}
	if c.Table.StartingBalance <= 0 {
		return fmt.Errorf("table: starting balance must be positive")
	}
	if c.Table.TotalCards < 1 || c.Table.TotalCards > 13 {
		return fmt.Errorf("table: total cards must be between 1 and 13")
	}
	if c.Table.HandSize < 1 || c.Table.HandSize > 52 {
		return fmt.Errorf("table: hand size must be between 1 and 52")
	}
	if c.Table.Bots < 0 {
		return fmt.Errorf("table: bots cannot be negative")
	}

	if c.Redis != nil && c.Redis.Address == "" {
		return fmt.Errorf("redis: address is required")
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameConfig converts the table settings into engine configuration
func (c *ServerConfig) GameConfig() game.Config {
	return game.Config{
		BetFloor:        game.Cents(c.Table.BetFloor),
		BetCap:          game.Cents(c.Table.BetCap),
		StartingBalance: game.Cents(c.Table.StartingBalance),
		TotalCards:      c.Table.TotalCards,
		HandSize:        c.Table.HandSize,
	}
}
