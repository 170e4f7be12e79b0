package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Market   MarketConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedDemoUsers   bool
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr            string
	JWTSecret       string
	JWTTTL          time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// MarketConfig holds marketplace settings
type MarketConfig struct {
	CurrenciesFile string
	InvoiceDueIn   time.Duration
}
